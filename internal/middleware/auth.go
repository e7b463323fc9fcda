package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/session"
)

// RequireSession guards API endpoints. A missing or stale session
// yields 401; otherwise the snapshot is stored in the context under
// "session" and the user id and role under "user_id" and "role" for
// downstream handlers and RequireRole.
func RequireSession(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap, err := sessions.Read(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "not authenticated"})
			}
			c.Set("session", snap)
			c.Set("user_id", snap.UserID)
			c.Set("role", string(snap.Role))
			return next(c)
		}
	}
}
