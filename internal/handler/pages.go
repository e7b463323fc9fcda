package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/session"
)

// Page handlers back the navigable paths the route guard watches.
// Rendering itself lives in the frontend; these endpoints exist so
// the guard's redirect rules apply to real routes and return a small
// JSON payload the frontend shell can hydrate from.

// Page returns a handler identifying the page by name.
func Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := echo.Map{"page": name}
		if snap, ok := c.Get("session").(session.Snapshot); ok {
			body["user"] = echo.Map{
				"id":    snap.UserID,
				"email": snap.Email,
				"role":  string(snap.Role),
				"name":  snap.Name,
			}
		}
		if required := c.QueryParam("required"); required != "" {
			body["required"] = required
		}
		if redirect := c.QueryParam("redirect"); redirect != "" {
			body["redirect"] = redirect
		}
		return c.JSON(http.StatusOK, body)
	}
}
