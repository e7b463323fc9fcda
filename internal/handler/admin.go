package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/i18n"
	"github.com/obarlas/campuslink/internal/service"
)

// AdminHandler exposes account management for administrators. Routes
// are mounted behind RequireSession and RequireRole(ADMINISTRATOR).
type AdminHandler struct {
	Svc *service.AuthService
}

func NewAdminHandler(svc *service.AuthService) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

// ReactivateAccount undoes a user's self-deactivation.
func (h *AdminHandler) ReactivateAccount(c echo.Context) error {
	return h.respond(c, h.Svc.ReactivateAccount(c.Request().Context(), c.Param("id")))
}

// SuspendAccount blocks an account from signing in.
func (h *AdminHandler) SuspendAccount(c echo.Context) error {
	return h.respond(c, h.Svc.SetSuspension(c.Request().Context(), c.Param("id"), true))
}

// UnsuspendAccount lifts a suspension.
func (h *AdminHandler) UnsuspendAccount(c echo.Context) error {
	return h.respond(c, h.Svc.SetSuspension(c.Request().Context(), c.Param("id"), false))
}

func (h *AdminHandler) respond(c echo.Context, err error) error {
	if err != nil {
		locale := i18n.FromRequest(c.Request())
		var aErr *service.AuthError
		if errors.As(err, &aErr) {
			return c.JSON(statusFor(aErr.Key), echo.Map{
				"success": false,
				"error":   i18n.T(locale, "errors."+aErr.Key, aErr.Params),
			})
		}
		c.Logger().Errorf("admin: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   i18n.T(locale, "errors.validation.invalidInput", nil),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
