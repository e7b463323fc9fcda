// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/handler"
	"github.com/obarlas/campuslink/internal/middleware"
	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/session"
)

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication API. Unauthenticated
// workflows live under /v1/auth; endpoints that need a live session
// go through RequireSession.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessions *session.Manager) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/verify-email", a.VerifyEmail)
	g.POST("/password-reset/request", a.RequestPasswordReset)
	g.POST("/password-reset/confirm", a.ResetPassword)
	g.GET("/password-reset/verify", a.VerifyResetToken)
	g.POST("/resend-verification", a.ResendVerification)

	// Authenticated account endpoints live under /v1/account so they
	// cannot collide with the public /v1/auth paths above.
	auth := e.Group("/v1")
	auth.Use(middleware.RequireSession(sessions))
	auth.GET("/me", a.Me)
	auth.POST("/account/resend-verification", a.ResendVerificationAuthenticated)
	auth.POST("/account/change-password", a.ChangePassword)
	auth.POST("/account/deactivate", a.DeactivateAccount)
}

// RegisterAdmin registers the administrator-only account management
// endpoints.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, sessions *session.Manager) {
	g := e.Group("/v1/admin")
	g.Use(middleware.RequireSession(sessions))
	g.Use(middleware.RequireRole(string(model.RoleAdministrator)))
	g.POST("/users/:id/reactivate", a.ReactivateAccount)
	g.POST("/users/:id/suspend", a.SuspendAccount)
	g.POST("/users/:id/unsuspend", a.UnsuspendAccount)
}

// RegisterPages registers the navigable page routes behind the route
// guard. The guard decides allow-or-redirect per request; the page
// handlers only identify the page for the frontend shell.
func RegisterPages(e *echo.Echo, sessions *session.Manager, users middleware.Directory) {
	guard := middleware.Guard(sessions, users)

	pages := []string{
		"/",
		"/login",
		"/register",
		"/forgot-password",
		"/reset-password",
		"/verify-email",
		"/verify-email-pending",
		"/access-denied",
		"/dashboard",
		"/profile",
		"/settings",
		"/admin",
		"/coordinator",
		"/organization",
		"/student",
	}
	for _, p := range pages {
		name := p
		if name == "/" {
			name = "/home"
		}
		e.GET(p, handler.Page(name[1:]), guard)
	}
}
