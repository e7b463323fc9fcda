package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/i18n"
	"github.com/obarlas/campuslink/internal/middleware"
	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/service"
	"github.com/obarlas/campuslink/internal/session"
)

// AuthHandler bundles dependencies for the auth endpoints. Sessions
// are created and destroyed here, at the HTTP boundary; the service
// layer never touches cookies.
type AuthHandler struct {
	Svc      *service.AuthService
	Sessions *session.Manager
}

func NewAuthHandler(svc *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetConfirmReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userPart struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

func userToPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Role: string(u.Role), Name: u.Name, EmailVerified: u.EmailVerified()}
}

// Register creates the account, signs the user in and reports that
// verification is still pending.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())

	u, err := h.Svc.SignUp(c.Request().Context(), service.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	}, c.RealIP(), locale)
	if err != nil {
		return h.fail(c, err, locale, "auth.signUpFailed")
	}

	if err := h.Sessions.Create(c, u); err != nil {
		c.Logger().Errorf("register: session create: %v", err)
		return h.fail(c, err, locale, "auth.signUpFailed")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":           true,
		"needsVerification": true,
		"user":              userToPart(u),
	})
}

// Login verifies credentials and issues the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())

	u, err := h.Svc.SignIn(c.Request().Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	}, c.RealIP())
	if err != nil {
		return h.fail(c, err, locale, "auth.signInFailed")
	}

	if err := h.Sessions.Create(c, u); err != nil {
		c.Logger().Errorf("login: session create: %v", err)
		return h.fail(c, err, locale, "auth.signInFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": userToPart(u)})
}

// Logout destroys the session cookie and redirects to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.Destroy(c)
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

// VerifyEmail redeems the token from the emailed link.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	locale := i18n.FromRequest(c.Request())
	token := c.QueryParam("token")

	if err := h.Svc.VerifyEmail(c.Request().Context(), token, locale); err != nil {
		return h.fail(c, err, locale, "auth.verificationFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RequestPasswordReset always answers with the same neutral success
// message so responses cannot reveal whether an account exists.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())

	if err := h.Svc.RequestPasswordReset(c.Request().Context(), req.Email, c.RealIP(), locale); err != nil {
		return h.fail(c, err, locale, "auth.resetRequestFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": i18n.T(locale, "success.auth.resetEmailSent", nil),
	})
}

// ResetPassword consumes the reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())

	if err := h.Svc.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return h.fail(c, err, locale, "auth.resetFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// VerifyResetToken lets the reset form validate its link up front.
func (h *AuthHandler) VerifyResetToken(c echo.Context) error {
	locale := i18n.FromRequest(c.Request())

	if err := h.Svc.VerifyResetToken(c.Request().Context(), c.QueryParam("token")); err != nil {
		return h.fail(c, err, locale, "auth.tokenVerificationFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ResendVerification is the unauthenticated resend; like the reset
// request it never reveals whether the email is registered.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())

	if err := h.Svc.ResendVerification(c.Request().Context(), req.Email, locale); err != nil {
		return h.fail(c, err, locale, "auth.resendFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": i18n.T(locale, "success.auth.verificationEmailSent", nil),
	})
}

// ResendVerificationAuthenticated is the resend for a signed-in user.
func (h *AuthHandler) ResendVerificationAuthenticated(c echo.Context) error {
	locale := i18n.FromRequest(c.Request())
	userID, _ := c.Get("user_id").(string)

	if err := h.Svc.ResendVerificationAuthenticated(c.Request().Context(), userID, locale); err != nil {
		return h.fail(c, err, locale, "auth.resendFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": i18n.T(locale, "success.auth.verificationEmailSent", nil),
	})
}

// ChangePassword replaces the signed-in user's password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	locale := i18n.FromRequest(c.Request())
	userID, _ := c.Get("user_id").(string)

	if err := h.Svc.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.fail(c, err, locale, "auth.changePasswordFailed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": i18n.T(locale, "success.auth.passwordChanged", nil),
	})
}

// DeactivateAccount soft-deletes the signed-in user's account and
// destroys their session.
func (h *AuthHandler) DeactivateAccount(c echo.Context) error {
	locale := i18n.FromRequest(c.Request())
	userID, _ := c.Get("user_id").(string)

	if err := h.Svc.DeactivateAccount(c.Request().Context(), userID); err != nil {
		return h.fail(c, err, locale, "auth.signInFailed")
	}
	h.Sessions.Destroy(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the current session's account snapshot.
func (h *AuthHandler) Me(c echo.Context) error {
	snap, ok := c.Get("session").(session.Snapshot)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user": echo.Map{
			"id":    snap.UserID,
			"email": snap.Email,
			"role":  string(snap.Role),
			"name":  snap.Name,
		},
	})
}

// fail translates a workflow error into the response contract:
// validation messages verbatim, domain failures through i18n, and
// everything else logged and reduced to the workflow's generic key.
func (h *AuthHandler) fail(c echo.Context, err error, locale, genericKey string) error {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": vErr.Message})
	}
	var aErr *service.AuthError
	if errors.As(err, &aErr) {
		return c.JSON(statusFor(aErr.Key), echo.Map{
			"success": false,
			"error":   i18n.T(locale, "errors."+aErr.Key, aErr.Params),
		})
	}
	c.Logger().Errorf("auth: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"error":   i18n.T(locale, "errors."+genericKey, nil),
	})
}

func statusFor(key string) int {
	switch key {
	case "auth.invalidCredentials", "auth.notAuthenticated":
		return http.StatusUnauthorized
	case "auth.accountDeactivated", "auth.accountSuspended", "auth.invalidPassword":
		return http.StatusForbidden
	case "auth.emailAlreadyExists":
		return http.StatusConflict
	case "auth.tooManyAttempts":
		return http.StatusTooManyRequests
	case "auth.userNotFound":
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
