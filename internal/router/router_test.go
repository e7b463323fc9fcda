package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obarlas/campuslink/internal/handler"
	"github.com/obarlas/campuslink/internal/mail"
	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/repository"
	"github.com/obarlas/campuslink/internal/service"
	"github.com/obarlas/campuslink/internal/session"
)

// stubUsers serves one fixed account by id and nothing by email.
type stubUsers struct{ user model.User }

func (s *stubUsers) CreateWithProfile(context.Context, *model.User) error { return nil }
func (s *stubUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, repository.ErrNotFound
}
func (s *stubUsers) GetByID(_ context.Context, id string) (model.User, error) {
	if id == s.user.ID {
		return s.user, nil
	}
	return model.User{}, repository.ErrNotFound
}
func (s *stubUsers) UpdatePassword(context.Context, string, string) error       { return nil }
func (s *stubUsers) MarkEmailVerified(context.Context, string, time.Time) error { return nil }
func (s *stubUsers) UpdateLastLogin(context.Context, string, time.Time) error   { return nil }
func (s *stubUsers) SetActive(context.Context, string, bool) error              { return nil }
func (s *stubUsers) SetSuspended(context.Context, string, bool) error           { return nil }

type stubTokens struct{}

func (stubTokens) Replace(context.Context, string, string, time.Time) error { return nil }
func (stubTokens) FindByToken(context.Context, string) (model.Token, error) {
	return model.Token{}, repository.ErrNotFound
}
func (stubTokens) DeleteByToken(context.Context, string) error     { return nil }
func (stubTokens) DeleteByUserID(context.Context, string) error    { return nil }
func (stubTokens) DeleteAllExpired(context.Context) (int64, error) { return 0, nil }

type stubMailer struct{}

func (stubMailer) Send(context.Context, mail.Kind, string, string, string, string) error {
	return nil
}

func newTestServer(u model.User) (*echo.Echo, *session.Manager) {
	svc := service.NewAuthService(&stubUsers{user: u}, stubTokens{}, stubTokens{}, stubMailer{},
		service.DefaultRateLimits(), 4)
	sessions := session.NewManager("test-secret", time.Hour, false)

	e := echo.New()
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(svc, sessions), sessions)
	RegisterAdmin(e, handler.NewAdminHandler(svc), sessions)
	return e, sessions
}

func cookieFor(t *testing.T, sessions *session.Manager, u model.User) *http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Create(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), u))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func serve(e *echo.Echo, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicResendVerificationReachableWithoutSession(t *testing.T) {
	e, _ := newTestServer(model.User{})

	rec := serve(e, http.MethodPost, "/v1/auth/resend-verification", `{"email":""}`, nil)

	// the public handler must answer, not the session middleware
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Email is required", out["error"])
}

func TestPublicResendVerification_UnknownEmailSucceeds(t *testing.T) {
	e, _ := newTestServer(model.User{})

	rec := serve(e, http.MethodPost, "/v1/auth/resend-verification", `{"email":"nobody@example.edu"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountResendVerificationRequiresSession(t *testing.T) {
	u := model.User{ID: "u-1", Email: "pending@example.edu", Role: model.RoleStudent, IsActive: true}
	e, sessions := newTestServer(u)

	rec := serve(e, http.MethodPost, "/v1/account/resend-verification", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/v1/account/resend-verification", "", cookieFor(t, sessions, u))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAdministrator(t *testing.T) {
	student := model.User{ID: "u-1", Email: "ada@example.edu", Role: model.RoleStudent, IsActive: true}
	e, sessions := newTestServer(student)

	rec := serve(e, http.MethodPost, "/v1/admin/users/u-1/suspend", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/v1/admin/users/u-1/suspend", "", cookieFor(t, sessions, student))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := model.User{ID: "u-1", Email: "root@example.edu", Role: model.RoleAdministrator, IsActive: true}
	e2, sessions2 := newTestServer(admin)
	rec = serve(e2, http.MethodPost, "/v1/admin/users/u-1/suspend", "", cookieFor(t, sessions2, admin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(model.User{})
	rec := serve(e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
