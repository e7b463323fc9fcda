package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/repository"
	"github.com/obarlas/campuslink/internal/session"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authed        bool
		emailVerified bool
		role          model.Role
		wantAllow     bool
		wantRedirect  string
	}{
		{
			name:      "anonymous on public page",
			path:      "/about",
			wantAllow: true,
		},
		{
			name:      "anonymous on login page",
			path:      "/login",
			wantAllow: true,
		},
		{
			name:         "anonymous on protected page",
			path:         "/dashboard",
			wantRedirect: "/login?redirect=/dashboard",
		},
		{
			name:         "anonymous deep link keeps full path",
			path:         "/projects/42/edit",
			wantRedirect: "/login?redirect=/projects/42/edit",
		},
		{
			name:         "anonymous on role-gated page",
			path:         "/admin/users",
			wantRedirect: "/login?redirect=/admin/users",
		},
		{
			name:         "unverified on protected page",
			path:         "/dashboard",
			authed:       true,
			role:         model.RoleStudent,
			wantRedirect: "/verify-email-pending",
		},
		{
			name:         "unverified on auth page",
			path:         "/login",
			authed:       true,
			role:         model.RoleStudent,
			wantRedirect: "/verify-email-pending",
		},
		{
			name:      "unverified on public page",
			path:      "/about",
			authed:    true,
			role:      model.RoleStudent,
			wantAllow: true,
		},
		{
			name:          "verified student on own area",
			path:          "/student/courses",
			authed:        true,
			emailVerified: true,
			role:          model.RoleStudent,
			wantAllow:     true,
		},
		{
			name:          "verified student on admin area",
			path:          "/admin",
			authed:        true,
			emailVerified: true,
			role:          model.RoleStudent,
			wantRedirect:  "/access-denied?required=ADMINISTRATOR",
		},
		{
			name:          "verified coordinator on organization area",
			path:          "/organization/listings",
			authed:        true,
			emailVerified: true,
			role:          model.RoleCoordinator,
			wantRedirect:  "/access-denied?required=ORGANIZATION",
		},
		{
			name:          "verified user bounced off login",
			path:          "/login",
			authed:        true,
			emailVerified: true,
			role:          model.RoleStudent,
			wantRedirect:  "/dashboard",
		},
		{
			name:          "verified user bounced off register",
			path:          "/register",
			authed:        true,
			emailVerified: true,
			role:          model.RoleOrganization,
			wantRedirect:  "/dashboard",
		},
		{
			name:          "verified user on protected page",
			path:          "/settings",
			authed:        true,
			emailVerified: true,
			role:          model.RoleStudent,
			wantAllow:     true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.path, tc.authed, tc.emailVerified, tc.role)
			assert.Equal(t, tc.wantAllow, d.Allow)
			assert.Equal(t, tc.wantRedirect, d.Redirect)
		})
	}
}

type stubDirectory struct {
	user model.User
	err  error
}

func (s stubDirectory) GetByID(context.Context, string) (model.User, error) {
	return s.user, s.err
}

func runGuard(t *testing.T, path string, cookie *http.Cookie, users Directory, sessions *session.Manager) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	h := Guard(sessions, users)(func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})
	require.NoError(t, h(c))
	return rec
}

func sessionCookie(t *testing.T, m *session.Manager, u model.User) *http.Cookie {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Create(e.NewContext(req, rec), u))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestGuard_AnonymousRedirectedToLogin(t *testing.T) {
	m := session.NewManager("test-secret", time.Hour, false)
	rec := runGuard(t, "/dashboard", nil, stubDirectory{}, m)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/dashboard", rec.Header().Get("Location"))
}

func TestGuard_VerifiedUserPassesAndSessionRefreshes(t *testing.T) {
	m := session.NewManager("test-secret", time.Hour, false)
	at := time.Now().Add(-time.Hour)
	u := model.User{ID: "u-1", Email: "ada@example.edu", Role: model.RoleStudent, EmailVerifiedAt: &at, IsActive: true}

	rec := runGuard(t, "/dashboard", sessionCookie(t, m, u), stubDirectory{user: u}, m)

	assert.Equal(t, http.StatusOK, rec.Code)
	// refresh re-sets the cookie with a pushed-out expiry
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestGuard_DeletedAccountDropsSession(t *testing.T) {
	m := session.NewManager("test-secret", time.Hour, false)
	u := model.User{ID: "u-1", Email: "ada@example.edu", Role: model.RoleStudent}

	rec := runGuard(t, "/dashboard", sessionCookie(t, m, u),
		stubDirectory{err: repository.ErrNotFound}, m)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/dashboard", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, -1, cookies[len(cookies)-1].MaxAge, "the stale cookie must be cleared")
}

func TestGuard_SuspendedAccountDropsSession(t *testing.T) {
	m := session.NewManager("test-secret", time.Hour, false)
	at := time.Now().Add(-time.Hour)
	u := model.User{ID: "u-1", Email: "ada@example.edu", Role: model.RoleStudent, EmailVerifiedAt: &at, IsActive: true, IsSuspended: true}

	rec := runGuard(t, "/dashboard", sessionCookie(t, m, u), stubDirectory{user: u}, m)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/dashboard", rec.Header().Get("Location"))
}

func TestGuard_TamperedCookieIsAnonymous(t *testing.T) {
	m := session.NewManager("test-secret", time.Hour, false)
	forged := session.NewManager("other-secret", time.Hour, false)
	u := model.User{ID: "u-1", Email: "eve@example.edu", Role: model.RoleAdministrator}

	rec := runGuard(t, "/admin", sessionCookie(t, forged, u), stubDirectory{user: u}, m)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/admin", rec.Header().Get("Location"))
}
