package middleware

import (
	"context"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/session"
)

// Paths known to the guard. Role-gated prefixes imply protection;
// public paths are anything that is neither auth-only, protected nor
// role-gated.
const (
	LoginPath         = "/login"
	DashboardPath     = "/dashboard"
	VerifyPendingPath = "/verify-email-pending"
	AccessDeniedPath  = "/access-denied"
)

var authPages = []string{"/login", "/register", "/forgot-password"}

var protectedPrefixes = []string{"/dashboard", "/profile", "/projects", "/applications", "/settings"}

var roleGated = []struct {
	Prefix string
	Roles  []model.Role
}{
	{"/admin", []model.Role{model.RoleAdministrator}},
	{"/coordinator", []model.Role{model.RoleCoordinator}},
	{"/organization", []model.Role{model.RoleOrganization}},
	{"/student", []model.Role{model.RoleStudent}},
}

// Decision is the guard's verdict for one request: either allow, or
// redirect to the given location.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// Decide maps (path, session validity, verification state, role) to a
// verdict. Rules apply in order: unauthenticated access to guarded
// paths goes to login with the intended path preserved; unverified
// accounts are parked on the verify-pending page; a role mismatch
// lands on access-denied carrying the accepted roles; signed-in users
// are bounced off the auth-only pages.
func Decide(path string, authed, emailVerified bool, role model.Role) Decision {
	guarded := isProtected(path) || isRoleGated(path)

	if !authed {
		if guarded {
			return redirect(LoginPath + "?redirect=" + path)
		}
		return allow()
	}

	if !emailVerified && guarded && path != VerifyPendingPath {
		return redirect(VerifyPendingPath)
	}

	if required, gated := requiredRoles(path); gated && !roleAllowed(role, required) {
		return redirect(AccessDeniedPath + "?required=" + joinRoles(required))
	}

	if isAuthPage(path) {
		if !emailVerified {
			return redirect(VerifyPendingPath)
		}
		return redirect(DashboardPath)
	}

	return allow()
}

func isAuthPage(path string) bool {
	for _, p := range authPages {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func isRoleGated(path string) bool {
	_, gated := requiredRoles(path)
	return gated
}

func requiredRoles(path string) ([]model.Role, bool) {
	for _, g := range roleGated {
		if path == g.Prefix || strings.HasPrefix(path, g.Prefix+"/") {
			return g.Roles, true
		}
	}
	return nil, false
}

func roleAllowed(role model.Role, required []model.Role) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

func joinRoles(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Directory is the one live lookup the guard performs per request:
// the session snapshot is never trusted for verification status,
// since verification can happen after session issuance.
type Directory interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Guard returns the page middleware applying Decide to every request.
// Reading the session destroys a stale cookie as a side effect, and a
// live session gets its sliding window refreshed before the verdict.
func Guard(sessions *session.Manager, users Directory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			snap, err := sessions.Read(c)
			authed := err == nil

			emailVerified := false
			if authed {
				u, err := users.GetByID(c.Request().Context(), snap.UserID)
				if err != nil || !u.IsActive || u.IsSuspended {
					// Account gone, deactivated or suspended: the session
					// no longer proves anything.
					sessions.Destroy(c)
					authed = false
				} else {
					emailVerified = u.EmailVerified()
					if err := sessions.Refresh(c); err != nil {
						return err
					}
					c.Set("session", snap)
				}
			}

			d := Decide(path, authed, emailVerified, snap.Role)
			if !d.Allow {
				return c.Redirect(302, d.Redirect)
			}
			return next(c)
		}
	}
}
