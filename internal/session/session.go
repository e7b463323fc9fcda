// Package session implements the cookie-backed session record. The
// cookie is the session: a signed HS256 JWT carrying the account
// snapshot, so it is tamper-evident to the client and there is no
// server-side session table. Destroying a session only clears the
// client's copy.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/obarlas/campuslink/internal/model"
)

const (
	CookieName = "session"
	DefaultTTL = 7 * 24 * time.Hour
)

// ErrNoSession is returned when no usable session exists: the cookie
// is absent, unreadable, expired, or not authenticated. An expired
// session is treated identically to no session.
var ErrNoSession = errors.New("no active session")

// Snapshot is the decoded session state handed to guards and handlers.
type Snapshot struct {
	UserID    string
	Email     string
	Role      model.Role
	Name      string
	IsAuth    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

type claims struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	IsAuth bool   `json:"isAuth"`
	jwt.RegisteredClaims
}

// Manager signs, reads, refreshes and destroys the session cookie.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool

	now func() time.Time
}

// NewManager builds a Manager. secure controls the cookie's Secure
// flag and should be true in production.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// Create issues a fresh authenticated session for the user and sets
// the cookie. Expiry is now+TTL.
func (m *Manager) Create(c echo.Context, u model.User) error {
	now := m.now()
	return m.write(c, Snapshot{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Name:      u.Name,
		IsAuth:    true,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
}

// Read returns the current session snapshot. A missing cookie yields
// ErrNoSession; a present but invalid, expired or unauthenticated
// cookie is destroyed as a side effect before ErrNoSession is
// returned, so a stale session never lingers on the client.
func (m *Manager) Read(c echo.Context) (Snapshot, error) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Snapshot{}, ErrNoSession
	}

	cl := new(claims)
	tok, err := jwt.ParseWithClaims(cookie.Value, cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid || !cl.IsAuth || cl.ExpiresAt == nil {
		m.Destroy(c)
		return Snapshot{}, ErrNoSession
	}

	snap := Snapshot{
		UserID:    cl.Subject,
		Email:     cl.Email,
		Role:      model.Role(cl.Role),
		Name:      cl.Name,
		IsAuth:    cl.IsAuth,
		ExpiresAt: cl.ExpiresAt.Time,
	}
	if cl.IssuedAt != nil {
		snap.CreatedAt = cl.IssuedAt.Time
	}
	return snap, nil
}

// Refresh pushes the session expiry to now+TTL, keeping the sliding
// window alive. A request without a valid session is a no-op.
func (m *Manager) Refresh(c echo.Context) error {
	snap, err := m.Read(c)
	if err != nil {
		return nil
	}
	snap.ExpiresAt = m.now().Add(m.ttl)
	return m.write(c, snap)
}

// Destroy clears the session cookie entirely. Because the cookie is
// the only session state there is nothing server-side to revoke.
func (m *Manager) Destroy(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) write(c echo.Context, snap Snapshot) error {
	cl := &claims{
		Email:  snap.Email,
		Role:   string(snap.Role),
		Name:   snap.Name,
		IsAuth: snap.IsAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   snap.UserID,
			IssuedAt:  jwt.NewNumericDate(snap.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(snap.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
