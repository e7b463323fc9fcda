package model

import "time"

// Token models a row in the verification_tokens or
// password_reset_tokens table. The token string itself is the
// primary key; at most one live token exists per user because
// issuing a new one replaces any prior row for that user.
type Token struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its deadline at the given time.
func (t Token) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }
