package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// opaque tokens carry 256 bits of entropy, rendered as 64 hex chars
const tokenBytes = 32

// TokenKind selects the expiry window for an issued token.
type TokenKind int

const (
	KindVerification TokenKind = iota
	KindPasswordReset
)

const (
	verificationTTL  = 24 * time.Hour
	passwordResetTTL = time.Hour
)

// NewOpaqueToken returns a hex-encoded string generated from 32 bytes
// of cryptographically secure random data. There is no sequential or
// otherwise predictable component.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ExpiryFor returns the expiry timestamp for a token of the given kind,
// anchored at now. Verification tokens live 24h, reset tokens 1h.
func ExpiryFor(kind TokenKind, now time.Time) time.Time {
	if kind == KindPasswordReset {
		return now.Add(passwordResetTTL)
	}
	return now.Add(verificationTTL)
}
