// Package service implements the authentication workflows: sign-up,
// sign-in, email verification, password reset and verification
// resend. Every workflow consults its rate limiter before touching
// any state and returns either a value or a typed error; persistence
// and mail failures propagate as plain errors for the handler layer
// to log and translate into a generic message.
package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/obarlas/campuslink/internal/mail"
	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/ratelimit"
	"github.com/obarlas/campuslink/internal/repository"
	"github.com/obarlas/campuslink/internal/utils"
)

// Per-endpoint rate limit policies. Sign-in, sign-up and reset
// requests are keyed by client IP; verification resend is keyed by
// the target email so one abuser cannot lock out an IP-shared NAT.
const (
	SignInLimit        = 5
	SignUpLimit        = 3
	PasswordResetLimit = 3
	ResendLimit        = 3
)

// UserDirectory is the account store consumed by the workflows.
type UserDirectory interface {
	CreateWithProfile(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	SetSuspended(ctx context.Context, id string, suspended bool) error
}

// TokenStore persists single-use opaque tokens with replace-on-issue
// semantics.
type TokenStore interface {
	Replace(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindByToken(ctx context.Context, token string) (model.Token, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteAllExpired(ctx context.Context) (int64, error)
}

// RateLimits bundles the per-endpoint limiters. They are process
// scoped, constructed once at startup and injected here.
type RateLimits struct {
	SignIn        *ratelimit.Limiter
	SignUp        *ratelimit.Limiter
	PasswordReset *ratelimit.Limiter
	Resend        *ratelimit.Limiter
}

// DefaultRateLimits returns limiters with the standard windows:
// 15 minutes for sign-in, one hour for everything else.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		SignIn:        ratelimit.New(15*time.Minute, 0),
		SignUp:        ratelimit.New(time.Hour, 0),
		PasswordReset: ratelimit.New(time.Hour, 0),
		Resend:        ratelimit.New(time.Hour, 0),
	}
}

// AuthService orchestrates the authentication workflows.
type AuthService struct {
	users      UserDirectory
	verifyTok  TokenStore
	resetTok   TokenStore
	mailer     mail.Mailer
	limits     RateLimits
	bcryptCost int

	now func() time.Time
}

func NewAuthService(users UserDirectory, verifyTok, resetTok TokenStore, mailer mail.Mailer, limits RateLimits, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = utils.DefaultBcryptCost
	}
	return &AuthService{
		users:      users,
		verifyTok:  verifyTok,
		resetTok:   resetTok,
		mailer:     mailer,
		limits:     limits,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type SignInInput struct {
	Email    string
	Password string
}

// SignUp registers a new account with its role profile, issues a
// verification token and sends the verification mail. The returned
// user is signed in by the caller; the account stays unverified until
// the emailed token is redeemed.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, clientIP, locale string) (model.User, error) {
	if err := s.checkLimit(s.limits.SignUp, SignUpLimit, clientIP); err != nil {
		return model.User{}, err
	}
	if msg := validateSignUp(in); msg != "" {
		return model.User{}, validationErr(msg)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, authErr("auth.emailAlreadyExists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Name:         in.Name,
		IsActive:     true,
	}
	// The unique index is the real uniqueness guarantee; the lookup
	// above only provides a friendlier early exit.
	if err := s.users.CreateWithProfile(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, authErr("auth.emailAlreadyExists")
		}
		return model.User{}, err
	}

	if err := s.issueAndMail(ctx, mail.KindVerification, u, locale); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SignIn verifies credentials. A missing account, an account without
// a password and a wrong password all produce the same
// auth.invalidCredentials failure so responses cannot be used to
// enumerate accounts. Deactivation and suspension are only revealed
// after the credentials proved account ownership.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput, clientIP string) (model.User, error) {
	if err := s.checkLimit(s.limits.SignIn, SignInLimit, clientIP); err != nil {
		return model.User{}, err
	}
	if msg := validateSignIn(in); msg != "" {
		return model.User{}, validationErr(msg)
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, authErr("auth.invalidCredentials")
	}
	if err != nil {
		return model.User{}, err
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return model.User{}, authErr("auth.invalidCredentials")
	}
	if !u.IsActive {
		return model.User{}, authErr("auth.accountDeactivated")
	}
	if u.IsSuspended {
		return model.User{}, authErr("auth.accountSuspended")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return model.User{}, err
	}
	u.LastLoginAt = &now
	return u, nil
}

// VerifyEmail redeems a verification token. An expired token is
// deleted before the failure is reported, so a retry yields
// auth.invalidToken rather than auth.tokenExpired. The welcome mail
// is best effort and never fails the verification.
func (s *AuthService) VerifyEmail(ctx context.Context, token, locale string) error {
	rec, err := s.verifyTok.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return authErr("auth.invalidToken")
	}
	if err != nil {
		return err
	}
	if rec.Expired(s.now()) {
		if err := s.verifyTok.DeleteByToken(ctx, token); err != nil {
			return err
		}
		return authErr("auth.tokenExpired")
	}

	if err := s.users.MarkEmailVerified(ctx, rec.UserID, s.now()); err != nil {
		return err
	}
	if err := s.verifyTok.DeleteByToken(ctx, token); err != nil {
		return err
	}

	if u, err := s.users.GetByID(ctx, rec.UserID); err == nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.mailer.Send(ctx, mail.KindWelcome, u.Email, u.Name, "", locale); err != nil {
				log.Printf("auth: welcome mail to %s failed: %v", u.Email, err)
			}
		}()
	}
	return nil
}

// RequestPasswordReset issues a reset token and mails it. When no
// account matches the email it returns success without doing
// anything, so the response never reveals whether an account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, clientIP, locale string) error {
	if err := s.checkLimit(s.limits.PasswordReset, PasswordResetLimit, clientIP); err != nil {
		return err
	}
	if msg := validateEmail(email); msg != "" {
		return validationErr(msg)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.issueAndMail(ctx, mail.KindPasswordReset, u, locale)
}

// ResetPassword redeems a reset token and replaces the password. The
// user signs in again afterwards; no session is created here.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if msg := validatePasswordReset(token, password); msg != "" {
		return validationErr(msg)
	}

	rec, err := s.resetTok.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return authErr("auth.invalidResetToken")
	}
	if err != nil {
		return err
	}
	if rec.Expired(s.now()) {
		if err := s.resetTok.DeleteByToken(ctx, token); err != nil {
			return err
		}
		return authErr("auth.tokenExpired")
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, rec.UserID, hash); err != nil {
		return err
	}
	return s.resetTok.DeleteByToken(ctx, token)
}

// VerifyResetToken checks a reset token without consuming it, for the
// reset form to validate its link up front. An expired token is still
// deleted.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) error {
	rec, err := s.resetTok.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return authErr("auth.invalidResetToken")
	}
	if err != nil {
		return err
	}
	if rec.Expired(s.now()) {
		if err := s.resetTok.DeleteByToken(ctx, token); err != nil {
			return err
		}
		return authErr("auth.tokenExpired")
	}
	return nil
}

// ResendVerification re-issues the verification token for an
// unauthenticated caller. Unknown and already-verified emails return
// success without sending anything (enumeration resistance); the rate
// limit is keyed by the target email.
func (s *AuthService) ResendVerification(ctx context.Context, email, locale string) error {
	if err := s.checkLimit(s.limits.Resend, ResendLimit, email); err != nil {
		return err
	}
	if msg := validateEmail(email); msg != "" {
		return validationErr(msg)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.EmailVerified() {
		return nil
	}
	return s.issueAndMail(ctx, mail.KindVerification, u, locale)
}

// ResendVerificationAuthenticated re-issues the verification token
// for the signed-in user. The session already proves identity, so an
// already-verified account gets a specific failure here.
func (s *AuthService) ResendVerificationAuthenticated(ctx context.Context, userID, locale string) error {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return authErr("auth.userNotFound")
	}
	if err != nil {
		return err
	}
	if u.EmailVerified() {
		return authErr("auth.alreadyVerified")
	}
	return s.issueAndMail(ctx, mail.KindVerification, u, locale)
}

// ChangePassword replaces the password of a signed-in user after
// re-verifying the current one. Reusing the current password is
// rejected.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if msg := validateChangePassword(current, next); msg != "" {
		return validationErr(msg)
	}

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return authErr("auth.userNotFound")
	}
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return authErr("auth.userNotFound")
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return authErr("auth.invalidPassword")
	}
	if utils.VerifyPassword(u.PasswordHash, next) {
		return authErr("auth.samePassword")
	}

	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// DeactivateAccount soft-deletes the account; sign-in refuses
// deactivated accounts even with correct credentials.
func (s *AuthService) DeactivateAccount(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return authErr("auth.userNotFound")
		}
		return err
	}
	return s.users.SetActive(ctx, userID, false)
}

// ReactivateAccount undoes a deactivation; consumed by admin tooling.
func (s *AuthService) ReactivateAccount(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return authErr("auth.userNotFound")
		}
		return err
	}
	return s.users.SetActive(ctx, userID, true)
}

// SetSuspension flips the suspension flag on an account. A suspended
// account cannot sign in; existing session cookies die at the next
// guarded request because the guard re-reads the account.
func (s *AuthService) SetSuspension(ctx context.Context, userID string, suspended bool) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return authErr("auth.userNotFound")
		}
		return err
	}
	return s.users.SetSuspended(ctx, userID, suspended)
}

// issueAndMail replaces the user's live token of the given kind and
// sends the matching mail. The send is awaited: the whole point of
// these workflows is delivering that mail, so a transport failure
// must surface.
func (s *AuthService) issueAndMail(ctx context.Context, kind mail.Kind, u model.User, locale string) error {
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return err
	}

	store, tokenKind := s.verifyTok, utils.KindVerification
	if kind == mail.KindPasswordReset {
		store, tokenKind = s.resetTok, utils.KindPasswordReset
	}
	if err := store.Replace(ctx, u.ID, token, utils.ExpiryFor(tokenKind, s.now())); err != nil {
		return err
	}
	return s.mailer.Send(ctx, kind, u.Email, u.Name, token, locale)
}

func (s *AuthService) checkLimit(l *ratelimit.Limiter, limit int, identifier string) error {
	res := l.Check(limit, identifier)
	if res.Allowed {
		return nil
	}
	minutes := int(math.Ceil(res.ResetAt.Sub(s.now()).Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return &AuthError{Key: "auth.tooManyAttempts", Params: map[string]any{"minutes": minutes}}
}
