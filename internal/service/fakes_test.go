package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/obarlas/campuslink/internal/mail"
	"github.com/obarlas/campuslink/internal/model"
	"github.com/obarlas/campuslink/internal/repository"
)

// fakeDirectory is an in-memory UserDirectory with injectable errors.
type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by ID

	createErr error
	getErr    error
	updateErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]*model.User)}
}

func (f *fakeDirectory) add(u model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.users[u.ID] = &u
	return f.users[u.ID]
}

func (f *fakeDirectory) CreateWithProfile(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.ID = uuid.NewString()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeDirectory) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.User{}, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.User{}, f.getErr
	}
	if u, ok := f.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeDirectory) UpdatePassword(_ context.Context, id, hash string) error {
	return f.mutate(id, func(u *model.User) { u.PasswordHash = hash })
}

func (f *fakeDirectory) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	return f.mutate(id, func(u *model.User) { u.EmailVerifiedAt = &at })
}

func (f *fakeDirectory) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return f.mutate(id, func(u *model.User) { u.LastLoginAt = &at })
}

func (f *fakeDirectory) SetActive(_ context.Context, id string, active bool) error {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

func (f *fakeDirectory) SetSuspended(_ context.Context, id string, suspended bool) error {
	return f.mutate(id, func(u *model.User) { u.IsSuspended = suspended })
}

func (f *fakeDirectory) mutate(id string, fn func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

// fakeTokens is an in-memory TokenStore with replace-on-issue
// semantics matching the real repository.
type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]model.Token // keyed by token value

	replaceErr error
	findErr    error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]model.Token)}
}

func (f *fakeTokens) Replace(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	for t, rec := range f.tokens {
		if rec.UserID == userID {
			delete(f.tokens, t)
		}
	}
	f.tokens[token] = model.Token{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeTokens) FindByToken(_ context.Context, token string) (model.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return model.Token{}, f.findErr
	}
	if rec, ok := f.tokens[token]; ok {
		return rec, nil
	}
	return model.Token{}, repository.ErrNotFound
}

func (f *fakeTokens) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokens) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for t, rec := range f.tokens {
		if rec.UserID == userID {
			delete(f.tokens, t)
		}
	}
	return nil
}

func (f *fakeTokens) DeleteAllExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for t, rec := range f.tokens {
		if rec.Expired(now) {
			delete(f.tokens, t)
			n++
		}
	}
	return n, nil
}

// forUser returns the single live token for a user, if any.
func (f *fakeTokens) forUser(userID string) (model.Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.tokens {
		if rec.UserID == userID {
			return rec, true
		}
	}
	return model.Token{}, false
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type sentMail struct {
	Kind   mail.Kind
	To     string
	Name   string
	Token  string
	Locale string
}

// fakeMailer records sends; safe for the welcome-mail goroutine.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, kind mail.Kind, to, name, token, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{Kind: kind, To: to, Name: name, Token: token, Locale: locale})
	return nil
}

func (f *fakeMailer) sentOf(kind mail.Kind) []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMail
	for _, m := range f.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
