package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/obarlas/campuslink/internal/model"
)

const userColumns = "id,email,password_hash,role,name,email_verified_at,is_active,is_suspended,last_login_at,created_at,updated_at"

// UserRepo is the account store backing the user directory.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateWithProfile inserts the account and its role-specific profile
// row in one transaction and fills in the generated IDs. A duplicate
// email surfaces as ErrEmailExists via MySQL error 1062.
func (r *UserRepo) CreateWithProfile(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, role, name) VALUES (?,?,?,?,?)",
		u.ID, u.Email, nullString(u.PasswordHash), string(u.Role), nullString(u.Name))
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if err := createProfileTx(ctx, tx, u.Role, u.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByEmail fetches an account by email. Emails are stored and
// compared exactly as given.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email", strings.TrimSpace(email))
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getBy(ctx, "id", id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.update(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
}

// MarkEmailVerified records the verification timestamp once.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "UPDATE users SET email_verified_at=? WHERE id=?", at, id)
}

// UpdateLastLogin stamps the most recent successful sign-in.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "UPDATE users SET last_login_at=? WHERE id=?", at, id)
}

// SetActive toggles the soft-delete flag.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
}

// SetSuspended toggles the suspension flag.
func (r *UserRepo) SetSuspended(ctx context.Context, id string, suspended bool) error {
	return r.update(ctx, "UPDATE users SET is_suspended=? WHERE id=?", suspended, id)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (model.User, error) {
	var (
		u            model.User
		role         string
		passwordHash sql.NullString
		name         sql.NullString
		verifiedAt   sql.NullTime
		lastLoginAt  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+"=? LIMIT 1",
		value).Scan(&u.ID, &u.Email, &passwordHash, &role, &name,
		&verifiedAt, &u.IsActive, &u.IsSuspended, &lastLoginAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.PasswordHash = passwordHash.String
	u.Name = name.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func (r *UserRepo) update(ctx context.Context, query string, args ...any) error {
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isDuplicate detects MySQL duplicate-key violations (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
