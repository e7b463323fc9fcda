package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/obarlas/campuslink/internal/model"
)

// TokenRepo persists single-use opaque tokens. The same shape backs
// both token tables; only the table name differs.
type TokenRepo struct {
	DB    *sql.DB
	table string
}

// NewVerificationTokenRepo returns the store for email-verification tokens.
func NewVerificationTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db, table: "verification_tokens"}
}

// NewPasswordResetTokenRepo returns the store for password-reset tokens.
func NewPasswordResetTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db, table: "password_reset_tokens"}
}

// Replace deletes any live token for the user and inserts the new one
// in a single transaction, keeping at most one live token per account.
func (r *TokenRepo) Replace(ctx context.Context, userID, token string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+r.table+" WHERE user_id=?", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+r.table+" (token, user_id, expires_at) VALUES (?,?,?)",
		token, userID, expiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// FindByToken fetches a token row by its opaque string.
func (r *TokenRepo) FindByToken(ctx context.Context, token string) (model.Token, error) {
	var t model.Token
	err := r.DB.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM "+r.table+" WHERE token=? LIMIT 1",
		token).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Token{}, ErrNotFound
	}
	return t, err
}

// DeleteByToken removes one token row.
func (r *TokenRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE token=?", token)
	return err
}

// DeleteByUserID removes all tokens owned by the user.
func (r *TokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE user_id=?", userID)
	return err
}

// DeleteAllExpired removes every token past its deadline and returns
// the number of rows deleted. Safe to run concurrently with issuance.
func (r *TokenRepo) DeleteAllExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+r.table+" WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
