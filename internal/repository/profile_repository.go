package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/obarlas/campuslink/internal/model"
)

// profileTables drives role-keyed dispatch for profile rows. Adding a
// role means adding exactly one entry here plus its migration.
var profileTables = map[model.Role]string{
	model.RoleStudent:       "student_profiles",
	model.RoleCoordinator:   "coordinator_profiles",
	model.RoleOrganization:  "organization_profiles",
	model.RoleAdministrator: "administrator_profiles",
}

func profileTable(role model.Role) (string, error) {
	t, ok := profileTables[role]
	if !ok {
		return "", fmt.Errorf("no profile table for role %q", role)
	}
	return t, nil
}

// createProfileTx inserts the role-specific profile row inside the
// caller's transaction. Used by UserRepo.CreateWithProfile so account
// and profile creation commit or roll back together.
func createProfileTx(ctx context.Context, tx *sql.Tx, role model.Role, userID string) error {
	table, err := profileTable(role)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+table+" (id, user_id) VALUES (?,?)",
		uuid.NewString(), userID)
	return err
}

// ProfileRepo reads and deletes role-profile rows. Creation happens
// transactionally with account creation (or admin role migration).
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// FindByUserID returns the profile row for the user under the given role.
func (r *ProfileRepo) FindByUserID(ctx context.Context, role model.Role, userID string) (model.Profile, error) {
	table, err := profileTable(role)
	if err != nil {
		return model.Profile{}, err
	}
	var p model.Profile
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM "+table+" WHERE user_id=? LIMIT 1",
		userID).Scan(&p.ID, &p.UserID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

// DeleteByID removes a profile row; consumed by admin role migration.
func (r *ProfileRepo) DeleteByID(ctx context.Context, role model.Role, id string) error {
	table, err := profileTable(role)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id=?", id)
	return err
}
