package repository // repository defines data access for users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// UserRepo provides methods to work with users in the database.  Users are
// keyed by the external identity provider's subject id and are created on
// first login; they are never hard-deleted.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, subject_id, name, email, phone, avatar_url, role, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.SubjectID, &u.Name, &u.Email, &u.Phone, &u.AvatarURL,
		&u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertBySubject creates the user on first login or refreshes the profile
// fields synced from the identity provider.  Role and verification are
// never touched by the sync path.
func (r *UserRepo) UpsertBySubject(ctx context.Context, subjectID, name, email string) (*model.User, error) {
	const q = `INSERT INTO users (subject_id, name, email)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE name = VALUES(name), email = VALUES(email)`
	if _, err := r.db.ExecContext(ctx, q, subjectID, name, email); err != nil {
		return nil, err
	}
	return r.GetBySubject(ctx, subjectID)
}

// GetBySubject loads a user by identity-provider subject id.
func (r *UserRepo) GetBySubject(ctx context.Context, subjectID string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE subject_id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, subjectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByID loads a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile updates the user-editable profile fields.  Nil pointers
// leave the stored value untouched.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name *string, phone, avatarURL *string) error {
	const q = `UPDATE users SET
	             name = COALESCE(?, name),
	             phone = COALESCE(?, phone),
	             avatar_url = COALESCE(?, avatar_url)
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, phone, avatarURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update, so
		// confirm the row exists before reporting not-found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetRole updates a user's role.  Used when a member registers a library
// (promotion to ADMIN) and by super-admin role management.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	const q = `UPDATE users SET role = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetVerified flips the super-admin verification flag that gates admin
// activity.
func (r *UserRepo) SetVerified(ctx context.Context, id uint64, verified bool) error {
	const q = `UPDATE users SET is_verified = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, verified, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// List returns all users ordered by creation time, optionally filtered by
// role.  Super-admin only.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role = ?`
		args = append(args, role)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}
