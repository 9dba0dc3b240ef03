package repository // repository defines data access for membership plans

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// MembershipRepo provides methods to work with membership plans.
type MembershipRepo struct {
	db *sql.DB
}

// NewMembershipRepo constructs a MembershipRepo with the given DB handle.
func NewMembershipRepo(db *sql.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

const planColumns = `id, library_id, name, price, duration_days, features, is_active, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	var features []byte
	err := row.Scan(&p.ID, &p.LibraryID, &p.Name, &p.Price, &p.DurationDays,
		&features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Features = unmarshalStrings(features)
	return &p, nil
}

// Create inserts a plan and populates the generated ID.
func (r *MembershipRepo) Create(ctx context.Context, p *model.MembershipPlan) error {
	features, err := marshalStrings(p.Features)
	if err != nil {
		return err
	}
	const q = `INSERT INTO membership_plans (library_id, name, price, duration_days, features)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.LibraryID, p.Name, p.Price, p.DurationDays, features)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.IsActive = true
	return nil
}

// ListByLibrary returns a library's plans.  The activeOnly flag limits the
// result to plans currently offered (public listings).
func (r *MembershipRepo) ListByLibrary(ctx context.Context, libraryID uint64, activeOnly bool) ([]model.MembershipPlan, error) {
	q := `SELECT ` + planColumns + ` FROM membership_plans WHERE library_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY price`

	rows, err := r.db.QueryContext(ctx, q, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// GetByIDAndLibrary retrieves a plan scoped to a library.
func (r *MembershipRepo) GetByIDAndLibrary(ctx context.Context, id, libraryID uint64) (*model.MembershipPlan, error) {
	const q = `SELECT ` + planColumns + ` FROM membership_plans WHERE id = ? AND library_id = ?`
	p, err := scanPlan(r.db.QueryRowContext(ctx, q, id, libraryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// UpdateByIDAndLibrary updates a plan's mutable fields.
func (r *MembershipRepo) UpdateByIDAndLibrary(ctx context.Context, id, libraryID uint64,
	name string, price float64, durationDays uint32, features []string, isActive bool) error {

	featuresJSON, err := marshalStrings(features)
	if err != nil {
		return err
	}
	const q = `UPDATE membership_plans
	           SET name = ?, price = ?, duration_days = ?, features = ?, is_active = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND library_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, price, durationDays, featuresJSON, isActive, id, libraryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByIDAndLibrary(ctx, id, libraryID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByIDAndLibrary removes a plan.
func (r *MembershipRepo) DeleteByIDAndLibrary(ctx context.Context, id, libraryID uint64) error {
	const q = `DELETE FROM membership_plans WHERE id = ? AND library_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, libraryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
