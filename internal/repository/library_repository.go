package repository // repository defines data access for libraries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// LibraryRepo provides methods to work with libraries.  A library is
// registered in PENDING state and becomes publicly visible only once a
// super-admin approves it.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo constructs a LibraryRepo with the given DB handle.
func NewLibraryRepo(db *sql.DB) *LibraryRepo {
	return &LibraryRepo{db: db}
}

const libraryColumns = `id, admin_id, name, description, address, city, state, pincode,
	status, amenities, total_seats, created_at, updated_at`

func scanLibrary(row interface{ Scan(...any) error }) (*model.Library, error) {
	var l model.Library
	var amenities []byte
	err := row.Scan(&l.ID, &l.AdminID, &l.Name, &l.Description, &l.Address, &l.City,
		&l.State, &l.Pincode, &l.Status, &amenities, &l.TotalSeats, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Amenities = unmarshalStrings(amenities)
	return &l, nil
}

// Create inserts a registration request.  The library always starts in
// PENDING state regardless of caller input.
func (r *LibraryRepo) Create(ctx context.Context, l *model.Library) error {
	amenities, err := marshalStrings(l.Amenities)
	if err != nil {
		return err
	}
	const q = `INSERT INTO libraries (admin_id, name, description, address, city, state, pincode, status, amenities)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 'PENDING', ?)`
	res, err := r.db.ExecContext(ctx, q, l.AdminID, l.Name, l.Description,
		l.Address, l.City, l.State, l.Pincode, amenities)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.Status = model.LibraryPending
	return nil
}

// GetByID retrieves a library by primary key.
func (r *LibraryRepo) GetByID(ctx context.Context, id uint64) (*model.Library, error) {
	const q = `SELECT ` + libraryColumns + ` FROM libraries WHERE id = ?`
	l, err := scanLibrary(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLibraryNotFound
	}
	return l, err
}

// GetApprovedByID retrieves a library only when it is publicly visible.
func (r *LibraryRepo) GetApprovedByID(ctx context.Context, id uint64) (*model.Library, error) {
	const q = `SELECT ` + libraryColumns + ` FROM libraries WHERE id = ? AND status = 'APPROVED'`
	l, err := scanLibrary(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLibraryNotFound
	}
	return l, err
}

// GetByAdmin retrieves the library owned by the given admin user.
func (r *LibraryRepo) GetByAdmin(ctx context.Context, adminID uint64) (*model.Library, error) {
	const q = `SELECT ` + libraryColumns + ` FROM libraries WHERE admin_id = ?`
	l, err := scanLibrary(r.db.QueryRowContext(ctx, q, adminID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLibraryNotFound
	}
	return l, err
}

// ListApproved returns publicly visible libraries, optionally filtered by
// city, newest first.
func (r *LibraryRepo) ListApproved(ctx context.Context, city string) ([]model.Library, error) {
	q := `SELECT ` + libraryColumns + ` FROM libraries WHERE status = 'APPROVED'`
	var args []any
	if city != "" {
		q += ` AND city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY created_at DESC`
	return r.queryLibraries(ctx, q, args...)
}

// ListByStatus returns libraries in the given status, newest first.  Used
// by the super-admin approval queue; an empty status returns everything.
func (r *LibraryRepo) ListByStatus(ctx context.Context, status string) ([]model.Library, error) {
	q := `SELECT ` + libraryColumns + ` FROM libraries`
	var args []any
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	return r.queryLibraries(ctx, q, args...)
}

func (r *LibraryRepo) queryLibraries(ctx context.Context, q string, args ...any) ([]model.Library, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Library
	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

// UpdatePartial applies a partial profile update: nil pointers leave the
// stored value untouched, so a PUT with a sparse body changes only the
// fields it names.  Ownership is enforced in the statement.
func (r *LibraryRepo) UpdatePartial(ctx context.Context, id, adminID uint64,
	name, description, address, city, state, pincode *string, amenities []string) error {

	var amenitiesJSON any // nil keeps the stored JSON
	if amenities != nil {
		b, err := marshalStrings(amenities)
		if err != nil {
			return err
		}
		amenitiesJSON = b
	}
	const q = `UPDATE libraries SET
	             name        = COALESCE(?, name),
	             description = COALESCE(?, description),
	             address     = COALESCE(?, address),
	             city        = COALESCE(?, city),
	             state       = COALESCE(?, state),
	             pincode     = COALESCE(?, pincode),
	             amenities   = COALESCE(?, amenities)
	           WHERE id = ? AND admin_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, description, address, city, state,
		pincode, amenitiesJSON, id, adminID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "not yours" from a no-op update on an owned row.
		l, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if l.AdminID != adminID {
			return ErrForbidden
		}
	}
	return nil
}

// SetStatus moves a library between approval states.  Super-admin only;
// the handler is responsible for the role check.
func (r *LibraryRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE libraries SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
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

// AdjustTotalSeats shifts the aggregate seat count by delta.  Called from
// seat create/delete paths so listings can show capacity without counting.
func (r *LibraryRepo) AdjustTotalSeats(ctx context.Context, id uint64, delta int) error {
	const q = `UPDATE libraries SET total_seats = GREATEST(0, CAST(total_seats AS SIGNED) + ?) WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, delta, id)
	return err
}
