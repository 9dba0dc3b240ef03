package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// SeatRepo provides methods to work with seats.  Ownership checks go
// through the libraries table: a seat belongs to the admin owning its
// library.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, library_id, seat_type_id, label, is_active, created_at, updated_at`

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.ID, &s.LibraryID, &s.SeatTypeID, &s.Label, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a seat.  The INSERT..SELECT guards the seat type: the row
// is only written when seat_type_id references a type of the same library,
// so a dangling reference cannot be created.  ErrSeatTypeNotFound is
// returned when the guard rejects the insert.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (library_id, seat_type_id, label)
	           SELECT ?, st.id, ?
	           FROM seat_types st
	           WHERE st.id = ? AND st.library_id = ?`
	res, err := r.db.ExecContext(ctx, q, s.LibraryID, s.Label, s.SeatTypeID, s.LibraryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatTypeNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.IsActive = true
	return nil
}

// GetByID retrieves a seat by its id (no ownership check).
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// GetByIDAndAdmin retrieves a seat while enforcing ownership via libraries.
func (r *SeatRepo) GetByIDAndAdmin(ctx context.Context, id, adminID uint64) (*model.Seat, error) {
	const q = `SELECT s.id, s.library_id, s.seat_type_id, s.label, s.is_active, s.created_at, s.updated_at
	           FROM seats s
	           JOIN libraries l ON l.id = s.library_id
	           WHERE s.id = ? AND l.admin_id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id, adminID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	return s, err
}

// ListByLibrary retrieves all seats of a library ordered by label.  The
// activeOnly flag filters to bookable seats.
func (r *SeatRepo) ListByLibrary(ctx context.Context, libraryID uint64, activeOnly bool) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats WHERE library_id = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY label`

	rows, err := r.db.QueryContext(ctx, q, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// UpdateByIDAndAdmin updates label, seat type and active flag while
// enforcing ownership.  The seat type guard is repeated here so an update
// cannot introduce the dangling reference the create path prevents.
func (r *SeatRepo) UpdateByIDAndAdmin(ctx context.Context, id, adminID uint64,
	label string, seatTypeID uint64, isActive bool) error {
	const q = `UPDATE seats s
	           JOIN libraries l ON l.id = s.library_id
	           JOIN seat_types st ON st.id = ? AND st.library_id = s.library_id
	           SET s.label = ?, s.seat_type_id = st.id, s.is_active = ?, s.updated_at = CURRENT_TIMESTAMP
	           WHERE s.id = ? AND l.admin_id = ?`
	res, err := r.db.ExecContext(ctx, q, seatTypeID, label, isActive, id, adminID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Could be a missing seat, a foreign admin, or an invalid type.
		if _, err := r.GetByIDAndAdmin(ctx, id, adminID); err != nil {
			return err
		}
		return ErrSeatTypeNotFound
	}
	return nil
}

// DeleteByIDAndAdmin deletes a seat while ensuring the library belongs to
// the admin.
func (r *SeatRepo) DeleteByIDAndAdmin(ctx context.Context, id, adminID uint64) error {
	const q = `DELETE s FROM seats s
	           JOIN libraries l ON l.id = s.library_id
	           WHERE s.id = ? AND l.admin_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, adminID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}
