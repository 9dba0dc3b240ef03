package repository // repository defines data access for seat types

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentsadda/studentsadda/internal/model"
)

// DefaultSeatType describes the "REGULAR" type auto-provisioned for a
// library that has no seat types yet.  Historically seats were created
// before any type existed, leaving dangling references; provisioning a
// default up front closes that gap.
var DefaultSeatType = model.SeatType{
	Name:         "REGULAR",
	PricePerHour: 50,
	Description:  "Standard seating",
	Color:        "#3B82F6",
	Amenities:    []string{"Desk"},
}

// SeatTypeRepo provides methods to work with seat types.
type SeatTypeRepo struct {
	db *sql.DB
}

// NewSeatTypeRepo constructs a SeatTypeRepo with the given DB handle.
func NewSeatTypeRepo(db *sql.DB) *SeatTypeRepo {
	return &SeatTypeRepo{db: db}
}

const seatTypeColumns = `id, library_id, name, price_per_hour, description, color, amenities,
	is_active, created_at, updated_at`

func scanSeatType(row interface{ Scan(...any) error }) (*model.SeatType, error) {
	var st model.SeatType
	var amenities []byte
	err := row.Scan(&st.ID, &st.LibraryID, &st.Name, &st.PricePerHour, &st.Description,
		&st.Color, &amenities, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.Amenities = unmarshalStrings(amenities)
	return &st, nil
}

// Create inserts a seat type.  On success the generated ID is populated.
func (r *SeatTypeRepo) Create(ctx context.Context, st *model.SeatType) error {
	amenities, err := marshalStrings(st.Amenities)
	if err != nil {
		return err
	}
	const q = `INSERT INTO seat_types (library_id, name, price_per_hour, description, color, amenities)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, st.LibraryID, st.Name, st.PricePerHour,
		st.Description, st.Color, amenities)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	st.IsActive = true
	return nil
}

// EnsureDefault provisions the REGULAR type when the library has none and
// returns it.  When the library already has types it returns (nil, nil).
func (r *SeatTypeRepo) EnsureDefault(ctx context.Context, libraryID uint64) (*model.SeatType, error) {
	const countQ = `SELECT COUNT(*) FROM seat_types WHERE library_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, countQ, libraryID).Scan(&n); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	st := DefaultSeatType
	st.LibraryID = libraryID
	if err := r.Create(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetByID retrieves a seat type by primary key.
func (r *SeatTypeRepo) GetByID(ctx context.Context, id uint64) (*model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE id = ?`
	st, err := scanSeatType(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatTypeNotFound
	}
	return st, err
}

// GetByIDAndLibrary retrieves a seat type scoped to a library.  Used when
// validating that a seat references a type of its own library.
func (r *SeatTypeRepo) GetByIDAndLibrary(ctx context.Context, id, libraryID uint64) (*model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE id = ? AND library_id = ?`
	st, err := scanSeatType(r.db.QueryRowContext(ctx, q, id, libraryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatTypeNotFound
	}
	return st, err
}

// ListByLibrary returns all seat types of a library ordered by name.
func (r *SeatTypeRepo) ListByLibrary(ctx context.Context, libraryID uint64) ([]model.SeatType, error) {
	const q = `SELECT ` + seatTypeColumns + ` FROM seat_types WHERE library_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SeatType
	for rows.Next() {
		st, err := scanSeatType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}
	return result, rows.Err()
}

// UpdateByIDAndLibrary updates a seat type's mutable fields.  Returns
// ErrSeatTypeNotFound when the type does not exist in the library.
func (r *SeatTypeRepo) UpdateByIDAndLibrary(ctx context.Context, id, libraryID uint64,
	name string, pricePerHour float64, description, color string, amenities []string, isActive bool) error {

	amenitiesJSON, err := marshalStrings(amenities)
	if err != nil {
		return err
	}
	const q = `UPDATE seat_types
	           SET name = ?, price_per_hour = ?, description = ?, color = ?, amenities = ?, is_active = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND library_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, pricePerHour, description, color,
		amenitiesJSON, isActive, id, libraryID)
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

// DeleteByIDAndLibrary removes a seat type.  Deleting a type that still
// has seats referencing it returns ErrConflict; the seats must be retyped
// or removed first.  The count is scoped to the library so a foreign
// type id answers ErrSeatTypeNotFound, never ErrConflict.
func (r *SeatTypeRepo) DeleteByIDAndLibrary(ctx context.Context, id, libraryID uint64) error {
	const countQ = `SELECT COUNT(*) FROM seats WHERE seat_type_id = ? AND library_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, countQ, id, libraryID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	const q = `DELETE FROM seat_types WHERE id = ? AND library_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, libraryID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSeatTypeNotFound
	}
	return nil
}
