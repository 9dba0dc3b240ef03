package repository // repository defines data access for seat bookings

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/studentsadda/studentsadda/internal/model"
)

// BookingRepo provides CRUD operations for seat bookings.  Booking
// creation runs inside a transaction begun by the handler so the overlap
// check and the insert are atomic; the FOR UPDATE lock on conflicting rows
// serializes concurrent requests for the same seat and date.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, booking_ref, user_id, guest_name, guest_email, guest_phone,
	COALESCE(access_code_hash, ''), seat_id, library_id, booking_date, start_time, end_time,
	duration_hours, booking_price, currency, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.SeatBooking, error) {
	var b model.SeatBooking
	var date time.Time
	var start, end []byte
	err := row.Scan(&b.ID, &b.BookingRef, &b.UserID, &b.GuestName, &b.GuestEmail,
		&b.GuestPhone, &b.AccessCodeHash, &b.SeatID, &b.LibraryID, &date, &start, &end,
		&b.DurationHours, &b.BookingPrice, &b.Currency, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.BookingDate = date.Format("2006-01-02")
	b.StartTime = clockHHMM(string(start))
	b.EndTime = clockHHMM(string(end))
	return &b, nil
}

// clockHHMM trims a MySQL TIME value ("10:00:00") to HH:MM.
func clockHHMM(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

// HasOverlapTx reports whether an active (PENDING or CONFIRMED) booking on
// the seat intersects the [start, end) range on the given date.  Matching
// rows are locked FOR UPDATE so a concurrent transaction making the same
// check blocks until this one commits.
func (r *BookingRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, seatID uint64, date, start, end string) (bool, error) {
	const q = `SELECT COUNT(*) FROM seat_bookings
	           WHERE seat_id = ? AND booking_date = ?
	             AND status IN ('PENDING','CONFIRMED')
	             AND start_time < ? AND end_time > ?
	           FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, seatID, date, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated ID.  The caller must have performed the
// overlap check in the same transaction and must commit or roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.SeatBooking) error {
	const q = `INSERT INTO seat_bookings
	             (booking_ref, user_id, guest_name, guest_email, guest_phone, access_code_hash,
	              seat_id, library_id, booking_date, start_time, end_time,
	              duration_hours, booking_price, currency, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var codeHash any
	if b.AccessCodeHash != "" {
		codeHash = b.AccessCodeHash
	}
	res, err := tx.ExecContext(ctx, q, b.BookingRef, b.UserID, b.GuestName, b.GuestEmail,
		b.GuestPhone, codeHash, b.SeatID, b.LibraryID, b.BookingDate, b.StartTime, b.EndTime,
		b.DurationHours, b.BookingPrice, b.Currency, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID retrieves a booking by primary key.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.SeatBooking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM seat_bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByRef retrieves a booking by its public reference.  Used by guest
// flows and bill downloads.
func (r *BookingRepo) GetByRef(ctx context.Context, ref string) (*model.SeatBooking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM seat_bookings WHERE booking_ref = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// BookingDetail is a booking joined with seat and library display fields,
// returned by listing endpoints.
type BookingDetail struct {
	model.SeatBooking
	SeatLabel    string `json:"seatLabel"`    // seats.label
	SeatTypeName string `json:"seatType"`     // seat_types.name
	LibraryName  string `json:"libraryName"`  // libraries.name
	LibraryCity  string `json:"libraryCity"`  // libraries.city
}

const bookingDetailQuery = `SELECT b.id, b.booking_ref, b.user_id, b.guest_name, b.guest_email,
	b.guest_phone, COALESCE(b.access_code_hash, ''), b.seat_id, b.library_id, b.booking_date,
	b.start_time, b.end_time, b.duration_hours, b.booking_price, b.currency, b.status,
	b.created_at, b.updated_at, s.label, st.name, l.name, l.city
	FROM seat_bookings b
	JOIN seats s ON s.id = b.seat_id
	JOIN seat_types st ON st.id = s.seat_type_id
	JOIN libraries l ON l.id = b.library_id`

func (r *BookingRepo) queryDetails(ctx context.Context, q string, args ...any) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookingDetail
	for rows.Next() {
		var d BookingDetail
		var date time.Time
		var start, end []byte
		if err := rows.Scan(&d.ID, &d.BookingRef, &d.UserID, &d.GuestName, &d.GuestEmail,
			&d.GuestPhone, &d.AccessCodeHash, &d.SeatID, &d.LibraryID, &date, &start, &end,
			&d.DurationHours, &d.BookingPrice, &d.Currency, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.SeatLabel, &d.SeatTypeName, &d.LibraryName, &d.LibraryCity); err != nil {
			return nil, err
		}
		d.BookingDate = date.Format("2006-01-02")
		d.StartTime = clockHHMM(string(start))
		d.EndTime = clockHHMM(string(end))
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetailByID loads a single booking with its display fields.
func (r *BookingRepo) GetDetailByID(ctx context.Context, id uint64) (*BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.id = ?`
	list, err := r.queryDetails(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrBookingNotFound
	}
	return &list[0], nil
}

// ListByUser returns the user's bookings newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.user_id = ? ORDER BY b.booking_date DESC, b.start_time DESC`
	return r.queryDetails(ctx, q, userID)
}

// ListByLibraryAndAdmin returns a library's bookings while enforcing that
// the library belongs to the admin.  The date filter is optional.
func (r *BookingRepo) ListByLibraryAndAdmin(ctx context.Context, libraryID, adminID uint64, date string) ([]BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.library_id = ? AND l.admin_id = ?`
	args := []any{libraryID, adminID}
	if date != "" {
		q += ` AND b.booking_date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY b.booking_date DESC, b.start_time DESC`
	return r.queryDetails(ctx, q, args...)
}

// ListAll returns bookings across libraries for super-admin reports, with
// optional status and date filters.
func (r *BookingRepo) ListAll(ctx context.Context, status, date string) ([]BookingDetail, error) {
	q := bookingDetailQuery
	var conds []string
	var args []any
	if status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, status)
	}
	if date != "" {
		conds = append(conds, "b.booking_date = ?")
		args = append(args, date)
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY b.booking_date DESC, b.start_time DESC LIMIT 500`
	return r.queryDetails(ctx, q, args...)
}

// TransitionStatus moves a booking into `to` when its current status is in
// allowedFrom.  ErrBookingNotFound is returned for a missing row and
// ErrConflict when the booking exists but is in a disallowed state, so a
// repeated cancel surfaces as a well-defined conflict instead of a 500.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, to string, allowedFrom ...string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(allowedFrom)), ",")
	q := `UPDATE seat_bookings SET status = ? WHERE id = ? AND status IN (` + placeholders + `)`
	args := make([]any, 0, len(allowedFrom)+2)
	args = append(args, to, id)
	for _, s := range allowedFrom {
		args = append(args, s)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// SeatAvailability describes one seat's occupancy for a date.
type SeatAvailability struct {
	SeatID       uint64       `json:"seatId"`
	Label        string       `json:"label"`
	SeatTypeID   uint64       `json:"seatTypeId"`
	SeatTypeName string       `json:"seatType"`
	PricePerHour float64      `json:"pricePerHour"`
	Color        string       `json:"color"`
	Available    bool         `json:"available"`
	BookedSlots  []BookedSlot `json:"bookedSlots"`
}

// BookedSlot is an occupied interval on a seat.
type BookedSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Availability returns every active seat of a library with the intervals
// already booked on the given date.  A seat with no active bookings that
// day is fully available.
func (r *BookingRepo) Availability(ctx context.Context, libraryID uint64, date string) ([]SeatAvailability, error) {
	const q = `SELECT s.id, s.label, st.id, st.name, st.price_per_hour, st.color,
	                  b.start_time, b.end_time
	           FROM seats s
	           JOIN seat_types st ON st.id = s.seat_type_id
	           LEFT JOIN seat_bookings b
	             ON b.seat_id = s.id AND b.booking_date = ?
	            AND b.status IN ('PENDING','CONFIRMED')
	           WHERE s.library_id = ? AND s.is_active = 1
	           ORDER BY s.label, b.start_time`
	rows, err := r.db.QueryContext(ctx, q, date, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeatAvailability
	index := map[uint64]int{}
	for rows.Next() {
		var seatID, typeID uint64
		var label, typeName, color string
		var price float64
		var start, end sql.RawBytes
		if err := rows.Scan(&seatID, &label, &typeID, &typeName, &price, &color, &start, &end); err != nil {
			return nil, err
		}
		i, ok := index[seatID]
		if !ok {
			out = append(out, SeatAvailability{
				SeatID:       seatID,
				Label:        label,
				SeatTypeID:   typeID,
				SeatTypeName: typeName,
				PricePerHour: price,
				Color:        color,
				Available:    true,
				BookedSlots:  []BookedSlot{},
			})
			i = len(out) - 1
			index[seatID] = i
		}
		if len(start) > 0 && len(end) > 0 {
			out[i].BookedSlots = append(out[i].BookedSlots, BookedSlot{
				StartTime: clockHHMM(string(start)),
				EndTime:   clockHHMM(string(end)),
			})
			out[i].Available = false
		}
	}
	return out, rows.Err()
}
