package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/model"
)

func newBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func TestHasOverlapTx(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seat_bookings").
		WithArgs(uint64(7), "2026-09-01", "12:00", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	overlap, err := repo.HasOverlapTx(context.Background(), tx, 7, "2026-09-01", "10:00", "12:00")
	require.NoError(t, err)
	assert.True(t, overlap)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxPopulatesID(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO seat_bookings").
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectCommit()

	tx, err := repo.DB().Begin()
	require.NoError(t, err)

	userID := uint64(3)
	b := &model.SeatBooking{
		BookingRef:    "ref-1",
		UserID:        &userID,
		SeatID:        7,
		LibraryID:     2,
		BookingDate:   "2026-09-01",
		StartTime:     "10:00",
		EndTime:       "12:00",
		DurationHours: 2,
		BookingPrice:  100,
		Currency:      "INR",
		Status:        model.BookingConfirmed,
	}
	require.NoError(t, repo.CreateTx(context.Background(), tx, b))
	assert.Equal(t, uint64(99), b.ID)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus(t *testing.T) {
	t.Run("applies when current status allowed", func(t *testing.T) {
		repo, mock := newBookingRepo(t)
		mock.ExpectExec("UPDATE seat_bookings SET status").
			WithArgs(model.BookingCancelled, uint64(5), model.BookingPending, model.BookingConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.TransitionStatus(context.Background(), 5, model.BookingCancelled,
			model.BookingPending, model.BookingConfirmed)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second cancel is a conflict", func(t *testing.T) {
		repo, mock := newBookingRepo(t)
		mock.ExpectExec("UPDATE seat_bookings SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))
		now := time.Now()
		mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE id").
			WithArgs(uint64(5)).
			WillReturnRows(bookingRows().AddRow(5, "ref-1", 3, nil, nil, nil, "", 7, 2,
				now, []byte("10:00:00"), []byte("12:00:00"), 2.0, 100.0, "INR",
				model.BookingCancelled, now, now))

		err := repo.TransitionStatus(context.Background(), 5, model.BookingCancelled,
			model.BookingPending, model.BookingConfirmed)
		assert.ErrorIs(t, err, ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking is not found", func(t *testing.T) {
		repo, mock := newBookingRepo(t)
		mock.ExpectExec("UPDATE seat_bookings SET status").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE id").
			WillReturnRows(bookingRows())

		err := repo.TransitionStatus(context.Background(), 404, model.BookingCancelled,
			model.BookingConfirmed)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "booking_ref", "user_id", "guest_name",
		"guest_email", "guest_phone", "access_code_hash", "seat_id", "library_id",
		"booking_date", "start_time", "end_time", "duration_hours", "booking_price",
		"currency", "status", "created_at", "updated_at"})
}

func TestGetByRef(t *testing.T) {
	repo, mock := newBookingRepo(t)
	now := time.Now()
	guest := "Guest One"
	mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE booking_ref").
		WithArgs("ref-9").
		WillReturnRows(bookingRows().AddRow(9, "ref-9", nil, guest, "g@example.com", nil,
			"$2a$04$hash", 7, 2, now, []byte("09:30:00"), []byte("11:00:00"),
			1.5, 75.0, "INR", model.BookingConfirmed, now, now))

	b, err := repo.GetByRef(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.True(t, b.IsGuest())
	assert.Equal(t, "09:30", b.StartTime)
	assert.Equal(t, "11:00", b.EndTime)
	assert.Equal(t, now.Format("2006-01-02"), b.BookingDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityGroupsSlots(t *testing.T) {
	repo, mock := newBookingRepo(t)
	cols := []string{"id", "label", "st_id", "st_name", "price", "color", "start_time", "end_time"}
	mock.ExpectQuery("SELECT s.id, s.label").
		WithArgs("2026-09-01", uint64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "S-01", 10, "REGULAR", 50.0, "#3B82F6", []byte("10:00:00"), []byte("12:00:00")).
			AddRow(1, "S-01", 10, "REGULAR", 50.0, "#3B82F6", []byte("14:00:00"), []byte("15:00:00")).
			AddRow(2, "S-02", 10, "REGULAR", 50.0, "#3B82F6", nil, nil))

	seats, err := repo.Availability(context.Background(), 2, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, seats, 2)

	assert.False(t, seats[0].Available)
	require.Len(t, seats[0].BookedSlots, 2)
	assert.Equal(t, "10:00", seats[0].BookedSlots[0].StartTime)
	assert.Equal(t, "15:00", seats[0].BookedSlots[1].EndTime)

	assert.True(t, seats[1].Available)
	assert.Empty(t, seats[1].BookedSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}
