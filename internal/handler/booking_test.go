package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/utils"
)

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingHandler(
		repository.NewBookingRepo(db),
		repository.NewSeatRepo(db),
		repository.NewSeatTypeRepo(db),
		repository.NewLibraryRepo(db),
		nil, // no broker in tests
		testLog(),
		bcrypt.MinCost,
	), mock
}

func memberCtx(id uint64) *middleware.AuthContext {
	return &middleware.AuthContext{
		Subject:  "sub-member",
		User:     &model.User{ID: id, Role: model.RoleMember, Email: "m@example.com", Name: "Member"},
		IsActive: true,
	}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func exec(t *testing.T, h echo.HandlerFunc, req *http.Request, ac *middleware.AuthContext) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ac != nil {
		middleware.SetAuth(c, ac)
	}
	require.NoError(t, h(c))
	return rec
}

func seatRow(id, libraryID, typeID uint64, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "library_id", "seat_type_id", "label",
		"is_active", "created_at", "updated_at"}).
		AddRow(id, libraryID, typeID, "S-01", active, now, now)
}

func libraryRow(id, adminID uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "admin_id", "name", "description", "address",
		"city", "state", "pincode", "status", "amenities", "total_seats",
		"created_at", "updated_at"}).
		AddRow(id, adminID, "Quiet Corner", "", "12 Main St", "Pune", "MH", "411001",
			model.LibraryApproved, []byte(`["WiFi"]`), 20, now, now)
}

func seatTypeRow(id, libraryID uint64, price float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "library_id", "name", "price_per_hour",
		"description", "color", "amenities", "is_active", "created_at", "updated_at"}).
		AddRow(id, libraryID, "REGULAR", price, "Standard seating", "#3B82F6",
			[]byte(`["Desk"]`), true, now, now)
}

func expectSlotLookups(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT .+ FROM seats WHERE id").
		WithArgs(uint64(7)).WillReturnRows(seatRow(7, 2, 10, true))
	mock.ExpectQuery("SELECT .+ FROM libraries WHERE id = \\? AND status = 'APPROVED'").
		WithArgs(uint64(2)).WillReturnRows(libraryRow(2, 5))
	mock.ExpectQuery("SELECT .+ FROM seat_types WHERE id").
		WithArgs(uint64(10)).WillReturnRows(seatTypeRow(10, 2, 50))
}

func TestBookingCreateValidation(t *testing.T) {
	h, mock := newBookingHandler(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing seat", `{"date":"2026-09-01","startTime":"10:00","endTime":"12:00"}`, "seatId is required"},
		{"bad date", `{"seatId":7,"date":"tomorrow","startTime":"10:00","endTime":"12:00"}`, "invalid date"},
		{"bad start", `{"seatId":7,"date":"2026-09-01","startTime":"10am","endTime":"12:00"}`, "invalid startTime"},
		{"end before start", `{"seatId":7,"date":"2026-09-01","startTime":"12:00","endTime":"10:00"}`, "endTime must be after startTime"},
		{"zero length", `{"seatId":7,"date":"2026-09-01","startTime":"10:00","endTime":"10:00"}`, "endTime must be after startTime"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := exec(t, h.Create, jsonReq(http.MethodPost, "/v1/bookings", tc.body), memberCtx(3))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateOverlapRejected(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectSlotLookups(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seat_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	body := `{"seatId":7,"date":"2026-09-01","startTime":"10:00","endTime":"12:00"}`
	rec := exec(t, h.Create, jsonReq(http.MethodPost, "/v1/bookings", body), memberCtx(3))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already booked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateComputesPrice(t *testing.T) {
	h, mock := newBookingHandler(t)

	expectSlotLookups(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seat_bookings").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO seat_bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()
	now := time.Now()
	mock.ExpectQuery("SELECT b.id, b.booking_ref").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_ref", "user_id", "guest_name",
			"guest_email", "guest_phone", "access_code_hash", "seat_id", "library_id",
			"booking_date", "start_time", "end_time", "duration_hours", "booking_price",
			"currency", "status", "created_at", "updated_at", "label", "type_name",
			"library_name", "library_city"}).
			AddRow(42, "ref-x", 3, nil, nil, nil, "", 7, 2, now, []byte("10:30:00"),
				[]byte("12:00:00"), 1.5, 75.0, "INR", model.BookingConfirmed, now, now,
				"S-01", "REGULAR", "Quiet Corner", "Pune"))

	// 1.5 hours at 50/hour prices the booking at 75.
	body := `{"seatId":7,"date":"2026-09-01","startTime":"10:30","endTime":"12:00"}`
	rec := exec(t, h.Create, jsonReq(http.MethodPost, "/v1/bookings", body), memberCtx(3))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bookingPrice":75`)
	assert.Contains(t, rec.Body.String(), `"durationHours":1.5`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestBookingRequiresContact(t *testing.T) {
	h, mock := newBookingHandler(t)

	body := `{"seatId":7,"date":"2026-09-01","startTime":"10:00","endTime":"12:00","guestName":"G"}`
	rec := exec(t, h.CreateGuest, jsonReq(http.MethodPost, "/v1/bookings/guest", body), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "guestName and guestEmail are required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestLookupWrongCode(t *testing.T) {
	h, mock := newBookingHandler(t)

	hash, err := utils.HashAccessCode("AAAABBBBCCCC", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE booking_ref").
		WithArgs("ref-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_ref", "user_id", "guest_name",
			"guest_email", "guest_phone", "access_code_hash", "seat_id", "library_id",
			"booking_date", "start_time", "end_time", "duration_hours", "booking_price",
			"currency", "status", "created_at", "updated_at"}).
			AddRow(9, "ref-9", nil, "Guest", "g@example.com", nil, hash, 7, 2, now,
				[]byte("10:00:00"), []byte("12:00:00"), 2.0, 100.0, "INR",
				model.BookingConfirmed, now, now))

	body := `{"bookingRef":"ref-9","accessCode":"FFFFFFFFFFFF"}`
	rec := exec(t, h.GuestLookup, jsonReq(http.MethodPost, "/v1/bookings/guest/lookup", body), nil)

	// Wrong code and unknown ref are indistinguishable.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	h, mock := newBookingHandler(t)

	now := time.Now()
	userID := int64(3)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "booking_ref", "user_id", "guest_name",
			"guest_email", "guest_phone", "access_code_hash", "seat_id", "library_id",
			"booking_date", "start_time", "end_time", "duration_hours", "booking_price",
			"currency", "status", "created_at", "updated_at"}).
			AddRow(5, "ref-5", userID, nil, nil, nil, "", 7, 2, now,
				[]byte("10:00:00"), []byte("12:00:00"), 2.0, 100.0, "INR",
				model.BookingCancelled, now, now)
	}
	mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE id").
		WithArgs(uint64(5)).WillReturnRows(row())
	mock.ExpectExec("UPDATE seat_bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE id").
		WithArgs(uint64(5)).WillReturnRows(row())

	req := jsonReq(http.MethodPatch, "/v1/bookings/5/cancel", "")
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	middleware.SetAuth(c, memberCtx(3))
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already cancelled")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelForeignBookingForbidden(t *testing.T) {
	h, mock := newBookingHandler(t)

	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM seat_bookings WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_ref", "user_id", "guest_name",
			"guest_email", "guest_phone", "access_code_hash", "seat_id", "library_id",
			"booking_date", "start_time", "end_time", "duration_hours", "booking_price",
			"currency", "status", "created_at", "updated_at"}).
			AddRow(5, "ref-5", 99, nil, nil, nil, "", 7, 2, now,
				[]byte("10:00:00"), []byte("12:00:00"), 2.0, 100.0, "INR",
				model.BookingConfirmed, now, now))

	req := jsonReq(http.MethodPatch, "/v1/bookings/5/cancel", "")
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	middleware.SetAuth(c, memberCtx(3))
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
