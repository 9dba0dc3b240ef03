package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/queue"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
	"github.com/studentsadda/studentsadda/internal/service"
	"github.com/studentsadda/studentsadda/internal/utils"
)

// bookingCurrency is the ISO code stamped on every booking.
const bookingCurrency = "INR"

// BookingHandler bundles dependencies for booking flows: authenticated
// bookings, guest bookings with access codes, availability, and the
// lifecycle transitions (cancel, complete, no-show).
type BookingHandler struct {
	Bookings   *repository.BookingRepo
	Seats      *repository.SeatRepo
	SeatTypes  *repository.SeatTypeRepo
	Libraries  *repository.LibraryRepo
	Publisher  *service.Publisher
	Log        *logrus.Logger
	BcryptCost int
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *repository.BookingRepo, seats *repository.SeatRepo,
	seatTypes *repository.SeatTypeRepo, libraries *repository.LibraryRepo,
	pub *service.Publisher, log *logrus.Logger, bcryptCost int) *BookingHandler {
	if bookings == nil || seats == nil || seatTypes == nil || libraries == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		Bookings: bookings, Seats: seats, SeatTypes: seatTypes, Libraries: libraries,
		Publisher: pub, Log: log, BcryptCost: bcryptCost,
	}
}

type bookingReq struct {
	SeatID     uint64 `json:"seatId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	GuestPhone string `json:"guestPhone"`
}

// slot is a validated booking time range.
type slot struct {
	date       string
	start, end string
	hours      float64
}

func (h *BookingHandler) parseSlot(req *bookingReq) (*slot, string) {
	if req.SeatID == 0 {
		return nil, "seatId is required"
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err.Error()
	}
	startMin, start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, "invalid startTime: " + err.Error()
	}
	endMin, end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, "invalid endTime: " + err.Error()
	}
	if endMin <= startMin {
		return nil, "endTime must be after startTime"
	}
	return &slot{date: date, start: start, end: end, hours: float64(endMin-startMin) / 60}, ""
}

// createBooking runs the shared transactional creation flow.  The seat is
// resolved and priced, then the overlap check and the insert run inside a
// single transaction so two concurrent requests for the same seat and slot
// cannot both succeed.
func (h *BookingHandler) createBooking(ctx context.Context, s *slot, b *model.SeatBooking) (int, string, error) {
	seat, err := h.Seats.GetByID(ctx, b.SeatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return http.StatusNotFound, "seat not found", err
		}
		return http.StatusInternalServerError, "seat lookup failed", err
	}
	if !seat.IsActive {
		return http.StatusConflict, "seat is not available for booking", repository.ErrConflict
	}
	if _, err := h.Libraries.GetApprovedByID(ctx, seat.LibraryID); err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return http.StatusNotFound, "library not found", err
		}
		return http.StatusInternalServerError, "library lookup failed", err
	}
	st, err := h.SeatTypes.GetByID(ctx, seat.SeatTypeID)
	if err != nil {
		return http.StatusInternalServerError, "seat type lookup failed", err
	}

	b.LibraryID = seat.LibraryID
	b.BookingDate = s.date
	b.StartTime = s.start
	b.EndTime = s.end
	b.DurationHours = s.hours
	b.BookingPrice = s.hours * st.PricePerHour
	b.Currency = bookingCurrency
	b.Status = model.BookingConfirmed
	b.BookingRef = uuid.NewString()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return http.StatusInternalServerError, "could not start transaction", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	overlap, err := h.Bookings.HasOverlapTx(ctx, tx, b.SeatID, s.date, s.start, s.end)
	if err != nil {
		return http.StatusInternalServerError, "availability check failed", err
	}
	if overlap {
		return http.StatusConflict, "seat already booked for this time slot", repository.ErrConflict
	}
	if err := h.Bookings.CreateTx(ctx, tx, b); err != nil {
		return http.StatusInternalServerError, "booking create failed", err
	}
	if err := tx.Commit(); err != nil {
		return http.StatusInternalServerError, "booking commit failed", err
	}
	committed = true
	return http.StatusCreated, "", nil
}

// publishEvent emits a booking event in the background.  Broker failures
// are logged by the publisher and never affect the response.
func (h *BookingHandler) publishEvent(kind string, d *repository.BookingDetail, email, name string) {
	if h.Publisher == nil {
		return
	}
	ev := queue.BookingEvent{
		Event:        kind,
		BookingID:    d.ID,
		BookingRef:   d.BookingRef,
		UserID:       d.UserID,
		ContactEmail: email,
		ContactName:  name,
		LibraryName:  d.LibraryName,
		SeatLabel:    d.SeatLabel,
		BookingDate:  d.BookingDate,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		Price:        d.BookingPrice,
		Currency:     d.Currency,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Publisher.Publish(ctx, ev)
	}()
}

func (h *BookingHandler) eventContact(d *repository.BookingDetail, u *model.User) (email, name string) {
	if d.IsGuest() {
		if d.GuestEmail != nil {
			email = *d.GuestEmail
		}
		if d.GuestName != nil {
			name = *d.GuestName
		}
		return email, name
	}
	if u != nil {
		return u.Email, u.Name
	}
	return "", ""
}

// Create handles POST /v1/bookings for authenticated members.
func (h *BookingHandler) Create(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	s, msg := h.parseSlot(&req)
	if s == nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID := ac.User.ID
	b := &model.SeatBooking{SeatID: req.SeatID, UserID: &userID}
	status, msg, err := h.createBooking(ctx, s, b)
	if err != nil {
		if status >= http.StatusInternalServerError {
			h.Log.WithError(err).Error("booking create failed")
			return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", msg)
		}
		return respond.Fail(c, status, http.StatusText(status), msg)
	}

	detail, err := h.Bookings.GetDetailByID(ctx, b.ID)
	if err != nil {
		h.Log.WithError(err).Error("booking detail load failed")
		return respond.OKMsg(c, http.StatusCreated, b, "booking confirmed")
	}
	email, name := h.eventContact(detail, ac.User)
	h.publishEvent(queue.EventBookingCreated, detail, email, name)
	return respond.OKMsg(c, http.StatusCreated, detail, "booking confirmed")
}

// CreateGuest handles POST /v1/bookings/guest.  A guest supplies contact
// details and receives a one-time access code alongside the booking; only
// a bcrypt hash of the code is stored.
func (h *BookingHandler) CreateGuest(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	req.GuestName = strings.TrimSpace(req.GuestName)
	req.GuestEmail = strings.TrimSpace(req.GuestEmail)
	req.GuestPhone = strings.TrimSpace(req.GuestPhone)
	if req.GuestName == "" || req.GuestEmail == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "guestName and guestEmail are required")
	}
	s, msg := h.parseSlot(&req)
	if s == nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	code, err := utils.NewAccessCode()
	if err != nil {
		h.Log.WithError(err).Error("access code generation failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking create failed")
	}
	hash, err := utils.HashAccessCode(code, h.BcryptCost)
	if err != nil {
		h.Log.WithError(err).Error("access code hash failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking create failed")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b := &model.SeatBooking{
		SeatID:         req.SeatID,
		GuestName:      &req.GuestName,
		GuestEmail:     &req.GuestEmail,
		AccessCodeHash: hash,
	}
	if req.GuestPhone != "" {
		b.GuestPhone = &req.GuestPhone
	}
	status, msg, err := h.createBooking(ctx, s, b)
	if err != nil {
		if status >= http.StatusInternalServerError {
			h.Log.WithError(err).Error("guest booking create failed")
			return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", msg)
		}
		return respond.Fail(c, status, http.StatusText(status), msg)
	}

	detail, err := h.Bookings.GetDetailByID(ctx, b.ID)
	if err != nil {
		h.Log.WithError(err).Error("booking detail load failed")
		detail = &repository.BookingDetail{SeatBooking: *b}
	} else {
		h.publishEvent(queue.EventBookingCreated, detail, req.GuestEmail, req.GuestName)
	}
	// The plain code exists only in this response.
	return respond.OKMsg(c, http.StatusCreated, echo.Map{
		"booking":    detail,
		"accessCode": code,
	}, "booking confirmed; keep the access code to manage it")
}

// ListMine handles GET /v1/bookings/me.
func (h *BookingHandler) ListMine(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Bookings.ListByUser(ctx, ac.User.ID)
	if err != nil {
		h.Log.WithError(err).Error("booking list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking list failed")
	}
	if list == nil {
		list = []repository.BookingDetail{}
	}
	return respond.OK(c, http.StatusOK, list)
}

// LibraryBookings handles GET /v1/admin/bookings with an optional ?date=
// filter, scoped to the admin's own library.
func (h *BookingHandler) LibraryBookings(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	date := c.QueryParam("date")
	if date != "" {
		if date, err = parseDate(date); err != nil {
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lib, err := h.Libraries.GetByAdmin(ctx, ac.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "no library registered")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library lookup failed")
	}
	list, err := h.Bookings.ListByLibraryAndAdmin(ctx, lib.ID, ac.User.ID, date)
	if err != nil {
		h.Log.WithError(err).Error("library booking list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking list failed")
	}
	if list == nil {
		list = []repository.BookingDetail{}
	}
	return respond.OK(c, http.StatusOK, list)
}

// Availability handles GET /v1/libraries/:id/availability?date=YYYY-MM-DD,
// returning each active seat with the slots already booked that day.
func (h *BookingHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "date query parameter: "+err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Libraries.GetApprovedByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "library not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library lookup failed")
	}
	seats, err := h.Bookings.Availability(ctx, id, date)
	if err != nil {
		h.Log.WithError(err).Error("availability query failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "availability query failed")
	}
	if seats == nil {
		seats = []repository.SeatAvailability{}
	}
	return respond.OK(c, http.StatusOK, echo.Map{"date": date, "seats": seats})
}

// canManage reports whether the caller may act on the booking: the booking
// user, the admin of the booking's library, or a super admin.
func (h *BookingHandler) canManage(ctx context.Context, ac *middleware.AuthContext, b *model.SeatBooking) bool {
	if ac.User.Role == model.RoleSuperAdmin {
		return true
	}
	if b.UserID != nil && *b.UserID == ac.User.ID {
		return true
	}
	if ac.User.Role == model.RoleAdmin {
		lib, err := h.Libraries.GetByAdmin(ctx, ac.User.ID)
		if err == nil && lib.ID == b.LibraryID {
			return true
		}
	}
	return false
}

// transition loads a booking, checks access, and applies a status change.
// A booking already outside allowedFrom yields 409 rather than an error.
func (h *BookingHandler) transition(c echo.Context, kind, to, conflictMsg string, allowedFrom ...string) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "booking not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking lookup failed")
	}
	if !h.canManage(ctx, ac, b) {
		return respond.Fail(c, http.StatusForbidden, "Forbidden", "not your booking")
	}
	if err := h.Bookings.TransitionStatus(ctx, id, to, allowedFrom...); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return respond.Fail(c, http.StatusConflict, "Conflict", conflictMsg)
		case errors.Is(err, repository.ErrBookingNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "booking not found")
		}
		h.Log.WithError(err).Error("booking status update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking update failed")
	}

	detail, err := h.Bookings.GetDetailByID(ctx, id)
	if err != nil {
		return respond.OKMsg(c, http.StatusOK, nil, "booking updated")
	}
	email, name := h.eventContact(detail, ac.User)
	if !detail.IsGuest() && (detail.UserID == nil || *detail.UserID != ac.User.ID) {
		// Status changed by staff on someone else's booking; the owner's
		// address is not on hand, so skip the notification.
		email, name = "", ""
	}
	h.publishEvent(kind, detail, email, name)
	return respond.OKMsg(c, http.StatusOK, detail, "booking "+strings.ReplaceAll(strings.ToLower(to), "_", " "))
}

// Cancel handles PATCH /v1/bookings/:id/cancel.  Cancelling an already
// cancelled booking is a conflict, not a server error.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, queue.EventBookingCancelled, model.BookingCancelled,
		"booking already cancelled or finished",
		model.BookingPending, model.BookingConfirmed)
}

// Complete handles PATCH /v1/admin/bookings/:id/complete.
func (h *BookingHandler) Complete(c echo.Context) error {
	return h.transition(c, queue.EventBookingCompleted, model.BookingCompleted,
		"booking is not in a confirmable state",
		model.BookingConfirmed)
}

// NoShow handles PATCH /v1/admin/bookings/:id/no-show.
func (h *BookingHandler) NoShow(c echo.Context) error {
	return h.transition(c, queue.EventBookingNoShow, model.BookingNoShow,
		"booking is not in a confirmable state",
		model.BookingConfirmed)
}

// Bill handles GET /v1/bookings/:id/bill, streaming a PDF receipt.
func (h *BookingHandler) Bill(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	detail, err := h.Bookings.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "booking not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking lookup failed")
	}
	if !h.canManage(ctx, ac, &detail.SeatBooking) {
		return respond.Fail(c, http.StatusForbidden, "Forbidden", "not your booking")
	}
	return h.streamBill(c, detail)
}

func (h *BookingHandler) streamBill(c echo.Context, detail *repository.BookingDetail) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/pdf")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="booking-`+detail.BookingRef+`.pdf"`)
	c.Response().WriteHeader(http.StatusOK)
	if err := service.RenderBill(detail, c.Response()); err != nil {
		h.Log.WithError(err).Error("bill render failed")
		return err
	}
	return nil
}

type guestAccessReq struct {
	BookingRef string `json:"bookingRef"`
	AccessCode string `json:"accessCode"`
}

// guestBooking resolves a guest access request to its booking, verifying
// the access code against the stored hash.  Wrong ref and wrong code both
// come back as the same 404 so the endpoint leaks nothing.
func (h *BookingHandler) guestBooking(c echo.Context, ctx context.Context) (*repository.BookingDetail, bool) {
	var req guestAccessReq
	if err := c.Bind(&req); err != nil {
		_ = respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
		return nil, false
	}
	req.BookingRef = strings.TrimSpace(req.BookingRef)
	if req.BookingRef == "" || strings.TrimSpace(req.AccessCode) == "" {
		_ = respond.Fail(c, http.StatusBadRequest, "Bad Request", "bookingRef and accessCode are required")
		return nil, false
	}
	b, err := h.Bookings.GetByRef(ctx, req.BookingRef)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			_ = respond.Fail(c, http.StatusNotFound, "Not Found", "booking not found")
		} else {
			_ = respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking lookup failed")
		}
		return nil, false
	}
	if !b.IsGuest() || !utils.VerifyAccessCode(b.AccessCodeHash, req.AccessCode) {
		_ = respond.Fail(c, http.StatusNotFound, "Not Found", "booking not found")
		return nil, false
	}
	detail, err := h.Bookings.GetDetailByID(ctx, b.ID)
	if err != nil {
		_ = respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking lookup failed")
		return nil, false
	}
	return detail, true
}

// GuestLookup handles POST /v1/bookings/guest/lookup.
func (h *BookingHandler) GuestLookup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	detail, ok := h.guestBooking(c, ctx)
	if !ok {
		return nil
	}
	return respond.OK(c, http.StatusOK, detail)
}

// GuestCancel handles POST /v1/bookings/guest/cancel.
func (h *BookingHandler) GuestCancel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	detail, ok := h.guestBooking(c, ctx)
	if !ok {
		return nil
	}
	if err := h.Bookings.TransitionStatus(ctx, detail.ID, model.BookingCancelled,
		model.BookingPending, model.BookingConfirmed); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return respond.Fail(c, http.StatusConflict, "Conflict", "booking already cancelled or finished")
		}
		h.Log.WithError(err).Error("guest cancel failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "booking update failed")
	}
	detail.Status = model.BookingCancelled
	email, name := h.eventContact(detail, nil)
	h.publishEvent(queue.EventBookingCancelled, detail, email, name)
	return respond.OKMsg(c, http.StatusOK, detail, "booking cancelled")
}

// GuestBill handles POST /v1/bookings/guest/bill, streaming a PDF receipt
// for a guest booking.
func (h *BookingHandler) GuestBill(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	detail, ok := h.guestBooking(c, ctx)
	if !ok {
		return nil
	}
	return h.streamBill(c, detail)
}
