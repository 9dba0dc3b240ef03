package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// SeatHandler bundles dependencies for seat management.
type SeatHandler struct {
	Seats     *repository.SeatRepo
	SeatTypes *repository.SeatTypeRepo
	Libraries *repository.LibraryRepo
	Log       *logrus.Logger
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(seats *repository.SeatRepo, seatTypes *repository.SeatTypeRepo,
	libraries *repository.LibraryRepo, log *logrus.Logger) *SeatHandler {
	if seats == nil || seatTypes == nil || libraries == nil {
		panic("nil repository passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats, SeatTypes: seatTypes, Libraries: libraries, Log: log}
}

func (h *SeatHandler) adminLibrary(c echo.Context) *model.Library {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		_ = respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	lib, err := h.Libraries.GetByAdmin(ctx, ac.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			_ = respond.Fail(c, http.StatusNotFound, "Not Found", "no library registered")
		} else {
			_ = respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library lookup failed")
		}
		return nil
	}
	return lib
}

type seatReq struct {
	Label      string `json:"label"`
	SeatTypeID uint64 `json:"seatTypeId"`
	IsActive   *bool  `json:"isActive"`
}

// Create handles POST /v1/admin/seats.  A seatTypeId that does not
// reference a seat type of the admin's library is rejected with 400; the
// repository guard makes a dangling reference impossible even under
// concurrent type deletion.
func (h *SeatHandler) Create(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	var req seatReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "label is required")
	}
	if req.SeatTypeID == 0 {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "seatTypeId is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	seat := &model.Seat{LibraryID: lib.ID, SeatTypeID: req.SeatTypeID, Label: req.Label}
	if err := h.Seats.Create(ctx, seat); err != nil {
		if errors.Is(err, repository.ErrSeatTypeNotFound) {
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", "seatTypeId does not reference a seat type of this library")
		}
		h.Log.WithError(err).Error("seat create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat create failed")
	}
	if err := h.Libraries.AdjustTotalSeats(ctx, lib.ID, 1); err != nil {
		h.Log.WithError(err).Warn("total seats adjustment failed")
	}
	return respond.OKMsg(c, http.StatusCreated, seat, "seat created")
}

// ListMine handles GET /v1/admin/seats (all seats, including inactive).
func (h *SeatHandler) ListMine(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	seats, err := h.Seats.ListByLibrary(ctx, lib.ID, false)
	if err != nil {
		h.Log.WithError(err).Error("seat list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat list failed")
	}
	return respond.OK(c, http.StatusOK, seats)
}

// PublicList handles GET /v1/libraries/:id/seats: active seats of an
// approved library.
func (h *SeatHandler) PublicList(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Libraries.GetApprovedByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "library not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library lookup failed")
	}
	seats, err := h.Seats.ListByLibrary(ctx, id, true)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat list failed")
	}
	return respond.OK(c, http.StatusOK, seats)
}

// Update handles PUT /v1/admin/seats/:id.
func (h *SeatHandler) Update(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	var req seatReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" || req.SeatTypeID == 0 {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "label and seatTypeId are required")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Seats.UpdateByIDAndAdmin(ctx, id, ac.User.ID, req.Label, req.SeatTypeID, active); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "seat not found")
		case errors.Is(err, repository.ErrSeatTypeNotFound):
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", "seatTypeId does not reference a seat type of this library")
		}
		h.Log.WithError(err).Error("seat update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat update failed")
	}
	seat, err := h.Seats.GetByIDAndAdmin(ctx, id, ac.User.ID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, seat, "seat updated")
}

// Delete handles DELETE /v1/admin/seats/:id.
func (h *SeatHandler) Delete(c echo.Context) error {
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

	seat, err := h.Seats.GetByIDAndAdmin(ctx, id, ac.User.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "seat not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat lookup failed")
	}
	if err := h.Seats.DeleteByIDAndAdmin(ctx, id, ac.User.ID); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "seat not found")
		}
		h.Log.WithError(err).Error("seat delete failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat delete failed")
	}
	if err := h.Libraries.AdjustTotalSeats(ctx, seat.LibraryID, -1); err != nil {
		h.Log.WithError(err).Warn("total seats adjustment failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "seat deleted")
}
