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

// SeatTypeHandler bundles dependencies for seat type management.  All
// admin methods resolve the caller's library from the auth context, so an
// admin can never touch another library's types.
type SeatTypeHandler struct {
	SeatTypes *repository.SeatTypeRepo
	Libraries *repository.LibraryRepo
	Log       *logrus.Logger
}

// NewSeatTypeHandler constructs a SeatTypeHandler.
func NewSeatTypeHandler(seatTypes *repository.SeatTypeRepo, libraries *repository.LibraryRepo, log *logrus.Logger) *SeatTypeHandler {
	if seatTypes == nil || libraries == nil {
		panic("nil repository passed to NewSeatTypeHandler")
	}
	return &SeatTypeHandler{SeatTypes: seatTypes, Libraries: libraries, Log: log}
}

// adminLibrary resolves the calling admin's library or writes the error
// response and returns nil.
func (h *SeatTypeHandler) adminLibrary(c echo.Context) *model.Library {
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

type seatTypeReq struct {
	Type         string   `json:"Type"`
	PricePerHour float64  `json:"pricePerHour"`
	Description  string   `json:"description"`
	Color        string   `json:"color"`
	Amenities    []string `json:"amenities"`
	IsActive     *bool    `json:"isActive"`
}

func (r *seatTypeReq) validate() string {
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	r.Description = strings.TrimSpace(r.Description)
	r.Color = strings.TrimSpace(r.Color)
	if r.Type == "" {
		return "Type is required"
	}
	if r.PricePerHour <= 0 {
		return "pricePerHour must be positive"
	}
	if r.Color == "" {
		r.Color = repository.DefaultSeatType.Color
	}
	return ""
}

// Create handles POST /v1/admin/seat-types.  When the library has no
// types yet, the REGULAR default is provisioned first; the requested type
// is then created (unless it is itself the default just provisioned).
func (h *SeatTypeHandler) Create(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	var req seatTypeReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if def, err := h.SeatTypes.EnsureDefault(ctx, lib.ID); err != nil {
		h.Log.WithError(err).Error("default seat type provisioning failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type create failed")
	} else if def != nil && def.Name == req.Type {
		// The requested type was the default we just provisioned; report
		// it as created rather than violating the unique name constraint.
		return respond.OKMsg(c, http.StatusCreated, def, "seat type created")
	}

	st := &model.SeatType{
		LibraryID:    lib.ID,
		Name:         req.Type,
		PricePerHour: req.PricePerHour,
		Description:  req.Description,
		Color:        req.Color,
		Amenities:    req.Amenities,
	}
	if err := h.SeatTypes.Create(ctx, st); err != nil {
		h.Log.WithError(err).Error("seat type create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type create failed")
	}
	return respond.OKMsg(c, http.StatusCreated, st, "seat type created")
}

// ListMine handles GET /v1/admin/seat-types.
func (h *SeatTypeHandler) ListMine(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	types, err := h.SeatTypes.ListByLibrary(ctx, lib.ID)
	if err != nil {
		h.Log.WithError(err).Error("seat type list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type list failed")
	}
	return respond.OK(c, http.StatusOK, types)
}

// PublicList handles GET /v1/libraries/:id/seat-types for approved
// libraries.
func (h *SeatTypeHandler) PublicList(c echo.Context) error {
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
	types, err := h.SeatTypes.ListByLibrary(ctx, id)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type list failed")
	}
	return respond.OK(c, http.StatusOK, types)
}

// Update handles PUT /v1/admin/seat-types/:id.
func (h *SeatTypeHandler) Update(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	var req seatTypeReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.SeatTypes.UpdateByIDAndLibrary(ctx, id, lib.ID, req.Type, req.PricePerHour,
		req.Description, req.Color, req.Amenities, active); err != nil {
		if errors.Is(err, repository.ErrSeatTypeNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "seat type not found")
		}
		h.Log.WithError(err).Error("seat type update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type update failed")
	}
	st, err := h.SeatTypes.GetByIDAndLibrary(ctx, id, lib.ID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, st, "seat type updated")
}

// Delete handles DELETE /v1/admin/seat-types/:id.  Types still referenced
// by seats cannot be deleted.
func (h *SeatTypeHandler) Delete(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.SeatTypes.DeleteByIDAndLibrary(ctx, id, lib.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return respond.Fail(c, http.StatusConflict, "Conflict", "seats still reference this type")
		case errors.Is(err, repository.ErrSeatTypeNotFound):
			return respond.Fail(c, http.StatusNotFound, "Not Found", "seat type not found")
		}
		h.Log.WithError(err).Error("seat type delete failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "seat type delete failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "seat type deleted")
}
