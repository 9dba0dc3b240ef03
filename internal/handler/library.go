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

// LibraryHandler bundles dependencies for library registration, public
// browsing, the admin profile and the super-admin approval queue.
type LibraryHandler struct {
	Libraries *repository.LibraryRepo
	SeatTypes *repository.SeatTypeRepo
	Users     *repository.UserRepo
	Log       *logrus.Logger
}

// NewLibraryHandler constructs a LibraryHandler.
func NewLibraryHandler(libraries *repository.LibraryRepo, seatTypes *repository.SeatTypeRepo,
	users *repository.UserRepo, log *logrus.Logger) *LibraryHandler {
	if libraries == nil || seatTypes == nil || users == nil {
		panic("nil repository passed to NewLibraryHandler")
	}
	return &LibraryHandler{Libraries: libraries, SeatTypes: seatTypes, Users: users, Log: log}
}

type registerLibraryReq struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Pincode     string   `json:"pincode"`
	Amenities   []string `json:"amenities"`
}

// Register handles POST /v1/libraries.  Any authenticated user can submit
// a registration; the submitter is promoted to ADMIN (pending super-admin
// verification) and the library starts in PENDING state.  A default
// REGULAR seat type is provisioned immediately so seats can never be
// created against a library with no types.
func (h *LibraryHandler) Register(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	var req registerLibraryReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.Pincode = strings.TrimSpace(req.Pincode)
	if req.Name == "" || req.Address == "" || req.City == "" || req.State == "" || req.Pincode == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "name, address, city, state and pincode are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// One library per admin.
	if _, err := h.Libraries.GetByAdmin(ctx, ac.User.ID); err == nil {
		return respond.Fail(c, http.StatusConflict, "Conflict", "user already owns a library")
	} else if !errors.Is(err, repository.ErrLibraryNotFound) {
		h.Log.WithError(err).Error("library lookup failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "registration failed")
	}

	lib := &model.Library{
		AdminID:     ac.User.ID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Pincode:     req.Pincode,
		Amenities:   req.Amenities,
	}
	if err := h.Libraries.Create(ctx, lib); err != nil {
		h.Log.WithError(err).Error("library create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "registration failed")
	}
	if _, err := h.SeatTypes.EnsureDefault(ctx, lib.ID); err != nil {
		h.Log.WithError(err).Error("default seat type provisioning failed")
	}
	if ac.User.Role == model.RoleMember {
		if err := h.Users.SetRole(ctx, ac.User.ID, model.RoleAdmin); err != nil {
			h.Log.WithError(err).Error("role promotion failed")
		}
	}
	return respond.OKMsg(c, http.StatusCreated, lib, "registration submitted for approval")
}

// PublicList handles GET /v1/libraries.  Only approved libraries are
// returned; ?city= filters the listing.
func (h *LibraryHandler) PublicList(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	libs, err := h.Libraries.ListApproved(ctx, strings.TrimSpace(c.QueryParam("city")))
	if err != nil {
		h.Log.WithError(err).Error("library list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library list failed")
	}
	return respond.OK(c, http.StatusOK, libs)
}

// PublicGet handles GET /v1/libraries/:id for approved libraries.
func (h *LibraryHandler) PublicGet(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	lib, err := h.Libraries.GetApprovedByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "library not found")
		}
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library lookup failed")
	}
	return respond.OK(c, http.StatusOK, lib)
}

// MyLibrary handles GET /v1/admin/library: the admin's own profile,
// whatever its approval status.
func (h *LibraryHandler) MyLibrary(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
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
	return respond.OK(c, http.StatusOK, lib)
}

type updateLibraryReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	Pincode     *string  `json:"pincode"`
	Amenities   []string `json:"amenities"`
}

// UpdateMyLibrary handles PATCH /v1/admin/library.  The body is a partial
// field set: absent fields keep their stored values, so the returned
// profile reflects exactly the requested changes.
func (h *LibraryHandler) UpdateMyLibrary(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	var req updateLibraryReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "name cannot be empty")
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
	if err := h.Libraries.UpdatePartial(ctx, lib.ID, ac.User.ID, req.Name, req.Description,
		req.Address, req.City, req.State, req.Pincode, req.Amenities); err != nil {
		h.Log.WithError(err).Error("library update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library update failed")
	}
	updated, err := h.Libraries.GetByID(ctx, lib.ID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, updated, "library updated")
}

// ListByStatus handles GET /v1/superadmin/libraries?status=PENDING.
func (h *LibraryHandler) ListByStatus(c echo.Context) error {
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", model.LibraryPending, model.LibraryApproved, model.LibraryRejected:
	default:
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "unknown status filter")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	libs, err := h.Libraries.ListByStatus(ctx, status)
	if err != nil {
		h.Log.WithError(err).Error("library list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "library list failed")
	}
	return respond.OK(c, http.StatusOK, libs)
}

// Approve handles PATCH /v1/superadmin/libraries/:id/approve.
func (h *LibraryHandler) Approve(c echo.Context) error {
	return h.setStatus(c, model.LibraryApproved, "library approved")
}

// Reject handles PATCH /v1/superadmin/libraries/:id/reject.
func (h *LibraryHandler) Reject(c echo.Context) error {
	return h.setStatus(c, model.LibraryRejected, "library rejected")
}

func (h *LibraryHandler) setStatus(c echo.Context, status, message string) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Libraries.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrLibraryNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "library not found")
		}
		h.Log.WithError(err).Error("library status change failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "status change failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, message)
}
