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

// MembershipHandler manages membership plans offered by libraries.
type MembershipHandler struct {
	Plans     *repository.MembershipRepo
	Libraries *repository.LibraryRepo
	Log       *logrus.Logger
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(plans *repository.MembershipRepo, libraries *repository.LibraryRepo,
	log *logrus.Logger) *MembershipHandler {
	if plans == nil || libraries == nil {
		panic("nil repository passed to NewMembershipHandler")
	}
	return &MembershipHandler{Plans: plans, Libraries: libraries, Log: log}
}

func (h *MembershipHandler) adminLibrary(c echo.Context) *model.Library {
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

type planReq struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	DurationDays uint32   `json:"durationDays"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"isActive"`
}

func (r *planReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.Price <= 0 {
		return "price must be positive"
	}
	if r.DurationDays == 0 {
		return "durationDays must be positive"
	}
	return ""
}

// Create handles POST /v1/admin/plans.
func (h *MembershipHandler) Create(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	var req planReq
	if err := c.Bind(&req); err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", msg)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := &model.MembershipPlan{
		LibraryID:    lib.ID,
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		IsActive:     true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Plans.Create(ctx, p); err != nil {
		h.Log.WithError(err).Error("plan create failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan create failed")
	}
	return respond.OKMsg(c, http.StatusCreated, p, "plan created")
}

// ListMine handles GET /v1/admin/plans, returning inactive plans too.
func (h *MembershipHandler) ListMine(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	plans, err := h.Plans.ListByLibrary(ctx, lib.ID, false)
	if err != nil {
		h.Log.WithError(err).Error("plan list failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan list failed")
	}
	return respond.OK(c, http.StatusOK, plans)
}

// PublicList handles GET /v1/libraries/:id/plans: active plans of an
// approved library.
func (h *MembershipHandler) PublicList(c echo.Context) error {
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
	plans, err := h.Plans.ListByLibrary(ctx, id, true)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan list failed")
	}
	return respond.OK(c, http.StatusOK, plans)
}

// Update handles PUT /v1/admin/plans/:id.
func (h *MembershipHandler) Update(c echo.Context) error {
	lib := h.adminLibrary(c)
	if lib == nil {
		return nil
	}
	id, err := pathID(c, "id")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	var req planReq
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

	if err := h.Plans.UpdateByIDAndLibrary(ctx, id, lib.ID,
		req.Name, req.Price, req.DurationDays, req.Features, active); err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "plan not found")
		}
		h.Log.WithError(err).Error("plan update failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan update failed")
	}
	p, err := h.Plans.GetByIDAndLibrary(ctx, id, lib.ID)
	if err != nil {
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan reload failed")
	}
	return respond.OKMsg(c, http.StatusOK, p, "plan updated")
}

// Delete handles DELETE /v1/admin/plans/:id.
func (h *MembershipHandler) Delete(c echo.Context) error {
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

	if err := h.Plans.DeleteByIDAndLibrary(ctx, id, lib.ID); err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return respond.Fail(c, http.StatusNotFound, "Not Found", "plan not found")
		}
		h.Log.WithError(err).Error("plan delete failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "plan delete failed")
	}
	return respond.OKMsg(c, http.StatusOK, nil, "plan deleted")
}
