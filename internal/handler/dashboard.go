package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
	"github.com/studentsadda/studentsadda/internal/respond"
)

// DashboardHandler serves aggregate views: the admin dashboard for a
// single library and the platform-wide super-admin reports.
type DashboardHandler struct {
	Dashboards *repository.DashboardRepo
	Bookings   *repository.BookingRepo
	Libraries  *repository.LibraryRepo
	Log        *logrus.Logger
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboards *repository.DashboardRepo, bookings *repository.BookingRepo,
	libraries *repository.LibraryRepo, log *logrus.Logger) *DashboardHandler {
	if dashboards == nil || bookings == nil || libraries == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Dashboards: dashboards, Bookings: bookings, Libraries: libraries, Log: log}
}

// queryInt parses an optional positive integer query parameter; zero
// means "not supplied" and lets the repository pick its default.
func queryInt(c echo.Context, name, badMsg string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New(badMsg)
	}
	return n, nil
}

// Stats handles GET /v1/admin/dashboard: counters for the admin's library.
func (h *DashboardHandler) Stats(c echo.Context) error {
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
	stats, err := h.Dashboards.StatsForLibrary(ctx, lib.ID)
	if err != nil {
		h.Log.WithError(err).Error("dashboard stats failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "dashboard stats failed")
	}
	return respond.OK(c, http.StatusOK, echo.Map{"library": lib, "stats": stats})
}

// Revenue handles GET /v1/admin/dashboard/revenue?months=.
func (h *DashboardHandler) Revenue(c echo.Context) error {
	ac, err := middleware.AuthFrom(c)
	if err != nil {
		return respond.Fail(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	months, err := queryInt(c, "months", "invalid months")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
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
	series, err := h.Dashboards.RevenueByMonth(ctx, lib.ID, months)
	if err != nil {
		h.Log.WithError(err).Error("revenue series failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "revenue series failed")
	}
	if series == nil {
		series = []repository.MonthBucket{}
	}
	return respond.OK(c, http.StatusOK, series)
}

// Growth handles GET /v1/superadmin/reports/growth?months=.
func (h *DashboardHandler) Growth(c echo.Context) error {
	months, err := queryInt(c, "months", "invalid months")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	series, err := h.Dashboards.GrowthByMonth(ctx, months)
	if err != nil {
		h.Log.WithError(err).Error("growth series failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "growth series failed")
	}
	if series == nil {
		series = []repository.MonthBucket{}
	}
	return respond.OK(c, http.StatusOK, series)
}

// TopLibraries handles GET /v1/superadmin/reports/top-libraries?limit=.
func (h *DashboardHandler) TopLibraries(c echo.Context) error {
	limit, err := queryInt(c, "limit", "invalid limit")
	if err != nil {
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	top, err := h.Dashboards.TopLibraries(ctx, limit)
	if err != nil {
		h.Log.WithError(err).Error("top libraries query failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "top libraries query failed")
	}
	if top == nil {
		top = []repository.TopLibrary{}
	}
	return respond.OK(c, http.StatusOK, top)
}

// Overview handles GET /v1/superadmin/reports/overview.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Dashboards.Overview(ctx)
	if err != nil {
		h.Log.WithError(err).Error("overview query failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "overview query failed")
	}
	return respond.OK(c, http.StatusOK, o)
}

// AllBookings handles GET /v1/superadmin/reports/bookings with optional
// ?status= and ?date= filters.
func (h *DashboardHandler) AllBookings(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", model.BookingPending, model.BookingConfirmed, model.BookingCancelled,
		model.BookingCompleted, model.BookingNoShow:
	default:
		return respond.Fail(c, http.StatusBadRequest, "Bad Request", "invalid status filter")
	}
	date := c.QueryParam("date")
	if date != "" {
		var err error
		if date, err = parseDate(date); err != nil {
			return respond.Fail(c, http.StatusBadRequest, "Bad Request", err.Error())
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Bookings.ListAll(ctx, status, date)
	if err != nil {
		h.Log.WithError(err).Error("bookings report failed")
		return respond.Fail(c, http.StatusInternalServerError, "Internal Server Error", "bookings report failed")
	}
	if list == nil {
		list = []repository.BookingDetail{}
	}
	return respond.OK(c, http.StatusOK, list)
}
