package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the login flow and the per-resource proxy routes.
// The gateway exposes the same resource surface as the backend under
// /api; each action is declared explicitly so the exposed surface is
// auditable in one place.
func RegisterRoutes(e *echo.Echo, identity *Identity, p *Proxy) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	e.GET("/auth/login", identity.Login)
	e.GET("/auth/callback", identity.Callback)
	e.POST("/auth/logout", identity.Logout)

	type action struct {
		method string // gateway method (matches backend)
		path   string // path under /api, backend path under /v1
		public bool
		file   bool
	}
	actions := []action{
		// Public browse + guest bookings.
		{http.MethodGet, "/libraries", true, false},
		{http.MethodGet, "/libraries/:id", true, false},
		{http.MethodGet, "/libraries/:id/seats", true, false},
		{http.MethodGet, "/libraries/:id/seat-types", true, false},
		{http.MethodGet, "/libraries/:id/plans", true, false},
		{http.MethodGet, "/libraries/:id/availability", true, false},
		{http.MethodPost, "/bookings/guest", true, false},
		{http.MethodPost, "/bookings/guest/lookup", true, false},
		{http.MethodPost, "/bookings/guest/cancel", true, false},
		{http.MethodPost, "/bookings/guest/bill", true, true},

		// Member.
		{http.MethodPost, "/users/sync", false, false},
		{http.MethodGet, "/users/me", false, false},
		{http.MethodPatch, "/users/me", false, false},
		{http.MethodPost, "/bookings", false, false},
		{http.MethodGet, "/bookings/me", false, false},
		{http.MethodPatch, "/bookings/:id/cancel", false, false},
		{http.MethodGet, "/bookings/:id/bill", false, true},
		{http.MethodPost, "/libraries", false, false},
		{http.MethodPost, "/forum/posts", false, false},
		{http.MethodGet, "/forum/posts", false, false},
		{http.MethodGet, "/forum/posts/:id", false, false},
		{http.MethodPut, "/forum/posts/:id", false, false},
		{http.MethodDelete, "/forum/posts/:id", false, false},
		{http.MethodPost, "/forum/posts/:id/like", false, false},
		{http.MethodPost, "/forum/posts/:id/comments", false, false},
		{http.MethodDelete, "/forum/comments/:id", false, false},

		// Library admin.
		{http.MethodGet, "/admin/library", false, false},
		{http.MethodPatch, "/admin/library", false, false},
		{http.MethodPost, "/admin/seat-types", false, false},
		{http.MethodGet, "/admin/seat-types", false, false},
		{http.MethodPut, "/admin/seat-types/:id", false, false},
		{http.MethodDelete, "/admin/seat-types/:id", false, false},
		{http.MethodPost, "/admin/seats", false, false},
		{http.MethodGet, "/admin/seats", false, false},
		{http.MethodPut, "/admin/seats/:id", false, false},
		{http.MethodDelete, "/admin/seats/:id", false, false},
		{http.MethodGet, "/admin/bookings", false, false},
		{http.MethodPatch, "/admin/bookings/:id/complete", false, false},
		{http.MethodPatch, "/admin/bookings/:id/no-show", false, false},
		{http.MethodPost, "/admin/plans", false, false},
		{http.MethodGet, "/admin/plans", false, false},
		{http.MethodPut, "/admin/plans/:id", false, false},
		{http.MethodDelete, "/admin/plans/:id", false, false},
		{http.MethodGet, "/admin/dashboard", false, false},
		{http.MethodGet, "/admin/dashboard/revenue", false, false},

		// Super-admin.
		{http.MethodGet, "/superadmin/libraries", false, false},
		{http.MethodPatch, "/superadmin/libraries/:id/approve", false, false},
		{http.MethodPatch, "/superadmin/libraries/:id/reject", false, false},
		{http.MethodGet, "/superadmin/users", false, false},
		{http.MethodPatch, "/superadmin/users/:id/verify", false, false},
		{http.MethodGet, "/superadmin/reports/overview", false, false},
		{http.MethodGet, "/superadmin/reports/growth", false, false},
		{http.MethodGet, "/superadmin/reports/top-libraries", false, false},
		{http.MethodGet, "/superadmin/reports/bookings", false, false},
	}
	for _, a := range actions {
		e.Add(a.method, "/api"+a.path, p.handler(route{
			method: a.method,
			path:   "/v1" + a.path,
			public: a.public,
			file:   a.file,
		}))
	}
}
