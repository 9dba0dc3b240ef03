// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studentsadda/studentsadda/internal/handler"
	"github.com/studentsadda/studentsadda/internal/middleware"
	"github.com/studentsadda/studentsadda/internal/model"
)

// Handlers groups every handler the router needs.  The struct keeps the
// registration signatures short and makes wiring explicit in main.
type Handlers struct {
	Users       *handler.UserHandler
	Libraries   *handler.LibraryHandler
	SeatTypes   *handler.SeatTypeHandler
	Seats       *handler.SeatHandler
	Bookings    *handler.BookingHandler
	Memberships *handler.MembershipHandler
	Forum       *handler.ForumHandler
	Dashboards  *handler.DashboardHandler
}

// Register mounts all routes on the Echo instance.  Routes fall into four
// tiers: public browse endpoints, authenticated member endpoints, library
// admin endpoints and super-admin endpoints.  The authn middleware is
// shared; each protected tier adds its own role check.
//
// The response cache applies only to the public browse routes listed
// here: its key carries no caller identity, so it must never sit in
// front of an authenticated route.  Availability is also left uncached
// because it changes with every booking.
func Register(e *echo.Echo, h Handlers, authn, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Public browse and guest booking endpoints.  No authentication; guest
	// booking management is gated by the per-booking access code instead.
	e.GET("/v1/libraries", h.Libraries.PublicList, cache)
	e.GET("/v1/libraries/:id", h.Libraries.PublicGet, cache)
	e.GET("/v1/libraries/:id/seats", h.Seats.PublicList, cache)
	e.GET("/v1/libraries/:id/seat-types", h.SeatTypes.PublicList, cache)
	e.GET("/v1/libraries/:id/plans", h.Memberships.PublicList, cache)
	e.GET("/v1/libraries/:id/availability", h.Bookings.Availability)
	e.POST("/v1/bookings/guest", h.Bookings.CreateGuest)
	e.POST("/v1/bookings/guest/lookup", h.Bookings.GuestLookup)
	e.POST("/v1/bookings/guest/cancel", h.Bookings.GuestCancel)
	e.POST("/v1/bookings/guest/bill", h.Bookings.GuestBill)

	// First-login sync verifies the token itself, so it sits outside the
	// authenticated group: the shared middleware rejects unknown users with
	// 404 and sync is exactly how a user stops being unknown.
	e.POST("/v1/users/sync", h.Users.Sync)

	// Authenticated endpoints open to every active account.
	member := e.Group("/v1", authn,
		middleware.RequireRole(model.RoleMember, model.RoleAdmin, model.RoleSuperAdmin))
	member.GET("/users/me", h.Users.Me)
	member.PATCH("/users/me", h.Users.UpdateMe)
	member.POST("/bookings", h.Bookings.Create)
	member.GET("/bookings/me", h.Bookings.ListMine)
	member.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)
	member.GET("/bookings/:id/bill", h.Bookings.Bill)
	member.POST("/libraries", h.Libraries.Register)
	member.POST("/forum/posts", h.Forum.CreatePost)
	member.GET("/forum/posts", h.Forum.ListPosts)
	member.GET("/forum/posts/:id", h.Forum.GetPost)
	member.PUT("/forum/posts/:id", h.Forum.UpdatePost)
	member.DELETE("/forum/posts/:id", h.Forum.DeletePost)
	member.POST("/forum/posts/:id/like", h.Forum.ToggleLike)
	member.POST("/forum/posts/:id/comments", h.Forum.CreateComment)
	member.DELETE("/forum/comments/:id", h.Forum.DeleteComment)

	// Library admin endpoints.  RequireRole also enforces the verification
	// gate: an unverified admin gets 403 until a super-admin verifies them.
	admin := e.Group("/v1/admin", authn,
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))
	admin.GET("/library", h.Libraries.MyLibrary)
	admin.PATCH("/library", h.Libraries.UpdateMyLibrary)
	admin.POST("/seat-types", h.SeatTypes.Create)
	admin.GET("/seat-types", h.SeatTypes.ListMine)
	admin.PUT("/seat-types/:id", h.SeatTypes.Update)
	admin.DELETE("/seat-types/:id", h.SeatTypes.Delete)
	admin.POST("/seats", h.Seats.Create)
	admin.GET("/seats", h.Seats.ListMine)
	admin.PUT("/seats/:id", h.Seats.Update)
	admin.DELETE("/seats/:id", h.Seats.Delete)
	admin.GET("/bookings", h.Bookings.LibraryBookings)
	admin.PATCH("/bookings/:id/complete", h.Bookings.Complete)
	admin.PATCH("/bookings/:id/no-show", h.Bookings.NoShow)
	admin.POST("/plans", h.Memberships.Create)
	admin.GET("/plans", h.Memberships.ListMine)
	admin.PUT("/plans/:id", h.Memberships.Update)
	admin.DELETE("/plans/:id", h.Memberships.Delete)
	admin.GET("/dashboard", h.Dashboards.Stats)
	admin.GET("/dashboard/revenue", h.Dashboards.Revenue)

	// Super-admin endpoints: library approval, user management and reports.
	super := e.Group("/v1/superadmin", authn,
		middleware.RequireRole(model.RoleSuperAdmin))
	super.GET("/libraries", h.Libraries.ListByStatus)
	super.PATCH("/libraries/:id/approve", h.Libraries.Approve)
	super.PATCH("/libraries/:id/reject", h.Libraries.Reject)
	super.GET("/users", h.Users.List)
	super.PATCH("/users/:id/verify", h.Users.Verify)
	super.GET("/reports/overview", h.Dashboards.Overview)
	super.GET("/reports/growth", h.Dashboards.Growth)
	super.GET("/reports/top-libraries", h.Dashboards.TopLibraries)
	super.GET("/reports/bookings", h.Dashboards.AllBookings)
}
