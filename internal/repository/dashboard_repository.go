package repository // repository defines aggregate queries for dashboards and reports

import (
	"context"
	"database/sql"
)

// DashboardRepo runs the aggregate queries behind the admin dashboard and
// the super-admin reports.  All amounts exclude CANCELLED and NO_SHOW
// bookings so revenue reflects money actually earned.
type DashboardRepo struct {
	db *sql.DB
}

// NewDashboardRepo constructs a DashboardRepo with the given DB handle.
func NewDashboardRepo(db *sql.DB) *DashboardRepo {
	return &DashboardRepo{db: db}
}

// LibraryStats summarizes one library for its admin dashboard.
type LibraryStats struct {
	TotalSeats      int     `json:"totalSeats"`
	ActiveSeats     int     `json:"activeSeats"`
	SeatTypes       int     `json:"seatTypes"`
	BookingsToday   int     `json:"bookingsToday"`
	BookingsTotal   int     `json:"bookingsTotal"`
	RevenueTotal    float64 `json:"revenueTotal"`
	MembershipPlans int     `json:"membershipPlans"`
}

// StatsForLibrary aggregates counters for the admin dashboard.
func (r *DashboardRepo) StatsForLibrary(ctx context.Context, libraryID uint64) (*LibraryStats, error) {
	const q = `SELECT
	  (SELECT COUNT(*) FROM seats WHERE library_id = ?),
	  (SELECT COUNT(*) FROM seats WHERE library_id = ? AND is_active = 1),
	  (SELECT COUNT(*) FROM seat_types WHERE library_id = ?),
	  (SELECT COUNT(*) FROM seat_bookings WHERE library_id = ? AND booking_date = CURDATE()
	     AND status IN ('PENDING','CONFIRMED')),
	  (SELECT COUNT(*) FROM seat_bookings WHERE library_id = ?),
	  (SELECT COALESCE(SUM(booking_price), 0) FROM seat_bookings WHERE library_id = ?
	     AND status IN ('CONFIRMED','COMPLETED')),
	  (SELECT COUNT(*) FROM membership_plans WHERE library_id = ? AND is_active = 1)`
	var s LibraryStats
	err := r.db.QueryRowContext(ctx, q, libraryID, libraryID, libraryID, libraryID,
		libraryID, libraryID, libraryID).Scan(&s.TotalSeats, &s.ActiveSeats, &s.SeatTypes,
		&s.BookingsToday, &s.BookingsTotal, &s.RevenueTotal, &s.MembershipPlans)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MonthBucket is one month of an aggregate series ("2026-08" style keys).
type MonthBucket struct {
	Month    string  `json:"month"`
	Bookings int     `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

// RevenueByMonth returns up to `months` trailing months of booking revenue
// for a library, oldest first.
func (r *DashboardRepo) RevenueByMonth(ctx context.Context, libraryID uint64, months int) ([]MonthBucket, error) {
	if months <= 0 || months > 36 {
		months = 12
	}
	const q = `SELECT DATE_FORMAT(booking_date, '%Y-%m') AS month,
	                  COUNT(*), COALESCE(SUM(booking_price), 0)
	           FROM seat_bookings
	           WHERE library_id = ? AND status IN ('CONFIRMED','COMPLETED')
	             AND booking_date >= DATE_SUB(CURDATE(), INTERVAL ? MONTH)
	           GROUP BY month ORDER BY month`
	return r.queryMonths(ctx, q, libraryID, months)
}

// GrowthByMonth returns the monthly booking counts across all libraries.
// Used by the super-admin growth chart.
func (r *DashboardRepo) GrowthByMonth(ctx context.Context, months int) ([]MonthBucket, error) {
	if months <= 0 || months > 36 {
		months = 12
	}
	const q = `SELECT DATE_FORMAT(booking_date, '%Y-%m') AS month,
	                  COUNT(*), COALESCE(SUM(booking_price), 0)
	           FROM seat_bookings
	           WHERE booking_date >= DATE_SUB(CURDATE(), INTERVAL ? MONTH)
	           GROUP BY month ORDER BY month`
	return r.queryMonths(ctx, q, months)
}

func (r *DashboardRepo) queryMonths(ctx context.Context, q string, args ...any) ([]MonthBucket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthBucket
	for rows.Next() {
		var b MonthBucket
		if err := rows.Scan(&b.Month, &b.Bookings, &b.Revenue); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TopLibrary is one row of the top-libraries leaderboard.
type TopLibrary struct {
	LibraryID uint64  `json:"libraryId"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Bookings  int     `json:"bookings"`
	Revenue   float64 `json:"revenue"`
}

// TopLibraries ranks approved libraries by booking count.
func (r *DashboardRepo) TopLibraries(ctx context.Context, limit int) ([]TopLibrary, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	const q = `SELECT l.id, l.name, l.city, COUNT(b.id),
	                  COALESCE(SUM(CASE WHEN b.status IN ('CONFIRMED','COMPLETED')
	                                    THEN b.booking_price ELSE 0 END), 0)
	           FROM libraries l
	           LEFT JOIN seat_bookings b ON b.library_id = l.id
	           WHERE l.status = 'APPROVED'
	           GROUP BY l.id, l.name, l.city
	           ORDER BY COUNT(b.id) DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopLibrary
	for rows.Next() {
		var t TopLibrary
		if err := rows.Scan(&t.LibraryID, &t.Name, &t.City, &t.Bookings, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PlatformOverview summarizes the whole platform for super-admin reports.
type PlatformOverview struct {
	Users             int     `json:"users"`
	Libraries         int     `json:"libraries"`
	PendingLibraries  int     `json:"pendingLibraries"`
	ApprovedLibraries int     `json:"approvedLibraries"`
	Bookings          int     `json:"bookings"`
	Revenue           float64 `json:"revenue"`
	ForumPosts        int     `json:"forumPosts"`
}

// Overview aggregates platform-wide counters.
func (r *DashboardRepo) Overview(ctx context.Context) (*PlatformOverview, error) {
	const q = `SELECT
	  (SELECT COUNT(*) FROM users),
	  (SELECT COUNT(*) FROM libraries),
	  (SELECT COUNT(*) FROM libraries WHERE status = 'PENDING'),
	  (SELECT COUNT(*) FROM libraries WHERE status = 'APPROVED'),
	  (SELECT COUNT(*) FROM seat_bookings),
	  (SELECT COALESCE(SUM(booking_price), 0) FROM seat_bookings
	     WHERE status IN ('CONFIRMED','COMPLETED')),
	  (SELECT COUNT(*) FROM forum_posts)`
	var o PlatformOverview
	err := r.db.QueryRowContext(ctx, q).Scan(&o.Users, &o.Libraries, &o.PendingLibraries,
		&o.ApprovedLibraries, &o.Bookings, &o.Revenue, &o.ForumPosts)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
