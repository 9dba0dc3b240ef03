package model

import "time"

// MembershipPlan is a recurring access plan sold by a library.  Plans are
// managed by the library admin and listed publicly for approved libraries.
//
// Fields:
//
//	ID           – primary key identifier.
//	LibraryID    – library offering the plan.
//	Name         – plan label (e.g. Monthly, Quarterly).
//	Price        – plan price in the library's currency.
//	DurationDays – validity period in days.
//	Features     – list of included features (stored as JSON).
//	IsActive     – whether the plan is currently offered.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type MembershipPlan struct {
	ID           uint64    `json:"id"`           // membership_plans.id
	LibraryID    uint64    `json:"libraryId"`    // membership_plans.library_id
	Name         string    `json:"name"`         // membership_plans.name
	Price        float64   `json:"price"`        // membership_plans.price
	DurationDays uint32    `json:"durationDays"` // membership_plans.duration_days
	Features     []string  `json:"features"`     // membership_plans.features (JSON column)
	IsActive     bool      `json:"isActive"`     // membership_plans.is_active
	CreatedAt    time.Time `json:"createdAt"`    // membership_plans.created_at
	UpdatedAt    time.Time `json:"updatedAt"`    // membership_plans.updated_at
}
