package model

import "time"

// Library approval states.  Only APPROVED libraries are visible on public
// listing endpoints.
const (
	LibraryPending  = "PENDING"
	LibraryApproved = "APPROVED"
	LibraryRejected = "REJECTED"
)

// Library is a tenant entity owning seats, seat types and membership
// plans.  It is created by a registration request in PENDING state and is
// approved or rejected by a super-admin.
//
// Fields:
//
//	ID          – primary key identifier.
//	AdminID     – user (ADMIN role) owning this library.
//	Name        – display name.
//	Description – optional free-text description.
//	Address     – street address.
//	City        – city name.
//	State       – state name.
//	Pincode     – postal code.
//	Status      – PENDING, APPROVED or REJECTED.
//	Amenities   – list of amenity labels (stored as JSON).
//	TotalSeats  – aggregate seat count maintained by seat mutations.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Library struct {
	ID          uint64    `json:"id"`          // libraries.id
	AdminID     uint64    `json:"adminId"`     // libraries.admin_id
	Name        string    `json:"name"`        // libraries.name
	Description *string   `json:"description"` // libraries.description (nullable)
	Address     string    `json:"address"`     // libraries.address
	City        string    `json:"city"`        // libraries.city
	State       string    `json:"state"`       // libraries.state
	Pincode     string    `json:"pincode"`     // libraries.pincode
	Status      string    `json:"status"`      // libraries.status
	Amenities   []string  `json:"amenities"`   // libraries.amenities (JSON column)
	TotalSeats  uint32    `json:"totalSeats"`  // libraries.total_seats
	CreatedAt   time.Time `json:"createdAt"`   // libraries.created_at
	UpdatedAt   time.Time `json:"updatedAt"`   // libraries.updated_at
}
