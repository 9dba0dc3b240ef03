package model

import "time"

// SeatType is a category of seat with its own hourly price and amenities.
// Every seat must reference a valid seat type; the schema enforces this
// with a NOT NULL foreign key.
//
// Fields:
//
//	ID           – primary key identifier.
//	LibraryID    – library owning this type.
//	Name         – type label (e.g. REGULAR, AC CABIN).
//	PricePerHour – hourly rate used to price bookings.
//	Description  – short description shown to members.
//	Color        – hex color tag used by the seat map UI.
//	Amenities    – list of amenity labels (stored as JSON).
//	IsActive     – soft availability flag.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type SeatType struct {
	ID           uint64    `json:"id"`           // seat_types.id
	LibraryID    uint64    `json:"libraryId"`    // seat_types.library_id
	Name         string    `json:"type"`         // seat_types.name
	PricePerHour float64   `json:"pricePerHour"` // seat_types.price_per_hour
	Description  string    `json:"description"`  // seat_types.description
	Color        string    `json:"color"`        // seat_types.color
	Amenities    []string  `json:"amenities"`    // seat_types.amenities (JSON column)
	IsActive     bool      `json:"isActive"`     // seat_types.is_active
	CreatedAt    time.Time `json:"createdAt"`    // seat_types.created_at
	UpdatedAt    time.Time `json:"updatedAt"`    // seat_types.updated_at
}

// Seat is a bookable physical location within a library, typed by
// SeatType.
//
// Fields:
//
//	ID         – primary key identifier.
//	LibraryID  – library owning this seat.
//	SeatTypeID – seat type; never null.
//	Label      – seat label unique within the library (e.g. S-12).
//	IsActive   – soft availability flag (not a reservation).
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    `json:"id"`         // seats.id
	LibraryID  uint64    `json:"libraryId"`  // seats.library_id
	SeatTypeID uint64    `json:"seatTypeId"` // seats.seat_type_id
	Label      string    `json:"label"`      // seats.label
	IsActive   bool      `json:"isActive"`   // seats.is_active
	CreatedAt  time.Time `json:"createdAt"`  // seats.created_at
	UpdatedAt  time.Time `json:"updatedAt"`  // seats.updated_at
}
