package model

import "time"

// SeatBooking statuses.  A booking is created CONFIRMED and moves to
// CANCELLED, COMPLETED or NO_SHOW through dedicated actions.  PENDING is
// reserved for flows that require payment before confirmation.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
	BookingNoShow    = "NO_SHOW"
)

// SeatBooking is a reservation of a Seat for a date and time range.  It is
// made either by an authenticated user (UserID set) or by a guest (guest
// contact fields set plus a bcrypt hash of the access code handed out at
// creation time).
//
// Fields:
//
//	ID             – primary key identifier.
//	BookingRef     – opaque UUID used in receipts and guest lookups.
//	UserID         – booking user; nil for guest bookings.
//	GuestName      – guest contact name (guest bookings only).
//	GuestEmail     – guest contact email (guest bookings only).
//	GuestPhone     – guest contact phone (guest bookings only).
//	AccessCodeHash – bcrypt hash of the guest access code; never exposed.
//	SeatID         – booked seat.
//	LibraryID      – library the seat belongs to (denormalized for queries).
//	BookingDate    – calendar date of the booking (YYYY-MM-DD).
//	StartTime      – start of the slot (HH:MM, 24h).
//	EndTime        – end of the slot (HH:MM, 24h); always after StartTime.
//	DurationHours  – computed slot length in hours.
//	BookingPrice   – DurationHours × seat type hourly rate at booking time.
//	Currency       – ISO currency code.
//	Status         – see status constants above.
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type SeatBooking struct {
	ID             uint64    `json:"id"`                   // seat_bookings.id
	BookingRef     string    `json:"bookingRef"`           // seat_bookings.booking_ref
	UserID         *uint64   `json:"userId,omitempty"`     // seat_bookings.user_id (nullable)
	GuestName      *string   `json:"guestName,omitempty"`  // seat_bookings.guest_name (nullable)
	GuestEmail     *string   `json:"guestEmail,omitempty"` // seat_bookings.guest_email (nullable)
	GuestPhone     *string   `json:"guestPhone,omitempty"` // seat_bookings.guest_phone (nullable)
	AccessCodeHash string    `json:"-"`                    // seat_bookings.access_code_hash
	SeatID         uint64    `json:"seatId"`               // seat_bookings.seat_id
	LibraryID      uint64    `json:"libraryId"`            // seat_bookings.library_id
	BookingDate    string    `json:"bookingDate"`          // seat_bookings.booking_date
	StartTime      string    `json:"startTime"`            // seat_bookings.start_time
	EndTime        string    `json:"endTime"`              // seat_bookings.end_time
	DurationHours  float64   `json:"durationHours"`        // seat_bookings.duration_hours
	BookingPrice   float64   `json:"bookingPrice"`         // seat_bookings.booking_price
	Currency       string    `json:"currency"`             // seat_bookings.currency
	Status         string    `json:"status"`               // seat_bookings.status
	CreatedAt      time.Time `json:"createdAt"`            // seat_bookings.created_at
	UpdatedAt      time.Time `json:"updatedAt"`            // seat_bookings.updated_at
}

// IsGuest reports whether the booking was made without an account.
func (b *SeatBooking) IsGuest() bool { return b.UserID == nil }
