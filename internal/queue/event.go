// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notifications.
package queue

// Event kinds published to the booking.events queue.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingNoShow    = "booking.no_show"
)

// BookingEvent is published whenever a booking is created or changes
// status.  It carries enough information for downstream consumers to
// notify, log, or feed analytics without querying the primary database.
type BookingEvent struct {
	Event        string  `json:"event"`
	BookingID    uint64  `json:"booking_id"`
	BookingRef   string  `json:"booking_ref"`
	UserID       *uint64 `json:"user_id,omitempty"`
	ContactEmail string  `json:"contact_email,omitempty"`
	ContactName  string  `json:"contact_name,omitempty"`
	LibraryName  string  `json:"library_name"`
	SeatLabel    string  `json:"seat_label"`
	BookingDate  string  `json:"booking_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	OccurredAt   string  `json:"occurred_at"`
}
