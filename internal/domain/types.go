package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event lifecycle statuses. The set is open-ended (administration may record
// other values), but cancelled and closed are terminal for booking.
const (
	EventScheduled = "scheduled"
	EventCancelled = "cancelled"
	EventClosed    = "closed"
)

// BookingPaid is the only booking status in this design: bookings are
// recorded as paid on creation and never mutated afterwards.
const BookingPaid = "paid"

// Bookable reports whether an event status still admits bookings.
// The comparison is case-insensitive.
func Bookable(status string) bool {
	switch strings.ToLower(status) {
	case EventCancelled, EventClosed:
		return false
	}
	return true
}

type Venue struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Amenities string `json:"amenities"`
	Capacity  int64  `json:"capacity"`
	Active    bool   `json:"active"`
}

type Event struct {
	ID        int64           `json:"id"`
	VenueID   int64           `json:"venue_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	Occupancy int64           `json:"occupancy"`
}

// EventWithVenue is the snapshot join used for display and pre-validation.
// It is read-only; occupancy moves only through the inventory's TryReserve.
type EventWithVenue struct {
	Event
	Venue Venue `json:"venue"`
}

// Remaining is the derived, non-authoritative display value
// (capacity minus occupancy). It never gates a write.
func (e *EventWithVenue) Remaining() int64 {
	return e.Venue.Capacity - e.Occupancy
}

type Booking struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	EventID      int64           `json:"event_id"`
	Tickets      int64           `json:"tickets"`
	PaymentLabel string          `json:"payment_label"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BookingView is a ledger row joined with event and venue names for
// presentation.
type BookingView struct {
	BookingID    int64           `json:"booking_id"`
	EventName    string          `json:"event_name"`
	EventStatus  string          `json:"event_status"`
	VenueName    string          `json:"venue_name"`
	City         string          `json:"city"`
	Tickets      int64           `json:"tickets"`
	PaymentLabel string          `json:"payment_label"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
}
