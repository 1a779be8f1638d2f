package httpgin

import (
	"github.com/shopspring/decimal"

	"github.com/evbook/evbook-go/internal/domain"
)

type CreateBookingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	// Tickets and PaymentLabel are validated by the reservation engine so the
	// failure surfaces with a stable kind.
	Tickets      int64  `json:"tickets"`
	PaymentLabel string `json:"payment_label"`
}

type VenueSnapshot struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Capacity int64  `json:"capacity"`
	Active   bool   `json:"active"`
}

type EventSnapshotResponse struct {
	EventID   int64           `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	Venue     VenueSnapshot   `json:"venue"`
	Occupancy int64           `json:"occupancy"`
	Remaining int64           `json:"remaining"`
}

func toEventSnapshot(ev *domain.EventWithVenue) EventSnapshotResponse {
	return EventSnapshotResponse{
		EventID: ev.ID,
		Name:    ev.Name,
		Price:   ev.Price,
		Status:  ev.Status,
		Venue: VenueSnapshot{
			Name:     ev.Venue.Name,
			City:     ev.Venue.City,
			Capacity: ev.Venue.Capacity,
			Active:   ev.Venue.Active,
		},
		Occupancy: ev.Occupancy,
		Remaining: ev.Remaining(),
	}
}

type CreateVenueRequest struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Amenities string `json:"amenities"`
	Capacity  int64  `json:"capacity" binding:"required,gt=0"`
	Active    *bool  `json:"active"`
}

type CreateEventRequest struct {
	VenueID int64           `json:"venue_id" binding:"required"`
	Name    string          `json:"name" binding:"required"`
	Price   decimal.Decimal `json:"price"`
	Status  string          `json:"status"`
}

type SetEventStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type SetVenueActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type CreateVenueResponse struct {
	VenueID int64 `json:"venue_id"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

// ErrorResponse carries the stable failure kind next to the human-readable
// reason. Remaining is present only for insufficient_capacity.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Remaining *int64 `json:"remaining,omitempty"`
}
