package repository

import (
	"context"

	"github.com/evbook/evbook-go/internal/domain"
)

// Inventory is read and reserve access to events and venues. TryReserve is
// the sole writer of occupancy: it increments by tickets if and only if the
// result stays within the venue's capacity, atomically with respect to all
// concurrent TryReserve calls on the same event, and returns the new
// occupancy. On rejection it returns ErrCapacityExceeded and leaves the
// counter unchanged.
type Inventory interface {
	GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error)
	ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error)
	TryReserve(ctx context.Context, eventID, tickets int64) (int64, error)
}

// Ledger is the append-only record of committed bookings.
type Ledger interface {
	Append(ctx context.Context, b *domain.Booking) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error)
}

// Tx is the view of the store bound to a single transaction.
type Tx interface {
	Inventory
	Ledger
}

// Store combines pool-bound access with RunAtomic, which runs fn so that
// every call made through tx commits or rolls back as one unit.
type Store interface {
	Tx
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
