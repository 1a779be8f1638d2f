package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/monitoring"
	"github.com/evbook/evbook-go/internal/repository"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
)

// Service is the reservation engine. It enforces the admission rules, then
// performs the atomic reserve and the ledger append inside one store
// transaction: occupancy is never incremented without a matching booking
// record, and vice versa.
//
// cache, pubsub and limiter are optional; a nil collaborator is skipped.
type Service struct {
	store   repository.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.EventsPubSub
	limiter *redisrepo.SlidingWindowLimiter
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
	}
}

// Confirmation is the result of a committed booking. Remaining is computed
// from the occupancy returned by the atomic reserve, informational only.
type Confirmation struct {
	BookingID int64           `json:"booking_id"`
	EventID   int64           `json:"event_id"`
	EventName string          `json:"event_name"`
	Tickets   int64           `json:"tickets"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	Remaining int64           `json:"remaining"`
}

// Book converts a ticket request into a durable reservation.
//
// Validation order, first failing check wins: positive ticket count, event
// exists, venue active, event status not cancelled/closed, payment label
// non-empty, then the atomic reserve. One reserve attempt per call; a
// capacity rejection is surfaced as KindInsufficientCapacity with the
// remaining seats, never retried or partially fulfilled.
//
// Returns:
//   - *Confirmation: on success.
//   - error: *Error with the failure kind; *RateLimitedError when rlKey is
//     rate limited.
func (s *Service) Book(
	ctx context.Context,
	userID, eventID, tickets int64,
	paymentLabel string,
	rlKey string,
) (*Confirmation, error) {
	start := time.Now()

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, storageError(err)
		}
		if !ok {
			return nil, &RateLimitedError{RetryAfter: retry}
		}
	}

	if tickets <= 0 {
		err := newError(KindInvalidRequest, "ticket count must be a positive integer")
		monitoring.RecordBooking(string(err.Kind), 0, time.Since(start))
		return nil, err
	}

	var conf *Confirmation

	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx repository.Tx) error {
		ev, err := tx.GetEventWithVenue(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(KindEventNotFound, "event %d not found", eventID)
			}
			return storageError(err)
		}

		if !ev.Venue.Active {
			return newError(KindVenueInactive, "venue %q is inactive", ev.Venue.Name)
		}

		if !domain.Bookable(ev.Status) {
			return newError(KindEventNotOpen, "event status is %q", ev.Status)
		}

		if strings.TrimSpace(paymentLabel) == "" {
			return newError(KindInvalidRequest, "payment label is required")
		}

		occupancy, err := tx.TryReserve(ctx, eventID, tickets)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrCapacityExceeded):
				e := newError(KindInsufficientCapacity,
					"not enough seats: %d remaining, %d requested", ev.Remaining(), tickets)
				e.Remaining = ev.Remaining()
				return e
			case errors.Is(err, repository.ErrNotFound):
				// Deleted between the snapshot read and the reserve.
				return newError(KindEventNotFound, "event %d not found", eventID)
			default:
				return storageError(err)
			}
		}

		total := ev.Price.Mul(decimal.NewFromInt(tickets))

		id, err := tx.Append(ctx, &domain.Booking{
			UserID:       userID,
			EventID:      eventID,
			Tickets:      tickets,
			PaymentLabel: paymentLabel,
			Total:        total,
			Status:       domain.BookingPaid,
		})
		if err != nil {
			// The whole transaction rolls back, occupancy included.
			return storageError(err)
		}

		conf = &Confirmation{
			BookingID: id,
			EventID:   eventID,
			EventName: ev.Name,
			Tickets:   tickets,
			Total:     total,
			Status:    domain.BookingPaid,
			Remaining: ev.Venue.Capacity - occupancy,
		}

		return nil
	})
	if err != nil {
		var be *Error
		if !errors.As(err, &be) {
			be = storageError(err)
		}
		monitoring.RecordBooking(string(be.Kind), 0, time.Since(start))
		return nil, be
	}

	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}

	monitoring.RecordBooking("confirmed", tickets, time.Since(start))

	return conf, nil
}
