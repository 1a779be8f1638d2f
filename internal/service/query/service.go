package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
)

type Config struct {
	SnapshotTTL     time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// Service serves the read-only surface: event snapshots, the browse list and
// a user's bookings. Snapshots may be briefly stale (cache TTL); they are
// display values and never gate a reservation.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store repository.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 15 * time.Second
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 100
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 500
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEventSnapshot retrieves the event joined with its venue, through the
// cache when one is configured. Two calls with no intervening booking return
// identical remaining values.
//
// Returns:
//   - *domain.EventWithVenue: the snapshot.
//   - error: query.ErrEventNotFound if the event does not exist.
func (s *Service) GetEventSnapshot(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	const op = "service.query.GetEventSnapshot"

	if s.cache == nil {
		ev, err := s.store.GetEventWithVenue(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ev, nil
	}

	key := redisrepo.KeyEventSnapshot(eventID)

	ev, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SnapshotTTL,
		func(ctx context.Context) (domain.EventWithVenue, error) {
			e, err := s.store.GetEventWithVenue(ctx, eventID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.EventWithVenue{}, ErrEventNotFound
				}
				return domain.EventWithVenue{}, err
			}
			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ev, nil
}

// ListEvents lists events with their venues, ordered by status then name.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	const op = "service.query.ListEvents"

	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}

	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	events, err := s.store.ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// ListUserBookings returns the user's committed bookings, newest first. An
// unknown user simply has no bookings.
func (s *Service) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	const op = "service.query.ListUserBookings"

	bookings, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}
