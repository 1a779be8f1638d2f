package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
	postgresrepo "github.com/evbook/evbook-go/internal/repository/postgres"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
	"github.com/evbook/evbook-go/internal/uow"
)

// Service covers the administrative operations outside the reservation
// core's contract: venue and event management. Capacity is immutable after
// venue creation; occupancy is never touched here.
type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.EventsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisrepo.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

func (s *Service) CreateVenue(ctx context.Context, v *domain.Venue) (int64, error) {
	const op = "service.admin.CreateVenue"

	if strings.TrimSpace(v.Name) == "" {
		return 0, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	if v.Capacity <= 0 {
		return 0, fmt.Errorf("%s: %w: capacity must be positive", op, ErrInvalidInput)
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Admin().With(tx).CreateVenue(ctx, v)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return id, err
}

func (s *Service) CreateEvent(
	ctx context.Context,
	venueID int64,
	name string,
	price decimal.Decimal,
	status string,
) (int64, error) {
	const op = "service.admin.CreateEvent"

	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%s: %w: name is required", op, ErrInvalidInput)
	}

	if price.IsNegative() {
		return 0, fmt.Errorf("%s: %w: price must not be negative", op, ErrInvalidInput)
	}

	if status == "" {
		status = domain.EventScheduled
	}

	var id int64
	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Admin().With(tx).CreateEvent(ctx, venueID, name, price, status)
		if err != nil {
			// 23503 surfaces as a generic error; a missing venue is the
			// common cause.
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return id, err
}

// SetEventStatus records a lifecycle transition. Flipping an event to
// cancelled or closed stops new bookings; committed bookings stay in the
// ledger untouched.
func (s *Service) SetEventStatus(ctx context.Context, eventID int64, status string) error {
	const op = "service.admin.SetEventStatus"

	if strings.TrimSpace(status) == "" {
		return fmt.Errorf("%s: %w: status is required", op, ErrInvalidInput)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Admin().With(tx).SetEventStatus(ctx, eventID, status); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidate(ctx, eventID)
		})

		return nil
	})

	return err
}

// SetVenueActive flips the venue's active flag. Inactive venues accept no
// new bookings for their events.
func (s *Service) SetVenueActive(ctx context.Context, venueID int64, active bool) error {
	const op = "service.admin.SetVenueActive"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Admin().With(tx).SetVenueActive(ctx, venueID, active); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return err
}

func (s *Service) DeleteEvent(ctx context.Context, eventID int64) error {
	const op = "service.admin.DeleteEvent"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Admin().With(tx).DeleteEvent(ctx, eventID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrEventNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidate(ctx, eventID)
		})

		return nil
	})

	return err
}

func (s *Service) DeleteVenue(ctx context.Context, venueID int64) error {
	const op = "service.admin.DeleteVenue"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Admin().With(tx).DeleteVenue(ctx, venueID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})

	return err
}

func (s *Service) invalidate(ctx context.Context, eventID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateEvent(ctx, eventID)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishEventChanged(ctx, eventID)
	}
}
