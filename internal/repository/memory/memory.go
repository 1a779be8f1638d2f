// Package memory is an in-process repository.Store used by tests and local
// experiments. It mirrors the postgres store's semantics: TryReserve is
// atomic against concurrent reservations, and RunAtomic rolls every write
// back when fn fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
)

type Store struct {
	mu            sync.Mutex
	venues        map[int64]domain.Venue
	events        map[int64]domain.Event
	ledger        []domain.Booking
	nextBookingID int64

	// AppendErr, when set, makes ledger appends fail. Used to exercise the
	// reserve-and-append rollback contract.
	AppendErr error
}

func NewStore() *Store {
	return &Store{
		venues:        make(map[int64]domain.Venue),
		events:        make(map[int64]domain.Event),
		nextBookingID: 1,
	}
}

func (s *Store) AddVenue(v domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.ID] = v
}

func (s *Store) AddEvent(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

// Occupancy returns the event's current occupancy, for assertions.
func (s *Store) Occupancy(eventID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[eventID].Occupancy
}

// Bookings returns a copy of the ledger, for assertions.
func (s *Store) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Booking, len(s.ledger))
	copy(out, s.ledger)
	return out
}

func (s *Store) GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEventWithVenue(eventID)
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEvents(limit, offset)
}

func (s *Store) TryReserve(ctx context.Context, eventID, tickets int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryReserve(eventID, tickets)
}

func (s *Store) Append(ctx context.Context, b *domain.Booking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(b)
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listByUser(userID)
}

// RunAtomic holds the store lock for the whole of fn, which serializes
// concurrent units of work, and restores the pre-transaction state when fn
// returns an error.
func (s *Store) RunAtomic(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventsBackup := make(map[int64]domain.Event, len(s.events))
	for id, e := range s.events {
		eventsBackup[id] = e
	}
	ledgerLen := len(s.ledger)
	nextID := s.nextBookingID

	if err := fn(ctx, &tx{s: s}); err != nil {
		s.events = eventsBackup
		s.ledger = s.ledger[:ledgerLen]
		s.nextBookingID = nextID
		return err
	}

	return nil
}

// tx gives fn lock-free access to the store internals; the lock is already
// held by RunAtomic.
type tx struct {
	s *Store
}

func (t *tx) GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	return t.s.getEventWithVenue(eventID)
}

func (t *tx) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	return t.s.listEvents(limit, offset)
}

func (t *tx) TryReserve(ctx context.Context, eventID, tickets int64) (int64, error) {
	return t.s.tryReserve(eventID, tickets)
}

func (t *tx) Append(ctx context.Context, b *domain.Booking) (int64, error) {
	return t.s.append(b)
}

func (t *tx) ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	return t.s.listByUser(userID)
}

func (s *Store) getEventWithVenue(eventID int64) (*domain.EventWithVenue, error) {
	e, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	v, ok := s.venues[e.VenueID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &domain.EventWithVenue{Event: e, Venue: v}, nil
}

func (s *Store) listEvents(limit, offset int) ([]domain.EventWithVenue, error) {
	all := make([]domain.EventWithVenue, 0, len(s.events))
	for _, e := range s.events {
		v, ok := s.venues[e.VenueID]
		if !ok {
			continue
		}
		all = append(all, domain.EventWithVenue{Event: e, Venue: v})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Status != all[j].Status {
			return all[i].Status < all[j].Status
		}
		return all[i].Name < all[j].Name
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all, nil
}

func (s *Store) tryReserve(eventID, tickets int64) (int64, error) {
	e, ok := s.events[eventID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	v, ok := s.venues[e.VenueID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	if e.Occupancy+tickets > v.Capacity {
		return 0, repository.ErrCapacityExceeded
	}

	e.Occupancy += tickets
	s.events[eventID] = e

	return e.Occupancy, nil
}

func (s *Store) append(b *domain.Booking) (int64, error) {
	if s.AppendErr != nil {
		return 0, s.AppendErr
	}

	stored := *b
	stored.ID = s.nextBookingID
	stored.CreatedAt = time.Now()
	s.nextBookingID++
	s.ledger = append(s.ledger, stored)

	return stored.ID, nil
}

func (s *Store) listByUser(userID int64) ([]domain.BookingView, error) {
	var out []domain.BookingView
	for i := len(s.ledger) - 1; i >= 0; i-- {
		b := s.ledger[i]
		if b.UserID != userID {
			continue
		}

		view := domain.BookingView{
			BookingID:    b.ID,
			Tickets:      b.Tickets,
			PaymentLabel: b.PaymentLabel,
			Total:        b.Total,
			Status:       b.Status,
		}
		if e, ok := s.events[b.EventID]; ok {
			view.EventName = e.Name
			view.EventStatus = e.Status
			if v, ok := s.venues[e.VenueID]; ok {
				view.VenueName = v.Name
				view.City = v.City
			}
		}

		out = append(out, view)
	}

	return out, nil
}
