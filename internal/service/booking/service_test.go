package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository/memory"
	"github.com/evbook/evbook-go/internal/service/booking"
)

func newStore(capacity int64, status string, active bool) *memory.Store {
	s := memory.NewStore()
	s.AddVenue(domain.Venue{
		ID:       1,
		Name:     "Chennai Trade Centre",
		City:     "Chennai",
		Capacity: capacity,
		Active:   active,
	})
	s.AddEvent(domain.Event{
		ID:      1,
		VenueID: 1,
		Name:    "Tech Meetup Chennai",
		Price:   decimal.NewFromFloat(199.0),
		Status:  status,
	})
	return s
}

func bookingKind(t *testing.T, err error) booking.Kind {
	t.Helper()
	var be *booking.Error
	require.ErrorAs(t, err, &be)
	return be.Kind
}

func TestBook_Succeeds(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	conf, err := svc.Book(context.Background(), 7, 1, 60, "UPI", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), conf.BookingID)
	assert.Equal(t, int64(60), conf.Tickets)
	assert.Equal(t, int64(40), conf.Remaining)
	assert.Equal(t, domain.BookingPaid, conf.Status)
	assert.Equal(t, int64(60), store.Occupancy(1))

	bookings := store.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, int64(7), bookings[0].UserID)
	assert.Equal(t, int64(60), bookings[0].Tickets)
	assert.Equal(t, domain.BookingPaid, bookings[0].Status)
}

func TestBook_InsufficientCapacity(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	_, err := svc.Book(context.Background(), 7, 1, 60, "UPI", "")
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 8, 1, 50, "Card", "")
	var be *booking.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, booking.KindInsufficientCapacity, be.Kind)
	assert.Equal(t, int64(40), be.Remaining)
	assert.False(t, be.Retriable())

	assert.Equal(t, int64(60), store.Occupancy(1))
	assert.Len(t, store.Bookings(), 1)
}

func TestBook_ValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		active  bool
		tickets int64
		label   string
		want    booking.Kind
	}{
		{
			name:    "non-positive ticket count wins over everything",
			status:  domain.EventCancelled,
			active:  false,
			tickets: 0,
			label:   "",
			want:    booking.KindInvalidRequest,
		},
		{
			name:    "inactive venue before event status",
			status:  domain.EventCancelled,
			active:  false,
			tickets: 2,
			label:   "UPI",
			want:    booking.KindVenueInactive,
		},
		{
			name:    "cancelled event",
			status:  "Cancelled",
			active:  true,
			tickets: 2,
			label:   "UPI",
			want:    booking.KindEventNotOpen,
		},
		{
			name:    "closed event",
			status:  "CLOSED",
			active:  true,
			tickets: 2,
			label:   "UPI",
			want:    booking.KindEventNotOpen,
		},
		{
			name:    "event status before payment label",
			status:  domain.EventClosed,
			active:  true,
			tickets: 2,
			label:   "",
			want:    booking.KindEventNotOpen,
		},
		{
			name:    "empty payment label",
			status:  domain.EventScheduled,
			active:  true,
			tickets: 2,
			label:   "   ",
			want:    booking.KindInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(100, tt.status, tt.active)
			svc := booking.New(store, nil, nil, nil)

			_, err := svc.Book(context.Background(), 7, 1, tt.tickets, tt.label, "")
			require.Error(t, err)
			assert.Equal(t, tt.want, bookingKind(t, err))

			assert.Equal(t, int64(0), store.Occupancy(1), "failed call must not move occupancy")
			assert.Empty(t, store.Bookings(), "failed call must not append to the ledger")
		})
	}
}

func TestBook_UnknownEvent(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	_, err := svc.Book(context.Background(), 7, 42, 2, "UPI", "")
	assert.Equal(t, booking.KindEventNotFound, bookingKind(t, err))
}

func TestBook_TotalPriceExact(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	conf, err := svc.Book(context.Background(), 7, 1, 3, "Card", "")
	require.NoError(t, err)

	assert.True(t, conf.Total.Equal(decimal.NewFromFloat(597.0)),
		"total %s, want 597", conf.Total)
	assert.Equal(t, domain.BookingPaid, conf.Status)
}

func TestBook_LedgerFailureRollsBackReserve(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	store.AppendErr = errors.New("storage fault")
	svc := booking.New(store, nil, nil, nil)

	_, err := svc.Book(context.Background(), 7, 1, 10, "UPI", "")
	var be *booking.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, booking.KindStorageFailure, be.Kind)
	assert.True(t, be.Retriable())

	assert.Equal(t, int64(0), store.Occupancy(1), "reserve must roll back with the ledger append")
	assert.Empty(t, store.Bookings())
}

func TestBook_ConcurrentPairExactlyOneWins(t *testing.T) {
	store := newStore(100, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), int64(i+1), 1, 60, "UPI", "")
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, booking.KindInsufficientCapacity, bookingKind(t, err))
		rejected++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(60), store.Occupancy(1))
	assert.Len(t, store.Bookings(), 1)
}

func TestBook_ConcurrentNoOversell(t *testing.T) {
	const (
		capacity   = 100
		callers    = 20
		perRequest = 10
	)

	store := newStore(capacity, domain.EventScheduled, true)
	svc := booking.New(store, nil, nil, nil)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), int64(i+1), 1, perRequest, "UPI", "")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, booking.KindInsufficientCapacity, bookingKind(t, err))
		}
	}

	assert.Equal(t, capacity/perRequest, succeeded,
		"exactly the calls that fit must succeed")
	assert.Equal(t, int64(capacity), store.Occupancy(1))
	assert.Len(t, store.Bookings(), succeeded,
		"one ledger entry per successful reserve")
}
