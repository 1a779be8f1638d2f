package query_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository/memory"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
	"github.com/evbook/evbook-go/internal/service/query"
)

func seedStore() *memory.Store {
	s := memory.NewStore()
	s.AddVenue(domain.Venue{
		ID:       1,
		Name:     "Marina Beach Arena",
		City:     "Chennai",
		Capacity: 250,
		Active:   true,
	})
	s.AddEvent(domain.Event{
		ID:        1,
		VenueID:   1,
		Name:      "Music Fest",
		Price:     decimal.NewFromFloat(799.0),
		Status:    domain.EventScheduled,
		Occupancy: 50,
	})
	return s
}

func TestGetEventSnapshot(t *testing.T) {
	svc := query.New(seedStore(), nil, query.Config{})

	ev, err := svc.GetEventSnapshot(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Music Fest", ev.Name)
	assert.Equal(t, int64(50), ev.Occupancy)
	assert.Equal(t, int64(200), ev.Remaining())
}

func TestGetEventSnapshot_NotFound(t *testing.T) {
	svc := query.New(seedStore(), nil, query.Config{})

	_, err := svc.GetEventSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, query.ErrEventNotFound)
}

func TestGetEventSnapshot_IdempotentRead(t *testing.T) {
	svc := query.New(seedStore(), nil, query.Config{})

	first, err := svc.GetEventSnapshot(context.Background(), 1)
	require.NoError(t, err)

	second, err := svc.GetEventSnapshot(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.Remaining(), second.Remaining())
}

func TestGetEventSnapshot_CachesResult(t *testing.T) {
	store := seedStore()
	db, mock := redismock.NewClientMock()
	cache := redisrepo.New(db)

	ttl := 15 * time.Second
	svc := query.New(store, cache, query.Config{SnapshotTTL: ttl})

	want, err := store.GetEventWithVenue(context.Background(), 1)
	require.NoError(t, err)
	payload, err := json.Marshal(*want)
	require.NoError(t, err)

	key := redisrepo.KeyEventSnapshot(1)

	// Miss: GetOrSetJSON reads twice (once before and once inside the
	// singleflight) and then stores the loaded snapshot.
	mock.ExpectGet(key).RedisNil()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(payload), ttl).SetVal("OK")

	ev, err := svc.GetEventSnapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Music Fest", ev.Name)

	// Hit: served from the cache, without touching the store.
	mock.ExpectGet(key).SetVal(string(payload))

	ev, err = svc.GetEventSnapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), ev.Remaining())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvents_Ordering(t *testing.T) {
	s := memory.NewStore()
	s.AddVenue(domain.Venue{ID: 1, Name: "Hall", Capacity: 100, Active: true})
	s.AddEvent(domain.Event{ID: 1, VenueID: 1, Name: "Zeta Expo", Status: "scheduled"})
	s.AddEvent(domain.Event{ID: 2, VenueID: 1, Name: "Alpha Expo", Status: "scheduled"})
	s.AddEvent(domain.Event{ID: 3, VenueID: 1, Name: "Beta Expo", Status: "cancelled"})

	svc := query.New(s, nil, query.Config{})

	events, err := svc.ListEvents(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Status first, then name.
	assert.Equal(t, "Beta Expo", events[0].Name)
	assert.Equal(t, "Alpha Expo", events[1].Name)
	assert.Equal(t, "Zeta Expo", events[2].Name)
}

func TestListUserBookings_NewestFirst(t *testing.T) {
	s := seedStore()

	for i := 0; i < 2; i++ {
		_, err := s.Append(context.Background(), &domain.Booking{
			UserID:       7,
			EventID:      1,
			Tickets:      1,
			PaymentLabel: "UPI",
			Total:        decimal.NewFromFloat(799.0),
			Status:       domain.BookingPaid,
		})
		require.NoError(t, err)
	}

	svc := query.New(s, nil, query.Config{})

	views, err := svc.ListUserBookings(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, int64(2), views[0].BookingID)
	assert.Equal(t, int64(1), views[1].BookingID)
	assert.Equal(t, "Music Fest", views[0].EventName)
	assert.Equal(t, "Marina Beach Arena", views[0].VenueName)
}
