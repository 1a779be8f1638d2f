package httpgin_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository/memory"
	"github.com/evbook/evbook-go/internal/service"
	"github.com/evbook/evbook-go/internal/service/booking"
	"github.com/evbook/evbook-go/internal/service/query"
	httpgin "github.com/evbook/evbook-go/internal/transport/http/gin"
)

func newTestRouter(store *memory.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svcs := &service.Services{
		Booking: booking.New(store, nil, nil, nil),
		Query:   query.New(store, nil, query.Config{}),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return httpgin.NewRouter(svcs, nil, logger)
}

func seedStore(capacity int64) *memory.Store {
	s := memory.NewStore()
	s.AddVenue(domain.Venue{
		ID:       1,
		Name:     "Chennai Trade Centre",
		City:     "Chennai",
		Capacity: capacity,
		Active:   true,
	})
	s.AddEvent(domain.Event{
		ID:      1,
		VenueID: 1,
		Name:    "Tech Meetup Chennai",
		Price:   decimal.NewFromFloat(299.0),
		Status:  domain.EventScheduled,
	})
	return s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBooking(t *testing.T) {
	store := seedStore(100)
	r := newTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/events/1/bookings", gin.H{
		"user_id":       7,
		"tickets":       2,
		"payment_label": "UPI",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var conf booking.Confirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))

	assert.Equal(t, int64(1), conf.BookingID)
	assert.Equal(t, int64(2), conf.Tickets)
	assert.Equal(t, int64(98), conf.Remaining)
	assert.True(t, conf.Total.Equal(decimal.NewFromInt(598)))
	assert.Equal(t, "paid", conf.Status)
	assert.Equal(t, int64(2), store.Occupancy(1))
}

func TestCreateBooking_InsufficientCapacity(t *testing.T) {
	store := seedStore(10)
	r := newTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/events/1/bookings", gin.H{
		"user_id":       7,
		"tickets":       20,
		"payment_label": "UPI",
	})

	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var resp struct {
		Kind      string `json:"kind"`
		Remaining *int64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient_capacity", resp.Kind)
	require.NotNil(t, resp.Remaining)
	assert.Equal(t, int64(10), *resp.Remaining)
	assert.Equal(t, int64(0), store.Occupancy(1))
}

func TestCreateBooking_InvalidTickets(t *testing.T) {
	r := newTestRouter(seedStore(100))

	w := doJSON(t, r, http.MethodPost, "/events/1/bookings", gin.H{
		"user_id":       7,
		"tickets":       0,
		"payment_label": "UPI",
	})

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Kind)
}

func TestCreateBooking_UnknownEvent(t *testing.T) {
	r := newTestRouter(seedStore(100))

	w := doJSON(t, r, http.MethodPost, "/events/42/bookings", gin.H{
		"user_id":       7,
		"tickets":       2,
		"payment_label": "UPI",
	})

	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestGetEvent_ETag(t *testing.T) {
	r := newTestRouter(seedStore(100))

	w := doJSON(t, r, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var snap struct {
		Remaining int64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(100), snap.Remaining)

	req := httptest.NewRequest(http.MethodGet, "/events/1", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	assert.Equal(t, http.StatusNotModified, w2.Code)
}

func TestListUserBookings(t *testing.T) {
	store := seedStore(100)
	r := newTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/events/1/bookings", gin.H{
		"user_id":       7,
		"tickets":       2,
		"payment_label": "Card",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users/7/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []domain.BookingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Tech Meetup Chennai", views[0].EventName)
	assert.Equal(t, "Card", views[0].PaymentLabel)

	w = doJSON(t, r, http.MethodGet, "/users/8/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Empty(t, views)
}

func TestListEvents(t *testing.T) {
	r := newTestRouter(seedStore(100))

	w := doJSON(t, r, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}
