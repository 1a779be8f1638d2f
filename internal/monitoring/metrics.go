package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evbook_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evbook_tickets_reserved_total",
			Help: "Tickets reserved by committed bookings",
		},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evbook_booking_duration_seconds",
			Help:    "Duration of Book calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordBooking records one Book call. tickets is non-zero only for
// committed bookings.
func RecordBooking(outcome string, tickets int64, d time.Duration) {
	bookingsTotal.WithLabelValues(outcome).Inc()
	if tickets > 0 {
		ticketsReserved.Add(float64(tickets))
	}
	bookingDuration.Observe(d.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
