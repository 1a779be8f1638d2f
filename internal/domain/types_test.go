package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{EventScheduled, true},
		{"postponed", true},
		{"", true},
		{EventCancelled, false},
		{EventClosed, false},
		{"Cancelled", false},
		{"CLOSED", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bookable(tt.status), "status %q", tt.status)
	}
}

func TestEventWithVenueRemaining(t *testing.T) {
	ev := EventWithVenue{
		Event: Event{Occupancy: 60},
		Venue: Venue{Capacity: 100},
	}

	assert.Equal(t, int64(40), ev.Remaining())
}
