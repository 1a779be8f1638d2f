package redis

import "fmt"

const ns = "evbook:v1"

func KeyEventSnapshot(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:snapshot", ns, eventID)
}

func KeyIdemBooking(eventID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%d:%s", ns, eventID, idemKey)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
