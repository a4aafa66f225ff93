package models

import "time"

// Booking represents a reservation of one printer for a half-open
// time interval [Start, End).
type Booking struct {
	ID      string    `json:"id"`
	Printer int       `json:"printer"`
	Owner   string    `json:"owner"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Created time.Time `json:"created"`
}

// Overlaps reports whether two bookings collide under half-open
// interval semantics. Back-to-back bookings do not overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.Start.Before(other.End) && other.Start.Before(b.End)
}
