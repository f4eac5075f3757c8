package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

var validNext = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending:   {BookingStatusConfirmed: true, BookingStatusFailed: true},
	BookingStatusConfirmed: {},
	BookingStatusFailed:    {},
}

// CanTransition reports whether a booking may move from one status to another.
// PENDING is the only non-terminal status.
func CanTransition(from, to BookingStatus) bool {
	return validNext[from][to]
}

type Booking struct {
	ID          int64         `json:"id"`
	UserID      string        `json:"user_id"`
	SeatID      int64         `json:"seat_id"`
	SeatNumber  string        `json:"seat_number,omitempty"`
	Status      BookingStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
