package kafka

import "time"

// Events published BY the booking service

type QueueJoinedEvent struct {
	Pool      string    `json:"pool"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Position  int64     `json:"position"`
	JoinedAt  time.Time `json:"joined_at"`
	Timestamp time.Time `json:"timestamp"`
}

type QueueAdmittedEvent struct {
	Pool       string    `json:"pool"`
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	AdmittedAt time.Time `json:"admitted_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Timestamp  time.Time `json:"timestamp"`
}

type QueueLeftEvent struct {
	Pool      string    `json:"pool"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"` // completed, removed, expired, abandoned
	LeftAt    time.Time `json:"left_at"`
	Timestamp time.Time `json:"timestamp"`
}

type BookingConfirmedEvent struct {
	BookingID   int64     `json:"booking_id"`
	SeatNumber  string    `json:"seat_number"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	Timestamp   time.Time `json:"timestamp"`
}

type BookingFailedEvent struct {
	BookingID  int64     `json:"booking_id,omitempty"`
	SeatNumber string    `json:"seat_number"`
	UserID     string    `json:"user_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// Events consumed BY the booking service

type SessionAbandonedEvent struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
