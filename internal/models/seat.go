package models

import "time"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusSold      SeatStatus = "SOLD"
)

type Seat struct {
	ID         int64      `json:"id"`
	SeatNumber string     `json:"seat_number"`
	Status     SeatStatus `json:"status"`
	Version    int64      `json:"version"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (s Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}
