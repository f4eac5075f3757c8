package service

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
)

type JoinQueueInput struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

type JoinQueueOutput struct {
	Success              bool              `json:"success"`
	Token                string            `json:"token"`
	Status               models.JoinStatus `json:"status"`
	Position             int64             `json:"position,omitempty"`
	EstimatedWaitMinutes int64             `json:"estimated_wait_minutes,omitempty"`
	EstimatedWait        string            `json:"estimated_wait,omitempty"`
	Message              string            `json:"message"`
}

type QueueStatusOutput struct {
	Token                string            `json:"token"`
	Status               models.TokenState `json:"status"`
	Position             int64             `json:"position,omitempty"`
	TotalWaiting         int64             `json:"total_waiting"`
	EstimatedWaitMinutes int64             `json:"estimated_wait_minutes,omitempty"`
	EstimatedWait        string            `json:"estimated_wait,omitempty"`
	ExpiresAt            *time.Time        `json:"expires_at,omitempty"`
	Message              string            `json:"message"`
}

type QueueStatsOutput struct {
	TotalWaiting   int64 `json:"total_waiting"`
	ActiveCount    int64 `json:"active_count"`
	MaxActive      int   `json:"max_active"`
	ProcessingRate int   `json:"processing_rate"`
	QueueActive    bool  `json:"queue_active"`
	AvailableSlots int64 `json:"available_slots"`
}

const (
	QueueEventUpdate   = "queue-update"
	QueueEventAdmitted = "admitted"
	QueueEventExpired  = "expired"
)

// QueueEvent is one entry of a token's status stream.
type QueueEvent struct {
	Name   string            `json:"event"`
	Status QueueStatusOutput `json:"status"`
}

type BookSeatInput struct {
	SeatNumber string `json:"seat_number" validate:"required,max=32"`
	UserID     string `json:"user_id" validate:"required,max=128"`
}

type BookSeatOutput struct {
	Success    bool   `json:"success"`
	BookingID  int64  `json:"booking_id,omitempty"`
	SeatNumber string `json:"seat_number"`
	UserID     string `json:"user_id"`
	Message    string `json:"message"`
}

type SeatStatusOutput struct {
	SeatNumber string            `json:"seat_number"`
	Status     models.SeatStatus `json:"status"`
	Locked     bool              `json:"locked"`
	Holder     string            `json:"holder,omitempty"`
	Message    string            `json:"message"`
}
