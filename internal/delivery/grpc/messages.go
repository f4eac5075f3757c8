package grpc

import "github.com/vogiaan1904/ticketbottle-booking/internal/service"

type JoinQueueRequest struct {
	UserID string `json:"user_id"`
}

type QueueStatusRequest struct {
	Token string `json:"token"`
}

type QueueStatsRequest struct{}

type ProcessQueueRequest struct {
	BatchSize int `json:"batch_size"`
}

type ProcessQueueResponse struct {
	Admitted int                      `json:"admitted"`
	Stats    service.QueueStatsOutput `json:"stats"`
	// ProcessedAt is the end of the last promotion pass in ISO 8601.
	ProcessedAt string `json:"processed_at"`
}

type LeaveQueueRequest struct {
	UserID string `json:"user_id"`
}

type LeaveQueueResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type BookSeatRequest struct {
	SeatNumber string `json:"seat_number"`
	UserID     string `json:"user_id"`
}

type SeatStatusRequest struct {
	SeatNumber string `json:"seat_number"`
}
