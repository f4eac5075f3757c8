package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrVersionConflict   = errors.New("version conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type LockRepository interface {
	// Acquire creates key with holder as value only if key does not exist.
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	// Holder returns ErrNotFound when the key is not held.
	Holder(ctx context.Context, key string) (string, error)
}

type QueueRepository interface {
	Join(ctx context.Context, userID, token string, lim models.QueueLimits) (models.JoinResult, error)
	Status(ctx context.Context, token string) (models.TokenStatus, error)
	// TokenOf returns ErrNotFound when the user holds no token.
	TokenOf(ctx context.Context, userID string) (string, error)
	Promote(ctx context.Context, batch int, lim models.QueueLimits) ([]models.Admission, error)
	// Remove returns the removed token, or ErrNotFound.
	Remove(ctx context.Context, userID string) (string, error)
	ReclaimExpired(ctx context.Context) ([]models.Admission, error)
	Counts(ctx context.Context) (models.QueueCounts, error)
	Reset(ctx context.Context) error
}

type SeatRepository interface {
	List(ctx context.Context) ([]models.Seat, error)
	FindByNumber(ctx context.Context, seatNumber string) (*models.Seat, error)
	FindByID(ctx context.Context, id int64) (*models.Seat, error)
	// Seed inserts seats that do not exist yet as AVAILABLE.
	Seed(ctx context.Context, seatNumbers []string) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	FindBySeatAndStatus(ctx context.Context, seatID int64, status models.BookingStatus) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id int64, to models.BookingStatus) error
	// ConfirmSale marks the seat SOLD if its version still equals
	// expectedVersion and confirms the booking, in one unit of work.
	ConfirmSale(ctx context.Context, seatID, expectedVersion, bookingID int64) error
}

// Notifier fans queue updates out to every instance.
type Notifier interface {
	Publish(ctx context.Context, upd models.QueueUpdate) error
	Subscribe(ctx context.Context) (Subscription, error)
}

type Subscription interface {
	Updates() <-chan models.QueueUpdate
	Close() error
}
