package service

import (
	"context"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository/memory"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	clk      *clock.Manual
	store    *memory.Store
	locks    repository.LockRepository
	queue    QueueService
	lockSvc  LockService
	booking  BookingService
	queueCfg config.QueueConfig
}

func queueConfig(maxActive int) config.QueueConfig {
	return config.QueueConfig{
		Pool:               "test",
		MaxActive:          maxActive,
		ProcessingRate:     20,
		ProcessInterval:    30 * time.Second,
		ProcessBatch:       3,
		ManualBatch:        5,
		CleanupInterval:    5 * time.Minute,
		SessionTTL:         15 * time.Minute,
		TokenTTL:           2 * time.Hour,
		StreamPollInterval: time.Hour,
	}
}

func newFixture(t *testing.T, maxActive int, gw PaymentGateway) *fixture {
	t.Helper()

	l := logger.InitializeTestZapLogger()
	clk := clock.NewManual(epoch)
	store := memory.NewStore(clk)
	if _, err := store.Seats().Seed(context.Background(), []string{"A1", "A2", "A3"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f := &fixture{
		clk:      clk,
		store:    store,
		locks:    memory.NewLockRepository(clk),
		queueCfg: queueConfig(maxActive),
	}
	f.queue = NewQueueService(memory.NewQueueRepository(clk), memory.NewNotifier(), nil, nil, clk, f.queueCfg, l)
	f.lockSvc = NewLockService(f.locks, nil, l)

	if gw == nil {
		gw = NewMockPaymentGateway(config.PaymentConfig{}, l)
	}
	f.booking = NewBookingService(f.queue, f.lockSvc, gw, store.Seats(), store.Bookings(), nil, nil, clk,
		config.BookingConfig{LockTTL: 5 * time.Minute, PriceCents: 5000}, l)

	return f
}

type gatewayFunc func(ctx context.Context, userID string, amountCents int64) error

func (f gatewayFunc) Charge(ctx context.Context, userID string, amountCents int64) error {
	return f(ctx, userID, amountCents)
}
