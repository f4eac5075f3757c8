package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func TestMockPaymentDeclinesByRate(t *testing.T) {
	ctx := context.Background()
	cfg := config.PaymentConfig{DeclineRate: 0.10}
	l := logger.InitializeTestZapLogger()

	accept := NewMockPaymentGateway(cfg, l, WithPaymentRandom(func() float64 { return 0.10 }))
	if err := accept.Charge(ctx, "alice", 5000); err != nil {
		t.Fatalf("roll at the rate boundary should pass, got %v", err)
	}

	decline := NewMockPaymentGateway(cfg, l, WithPaymentRandom(func() float64 { return 0.05 }))
	if err := decline.Charge(ctx, "alice", 5000); !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
}

func TestMockPaymentWaitsForLatency(t *testing.T) {
	clk := clock.NewManual(epoch)
	gw := NewMockPaymentGateway(config.PaymentConfig{Latency: 2 * time.Second}, logger.InitializeTestZapLogger(),
		WithPaymentClock(clk),
		WithPaymentRandom(func() float64 { return 0.99 }),
	)

	done := make(chan error, 1)
	go func() { done <- gw.Charge(context.Background(), "alice", 5000) }()

	for clk.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}
	select {
	case err := <-done:
		t.Fatalf("charge returned before latency elapsed: %v", err)
	default:
	}

	clk.Advance(2 * time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("charge: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("charge did not complete after latency")
	}
}

func TestMockPaymentHonoursCancellation(t *testing.T) {
	clk := clock.NewManual(epoch)
	gw := NewMockPaymentGateway(config.PaymentConfig{Latency: time.Minute}, logger.InitializeTestZapLogger(), WithPaymentClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gw.Charge(ctx, "alice", 5000); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
