package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

// PaymentGateway charges a user. Implementations return ErrPaymentDeclined
// for a declined charge.
type PaymentGateway interface {
	Charge(ctx context.Context, userID string, amountCents int64) error
}

type mockPaymentGateway struct {
	latency     time.Duration
	declineRate float64
	clk         clock.Clock
	random      func() float64
	l           logger.Logger
}

type PaymentOption func(*mockPaymentGateway)

func WithPaymentClock(clk clock.Clock) PaymentOption {
	return func(g *mockPaymentGateway) { g.clk = clk }
}

// WithPaymentRandom replaces the source of the decline roll. f must return
// values in [0, 1).
func WithPaymentRandom(f func() float64) PaymentOption {
	return func(g *mockPaymentGateway) { g.random = f }
}

// NewMockPaymentGateway returns a gateway that waits cfg.Latency and then
// declines with probability cfg.DeclineRate.
func NewMockPaymentGateway(cfg config.PaymentConfig, l logger.Logger, opts ...PaymentOption) PaymentGateway {
	g := &mockPaymentGateway{
		latency:     cfg.Latency,
		declineRate: cfg.DeclineRate,
		clk:         clock.Real{},
		random:      rand.Float64,
		l:           l,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *mockPaymentGateway) Charge(ctx context.Context, userID string, amountCents int64) error {
	if g.latency > 0 {
		select {
		case <-g.clk.After(g.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if g.random() < g.declineRate {
		g.l.Info(ctx, "Payment declined", "user_id", userID, "amount_cents", amountCents)
		return ErrPaymentDeclined
	}

	g.l.Debug(ctx, "Payment accepted", "user_id", userID, "amount_cents", amountCents)
	return nil
}
