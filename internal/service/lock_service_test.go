package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository/memory"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type brokenLockRepo struct{}

func (brokenLockRepo) Acquire(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenLockRepo) Release(context.Context, string) error {
	return errors.New("connection refused")
}

func (brokenLockRepo) Holder(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestLockAcquireIsExclusiveUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(epoch)
	svc := NewLockService(memory.NewLockRepository(clk), nil, logger.InitializeTestZapLogger())
	key := SeatLockKey("A1")

	if key != "booking:lock:A1" {
		t.Fatalf("unexpected key %q", key)
	}
	if !svc.Acquire(ctx, key, "alice", time.Minute) {
		t.Fatal("first acquire should succeed")
	}
	if svc.Acquire(ctx, key, "bob", time.Minute) {
		t.Fatal("second acquire should fail while held")
	}
	if holder, ok := svc.HolderOf(ctx, key); !ok || holder != "alice" {
		t.Fatalf("expected alice to hold the lock, got %q %v", holder, ok)
	}

	clk.Advance(time.Minute + time.Millisecond)
	if svc.IsHeld(ctx, key) {
		t.Fatal("lock should have expired")
	}
	if !svc.Acquire(ctx, key, "bob", time.Minute) {
		t.Fatal("acquire after expiry should succeed")
	}

	svc.Release(ctx, key)
	svc.Release(ctx, key)
	if svc.IsHeld(ctx, key) {
		t.Fatal("lock should be released")
	}
}

func TestLockFailsClosedWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	svc := NewLockService(brokenLockRepo{}, m, logger.InitializeTestZapLogger())

	if svc.Acquire(ctx, "k", "alice", time.Minute) {
		t.Fatal("acquire must not succeed when the store errors")
	}
	if svc.IsHeld(ctx, "k") {
		t.Fatal("IsHeld must report false when the store errors")
	}
	// must not panic or return anything
	svc.Release(ctx, "k")

	called := false
	err := svc.WithLock(ctx, "k", "alice", time.Minute, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockBusy) || called {
		t.Fatalf("expected ErrLockBusy without running fn, got %v called=%v", err, called)
	}

	n, err := testutil.GatherAndCount(m.Registry(), "booking_lock_acquire_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one busy lock series, got %d", n)
	}
}

func TestWithLockReleasesOnEveryExit(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(epoch)
	svc := NewLockService(memory.NewLockRepository(clk), nil, logger.InitializeTestZapLogger())
	key := SeatLockKey("A1")

	boom := errors.New("boom")
	if err := svc.WithLock(ctx, key, "alice", time.Minute, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if svc.IsHeld(ctx, key) {
		t.Fatal("lock leaked after error")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = svc.WithLock(ctx, key, "alice", time.Minute, func(context.Context) error { panic("payment exploded") })
	}()
	if svc.IsHeld(ctx, key) {
		t.Fatal("lock leaked after panic")
	}

	if !svc.Acquire(ctx, key, "bob", time.Minute) {
		t.Fatal("setup acquire failed")
	}
	called := false
	err := svc.WithLock(ctx, key, "alice", time.Minute, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockBusy) || called {
		t.Fatalf("expected ErrLockBusy, got %v called=%v", err, called)
	}
	if holder, _ := svc.HolderOf(ctx, key); holder != "bob" {
		t.Fatalf("busy WithLock must not release someone else's lock, holder=%q", holder)
	}
}
