package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFanOutCallsEveryUserOnce(t *testing.T) {
	cfg := &simulateConfig{users: 25, concurrency: 4, userPrefix: "u", timeout: time.Second}

	var calls, inFlight, peak atomic.Int64
	seen := newTally()
	err := cfg.fanOut(context.Background(), func(ctx context.Context, i int) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		calls.Add(1)
		seen.add(cfg.userID(i))
		time.Sleep(time.Millisecond)
	})
	if err != nil {
		t.Fatalf("fanOut: %v", err)
	}
	if calls.Load() != 25 {
		t.Errorf("calls = %d, want 25", calls.Load())
	}
	if peak.Load() > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak.Load())
	}
	if seen.count("u-1") != 1 || seen.count("u-25") != 1 {
		t.Errorf("user ids not generated once each: %v", seen.counts)
	}
}

func TestFanOutStopsOnCancel(t *testing.T) {
	cfg := &simulateConfig{users: 10, concurrency: 1, timeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cfg.fanOut(ctx, func(context.Context, int) {})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestOutcomeOf(t *testing.T) {
	got := outcomeOf(status.Error(codes.Aborted, "Seat is being booked by another user"))
	if got != "Aborted: Seat is being booked by another user" {
		t.Errorf("outcomeOf = %q", got)
	}
	if got := outcomeOf(errors.New("boom")); got != "error" {
		t.Errorf("outcomeOf plain error = %q, want error", got)
	}
}

func TestTallyWriteIsSorted(t *testing.T) {
	tl := newTally()
	tl.add("waiting")
	tl.add("active")
	tl.add("waiting")

	var buf bytes.Buffer
	tl.write(&buf)
	out := buf.String()
	if strings.Index(out, "active") > strings.Index(out, "waiting") {
		t.Errorf("keys not sorted:\n%s", out)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("missing waiting count:\n%s", out)
	}
}
