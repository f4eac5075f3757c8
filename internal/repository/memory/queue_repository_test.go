package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func limits(maxActive int) models.QueueLimits {
	return models.QueueLimits{
		MaxActive:  maxActive,
		SessionTTL: 15 * time.Minute,
		TokenTTL:   2 * time.Hour,
	}
}

func TestJoinAssignsFIFOPositions(t *testing.T) {
	ctx := context.Background()
	r := NewQueueRepository(clock.NewManual(epoch))
	lim := limits(1)

	first, err := r.Join(ctx, "u0", "t0", lim)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if first.Status != models.JoinStatusActive {
		t.Fatalf("expected direct admission, got %s", first.Status)
	}

	for i := 1; i <= 5; i++ {
		res, err := r.Join(ctx, fmt.Sprintf("u%d", i), fmt.Sprintf("t%d", i), lim)
		if err != nil {
			t.Fatalf("join: %v", err)
		}
		if res.Status != models.JoinStatusQueued {
			t.Fatalf("expected QUEUED, got %s", res.Status)
		}
		if res.Position != int64(i) {
			t.Fatalf("expected position %d, got %d", i, res.Position)
		}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := NewQueueRepository(clock.NewManual(epoch))
	lim := limits(1)

	if _, err := r.Join(ctx, "alice", "ta", lim); err != nil {
		t.Fatalf("join: %v", err)
	}
	queued, _ := r.Join(ctx, "bob", "tb", lim)

	again, err := r.Join(ctx, "bob", "ignored", lim)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if again.Status != models.JoinStatusAlreadyQueued || again.Token != queued.Token || again.Position != queued.Position {
		t.Fatalf("unexpected rejoin result %+v", again)
	}

	active, _ := r.Join(ctx, "alice", "ignored", lim)
	if active.Status != models.JoinStatusAlreadyActive || active.Token != "ta" {
		t.Fatalf("unexpected rejoin result %+v", active)
	}
}

func TestPromoteSingleSlotScenario(t *testing.T) {
	ctx := context.Background()
	r := NewQueueRepository(clock.NewManual(epoch))
	lim := limits(1)

	r.Join(ctx, "u1", "t1", lim)
	res, _ := r.Join(ctx, "u2", "t2", lim)
	if res.Status != models.JoinStatusQueued || res.Position != 1 {
		t.Fatalf("unexpected join result %+v", res)
	}

	admitted, err := r.Promote(ctx, 1, lim)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if len(admitted) != 0 {
		t.Fatalf("expected no-op promotion, got %v", admitted)
	}

	if _, err := r.Remove(ctx, "u1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	admitted, _ = r.Promote(ctx, 1, lim)
	if len(admitted) != 1 || admitted[0].UserID != "u2" || admitted[0].Token != "t2" {
		t.Fatalf("unexpected admissions %v", admitted)
	}

	st, _ := r.Status(ctx, "t2")
	if st.State != models.TokenStateActive {
		t.Fatalf("expected ACTIVE, got %s", st.State)
	}
}

func TestPromoteRespectsBounds(t *testing.T) {
	ctx := context.Background()
	r := NewQueueRepository(clock.NewManual(epoch))
	lim := limits(3)

	for i := 0; i < 8; i++ {
		r.Join(ctx, fmt.Sprintf("u%d", i), fmt.Sprintf("t%d", i), lim)
	}
	r.Remove(ctx, "u0")
	r.Remove(ctx, "u1")

	admitted, _ := r.Promote(ctx, 10, lim)
	if len(admitted) != 2 {
		t.Fatalf("expected 2 admissions, got %d", len(admitted))
	}
	if admitted[0].UserID != "u3" || admitted[1].UserID != "u4" {
		t.Fatalf("promotion out of arrival order: %v", admitted)
	}

	c, _ := r.Counts(ctx)
	if c.Active != 3 || c.Waiting != 3 {
		t.Fatalf("unexpected counts %+v", c)
	}
}

func TestReclaimExpiredFreesSlots(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(epoch)
	r := NewQueueRepository(clk)
	lim := limits(1)

	r.Join(ctx, "u1", "t1", lim)
	r.Join(ctx, "u2", "t2", lim)

	clk.Advance(16 * time.Minute)

	c, _ := r.Counts(ctx)
	if c.Active != 0 {
		t.Fatalf("lapsed lease still counted: %+v", c)
	}

	reclaimed, _ := r.ReclaimExpired(ctx)
	if len(reclaimed) != 1 || reclaimed[0].UserID != "u1" {
		t.Fatalf("unexpected reclaim %v", reclaimed)
	}
	again, _ := r.ReclaimExpired(ctx)
	if len(again) != 0 {
		t.Fatalf("reclaim is not idempotent: %v", again)
	}

	if _, err := r.TokenOf(ctx, "u1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st, _ := r.Status(ctx, "t1")
	if st.State != models.TokenStateNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", st.State)
	}
}

func TestRemoveUnknownUser(t *testing.T) {
	r := NewQueueRepository(clock.NewManual(epoch))
	if _, err := r.Remove(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetClearsPool(t *testing.T) {
	ctx := context.Background()
	r := NewQueueRepository(clock.NewManual(epoch))
	lim := limits(1)

	r.Join(ctx, "u1", "t1", lim)
	r.Join(ctx, "u2", "t2", lim)
	if err := r.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	c, _ := r.Counts(ctx)
	if c.Active != 0 || c.Waiting != 0 {
		t.Fatalf("expected empty pool, got %+v", c)
	}
}
