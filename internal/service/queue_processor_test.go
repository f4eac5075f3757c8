package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func fill(t *testing.T, f *fixture, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.queue.Join(context.Background(), fmt.Sprintf("u%d", i)); err != nil {
			t.Fatalf("join u%d: %v", i, err)
		}
	}
}

func TestProcessQueueBoundsBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, nil)
	qp := NewQueueProcessor(f.queue, nil, logger.InitializeTestZapLogger(), f.queueCfg, time.Second)

	// u0..u2 active, u3..u7 waiting
	fill(t, f, 8)

	if n, err := qp.ProcessQueue(ctx, 0); err != nil || n != 0 {
		t.Fatalf("no free slots, expected 0 admissions, got %d %v", n, err)
	}

	for _, u := range []string{"u0", "u1", "u2"} {
		if err := f.queue.Remove(ctx, u, kafka.LeftReasonCompleted); err != nil {
			t.Fatalf("remove %s: %v", u, err)
		}
	}

	if n, _ := qp.ProcessQueue(ctx, 2); n != 2 {
		t.Fatalf("batch should cap admissions at 2, got %d", n)
	}
	if n, _ := qp.ProcessQueue(ctx, 10); n != 1 {
		t.Fatalf("free slots should cap admissions at 1, got %d", n)
	}

	stats, _ := f.queue.Stats(ctx)
	if stats.ActiveCount != 3 || stats.TotalWaiting != 2 {
		t.Fatalf("unexpected stats after processing: %+v", stats)
	}
	for _, u := range []string{"u3", "u4", "u5"} {
		if ok, _ := f.queue.IsUserActive(ctx, u); !ok {
			t.Fatalf("%s should be admitted in arrival order", u)
		}
	}

	st := qp.GetStatus()
	if st.TotalAdmitted != 3 {
		t.Fatalf("expected 3 admissions recorded, got %d", st.TotalAdmitted)
	}
	for _, task := range st.Tasks {
		if task.Name == TaskPromote && task.Runs != 3 {
			t.Fatalf("manual passes should be recorded on the promote task, got %+v", task)
		}
	}
}

func TestProcessQueueManualBatchDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, nil)
	qp := NewQueueProcessor(f.queue, nil, logger.InitializeTestZapLogger(), f.queueCfg, time.Second)

	// 10 active, 8 waiting; then expire every active lease
	fill(t, f, 18)
	f.clk.Advance(f.queueCfg.SessionTTL + time.Second)

	n, err := qp.ProcessQueue(ctx, -1)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != f.queueCfg.ManualBatch {
		t.Fatalf("expected manual batch of %d, got %d", f.queueCfg.ManualBatch, n)
	}
}

func TestProcessorRunsScheduledTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, nil)
	cfg := f.queueCfg
	cfg.ProcessInterval = 5 * time.Millisecond
	cfg.CleanupInterval = 5 * time.Millisecond
	qp := NewQueueProcessor(f.queue, nil, logger.InitializeTestZapLogger(), cfg, time.Second)

	fill(t, f, 3)
	f.clk.Advance(f.queueCfg.SessionTTL + time.Second)

	if err := qp.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !qp.GetStatus().IsRunning {
		t.Fatal("processor should report running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := qp.GetStatus()
		if st.TotalAdmitted >= 1 && st.TotalReclaimed >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := qp.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	st := qp.GetStatus()
	if st.IsRunning {
		t.Fatal("processor should be stopped")
	}
	if st.TotalAdmitted < 1 || st.TotalReclaimed < 1 {
		t.Fatalf("tasks did not run: %+v", st)
	}
	if len(st.Tasks) != 2 {
		t.Fatalf("expected two scheduled tasks, got %+v", st.Tasks)
	}
	if ok, _ := f.queue.IsUserActive(ctx, "u1"); !ok {
		t.Fatal("head waiter u1 should be admitted once u0 expired")
	}
}
