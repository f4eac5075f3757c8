package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.BookingFinished("confirmed", 0.2)
	m.BookingFinished("seat_busy", 0.001)
	m.LockAttempt(true)
	m.LockAttempt(false)
	m.Promoted(3)
	m.Reclaimed(0)
	m.QueueSize(7, 2)
	m.TaskRun("promote", nil)
	m.TaskRun("promote", errors.New("boom"))

	if got := testutil.ToFloat64(m.bookings.WithLabelValues("confirmed")); got != 1 {
		t.Fatalf("expected 1 confirmed booking, got %v", got)
	}
	if got := testutil.ToFloat64(m.admitted); got != 3 {
		t.Fatalf("expected 3 promoted, got %v", got)
	}
	if got := testutil.ToFloat64(m.reclaimed); got != 0 {
		t.Fatalf("expected 0 reclaimed, got %v", got)
	}
	if got := testutil.ToFloat64(m.waiting); got != 7 {
		t.Fatalf("expected waiting gauge 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.taskRuns.WithLabelValues("promote", "error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BookingFinished("confirmed", 1)
	m.LockAttempt(true)
	m.QueueSize(1, 1)
	m.TaskRun("x", nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.QueueJoined("QUEUED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `booking_queue_joins_total{status="QUEUED"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}
