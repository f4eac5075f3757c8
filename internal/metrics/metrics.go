package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "booking"

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	bookings     *prometheus.CounterVec
	bookingTime  prometheus.Histogram
	lockAttempts *prometheus.CounterVec
	queueJoins   *prometheus.CounterVec
	admitted     prometheus.Counter
	reclaimed    prometheus.Counter
	waiting      prometheus.Gauge
	active       prometheus.Gauge
	taskRuns     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		bookingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Duration of the booking workflow.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		lockAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_acquire_total",
			Help:      "Seat lock acquisition attempts by result.",
		}, []string{"result"}),
		queueJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "joins_total",
			Help:      "Queue joins by resulting status.",
		}, []string{"status"}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "promoted_total",
			Help:      "Waiters promoted into the active set.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "reclaimed_total",
			Help:      "Active sessions reclaimed after their lease lapsed.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "waiting",
			Help:      "Users currently waiting.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "active",
			Help:      "Users currently holding an active session.",
		}),
		taskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Scheduled task runs by task and result.",
		}, []string{"task", "result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.bookings,
		m.bookingTime,
		m.lockAttempts,
		m.queueJoins,
		m.admitted,
		m.reclaimed,
		m.waiting,
		m.active,
		m.taskRuns,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BookingFinished(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
	m.bookingTime.Observe(seconds)
}

func (m *Metrics) LockAttempt(acquired bool) {
	if m == nil {
		return
	}
	result := "busy"
	if acquired {
		result = "acquired"
	}
	m.lockAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) QueueJoined(status string) {
	if m == nil {
		return
	}
	m.queueJoins.WithLabelValues(status).Inc()
}

func (m *Metrics) Promoted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.admitted.Add(float64(n))
}

func (m *Metrics) Reclaimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reclaimed.Add(float64(n))
}

func (m *Metrics) QueueSize(waiting, active int64) {
	if m == nil {
		return
	}
	m.waiting.Set(float64(waiting))
	m.active.Set(float64(active))
}

func (m *Metrics) TaskRun(task string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.taskRuns.WithLabelValues(task, result).Inc()
}
