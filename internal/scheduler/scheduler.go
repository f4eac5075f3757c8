package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var (
	ErrAlreadyRunning = errors.New("scheduler is already running")
	ErrNotRunning     = errors.New("scheduler is not running")
	ErrUnknownTask    = errors.New("unknown task")
)

// Task is a unit of recurring work. Runs of the same task never overlap.
type Task struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means no bound.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type TaskStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Runs      int64         `json:"runs"`
	Errors    int64         `json:"errors"`
	LastRun   time.Time     `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

type Scheduler struct {
	tasks           []Task
	l               logger.Logger
	m               *metrics.Metrics
	shutdownTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	wg        sync.WaitGroup

	statusMu sync.RWMutex
	status   map[string]*TaskStatus
	runMu    map[string]*sync.Mutex
}

func New(l logger.Logger, m *metrics.Metrics, shutdownTimeout time.Duration, tasks ...Task) *Scheduler {
	s := &Scheduler{
		tasks:           tasks,
		l:               l,
		m:               m,
		shutdownTimeout: shutdownTimeout,
		status:          make(map[string]*TaskStatus, len(tasks)),
		runMu:           make(map[string]*sync.Mutex, len(tasks)),
	}
	for _, t := range tasks {
		s.status[t.Name] = &TaskStatus{Name: t.Name, Interval: t.Interval}
		s.runMu[t.Name] = &sync.Mutex{}
	}
	return s
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrAlreadyRunning
	}

	for _, t := range s.tasks {
		if t.Interval <= 0 {
			return fmt.Errorf("task %q: interval must be positive", t.Name)
		}
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t, s.stopCh)
	}

	s.l.Info(ctx, "Scheduler started", "tasks", len(s.tasks))
	return nil
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	close(s.stopCh)
	s.isRunning = false
	s.mu.Unlock()

	// in-flight runs record their status on the way out; mu must be free
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.l.Info(context.Background(), "Scheduler stopped gracefully")
	case <-time.After(s.shutdownTimeout):
		s.l.Warn(context.Background(), "Scheduler shutdown timeout exceeded")
	}

	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow executes the named task once, outside its tick, with the same
// no-overlap, timeout and status recording as a scheduled run. A non-nil run
// replaces the task's own Run for this call.
func (s *Scheduler) RunNow(ctx context.Context, name string, run func(ctx context.Context) error) error {
	for _, t := range s.tasks {
		if t.Name == name {
			if run != nil {
				t.Run = run
			}
			return s.runOnce(ctx, t)
		}
	}
	return ErrUnknownTask
}

func (s *Scheduler) Status() []TaskStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *s.status[t.Name])
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, t Task, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.l.Info(ctx, "Task stopped due to context cancellation", "task", t.Name)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if err := s.runOnce(ctx, t); err != nil {
				s.l.Errorf(ctx, "scheduler.Scheduler.loop: task %s: %v", t.Name, err)
			}
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) (err error) {
	mu := s.runMu[t.Name]
	mu.Lock()
	defer mu.Unlock()

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %q panicked: %v", t.Name, r)
		}
		s.record(t.Name, err)
	}()

	return t.Run(ctx)
}

func (s *Scheduler) record(name string, err error) {
	s.m.TaskRun(name, err)

	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	st := s.status[name]
	st.Runs++
	st.LastRun = time.Now()
	if err != nil {
		st.Errors++
		st.LastError = err.Error()
	}
}
