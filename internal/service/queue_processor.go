package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/scheduler"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

const (
	TaskPromote = "promote"
	TaskReclaim = "reclaim"
)

type QueueProcessor interface {
	Start(ctx context.Context) error
	Stop() error
	// ProcessQueue runs one promotion pass. batch <= 0 uses the manual
	// default.
	ProcessQueue(ctx context.Context, batch int) (int, error)
	GetStatus() ProcessorStatus
}

type ProcessorStatus struct {
	IsRunning      bool                   `json:"is_running"`
	StartedAt      time.Time              `json:"started_at,omitempty"`
	LastProcessed  time.Time              `json:"last_processed,omitempty"`
	TotalAdmitted  int64                  `json:"total_admitted"`
	TotalReclaimed int64                  `json:"total_reclaimed"`
	ErrorCount     int64                  `json:"error_count"`
	Tasks          []scheduler.TaskStatus `json:"tasks"`
}

type ProcessorConfig struct {
	ProcessInterval time.Duration
	CleanupInterval time.Duration
	BatchSize       int
	ManualBatchSize int
	MaxActive       int
	RetryAttempts   int
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
	// MaxProcessingDuration bounds a single task run.
	MaxProcessingDuration time.Duration
}

type queueProcessor struct {
	queueSvc QueueService
	sched    *scheduler.Scheduler
	logger   logger.Logger
	config   ProcessorConfig

	mu             sync.RWMutex
	startedAt      time.Time
	lastProcessed  time.Time
	totalAdmitted  int64
	totalReclaimed int64
	errorCount     int64
}

func NewQueueProcessor(
	queueSvc QueueService,
	m *metrics.Metrics,
	logger logger.Logger,
	cfg config.QueueConfig,
	shutdownTimeout time.Duration,
) QueueProcessor {
	qp := &queueProcessor{
		queueSvc: queueSvc,
		logger:   logger,
		config: ProcessorConfig{
			ProcessInterval:       cfg.ProcessInterval,
			CleanupInterval:       cfg.CleanupInterval,
			BatchSize:             cfg.ProcessBatch,
			ManualBatchSize:       cfg.ManualBatch,
			MaxActive:             cfg.MaxActive,
			RetryAttempts:         3,
			RetryDelay:            time.Second,
			ShutdownTimeout:       shutdownTimeout,
			MaxProcessingDuration: 30 * time.Second,
		},
	}

	qp.sched = scheduler.New(logger, m, shutdownTimeout,
		scheduler.Task{
			Name:     TaskPromote,
			Interval: qp.config.ProcessInterval,
			Timeout:  qp.config.MaxProcessingDuration,
			Run:      qp.promoteTick,
		},
		scheduler.Task{
			Name:     TaskReclaim,
			Interval: qp.config.CleanupInterval,
			Timeout:  qp.config.MaxProcessingDuration,
			Run:      qp.reclaimTick,
		},
	)

	return qp
}

func (qp *queueProcessor) Start(ctx context.Context) error {
	qp.logger.Info(ctx, "Starting queue processor",
		"interval", qp.config.ProcessInterval,
		"cleanup_interval", qp.config.CleanupInterval,
		"batch_size", qp.config.BatchSize,
		"max_active", qp.config.MaxActive,
	)

	if err := qp.sched.Start(ctx); err != nil {
		return err
	}

	qp.mu.Lock()
	qp.startedAt = time.Now()
	qp.mu.Unlock()

	return nil
}

func (qp *queueProcessor) Stop() error {
	qp.logger.Info(context.Background(), "Stopping queue processor...")
	return qp.sched.Stop()
}

func (qp *queueProcessor) promoteTick(ctx context.Context) error {
	_, err := qp.process(ctx, qp.config.BatchSize)
	return err
}

func (qp *queueProcessor) ProcessQueue(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = qp.config.ManualBatchSize
	}

	// shares the promote task's slot so a manual pass never overlaps a tick
	var admitted int
	err := qp.sched.RunNow(ctx, TaskPromote, func(ctx context.Context) error {
		var err error
		admitted, err = qp.process(ctx, batch)
		return err
	})
	return admitted, err
}

// process admits min(batch, waiting, free slots) users.
func (qp *queueProcessor) process(ctx context.Context, batch int) (int, error) {
	defer qp.touch()

	var stats QueueStatsOutput
	err := qp.withRetry(ctx, func() error {
		var err error
		stats, err = qp.queueSvc.Stats(ctx)
		return err
	})
	if err != nil {
		qp.incrementErrorCount()
		return 0, fmt.Errorf("failed to read queue stats: %w", err)
	}

	if stats.TotalWaiting == 0 || stats.AvailableSlots <= 0 {
		qp.logger.Debug(ctx, "Nothing to promote",
			"waiting", stats.TotalWaiting,
			"active", stats.ActiveCount,
			"max_active", stats.MaxActive,
		)
		return 0, nil
	}

	n := min(int64(batch), stats.TotalWaiting, stats.AvailableSlots)

	admitted, err := qp.queueSvc.Promote(ctx, int(n))
	if err != nil {
		qp.incrementErrorCount()
		return 0, fmt.Errorf("failed to promote: %w", err)
	}

	qp.mu.Lock()
	qp.totalAdmitted += int64(admitted)
	qp.mu.Unlock()

	qp.logger.Info(ctx, "Batch processing completed",
		"attempted", n,
		"admitted", admitted,
	)

	return admitted, nil
}

func (qp *queueProcessor) reclaimTick(ctx context.Context) error {
	n, err := qp.queueSvc.ReclaimExpired(ctx)
	if err != nil {
		qp.incrementErrorCount()
		return fmt.Errorf("failed to reclaim: %w", err)
	}

	qp.mu.Lock()
	qp.totalReclaimed += int64(n)
	qp.mu.Unlock()

	return nil
}

func (qp *queueProcessor) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < qp.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(qp.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := operation(); err != nil {
			lastErr = err
			qp.logger.Warn(ctx, "Operation failed, retrying",
				"attempt", attempt+1,
				"max_attempts", qp.config.RetryAttempts,
				"error", err,
			)
			continue
		}

		return nil
	}

	return fmt.Errorf("operation failed after %d attempts: %w", qp.config.RetryAttempts, lastErr)
}

func (qp *queueProcessor) touch() {
	qp.mu.Lock()
	defer qp.mu.Unlock()
	qp.lastProcessed = time.Now()
}

func (qp *queueProcessor) incrementErrorCount() {
	qp.mu.Lock()
	defer qp.mu.Unlock()
	qp.errorCount++
}

func (qp *queueProcessor) GetStatus() ProcessorStatus {
	qp.mu.RLock()
	defer qp.mu.RUnlock()

	return ProcessorStatus{
		IsRunning:      qp.sched.IsRunning(),
		StartedAt:      qp.startedAt,
		LastProcessed:  qp.lastProcessed,
		TotalAdmitted:  qp.totalAdmitted,
		TotalReclaimed: qp.totalReclaimed,
		ErrorCount:     qp.errorCount,
		Tasks:          qp.sched.Status(),
	}
}
