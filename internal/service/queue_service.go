package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/util"
)

type QueueService interface {
	Join(ctx context.Context, userID string) (JoinQueueOutput, error)
	Status(ctx context.Context, token string) (QueueStatusOutput, error)
	Stats(ctx context.Context) (QueueStatsOutput, error)
	// Promote admits up to batch waiters in rank order and returns how many
	// were admitted.
	Promote(ctx context.Context, batch int) (int, error)
	// Remove drops the user's token from the pool. reason is one of the
	// kafka.LeftReason values.
	Remove(ctx context.Context, userID, reason string) error
	IsUserActive(ctx context.Context, userID string) (bool, error)
	ReclaimExpired(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	// Watch streams status changes for token until it is admitted, expires,
	// or ctx is done. The channel is closed on exit.
	Watch(ctx context.Context, token string) (<-chan QueueEvent, error)
}

type queueService struct {
	repo     repository.QueueRepository
	notifier repository.Notifier
	prod     producer.Producer
	m        *metrics.Metrics
	clk      clock.Clock
	cfg      config.QueueConfig
	l        logger.Logger
}

// NewQueueService builds the admission queue. prod may be nil when Kafka is
// disabled.
func NewQueueService(
	repo repository.QueueRepository,
	notifier repository.Notifier,
	prod producer.Producer,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.QueueConfig,
	l logger.Logger,
) QueueService {
	return &queueService{
		repo:     repo,
		notifier: notifier,
		prod:     prod,
		m:        m,
		clk:      clk,
		cfg:      cfg,
		l:        l,
	}
}

func newQueueToken() string {
	return "vq_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *queueService) limits() models.QueueLimits {
	return models.QueueLimits{
		MaxActive:  s.cfg.MaxActive,
		SessionTTL: s.cfg.SessionTTL,
		TokenTTL:   s.cfg.TokenTTL,
	}
}

func (s *queueService) Join(ctx context.Context, userID string) (JoinQueueOutput, error) {
	if strings.TrimSpace(userID) == "" {
		return JoinQueueOutput{}, ErrInvalidUser
	}

	res, err := s.repo.Join(ctx, userID, newQueueToken(), s.limits())
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.Join: %v", err)
		return JoinQueueOutput{}, ErrQueueUnavailable
	}

	s.m.QueueJoined(string(res.Status))

	out := JoinQueueOutput{
		Success: true,
		Token:   res.Token,
		Status:  res.Status,
	}

	switch res.Status {
	case models.JoinStatusActive:
		out.Message = "Welcome! You can start booking immediately"
	case models.JoinStatusAlreadyActive:
		out.Message = "You already have an active booking session"
	case models.JoinStatusQueued, models.JoinStatusAlreadyQueued:
		out.Position = res.Position
		out.EstimatedWaitMinutes = util.EstimateWaitMinutes(res.Position, s.cfg.ProcessingRate)
		out.EstimatedWait = util.FormatWait(out.EstimatedWaitMinutes)
		if res.Status == models.JoinStatusQueued {
			out.Message = fmt.Sprintf("Added to queue at position %d", res.Position)
		} else {
			out.Message = fmt.Sprintf("Already in queue at position %d", res.Position)
		}
	}

	if res.Status == models.JoinStatusActive || res.Status == models.JoinStatusQueued {
		s.publish(ctx, models.UpdateTypeUserJoined, res.Token)

		if s.prod != nil {
			if err := s.prod.PublishQueueJoined(ctx, kafka.QueueJoinedEvent{
				Pool:     s.cfg.Pool,
				Token:    res.Token,
				UserID:   userID,
				Status:   string(res.Status),
				Position: res.Position,
				JoinedAt: s.clk.Now(),
			}); err != nil {
				s.l.Warn(ctx, "Failed to publish queue joined event", "user_id", userID, "error", err)
			}
		}
	}

	s.l.Info(ctx, "User joined queue",
		"user_id", userID,
		"status", res.Status,
		"position", res.Position,
	)

	return out, nil
}

func (s *queueService) Status(ctx context.Context, token string) (QueueStatusOutput, error) {
	st, err := s.repo.Status(ctx, token)
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.Status: %v", err)
		return QueueStatusOutput{}, ErrQueueUnavailable
	}

	return s.toStatusOutput(token, st), nil
}

func (s *queueService) toStatusOutput(token string, st models.TokenStatus) QueueStatusOutput {
	out := QueueStatusOutput{
		Token:        token,
		Status:       st.State,
		TotalWaiting: st.TotalWaiting,
	}

	switch st.State {
	case models.TokenStateWaiting:
		out.Position = st.Position
		out.EstimatedWaitMinutes = util.EstimateWaitMinutes(st.Position, s.cfg.ProcessingRate)
		out.EstimatedWait = util.FormatWait(out.EstimatedWaitMinutes)
		out.Message = fmt.Sprintf("You are number %d in line", st.Position)
	case models.TokenStateActive:
		lease := st.LeaseUntil
		out.ExpiresAt = &lease
		out.Message = "Your session is active! You can start booking now"
	default:
		out.Message = ErrTokenNotFound.Message
	}

	return out
}

func (s *queueService) Stats(ctx context.Context) (QueueStatsOutput, error) {
	c, err := s.repo.Counts(ctx)
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.Stats: %v", err)
		return QueueStatsOutput{}, ErrQueueUnavailable
	}

	s.m.QueueSize(c.Waiting, c.Active)

	available := int64(s.cfg.MaxActive) - c.Active
	if available < 0 {
		available = 0
	}

	return QueueStatsOutput{
		TotalWaiting:   c.Waiting,
		ActiveCount:    c.Active,
		MaxActive:      s.cfg.MaxActive,
		ProcessingRate: s.cfg.ProcessingRate,
		QueueActive:    c.Waiting > 0 || c.Active >= int64(s.cfg.MaxActive),
		AvailableSlots: available,
	}, nil
}

func (s *queueService) Promote(ctx context.Context, batch int) (int, error) {
	admitted, err := s.repo.Promote(ctx, batch, s.limits())
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.Promote: %v", err)
		return 0, ErrQueueUnavailable
	}
	if len(admitted) == 0 {
		return 0, nil
	}

	s.m.Promoted(len(admitted))

	now := s.clk.Now()
	tokens := make([]string, 0, len(admitted))
	for _, a := range admitted {
		tokens = append(tokens, a.Token)

		if s.prod != nil {
			if err := s.prod.PublishQueueAdmitted(ctx, kafka.QueueAdmittedEvent{
				Pool:       s.cfg.Pool,
				Token:      a.Token,
				UserID:     a.UserID,
				AdmittedAt: now,
				ExpiresAt:  now.Add(s.cfg.SessionTTL),
			}); err != nil {
				s.l.Warn(ctx, "Failed to publish queue admitted event", "user_id", a.UserID, "error", err)
			}
		}
	}
	s.publish(ctx, models.UpdateTypeUserAdmitted, tokens...)

	s.l.Info(ctx, "Users admitted from queue", "count", len(admitted))

	return len(admitted), nil
}

func (s *queueService) Remove(ctx context.Context, userID, reason string) error {
	tok, err := s.repo.Remove(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotInQueue
		}
		s.l.Errorf(ctx, "service.queueService.Remove: %v", err)
		return ErrQueueUnavailable
	}

	s.publish(ctx, models.UpdateTypeUserLeft, tok)
	s.publishLeft(ctx, models.Admission{Token: tok, UserID: userID}, reason)

	s.l.Info(ctx, "User removed from queue", "user_id", userID, "reason", reason)

	return nil
}

func (s *queueService) IsUserActive(ctx context.Context, userID string) (bool, error) {
	tok, err := s.repo.TokenOf(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	st, err := s.repo.Status(ctx, tok)
	if err != nil {
		return false, err
	}

	return st.State == models.TokenStateActive, nil
}

func (s *queueService) ReclaimExpired(ctx context.Context) (int, error) {
	reclaimed, err := s.repo.ReclaimExpired(ctx)
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.ReclaimExpired: %v", err)
		return 0, ErrQueueUnavailable
	}
	if len(reclaimed) == 0 {
		return 0, nil
	}

	s.m.Reclaimed(len(reclaimed))

	tokens := make([]string, 0, len(reclaimed))
	for _, a := range reclaimed {
		tokens = append(tokens, a.Token)
		s.publishLeft(ctx, a, kafka.LeftReasonExpired)
	}
	s.publish(ctx, models.UpdateTypeUserReclaimed, tokens...)

	s.l.Info(ctx, "Reclaimed expired sessions", "count", len(reclaimed))

	return len(reclaimed), nil
}

func (s *queueService) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx); err != nil {
		s.l.Errorf(ctx, "service.queueService.Reset: %v", err)
		return ErrQueueUnavailable
	}
	s.publish(ctx, models.UpdateTypeUserLeft)
	return nil
}

func (s *queueService) Watch(ctx context.Context, token string) (<-chan QueueEvent, error) {
	st, err := s.Status(ctx, token)
	if err != nil {
		return nil, err
	}

	var updates <-chan models.QueueUpdate
	sub, err := s.notifier.Subscribe(ctx)
	if err != nil {
		// polling still delivers every change, only later
		s.l.Warn(ctx, "Queue update subscription failed, falling back to polling", "error", err)
	} else {
		updates = sub.Updates()
	}

	out := make(chan QueueEvent, 1)
	go func() {
		defer close(out)
		if sub != nil {
			defer sub.Close()
		}

		interval := s.cfg.StreamPollInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			ev := toQueueEvent(st)
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Name != QueueEventUpdate {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case _, ok := <-updates:
				if !ok {
					updates = nil
				}
			}

			next, err := s.Status(ctx, token)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			st = next
		}
	}()

	return out, nil
}

func toQueueEvent(st QueueStatusOutput) QueueEvent {
	name := QueueEventUpdate
	switch st.Status {
	case models.TokenStateActive:
		name = QueueEventAdmitted
	case models.TokenStateNotFound:
		name = QueueEventExpired
	}
	return QueueEvent{Name: name, Status: st}
}

func (s *queueService) publish(ctx context.Context, t models.UpdateType, tokens ...string) {
	if err := s.notifier.Publish(ctx, models.QueueUpdate{
		Pool:       s.cfg.Pool,
		UpdateType: t,
		Tokens:     tokens,
		Timestamp:  s.clk.Now(),
	}); err != nil {
		s.l.Warn(ctx, "Failed to publish queue update", "type", t, "error", err)
	}
}

func (s *queueService) publishLeft(ctx context.Context, a models.Admission, reason string) {
	if s.prod == nil {
		return
	}
	if err := s.prod.PublishQueueLeft(ctx, kafka.QueueLeftEvent{
		Pool:   s.cfg.Pool,
		Token:  a.Token,
		UserID: a.UserID,
		Reason: reason,
		LeftAt: s.clk.Now(),
	}); err != nil {
		s.l.Warn(ctx, "Failed to publish queue left event", "user_id", a.UserID, "error", err)
	}
}
