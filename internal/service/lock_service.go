package service

import (
	"context"
	"errors"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/metrics"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type LockService interface {
	// Acquire never grants a lock it could not confirm with the store.
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) bool
	// Release is idempotent and only logs store failures.
	Release(ctx context.Context, key string)
	IsHeld(ctx context.Context, key string) bool
	HolderOf(ctx context.Context, key string) (string, bool)
	// WithLock runs fn while holding key and releases it on every exit path,
	// panics included. It returns ErrLockBusy without calling fn when the
	// lock is taken.
	WithLock(ctx context.Context, key, holder string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type lockService struct {
	repo repository.LockRepository
	m    *metrics.Metrics
	l    logger.Logger
}

func NewLockService(repo repository.LockRepository, m *metrics.Metrics, l logger.Logger) LockService {
	return &lockService{
		repo: repo,
		m:    m,
		l:    l,
	}
}

func SeatLockKey(seatNumber string) string {
	return "booking:lock:" + seatNumber
}

func (s *lockService) Acquire(ctx context.Context, key, holder string, ttl time.Duration) bool {
	ok, err := s.repo.Acquire(ctx, key, holder, ttl)
	if err != nil {
		s.l.Errorf(ctx, "service.lockService.Acquire: %s: %v", key, err)
		ok = false
	}

	s.m.LockAttempt(ok)
	if ok {
		s.l.Debug(ctx, "Lock acquired", "key", key, "holder", holder, "ttl", ttl)
	}
	return ok
}

func (s *lockService) Release(ctx context.Context, key string) {
	if err := s.repo.Release(ctx, key); err != nil {
		s.l.Errorf(ctx, "service.lockService.Release: %s: %v", key, err)
		return
	}
	s.l.Debug(ctx, "Lock released", "key", key)
}

func (s *lockService) IsHeld(ctx context.Context, key string) bool {
	_, held := s.HolderOf(ctx, key)
	return held
}

func (s *lockService) HolderOf(ctx context.Context, key string) (string, bool) {
	holder, err := s.repo.Holder(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.l.Errorf(ctx, "service.lockService.HolderOf: %s: %v", key, err)
		}
		return "", false
	}
	return holder, true
}

func (s *lockService) WithLock(ctx context.Context, key, holder string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if !s.Acquire(ctx, key, holder, ttl) {
		return ErrLockBusy
	}
	// release must not depend on the caller's context still being alive
	defer s.Release(context.WithoutCancel(ctx), key)

	return fn(ctx)
}
