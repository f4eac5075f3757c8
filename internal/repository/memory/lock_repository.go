package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

type lockEntry struct {
	holder    string
	expiresAt time.Time
}

type lockRepository struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	clk   clock.Clock
}

func NewLockRepository(clk clock.Clock) repository.LockRepository {
	return &lockRepository{
		locks: make(map[string]lockEntry),
		clk:   clk,
	}
}

func (r *lockRepository) Acquire(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	if e, ok := r.locks[key]; ok && e.expiresAt.After(now) {
		return false, nil
	}

	r.locks[key] = lockEntry{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (r *lockRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, key)
	return nil
}

func (r *lockRepository) Holder(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.locks[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	if !e.expiresAt.After(r.clk.Now()) {
		delete(r.locks, key)
		return "", repository.ErrNotFound
	}
	return e.holder, nil
}
