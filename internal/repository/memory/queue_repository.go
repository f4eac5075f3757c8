package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

type binding struct {
	value     string
	expiresAt time.Time
}

// queueRepository keeps the same observable behaviour as the Redis
// implementation, guarded by one mutex instead of Lua atomicity.
type queueRepository struct {
	mu        sync.Mutex
	clk       clock.Clock
	waiting   []string
	active    map[string]time.Time
	userToken map[string]binding
	tokenUser map[string]binding
}

func NewQueueRepository(clk clock.Clock) repository.QueueRepository {
	r := &queueRepository{clk: clk}
	r.clear()
	return r
}

func (r *queueRepository) clear() {
	r.waiting = nil
	r.active = make(map[string]time.Time)
	r.userToken = make(map[string]binding)
	r.tokenUser = make(map[string]binding)
}

func (r *queueRepository) Join(_ context.Context, userID, token string, lim models.QueueLimits) (models.JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	if existing, ok := r.lookup(r.userToken, userID, now); ok {
		if lease, ok := r.active[existing]; ok && lease.After(now) {
			return models.JoinResult{Status: models.JoinStatusAlreadyActive, Token: existing}, nil
		}
		if rank := r.rankOf(existing); rank >= 0 {
			return models.JoinResult{Status: models.JoinStatusAlreadyQueued, Token: existing, Position: int64(rank) + 1}, nil
		}
		delete(r.active, existing)
		delete(r.tokenUser, existing)
	}

	exp := now.Add(lim.TokenTTL)
	r.userToken[userID] = binding{value: token, expiresAt: exp}
	r.tokenUser[token] = binding{value: userID, expiresAt: exp}

	if r.liveActive(now) < lim.MaxActive {
		r.active[token] = now.Add(lim.SessionTTL)
		return models.JoinResult{Status: models.JoinStatusActive, Token: token}, nil
	}

	r.waiting = append(r.waiting, token)
	return models.JoinResult{Status: models.JoinStatusQueued, Token: token, Position: int64(len(r.waiting))}, nil
}

func (r *queueRepository) Status(_ context.Context, token string) (models.TokenStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	out := models.TokenStatus{
		State:        models.TokenStateNotFound,
		TotalWaiting: int64(len(r.waiting)),
	}

	userID, ok := r.lookup(r.tokenUser, token, now)
	if !ok {
		return out, nil
	}
	out.UserID = userID

	if lease, ok := r.active[token]; ok {
		if lease.After(now) {
			out.State = models.TokenStateActive
			out.LeaseUntil = lease
		}
		return out, nil
	}

	if rank := r.rankOf(token); rank >= 0 {
		out.State = models.TokenStateWaiting
		out.Position = int64(rank) + 1
	}
	return out, nil
}

func (r *queueRepository) TokenOf(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.lookup(r.userToken, userID, r.clk.Now())
	if !ok {
		return "", repository.ErrNotFound
	}
	return tok, nil
}

func (r *queueRepository) Promote(_ context.Context, batch int, lim models.QueueLimits) ([]models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	n := min(batch, lim.MaxActive-r.liveActive(now))
	var out []models.Admission
	for n > 0 && len(r.waiting) > 0 {
		head := r.waiting[0]
		r.waiting = r.waiting[1:]

		userID, ok := r.lookup(r.tokenUser, head, now)
		if !ok {
			continue
		}

		exp := now.Add(lim.TokenTTL)
		r.active[head] = now.Add(lim.SessionTTL)
		r.tokenUser[head] = binding{value: userID, expiresAt: exp}
		r.userToken[userID] = binding{value: head, expiresAt: exp}
		out = append(out, models.Admission{Token: head, UserID: userID})
		n--
	}
	return out, nil
}

func (r *queueRepository) Remove(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.lookup(r.userToken, userID, r.clk.Now())
	if !ok {
		return "", repository.ErrNotFound
	}

	if rank := r.rankOf(tok); rank >= 0 {
		r.waiting = append(r.waiting[:rank], r.waiting[rank+1:]...)
	}
	delete(r.active, tok)
	delete(r.userToken, userID)
	delete(r.tokenUser, tok)
	return tok, nil
}

func (r *queueRepository) ReclaimExpired(_ context.Context) ([]models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	expired := make([]string, 0)
	for tok, lease := range r.active {
		if !lease.After(now) {
			expired = append(expired, tok)
		}
	}
	sort.Strings(expired)

	out := make([]models.Admission, 0, len(expired))
	for _, tok := range expired {
		delete(r.active, tok)
		userID := r.tokenUser[tok].value
		delete(r.tokenUser, tok)
		if b, ok := r.userToken[userID]; ok && b.value == tok {
			delete(r.userToken, userID)
		}
		out = append(out, models.Admission{Token: tok, UserID: userID})
	}
	return out, nil
}

func (r *queueRepository) Counts(_ context.Context) (models.QueueCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.QueueCounts{
		Waiting: int64(len(r.waiting)),
		Active:  int64(r.liveActive(r.clk.Now())),
	}, nil
}

func (r *queueRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clear()
	return nil
}

func (r *queueRepository) lookup(m map[string]binding, key string, now time.Time) (string, bool) {
	b, ok := m[key]
	if !ok {
		return "", false
	}
	if !b.expiresAt.After(now) {
		delete(m, key)
		return "", false
	}
	return b.value, true
}

func (r *queueRepository) liveActive(now time.Time) int {
	n := 0
	for _, lease := range r.active {
		if lease.After(now) {
			n++
		}
	}
	return n
}

func (r *queueRepository) rankOf(token string) int {
	for i, w := range r.waiting {
		if w == token {
			return i
		}
	}
	return -1
}
