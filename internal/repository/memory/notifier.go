package memory

import (
	"context"
	"sync"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
)

type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan models.QueueUpdate
}

func NewNotifier() repository.Notifier {
	return &notifier{subs: make(map[int]chan models.QueueUpdate)}
}

func (n *notifier) Publish(_ context.Context, upd models.QueueUpdate) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- upd:
		default:
		}
	}
	return nil
}

func (n *notifier) Subscribe(_ context.Context) (repository.Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	ch := make(chan models.QueueUpdate, 16)
	n.subs[n.nextID] = ch
	return &subscription{n: n, id: n.nextID, ch: ch}, nil
}

type subscription struct {
	n    *notifier
	id   int
	ch   chan models.QueueUpdate
	once sync.Once
}

func (s *subscription) Updates() <-chan models.QueueUpdate {
	return s.ch
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.n.mu.Lock()
		delete(s.n.subs, s.id)
		close(s.ch)
		s.n.mu.Unlock()
	})
	return nil
}
