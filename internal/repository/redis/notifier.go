package redis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type redisNotifier struct {
	cli     *redis.Client
	channel string
	l       logger.Logger
}

func NewRedisNotifier(cli *redis.Client, pool string, l logger.Logger) repository.Notifier {
	return &redisNotifier{
		cli:     cli,
		channel: newPoolKeys(pool).updates(),
		l:       l,
	}
}

func (n *redisNotifier) Publish(ctx context.Context, upd models.QueueUpdate) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		n.l.Errorf(ctx, "redisNotifier.Publish: %v", err)
		return err
	}

	if err := n.cli.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.l.Errorf(ctx, "redisNotifier.Publish: %v", err)
		return err
	}

	return nil
}

func (n *redisNotifier) Subscribe(ctx context.Context) (repository.Subscription, error) {
	ps := n.cli.Subscribe(ctx, n.channel)

	// wait for the subscription confirmation so no update published after
	// Subscribe returns can be missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		n.l.Errorf(ctx, "redisNotifier.Subscribe: %v", err)
		return nil, err
	}

	sub := &redisSubscription{
		ps:  ps,
		out: make(chan models.QueueUpdate, 16),
	}
	go sub.pump(ctx, n.l)

	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan models.QueueUpdate
	once sync.Once
}

func (s *redisSubscription) pump(ctx context.Context, l logger.Logger) {
	defer close(s.out)

	for msg := range s.ps.Channel() {
		var upd models.QueueUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
			l.Warnf(ctx, "redisSubscription.pump: %v", err)
			continue
		}

		select {
		case s.out <- upd:
		default:
			// slow reader, drop; clients can always poll
		}
	}
}

func (s *redisSubscription) Updates() <-chan models.QueueUpdate {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
	})
	return err
}
