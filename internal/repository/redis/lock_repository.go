package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type redisLockRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisLockRepository(cli *redis.Client, l logger.Logger) repository.LockRepository {
	return &redisLockRepository{
		cli: cli,
		l:   l,
	}
}

// Acquire issues SET key holder NX PX ttl.
func (r *redisLockRepository) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	ok, err := r.cli.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisLockRepository.Acquire: %v", err)
		return false, err
	}

	return ok, nil
}

func (r *redisLockRepository) Release(ctx context.Context, key string) error {
	if err := r.cli.Del(ctx, key).Err(); err != nil {
		r.l.Errorf(ctx, "redisLockRepository.Release: %v", err)
		return err
	}

	return nil
}

func (r *redisLockRepository) Holder(ctx context.Context, key string) (string, error) {
	holder, err := r.cli.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}

		r.l.Errorf(ctx, "redisLockRepository.Holder: %v", err)
		return "", err
	}

	return holder, nil
}
