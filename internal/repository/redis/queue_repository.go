package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type redisQueueRepository struct {
	cli  *redis.Client
	keys poolKeys
	clk  clock.Clock
	l    logger.Logger
}

func NewRedisQueueRepository(cli *redis.Client, pool string, clk clock.Clock, l logger.Logger) repository.QueueRepository {
	return &redisQueueRepository{
		cli:  cli,
		keys: newPoolKeys(pool),
		clk:  clk,
		l:    l,
	}
}

func (r *redisQueueRepository) Join(ctx context.Context, userID, token string, lim models.QueueLimits) (models.JoinResult, error) {
	keys := []string{r.keys.waiting(), r.keys.active(), r.keys.seq(), r.keys.user(userID)}
	res, err := joinScript.Run(ctx, r.cli, keys,
		userID,
		token,
		r.nowMs(),
		lim.MaxActive,
		lim.SessionTTL.Milliseconds(),
		lim.TokenTTL.Milliseconds(),
		r.keys.prefix,
	).Slice()
	if err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.Join: %v", err)
		return models.JoinResult{}, err
	}

	if len(res) != 3 {
		err := fmt.Errorf("unexpected join reply: %v", res)
		r.l.Errorf(ctx, "redisQueueRepository.Join: %v", err)
		return models.JoinResult{}, err
	}

	status, _ := res[0].(string)
	tok, _ := res[1].(string)
	pos, _ := res[2].(int64)

	r.l.Debug(ctx, "Joined queue",
		"user_id", userID,
		"status", status,
		"position", pos,
	)

	return models.JoinResult{
		Status:   models.JoinStatus(status),
		Token:    tok,
		Position: pos,
	}, nil
}

func (r *redisQueueRepository) Status(ctx context.Context, token string) (models.TokenStatus, error) {
	pipe := r.cli.TxPipeline()
	userCmd := pipe.Get(ctx, r.keys.token(token))
	leaseCmd := pipe.ZScore(ctx, r.keys.active(), token)
	rankCmd := pipe.ZRank(ctx, r.keys.waiting(), token)
	totalCmd := pipe.ZCard(ctx, r.keys.waiting())

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.l.Errorf(ctx, "redisQueueRepository.Status: %v", err)
		return models.TokenStatus{}, err
	}

	out := models.TokenStatus{
		State:        models.TokenStateNotFound,
		TotalWaiting: totalCmd.Val(),
	}

	userID, err := userCmd.Result()
	if err != nil {
		// mapping gone means the token expired
		return out, nil
	}
	out.UserID = userID

	if lease, err := leaseCmd.Result(); err == nil {
		deadline := time.UnixMilli(int64(lease)).UTC()
		if deadline.After(r.clk.Now()) {
			out.State = models.TokenStateActive
			out.LeaseUntil = deadline
		}
		return out, nil
	}

	if rank, err := rankCmd.Result(); err == nil {
		out.State = models.TokenStateWaiting
		out.Position = rank + 1
	}

	return out, nil
}

func (r *redisQueueRepository) TokenOf(ctx context.Context, userID string) (string, error) {
	tok, err := r.cli.Get(ctx, r.keys.user(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}

		r.l.Errorf(ctx, "redisQueueRepository.TokenOf: %v", err)
		return "", err
	}

	return tok, nil
}

func (r *redisQueueRepository) Promote(ctx context.Context, batch int, lim models.QueueLimits) ([]models.Admission, error) {
	if batch <= 0 {
		return nil, nil
	}

	res, err := promoteScript.Run(ctx, r.cli, []string{r.keys.waiting(), r.keys.active()},
		batch,
		r.nowMs(),
		lim.MaxActive,
		lim.SessionTTL.Milliseconds(),
		lim.TokenTTL.Milliseconds(),
		r.keys.prefix,
	).Slice()
	if err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.Promote: %v", err)
		return nil, err
	}

	admitted := toAdmissions(res)
	if len(admitted) > 0 {
		r.l.Debug(ctx, "Promoted from queue", "count", len(admitted))
	}

	return admitted, nil
}

func (r *redisQueueRepository) Remove(ctx context.Context, userID string) (string, error) {
	keys := []string{r.keys.waiting(), r.keys.active(), r.keys.user(userID)}
	tok, err := removeScript.Run(ctx, r.cli, keys, r.keys.prefix).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}

		r.l.Errorf(ctx, "redisQueueRepository.Remove: %v", err)
		return "", err
	}

	r.l.Debug(ctx, "Removed from queue", "user_id", userID)

	return tok, nil
}

func (r *redisQueueRepository) ReclaimExpired(ctx context.Context) ([]models.Admission, error) {
	res, err := reclaimScript.Run(ctx, r.cli, []string{r.keys.active()}, r.nowMs(), r.keys.prefix).Slice()
	if err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.ReclaimExpired: %v", err)
		return nil, err
	}

	return toAdmissions(res), nil
}

func (r *redisQueueRepository) Counts(ctx context.Context) (models.QueueCounts, error) {
	pipe := r.cli.TxPipeline()
	waitingCmd := pipe.ZCard(ctx, r.keys.waiting())
	activeCmd := pipe.ZCount(ctx, r.keys.active(), fmt.Sprintf("(%d", r.nowMs()), "+inf")

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.Counts: %v", err)
		return models.QueueCounts{}, err
	}

	return models.QueueCounts{
		Waiting: waitingCmd.Val(),
		Active:  activeCmd.Val(),
	}, nil
}

func (r *redisQueueRepository) Reset(ctx context.Context) error {
	iter := r.cli.Scan(ctx, 0, r.keys.pattern(), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.Reset: %v", err)
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.cli.Del(ctx, keys...).Err(); err != nil {
		r.l.Errorf(ctx, "redisQueueRepository.Reset: %v", err)
		return err
	}

	r.l.Info(ctx, "Queue pool reset", "keys", len(keys))
	return nil
}

func (r *redisQueueRepository) nowMs() int64 {
	return r.clk.Now().UnixMilli()
}

func toAdmissions(res []interface{}) []models.Admission {
	out := make([]models.Admission, 0, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		tok, _ := res[i].(string)
		uID, _ := res[i+1].(string)
		out = append(out, models.Admission{Token: tok, UserID: uID})
	}
	return out
}
