package redis

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/config"
	pkgRedis "github.com/vogiaan1904/ticketbottle-booking/pkg/redis"
)

// Connect returns a client for the shared lock and queue store.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	cli := pkgRedis.NewClient(cfg)

	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}

	log.Printf("Connected to Redis at %s.\n", cfg.Addr)

	return cli, nil
}

func Disconnect(cli *redis.Client) {
	if cli == nil {
		return
	}

	if err := cli.Close(); err != nil {
		log.Printf("Closing Redis connection: %v\n", err)
		return
	}

	log.Println("Connection to Redis closed.")
}
