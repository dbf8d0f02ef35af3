package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options holds the connection settings taken from config.
type Options struct {
	Addr     string
	Username string
	Password string
	PoolSize int
}

func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return rdb, nil
}
