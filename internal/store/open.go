package store

import (
	"context"
	"fmt"
	"time"

	"promptmatch/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	// NATSURL switches change notifications from Redis pub/sub to NATS.
	NATSURL string
}

// Open builds the store selected by opts and checks it is reachable.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		logger.Info("store: using in-memory backend")
		return NewMemoryStore(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", opts.RedisAddr, err)
	}

	ro := RedisOptions{Prefix: opts.Prefix, TTL: opts.TTL}
	if opts.NATSURL != "" {
		n, err := ConnectNATS(opts.NATSURL, "promptmatch", opts.Prefix)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("store: nats connect %s: %w", opts.NATSURL, err)
		}
		ro.Notifier = n
		logger.Info("store: change notifications over nats", "url", opts.NATSURL)
	}

	logger.Info("store: using redis backend", "addr", opts.RedisAddr, "prefix", ro.Prefix)
	return NewRedisStore(rdb, ro), nil
}
