package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"promptmatch/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const (
	maxTxRetries   = 16
	maxPushRetries = 8
)

// RedisStore keeps each record (the first two path segments, for example
// games/{id}) as one JSON document. Deeper paths are edited inside the
// document with an optimistic WATCH/MULTI transaction, which makes a
// multi-path Update atomic per record.
type RedisStore struct {
	rdb      *redis.Client
	prefix   string
	ttl      time.Duration
	notifier Notifier
}

type RedisOptions struct {
	Prefix string
	// TTL expires idle records; zero keeps them forever.
	TTL time.Duration
	// Notifier defaults to Redis pub/sub on rdb.
	Notifier Notifier
}

func NewRedisStore(rdb *redis.Client, opts RedisOptions) *RedisStore {
	if opts.Prefix == "" {
		opts.Prefix = "promptmatch"
	}
	if opts.Notifier == nil {
		opts.Notifier = NewRedisNotifier(rdb, opts.Prefix)
	}
	return &RedisStore{rdb: rdb, prefix: opts.Prefix, ttl: opts.TTL, notifier: opts.Notifier}
}

// Client exposes the underlying connection for other Redis users such as
// the rate limiter.
func (s *RedisStore) Client() *redis.Client { return s.rdb }

func (s *RedisStore) key(record string) string {
	return s.prefix + ":" + record
}

func (s *RedisStore) split(path string) (string, []string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", nil, err
	}
	if len(segs) < 2 {
		return "", nil, fmt.Errorf("%w: %q does not name a record", ErrInvalidPath, path)
	}
	return joinPath(segs[:2]...), segs[2:], nil
}

func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	record, rest, err := s.split(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}

	if len(rest) == 0 {
		pipe := s.rdb.TxPipeline()
		if err := s.putDoc(ctx, pipe, s.key(record), v); err != nil {
			return err
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		s.notify(ctx, record)
		return nil
	}

	return s.mutate(ctx, record, func(doc any) (any, error) {
		return setAt(doc, rest, v)
	})
}

func (s *RedisStore) Update(ctx context.Context, path string, changes map[string]any) error {
	record, rest, err := s.split(path)
	if err != nil {
		return err
	}
	return s.mutate(ctx, record, func(doc any) (any, error) {
		current, _ := getAt(doc, rest)
		work, err := applyChanges(cloneTree(current), changes)
		if err != nil {
			return nil, err
		}
		return setAt(doc, rest, work)
	})
}

func (s *RedisStore) PushKey(ctx context.Context, parent string) (string, error) {
	segs, err := splitPath(parent)
	if err != nil {
		return "", err
	}
	if len(segs) != 1 {
		return "", fmt.Errorf("%w: push parent %q must be a collection", ErrInvalidPath, parent)
	}
	for i := 0; i < maxPushRetries; i++ {
		key := newPushKey()
		ok, err := s.rdb.SetNX(ctx, s.key(joinPath(segs[0], key)), "{}", s.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return key, nil
		}
	}
	return "", fmt.Errorf("store: could not allocate a key under %s", parent)
}

func (s *RedisStore) Read(ctx context.Context, path string, dst any) (bool, error) {
	record, rest, err := s.split(path)
	if err != nil {
		return false, err
	}
	raw, err := s.readRaw(ctx, record, rest)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *RedisStore) readRaw(ctx context.Context, record string, rest []string) (json.RawMessage, error) {
	raw, err := s.rdb.Get(ctx, s.key(record)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return raw, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	v, found := getAt(doc, rest)
	return encode(v, found)
}

func (s *RedisStore) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	record, rest, err := s.split(path)
	if err != nil {
		return nil, err
	}

	// listen before the first read so a change in between is not lost
	signals, stop, err := s.notifier.Listen(ctx, record)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(joinPath(append([]string{record}, rest...)...))
	raw, err := s.readRaw(ctx, record, rest)
	if err != nil {
		stop()
		return nil, err
	}
	sub.deliver(Snapshot{Path: sub.path, Value: raw})
	sub.bind(ctx, stop)

	go func() {
		for {
			select {
			case <-sub.Done():
				return
			case _, ok := <-signals:
				if !ok {
					sub.Close()
					return
				}
				raw, err := s.readRaw(ctx, record, rest)
				if err != nil {
					logger.Warn("store: subscription read failed", "path", sub.path, "error", err)
					continue
				}
				sub.deliver(Snapshot{Path: sub.path, Value: raw})
			}
		}
	}()
	return sub, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	nerr := s.notifier.Close()
	if err := s.rdb.Close(); err != nil {
		return err
	}
	return nerr
}

// mutate runs fn over the decoded record inside WATCH/MULTI and retries
// when another writer commits first.
func (s *RedisStore) mutate(ctx context.Context, record string, fn func(doc any) (any, error)) error {
	key := s.key(record)
	txf := func(tx *redis.Tx) error {
		var doc any
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
		}

		doc, err = fn(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.putDoc(ctx, pipe, key, doc)
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			s.notify(ctx, record)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("store: %s: gave up after %d conflicting writes", record, maxTxRetries)
}

func (s *RedisStore) putDoc(ctx context.Context, pipe redis.Pipeliner, key string, doc any) error {
	if doc == nil {
		pipe.Del(ctx, key)
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe.Set(ctx, key, b, s.ttl)
	return nil
}

// notify is best effort: the write already landed, and subscribers
// re-read the full record on their next signal.
func (s *RedisStore) notify(ctx context.Context, record string) {
	if err := s.notifier.Notify(ctx, record); err != nil {
		logger.Warn("store: change notification failed", "record", record, "error", err)
	}
}
