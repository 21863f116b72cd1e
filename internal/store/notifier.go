package store

import (
	"context"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	redis "github.com/redis/go-redis/v9"
)

// Notifier carries "record changed" signals between processes sharing a
// RedisStore. Signals carry no data; listeners re-read the record.
type Notifier interface {
	Notify(ctx context.Context, record string) error
	// Listen returns a signal channel and a function that stops listening.
	Listen(ctx context.Context, record string) (<-chan struct{}, func(), error)
	Close() error
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// RedisNotifier uses Redis pub/sub on the same client as the store.
type RedisNotifier struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisNotifier(rdb *redis.Client, prefix string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, prefix: prefix}
}

func (n *RedisNotifier) channel(record string) string {
	return n.prefix + ":changes:" + record
}

func (n *RedisNotifier) Notify(ctx context.Context, record string) error {
	return n.rdb.Publish(ctx, n.channel(record), "changed").Err()
}

func (n *RedisNotifier) Listen(ctx context.Context, record string) (<-chan struct{}, func(), error) {
	ps := n.rdb.Subscribe(ctx, n.channel(record))
	// wait for the subscription confirmation so no change is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	msgs := ps.Channel()
	go func() {
		defer close(out)
		for range msgs {
			signal(out)
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}

func (n *RedisNotifier) Close() error { return nil }

// NATSNotifier publishes change signals on a NATS subject per record.
type NATSNotifier struct {
	nc     *nats.Conn
	prefix string
}

// ConnectNATS dials url with reconnect settings suited to a long-lived
// server process.
func ConnectNATS(url, name, prefix string) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSNotifier{nc: nc, prefix: prefix}, nil
}

func (n *NATSNotifier) subject(record string) string {
	return n.prefix + ".changes." + strings.ReplaceAll(record, "/", ".")
}

func (n *NATSNotifier) Notify(ctx context.Context, record string) error {
	return n.nc.Publish(n.subject(record), nil)
}

func (n *NATSNotifier) Listen(ctx context.Context, record string) (<-chan struct{}, func(), error) {
	out := make(chan struct{}, 1)
	sub, err := n.nc.Subscribe(n.subject(record), func(*nats.Msg) {
		signal(out)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := n.nc.FlushTimeout(2 * time.Second); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, err
	}
	return out, func() { _ = sub.Unsubscribe() }, nil
}

func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
