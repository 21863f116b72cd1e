// Package store is the adapter over the shared real-time key-path database
// that holds match records. Paths are "/"-separated; numeric segments index
// into arrays.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var (
	ErrInvalidPath = errors.New("store: invalid path")
	ErrClosed      = errors.New("store: closed")
)

type Store interface {
	// Write overwrites the whole subtree at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error
	// Update applies every subpath -> value change under path atomically and
	// leaves sibling paths that are not named untouched.
	Update(ctx context.Context, path string, changes map[string]any) error
	// PushKey reserves a new globally unique child key under parent.
	PushKey(ctx context.Context, parent string) (string, error)
	// Read decodes the value at path into dst. found is false when absent.
	Read(ctx context.Context, path string, dst any) (found bool, err error)
	// Subscribe delivers the current value at path, then every later change.
	Subscribe(ctx context.Context, path string) (*Subscription, error)
	Ping(ctx context.Context) error
	Close() error
}

// Snapshot is one delivery of a subscription. Value is nil when the path
// holds nothing.
type Snapshot struct {
	Path  string
	Value json.RawMessage
}

func (s Snapshot) Exists() bool {
	return len(s.Value) > 0 && string(s.Value) != "null"
}

// Decode unmarshals the snapshot value into dst.
func (s Snapshot) Decode(dst any) error {
	return json.Unmarshal(s.Value, dst)
}

// Subscription is a cancellable stream of snapshots. Delivery is
// at-least-once and conflating: a newer snapshot replaces one the reader
// has not picked up yet, so a slow reader always sees the latest value.
type Subscription struct {
	path string
	ch   chan Snapshot
	done chan struct{}

	mu     sync.Mutex
	closed bool
	stop   func()
}

func newSubscription(path string) *Subscription {
	return &Subscription{
		path: path,
		ch:   make(chan Snapshot, 1),
		done: make(chan struct{}),
	}
}

// bind cancels the subscription with ctx and runs stop on Close.
func (s *Subscription) bind(ctx context.Context, stop func()) {
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}

func (s *Subscription) Path() string { return s.path }

// Updates is closed after Close.
func (s *Subscription) Updates() <-chan Snapshot { return s.ch }

func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}
}

// Close releases the listener. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	close(s.done)
	close(s.ch)
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}
