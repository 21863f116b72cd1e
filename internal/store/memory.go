package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the whole tree in process. It backs tests and
// single-instance deployments.
type MemoryStore struct {
	mu     sync.Mutex
	root   any
	subs   map[*Subscription][]string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root: map[string]any{},
		subs: make(map[*Subscription][]string),
	}
}

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	root, err := setAt(s.root, segs, v)
	if err != nil {
		return err
	}
	s.root = root
	s.notifyLocked(segs)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, changes map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	current, _ := getAt(s.root, segs)
	work, err := applyChanges(cloneTree(current), changes)
	if err != nil {
		return err
	}
	root, err := setAt(s.root, segs, work)
	if err != nil {
		return err
	}
	s.root = root
	s.notifyLocked(segs)
	return nil
}

func (s *MemoryStore) PushKey(ctx context.Context, parent string) (string, error) {
	segs, err := splitPath(parent)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	for {
		key := newPushKey()
		full := append(append([]string{}, segs...), key)
		if _, taken := getAt(s.root, full); taken {
			continue
		}
		root, err := setAt(s.root, full, map[string]any{})
		if err != nil {
			return "", err
		}
		s.root = root
		return key, nil
	}
}

func (s *MemoryStore) Read(ctx context.Context, path string, dst any) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	raw, err := s.encodeLocked(segs)
	s.mu.Unlock()
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	sub := newSubscription(joinPath(segs...))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.subs[sub] = segs
	raw, err := s.encodeLocked(segs)
	if err != nil {
		delete(s.subs, sub)
		s.mu.Unlock()
		return nil, err
	}
	sub.deliver(Snapshot{Path: sub.path, Value: raw})
	s.mu.Unlock()

	sub.bind(ctx, func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	})
	return sub, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	return nil
}

func (s *MemoryStore) encodeLocked(segs []string) (json.RawMessage, error) {
	v, found := getAt(s.root, segs)
	return encode(v, found)
}

// notifyLocked pushes the new value to every subscription whose path
// overlaps the changed one.
func (s *MemoryStore) notifyLocked(changed []string) {
	for sub, segs := range s.subs {
		if !overlaps(segs, changed) {
			continue
		}
		raw, err := s.encodeLocked(segs)
		if err != nil {
			continue
		}
		sub.deliver(Snapshot{Path: sub.path, Value: raw})
	}
}
