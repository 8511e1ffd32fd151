package conversation

import (
	"context"
	"sync"
)

// keyLock hands out one exclusive slot per key. Waiters for the same key are
// admitted in arrival order; different keys never block each other.
type keyLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	held    bool
	waiters []chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{slots: make(map[string]*slot)}
}

// Lock blocks until the caller owns key or ctx ends. The returned func
// releases ownership and must be called exactly once.
func (k *keyLock) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{}
		k.slots[key] = s
	}
	if !s.held {
		s.held = true
		k.mu.Unlock()
		return func() { k.unlock(key) }, nil
	}
	ready := make(chan struct{})
	s.waiters = append(s.waiters, ready)
	k.mu.Unlock()

	select {
	case <-ready:
		return func() { k.unlock(key) }, nil
	case <-ctx.Done():
		k.mu.Lock()
		for i, w := range s.waiters {
			if w == ready {
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				k.mu.Unlock()
				return nil, ctx.Err()
			}
		}
		k.mu.Unlock()
		// ownership was handed over while we were giving up
		k.unlock(key)
		return nil, ctx.Err()
	}
}

func (k *keyLock) unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.slots[key]
	if len(s.waiters) > 0 {
		next := s.waiters[0]
		s.waiters = s.waiters[1:]
		close(next)
		return
	}
	delete(k.slots, key)
}

func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
