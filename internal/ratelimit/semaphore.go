package ratelimit

import (
	"context"
	"sync"
)

// Semaphore bounds the number of in-flight operations against a single
// resource, independent of the token-bucket rate limiters above. Unlike
// Bucket, which throttles a rate over time, Semaphore caps concurrency.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a semaphore with the given concurrency limit.
func NewSemaphore(limit int) *Semaphore {
	if limit <= 0 {
		limit = 1
	}
	return &Semaphore{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free or ctx is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (s *Semaphore) Release() {
	<-s.slots
}

// NamedSemaphores lazily allocates one Semaphore per resource name, so a
// caller can share concurrency limits for distinct named resources (e.g.
// the platform API, web search, the archive API) from a single registry
// rather than threading individual *Semaphore values through every caller.
type NamedSemaphores struct {
	mu      sync.Mutex
	limits  map[string]int
	sems    map[string]*Semaphore
	defaultN int
}

// NewNamedSemaphores creates a registry with the given per-resource limits
// and a default limit for any resource not explicitly configured.
func NewNamedSemaphores(limits map[string]int, defaultLimit int) *NamedSemaphores {
	if defaultLimit <= 0 {
		defaultLimit = 1
	}
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &NamedSemaphores{
		limits:   copied,
		sems:     make(map[string]*Semaphore),
		defaultN: defaultLimit,
	}
}

// Get returns the Semaphore for name, creating it on first use.
func (n *NamedSemaphores) Get(name string) *Semaphore {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sem, ok := n.sems[name]; ok {
		return sem
	}

	limit, ok := n.limits[name]
	if !ok {
		limit = n.defaultN
	}
	sem := NewSemaphore(limit)
	n.sems[name] = sem
	return sem
}

// Acquire is a convenience wrapper around Get(name).Acquire(ctx).
func (n *NamedSemaphores) Acquire(ctx context.Context, name string) error {
	return n.Get(name).Acquire(ctx)
}

// Release is a convenience wrapper around Get(name).Release().
func (n *NamedSemaphores) Release(name string) {
	n.Get(name).Release()
}
