package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestSemaphore_BlocksBeyondLimit(t *testing.T) {
	sem := NewSemaphore(2)
	ctx := context.Background()

	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(timeoutCtx); err == nil {
		t.Error("expected third acquire to block until cancellation")
	}

	sem.Release()
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestNamedSemaphores_PerResourceLimits(t *testing.T) {
	named := NewNamedSemaphores(map[string]int{"metaculus": 1}, 3)
	ctx := context.Background()

	if err := named.Acquire(ctx, "metaculus"); err != nil {
		t.Fatalf("acquire metaculus: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := named.Acquire(timeoutCtx, "metaculus"); err == nil {
		t.Error("expected metaculus semaphore to be exhausted at limit 1")
	}

	// A different resource uses the default limit and should not be blocked.
	if err := named.Acquire(ctx, "web_search"); err != nil {
		t.Fatalf("acquire web_search: %v", err)
	}
}

func TestNamedSemaphores_SameResourceSharesSemaphore(t *testing.T) {
	named := NewNamedSemaphores(nil, 1)
	first := named.Get("archive")
	second := named.Get("archive")
	if first != second {
		t.Error("expected repeated Get calls for the same name to return the same semaphore")
	}
}
