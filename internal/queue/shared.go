package queue

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Togather-Foundation/mozdef-proxy/internal/capability"
)

// Shared serializes access to one capability so it can be handed to any
// number of concurrent callers. Only one Perform runs against the inner
// capability at a time; waiting callers are not ordered by arrival.
type Shared[Op any] struct {
	guard    *semaphore.Weighted
	inner    capability.Capability[Op]
	poisoned atomic.Bool
}

func NewShared[Op any](inner capability.Capability[Op]) *Shared[Op] {
	return &Shared[Op]{
		guard: semaphore.NewWeighted(1),
		inner: inner,
	}
}

// Perform waits for exclusive access and delegates to the inner capability.
// Failures to get clean access match ErrGuard: the context ending while
// waiting, or the handle being poisoned by an earlier panic.
func (s *Shared[Op]) Perform(ctx context.Context, op Op) (err error) {
	if err := s.guard.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrGuard, err)
	}
	defer s.guard.Release(1)

	if s.poisoned.Load() {
		return fmt.Errorf("%w: %w", ErrGuard, ErrPoisoned)
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned.Store(true)
			err = fmt.Errorf("%w: %w: %v", ErrGuard, ErrPoisoned, r)
		}
	}()

	return s.inner.Perform(ctx, op)
}

// Poisoned reports whether a panic inside the inner capability has disabled
// the handle.
func (s *Shared[Op]) Poisoned() bool {
	return s.poisoned.Load()
}
