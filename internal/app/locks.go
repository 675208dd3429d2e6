package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/adapters/observability"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

// ResourceLocks serializes capacity validation and reservation writes per
// resource within this process. The database row lock taken inside the
// repository keeps multiple instances correct; this layer exists to fail
// fast with ErrBusy after a bounded wait instead of queueing booking
// requests indefinitely on the database.
type ResourceLocks struct {
	mu   sync.Mutex
	sems map[int64]*semaphore.Weighted
	wait time.Duration
}

// NewResourceLocks builds a lock set with the given maximum wait per
// acquisition. wait <= 0 falls back to 3s.
func NewResourceLocks(wait time.Duration) *ResourceLocks {
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &ResourceLocks{sems: make(map[int64]*semaphore.Weighted), wait: wait}
}

func (l *ResourceLocks) sem(id int64) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[id]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.sems[id] = s
	}
	return s
}

// Acquire takes the per-resource slot, waiting at most the configured
// bound. On timeout it returns domain.ErrBusy, the only condition callers
// may retry without user input. The returned release function must be
// called exactly once.
func (l *ResourceLocks) Acquire(ctx context.Context, resourceID int64) (func(), error) {
	s := l.sem(resourceID)
	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := s.Acquire(waitCtx, 1); err != nil {
		observability.ObserveLockWait(time.Since(start), false)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrBusy
	}
	observability.ObserveLockWait(time.Since(start), true)
	return func() { s.Release(1) }, nil
}
