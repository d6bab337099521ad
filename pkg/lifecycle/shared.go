package lifecycle

import (
	"context"
	"sync"
	"time"
)

// The process-shared pool. The most-recently-used name must outlive an
// environment reset that discards every per-instance object, so it lives
// here, behind an explicit init/teardown pair, and nowhere else.
var (
	sharedMu   sync.Mutex
	sharedPool *Pool
)

// Shared returns the process-wide pool, creating it with the default
// staleness window on first use. Supervisors attach to it unless given a
// private pool.
func Shared() *Pool {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedPool == nil {
		sharedPool = NewPool(DefaultStalenessWindow)
	}
	return sharedPool
}

// InitShared replaces the process-wide pool with one using the given
// staleness window. Call it before any Supervisor attaches; records held
// by a previous shared pool are dropped without closing.
func InitShared(staleness time.Duration) *Pool {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	sharedPool = NewPool(staleness)
	return sharedPool
}

// ResetShared tears the process-wide pool down: every held record is
// invalidated and handed to closer (when non-nil) for native close, the
// most-recently-used name is cleared, and the pool is discarded. The next
// Shared call starts fresh. The first closer error is returned; teardown
// continues regardless.
func ResetShared(ctx context.Context, closer func(ctx context.Context, name string, rec *Record) error) error {
	sharedMu.Lock()
	pool := sharedPool
	sharedPool = nil
	sharedMu.Unlock()

	if pool == nil {
		return nil
	}

	var firstErr error
	pool.Range(func(name string, rec *Record) bool {
		rec.Invalidate()
		if closer != nil {
			if err := closer(ctx, name, rec); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		pool.Remove(name)
		return true
	})
	pool.SetMostRecentlyUsed("")
	return firstErr
}
