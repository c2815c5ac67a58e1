package interfaces

import (
	"context"
	"time"
)

// SessionLocker serializes mutations of a single session across processes.
// Locks are per session code, never global; unrelated sessions proceed in
// parallel. Implementations are explicitly scoped instances, not process
// singletons, so tests and multiple logical workers stay isolated.
//
//go:generate mockery --name SessionLocker --output ./mocks --outpkg mocks --case=underscore
type SessionLocker interface {
	// Acquire takes the named lock, blocking up to timeout. Reentrant per
	// holder: re-acquiring an already held code succeeds immediately.
	Acquire(ctx context.Context, code string, timeout time.Duration) (bool, error)

	// Release drops one acquisition. Returns false, changing no global state,
	// when this holder does not hold the lock.
	Release(ctx context.Context, code string) bool

	// IsHeld reports whether this holder currently owns the lock.
	IsHeld(code string) bool

	// IsFree checks global lock state across all holders.
	IsFree(ctx context.Context, code string) (bool, error)

	// WithLock validates the code format, acquires the lock, opens a
	// transaction on the same connection that holds the lock, and runs fn.
	// Commit on nil return, rollback on error or panic; the lock is released
	// on every exit path. Nested calls for a held code join the open
	// transaction.
	WithLock(ctx context.Context, code string, fn func(ctx context.Context, tx DBTX) error) error
}
