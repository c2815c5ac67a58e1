package database

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// sessionLockClassID is the advisory-lock namespace for session locks. The
// second key is a hash of the session code, so unrelated sessions never
// contend.
const sessionLockClassID int32 = 0x70617274 // "part"

const (
	tryAdvisoryLockQuery  = `SELECT pg_try_advisory_lock($1, $2)`
	advisoryUnlockQuery   = `SELECT pg_advisory_unlock($1, $2)`
	advisoryLockFreeQuery = `
        SELECT NOT EXISTS (
            SELECT 1 FROM pg_locks
            WHERE locktype = 'advisory'
              AND classid = $1::oid
              AND objid = $2::oid
              AND objsubid = 2
        )
    `
)

// Compile-time check to ensure SessionLockManager implements the interface
var _ interfaces.SessionLocker = (*SessionLockManager)(nil)

type lockHandle struct {
	conn  *pgxpool.Conn
	depth int    // extra reentrant acquisitions beyond the first
	tx    pgx.Tx // open transaction while inside WithLock
}

// SessionLockManager serializes mutations of one session across processes
// using Postgres session-level advisory locks. The advisory lock and the
// surrounding transaction share one pooled connection, so committed state is
// always state the lock actually protected.
//
// Held locks are tracked in the manager instance, never in package state:
// the manager is the lock holder, and reentrancy (Acquire or WithLock on a
// code this manager already holds) succeeds by stacking on the held
// connection. Separate manager instances, like separate processes, contend
// through the database.
type SessionLockManager struct {
	pool          *pgxpool.Pool
	logger        *zap.Logger
	timeout       time.Duration // default acquisition timeout for WithLock
	retryInterval time.Duration

	mu   sync.Mutex
	held map[string]*lockHandle
}

// NewSessionLockManager creates a lock manager over the pool. timeout bounds
// WithLock acquisition waits; retryInterval is the try-lock polling period.
func NewSessionLockManager(pool *pgxpool.Pool, timeout, retryInterval time.Duration, logger *zap.Logger) *SessionLockManager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 100 * time.Millisecond
	}
	return &SessionLockManager{
		pool:          pool,
		logger:        logger.Named("SessionLock"),
		timeout:       timeout,
		retryInterval: retryInterval,
		held:          make(map[string]*lockHandle),
	}
}

// lockKeys derives the two advisory-lock keys for a session code.
func lockKeys(code string) (int32, int32) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return sessionLockClassID, int32(h.Sum32())
}

// oidKeys returns the keys as they appear in pg_locks, where classid and
// objid are unsigned oid columns.
func oidKeys(code string) (int64, int64) {
	classID, objID := lockKeys(code)
	return int64(uint32(classID)), int64(uint32(objID))
}

func (m *SessionLockManager) Acquire(ctx context.Context, code string, timeout time.Duration) (bool, error) {
	if !models.ValidateSessionCode(code) {
		return false, models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}

	m.mu.Lock()
	if h, ok := m.held[code]; ok {
		h.depth++
		m.mu.Unlock()
		return true, nil
	}
	m.mu.Unlock()

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquiring connection for session lock %s: %w", code, err)
	}

	classID, objID := lockKeys(code)
	deadline := time.Now().Add(timeout)
	for {
		var locked bool
		if err := conn.QueryRow(ctx, tryAdvisoryLockQuery, classID, objID).Scan(&locked); err != nil {
			conn.Release()
			return false, fmt.Errorf("trying advisory lock for session %s: %w", code, err)
		}
		if locked {
			m.mu.Lock()
			m.held[code] = &lockHandle{conn: conn}
			m.mu.Unlock()
			m.logger.Debug("Session lock acquired", zap.String("sessionCode", code))
			return true, nil
		}
		if time.Now().After(deadline) {
			conn.Release()
			m.logger.Warn("Session lock acquisition timed out",
				zap.String("sessionCode", code),
				zap.Duration("timeout", timeout))
			return false, nil
		}
		select {
		case <-ctx.Done():
			conn.Release()
			return false, ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

func (m *SessionLockManager) Release(ctx context.Context, code string) bool {
	m.mu.Lock()
	h, ok := m.held[code]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if h.depth > 0 {
		h.depth--
		m.mu.Unlock()
		return true
	}
	delete(m.held, code)
	m.mu.Unlock()

	classID, objID := lockKeys(code)
	var unlocked bool
	if err := h.conn.QueryRow(ctx, advisoryUnlockQuery, classID, objID).Scan(&unlocked); err != nil {
		m.logger.Error("Failed to release advisory lock", zap.String("sessionCode", code), zap.Error(err))
	} else if !unlocked {
		// The database did not consider this connection a holder; nothing to undo.
		m.logger.Warn("Advisory unlock reported no lock held", zap.String("sessionCode", code))
	}
	h.conn.Release()
	m.logger.Debug("Session lock released", zap.String("sessionCode", code))
	return true
}

func (m *SessionLockManager) IsHeld(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[code]
	return ok
}

func (m *SessionLockManager) IsFree(ctx context.Context, code string) (bool, error) {
	if !models.ValidateSessionCode(code) {
		return false, models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}
	classOID, objOID := oidKeys(code)
	var free bool
	if err := m.pool.QueryRow(ctx, advisoryLockFreeQuery, classOID, objOID).Scan(&free); err != nil {
		return false, fmt.Errorf("checking advisory lock state for session %s: %w", code, err)
	}
	return free, nil
}

func (m *SessionLockManager) WithLock(ctx context.Context, code string, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	if !models.ValidateSessionCode(code) {
		return models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}

	// Reentrant path: join the transaction already open on the held
	// connection. Only the outermost frame commits and unlocks.
	m.mu.Lock()
	if h, ok := m.held[code]; ok && h.tx != nil {
		tx := h.tx
		m.mu.Unlock()
		return fn(ctx, tx)
	}
	m.mu.Unlock()

	acquired, err := m.Acquire(ctx, code, m.timeout)
	if err != nil {
		return err
	}
	if !acquired {
		return models.ErrLockContention
	}

	m.mu.Lock()
	h := m.held[code]
	m.mu.Unlock()

	tx, err := h.conn.Begin(ctx)
	if err != nil {
		m.Release(ctx, code)
		return fmt.Errorf("beginning transaction for session %s: %w", code, err)
	}
	m.mu.Lock()
	h.tx = tx
	m.mu.Unlock()

	defer func() {
		p := recover()
		if p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				m.logger.Error("Failed to rollback transaction after panic",
					zap.String("sessionCode", code),
					zap.Error(rbErr),
					zap.Any("panic", p))
			}
		}
		m.mu.Lock()
		h.tx = nil
		m.mu.Unlock()
		m.Release(ctx, code)
		if p != nil {
			panic(p) // re-throw panic after rollback and release
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			m.logger.Error("Failed to rollback transaction",
				zap.String("sessionCode", code),
				zap.Error(rbErr),
				zap.NamedError("original_error", err))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction for session %s: %w", code, err)
	}
	return nil
}
