package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// Mock SessionLocker. Tests that only care about the mutation body should use
// PassthroughLocker instead.
type SessionLocker struct {
	mock.Mock
}

func (m *SessionLocker) Acquire(ctx context.Context, code string, timeout time.Duration) (bool, error) {
	args := m.Called(ctx, code, timeout)
	return args.Bool(0), args.Error(1)
}

func (m *SessionLocker) Release(ctx context.Context, code string) bool {
	args := m.Called(ctx, code)
	return args.Bool(0)
}

func (m *SessionLocker) IsHeld(code string) bool {
	args := m.Called(code)
	return args.Bool(0)
}

func (m *SessionLocker) IsFree(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *SessionLocker) WithLock(ctx context.Context, code string, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	args := m.Called(ctx, code, fn)
	return args.Error(0)
}

// PassthroughLocker validates the code and runs the mutation directly,
// skipping locking entirely. Tx stands in for the transaction handle when a
// test needs repository calls to see a specific querier.
type PassthroughLocker struct {
	Tx interfaces.DBTX
}

func (l *PassthroughLocker) Acquire(ctx context.Context, code string, timeout time.Duration) (bool, error) {
	return true, nil
}

func (l *PassthroughLocker) Release(ctx context.Context, code string) bool { return true }

func (l *PassthroughLocker) IsHeld(code string) bool { return false }

func (l *PassthroughLocker) IsFree(ctx context.Context, code string) (bool, error) {
	return true, nil
}

func (l *PassthroughLocker) WithLock(ctx context.Context, code string, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	if !models.ValidateSessionCode(code) {
		return models.NewGameError(models.KindValidation, "malformed session code %q", code)
	}
	return fn(ctx, l.Tx)
}
