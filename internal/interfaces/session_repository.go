package interfaces

import (
	"context"

	"party-server/internal/models"
)

// SessionRepository persists sessions keyed by their immutable code.
//
//go:generate mockery --name SessionRepository --output ./mocks --outpkg mocks --case=underscore
type SessionRepository interface {
	// Insert creates the session row. Returns models.ErrSessionCodeTaken on a
	// code collision so the caller can retry with a fresh code.
	Insert(ctx context.Context, querier DBTX, session *models.Session) error

	// GetByCode loads the full session. Returns models.ErrNotFound when the
	// code does not resolve.
	GetByCode(ctx context.Context, querier DBTX, code string) (*models.Session, error)

	// Update writes piles and state back. Returns models.ErrNotFound when the
	// row vanished underneath the caller.
	Update(ctx context.Context, querier DBTX, session *models.Session) error

	// Delete removes the session row (retention job hook).
	Delete(ctx context.Context, querier DBTX, code string) error
}

// RoundRecordRepository appends and lists per-round history rows, stored
// apart from the session payload.
//
//go:generate mockery --name RoundRecordRepository --output ./mocks --outpkg mocks --case=underscore
type RoundRecordRepository interface {
	Append(ctx context.Context, querier DBTX, record *models.RoundRecord) error
	ListBySession(ctx context.Context, querier DBTX, code string) ([]*models.RoundRecord, error)
	DeleteBySession(ctx context.Context, querier DBTX, code string) error
}
