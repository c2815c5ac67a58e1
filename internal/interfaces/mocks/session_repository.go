package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Insert(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	args := m.Called(ctx, querier, session)
	return args.Error(0)
}

func (m *SessionRepository) GetByCode(ctx context.Context, querier interfaces.DBTX, code string) (*models.Session, error) {
	args := m.Called(ctx, querier, code)
	sess, _ := args.Get(0).(*models.Session)
	return sess, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	args := m.Called(ctx, querier, session)
	return args.Error(0)
}

func (m *SessionRepository) Delete(ctx context.Context, querier interfaces.DBTX, code string) error {
	args := m.Called(ctx, querier, code)
	return args.Error(0)
}

// Mock RoundRecordRepository
type RoundRecordRepository struct {
	mock.Mock
}

func (m *RoundRecordRepository) Append(ctx context.Context, querier interfaces.DBTX, record *models.RoundRecord) error {
	args := m.Called(ctx, querier, record)
	return args.Error(0)
}

func (m *RoundRecordRepository) ListBySession(ctx context.Context, querier interfaces.DBTX, code string) ([]*models.RoundRecord, error) {
	args := m.Called(ctx, querier, code)
	records, _ := args.Get(0).([]*models.RoundRecord)
	return records, args.Error(1)
}

func (m *RoundRecordRepository) DeleteBySession(ctx context.Context, querier interfaces.DBTX, code string) error {
	args := m.Called(ctx, querier, code)
	return args.Error(0)
}
