package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"party-server/internal/models"
)

// Mock CardRepository
type CardRepository struct {
	mock.Mock
}

func (m *CardRepository) ListActiveIDs(ctx context.Context, cardType models.CardType, tagFilter []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, cardType, tagFilter)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *CardRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Card, error) {
	args := m.Called(ctx, ids)
	cards, _ := args.Get(0).(map[uuid.UUID]*models.Card)
	return cards, args.Error(1)
}

func (m *CardRepository) GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	args := m.Called(ctx, id)
	card, _ := args.Get(0).(*models.Card)
	return card, args.Error(1)
}

func (m *CardRepository) FilterActiveTagIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	filtered, _ := args.Get(0).([]uuid.UUID)
	return filtered, args.Error(1)
}
