package interfaces

import (
	"context"

	"github.com/google/uuid"

	"party-server/internal/models"
)

// CardRepository reads card and tag content owned by the content-management
// subsystem. The game engine never writes through it.
//
//go:generate mockery --name CardRepository --output ./mocks --outpkg mocks --case=underscore
type CardRepository interface {
	// ListActiveIDs returns ids of active cards of the given type whose tag
	// set is empty or a subset of tagFilter. Order is unspecified; the deck
	// engine shuffles.
	ListActiveIDs(ctx context.Context, cardType models.CardType, tagFilter []uuid.UUID) ([]uuid.UUID, error)

	// GetByIDs resolves cards in bulk. Missing ids are simply absent from the
	// result map; the caller decides whether that is an error.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Card, error)

	// GetCard resolves a single card, models.ErrCardNotFound when missing.
	GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error)

	// FilterActiveTagIDs drops unknown or inactive tag ids, preserving order.
	FilterActiveTagIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}
