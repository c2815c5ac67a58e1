package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	pgxV5 "github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

const (
	// A card qualifies for a session when it is active and its tag set is
	// either empty or entirely contained in the session's filter.
	listActiveCardIDsQuery = `
        SELECT c.id
        FROM cards c
        WHERE c.active
          AND c.card_type = $1
          AND NOT EXISTS (
              SELECT 1 FROM card_tags ct
              WHERE ct.card_id = c.id
                AND ct.tag_id <> ALL($2::uuid[])
          )
    `
	getCardsByIDsQuery = `
        SELECT id, card_type, text, pick, active
        FROM cards
        WHERE id = ANY($1::uuid[])
    `
	getCardByIDQuery = `
        SELECT id, card_type, text, pick, active
        FROM cards
        WHERE id = $1
    `
	filterActiveTagIDsQuery = `
        SELECT id FROM tags WHERE active AND id = ANY($1::uuid[])
    `
)

// Compile-time check to ensure pgCardRepository implements the interface
var _ interfaces.CardRepository = (*pgCardRepository)(nil)

// pgCardRepository is the read-only PostgreSQL card/tag lookup. Card content
// is owned by the content-management subsystem; the engine never writes it.
type pgCardRepository struct {
	db     interfaces.DBTX // Can be *pgxpool.Pool or pgx.Tx
	logger *zap.Logger
}

// NewPgCardRepository creates a new repository instance.
func NewPgCardRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CardRepository {
	return &pgCardRepository{
		db:     db,
		logger: logger.Named("PgCardRepo"),
	}
}

func (r *pgCardRepository) ListActiveIDs(ctx context.Context, cardType models.CardType, tagFilter []uuid.UUID) ([]uuid.UUID, error) {
	logFields := []zap.Field{
		zap.String("cardType", string(cardType)),
		zap.Int("tagFilterCount", len(tagFilter)),
	}
	r.logger.Debug("Listing active card ids", logFields...)

	if tagFilter == nil {
		tagFilter = []uuid.UUID{}
	}
	var ids []uuid.UUID
	if err := pgxscan.Select(ctx, r.db, &ids, listActiveCardIDsQuery, cardType, tagFilter); err != nil {
		r.logger.Error("Failed to list active card ids", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("listing active %s cards: %w", cardType, err)
	}

	r.logger.Debug("Active card ids listed", append(logFields, zap.Int("count", len(ids)))...)
	return ids, nil
}

func (r *pgCardRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Card, error) {
	if len(ids) == 0 {
		return make(map[uuid.UUID]*models.Card), nil
	}

	var cards []*models.Card
	if err := pgxscan.Select(ctx, r.db, &cards, getCardsByIDsQuery, ids); err != nil {
		r.logger.Error("Failed to get cards by ids", zap.Int("idCount", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("getting %d cards: %w", len(ids), err)
	}

	result := make(map[uuid.UUID]*models.Card, len(cards))
	for _, c := range cards {
		result[c.ID] = c
	}
	return result, nil
}

func (r *pgCardRepository) GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	logFields := []zap.Field{zap.String("cardID", id.String())}

	var card models.Card
	err := pgxscan.Get(ctx, r.db, &card, getCardByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			r.logger.Warn("Card not found", logFields...)
			return nil, models.ErrCardNotFound
		}
		r.logger.Error("Failed to get card", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("getting card %s: %w", id, err)
	}
	return &card, nil
}

func (r *pgCardRepository) FilterActiveTagIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	var valid []uuid.UUID
	if err := pgxscan.Select(ctx, r.db, &valid, filterActiveTagIDsQuery, ids); err != nil {
		r.logger.Error("Failed to filter tag ids", zap.Int("idCount", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("filtering %d tag ids: %w", len(ids), err)
	}

	// Preserve the caller's order; the query result order is unspecified.
	validSet := make(map[uuid.UUID]struct{}, len(valid))
	for _, id := range valid {
		validSet[id] = struct{}{}
	}
	ordered := make([]uuid.UUID, 0, len(valid))
	for _, id := range ids {
		if _, ok := validSet[id]; ok {
			ordered = append(ordered, id)
			delete(validSet, id) // drop duplicates from input
		}
	}
	return ordered, nil
}
