package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

const (
	insertSessionQuery = `
        INSERT INTO sessions (code, tag_ids, piles, state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	getSessionByCodeQuery = `
        SELECT code, tag_ids, piles, state, created_at, updated_at
        FROM sessions
        WHERE code = $1
    `
	updateSessionQuery = `
        UPDATE sessions SET
            piles = $2,
            state = $3,
            updated_at = $4
            -- code and tag_ids are immutable once assigned
        WHERE code = $1
    `
	deleteSessionQuery = `DELETE FROM sessions WHERE code = $1`
)

const uniqueViolationCode = "23505"

// Compile-time check to ensure pgSessionRepository implements the interface
var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

// pgSessionRepository is the PostgreSQL implementation of SessionRepository.
// Piles and state live in JSONB columns; the row is only ever written from
// inside the session lock's transaction.
type pgSessionRepository struct {
	logger *zap.Logger
}

// NewPgSessionRepository creates a new repository instance.
func NewPgSessionRepository(logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{
		logger: logger.Named("PgSessionRepo"),
	}
}

func (r *pgSessionRepository) Insert(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	logFields := []zap.Field{zap.String("sessionCode", session.Code)}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	pilesJSON, stateJSON, err := marshalSessionPayload(session)
	if err != nil {
		r.logger.Error("Failed to marshal session payload for insert", append(logFields, zap.Error(err))...)
		return err
	}

	_, err = querier.Exec(ctx, insertSessionQuery,
		session.Code,
		session.TagIDs,
		pilesJSON,
		stateJSON,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			r.logger.Warn("Session code collision on insert", logFields...)
			return models.ErrSessionCodeTaken
		}
		r.logger.Error("Failed to insert session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("inserting session %s: %w", session.Code, err)
	}

	r.logger.Info("Session inserted", logFields...)
	return nil
}

func (r *pgSessionRepository) GetByCode(ctx context.Context, querier interfaces.DBTX, code string) (*models.Session, error) {
	logFields := []zap.Field{zap.String("sessionCode", code)}
	r.logger.Debug("Getting session by code", logFields...)

	row := querier.QueryRow(ctx, getSessionByCodeQuery, code)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.logger.Warn("Session not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get session", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("getting session %s: %w", code, err)
	}
	return session, nil
}

func (r *pgSessionRepository) Update(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	logFields := []zap.Field{
		zap.String("sessionCode", session.Code),
		zap.String("phase", string(session.State.Phase)),
	}

	session.UpdatedAt = time.Now().UTC()
	pilesJSON, stateJSON, err := marshalSessionPayload(session)
	if err != nil {
		r.logger.Error("Failed to marshal session payload for update", append(logFields, zap.Error(err))...)
		return err
	}

	cmdTag, err := querier.Exec(ctx, updateSessionQuery,
		session.Code,
		pilesJSON,
		stateJSON,
		session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("updating session %s: %w", session.Code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Session not found for update", logFields...)
		return models.ErrNotFound
	}

	r.logger.Debug("Session updated", logFields...)
	return nil
}

func (r *pgSessionRepository) Delete(ctx context.Context, querier interfaces.DBTX, code string) error {
	logFields := []zap.Field{zap.String("sessionCode", code)}

	cmdTag, err := querier.Exec(ctx, deleteSessionQuery, code)
	if err != nil {
		r.logger.Error("Failed to delete session", append(logFields, zap.Error(err))...)
		return fmt.Errorf("deleting session %s: %w", code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Session not found for deletion", logFields...)
		return models.ErrNotFound
	}

	r.logger.Info("Session deleted", logFields...)
	return nil
}

// --- Helper methods (internal) ---

func marshalSessionPayload(session *models.Session) (pilesJSON, stateJSON []byte, err error) {
	pilesJSON, err = json.Marshal(session.Piles)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling piles: %w", err)
	}
	stateJSON, err = json.Marshal(session.State)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling state: %w", err)
	}
	return pilesJSON, stateJSON, nil
}

// scanSession scans a single row into a Session, unmarshaling the JSONB
// payload columns. Returns models.ErrNotFound for pgx.ErrNoRows.
func scanSession(row pgx.Row) (*models.Session, error) {
	session := &models.Session{}
	var pilesJSON, stateJSON []byte
	err := row.Scan(
		&session.Code,
		&session.TagIDs,
		&pilesJSON,
		&stateJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session row: %w", err)
	}
	if err := json.Unmarshal(pilesJSON, &session.Piles); err != nil {
		return nil, fmt.Errorf("unmarshaling piles: %w", err)
	}
	if err := json.Unmarshal(stateJSON, &session.State); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return session, nil
}
