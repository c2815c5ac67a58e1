package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"party-server/internal/interfaces"
	"party-server/internal/models"
)

const (
	appendRoundRecordQuery = `
        INSERT INTO round_history
            (session_code, round_number, prompt_id, judge_id, winner_id, winning_cards, submissions, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	listRoundRecordsQuery = `
        SELECT session_code, round_number, prompt_id, judge_id, winner_id, winning_cards, submissions, created_at
        FROM round_history
        WHERE session_code = $1
        ORDER BY round_number
    `
	deleteRoundRecordsQuery = `
        DELETE FROM round_history
        WHERE session_code = $1
    `
)

// Compile-time check to ensure pgRoundRecordRepository implements the interface
var _ interfaces.RoundRecordRepository = (*pgRoundRecordRepository)(nil)

// pgRoundRecordRepository stores the append-only round history apart from the
// session payload, so history queries never load the full session blob.
type pgRoundRecordRepository struct {
	logger *zap.Logger
}

// NewPgRoundRecordRepository creates a new repository instance.
func NewPgRoundRecordRepository(logger *zap.Logger) interfaces.RoundRecordRepository {
	return &pgRoundRecordRepository{
		logger: logger.Named("PgRoundRecordRepo"),
	}
}

func (r *pgRoundRecordRepository) Append(ctx context.Context, querier interfaces.DBTX, record *models.RoundRecord) error {
	logFields := []zap.Field{
		zap.String("sessionCode", record.SessionCode),
		zap.Int("roundNumber", record.RoundNumber),
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	submissionsJSON, err := json.Marshal(record.Submissions)
	if err != nil {
		r.logger.Error("Failed to marshal submissions", append(logFields, zap.Error(err))...)
		return fmt.Errorf("marshaling submissions: %w", err)
	}

	_, err = querier.Exec(ctx, appendRoundRecordQuery,
		record.SessionCode,
		record.RoundNumber,
		record.PromptID,
		record.JudgeID,
		record.WinnerID,
		record.WinningCards,
		submissionsJSON,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append round record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("appending round record for %s round %d: %w", record.SessionCode, record.RoundNumber, err)
	}

	r.logger.Debug("Round record appended", logFields...)
	return nil
}

func (r *pgRoundRecordRepository) ListBySession(ctx context.Context, querier interfaces.DBTX, code string) ([]*models.RoundRecord, error) {
	logFields := []zap.Field{zap.String("sessionCode", code)}

	rows, err := querier.Query(ctx, listRoundRecordsQuery, code)
	if err != nil {
		r.logger.Error("Failed to query round records", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("listing round records for %s: %w", code, err)
	}
	defer rows.Close()

	records := make([]*models.RoundRecord, 0)
	for rows.Next() {
		record := &models.RoundRecord{}
		var submissionsJSON []byte
		if err := rows.Scan(
			&record.SessionCode,
			&record.RoundNumber,
			&record.PromptID,
			&record.JudgeID,
			&record.WinnerID,
			&record.WinningCards,
			&submissionsJSON,
			&record.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan round record row", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("scanning round record row: %w", err)
		}
		if err := json.Unmarshal(submissionsJSON, &record.Submissions); err != nil {
			return nil, fmt.Errorf("unmarshaling submissions: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating round record rows", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("iterating round records: %w", err)
	}

	r.logger.Debug("Round records listed", append(logFields, zap.Int("count", len(records)))...)
	return records, nil
}

func (r *pgRoundRecordRepository) DeleteBySession(ctx context.Context, querier interfaces.DBTX, code string) error {
	logFields := []zap.Field{zap.String("sessionCode", code)}

	cmdTag, err := querier.Exec(ctx, deleteRoundRecordsQuery, code)
	if err != nil {
		r.logger.Error("Failed to delete round records", append(logFields, zap.Error(err))...)
		return fmt.Errorf("deleting round records for %s: %w", code, err)
	}

	r.logger.Debug("Round records deleted", append(logFields, zap.Int64("rows", cmdTag.RowsAffected()))...)
	return nil
}
