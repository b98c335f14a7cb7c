package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"psych-assessment-service/internal/domain"
)

// RecordStore keeps assessment records in Postgres. Scores and responses are
// stored as JSONB next to the indexed lookup columns.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) SaveRecord(ctx context.Context, record domain.AssessmentRecord) error {
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	responses, err := json.Marshal(record.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessment_records (id, user_id, instrument, scores, responses, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.UserID, string(record.Instrument), scores, responses, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *RecordStore) ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	query := `SELECT id, user_id, instrument, scores, responses, created_at
		FROM assessment_records WHERE user_id = $1`
	args := []interface{}{userID}
	if kind != "" {
		query += ` AND instrument = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AssessmentRecord, 0)
	for rows.Next() {
		var (
			rec        domain.AssessmentRecord
			instrument string
			scores     []byte
			responses  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &instrument, &scores, &responses, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Instrument = domain.InstrumentKind(instrument)
		if rec.Scores, err = domain.DecodeScores(rec.Instrument, scores); err != nil {
			return nil, fmt.Errorf("decode scores of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal(responses, &rec.Responses); err != nil {
			return nil, fmt.Errorf("decode responses of %s: %w", rec.ID, err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *RecordStore) DeleteUserData(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assessment_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
