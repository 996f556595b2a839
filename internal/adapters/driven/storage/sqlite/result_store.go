package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// resultStore implements driven.ResultStore. The full record is kept as
// JSON; the indexed columns only serve lookups and ordering.
type resultStore struct {
	store *Store
}

var _ driven.ResultStore = (*resultStore)(nil)

// Save stores or replaces the record for result.FileID.
func (s *resultStore) Save(ctx context.Context, sourceID string, result *domain.ProcessingResult) error {
	if result == nil || result.FileID == "" {
		return domain.ErrInvalidInput
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling processing result: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO processing_results (file_id, source_id, stage, success, completed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			source_id = excluded.source_id,
			stage = excluded.stage,
			success = excluded.success,
			completed_at = excluded.completed_at,
			payload = excluded.payload
	`, result.FileID, sourceID, string(result.Stage), boolToInt(result.Success),
		toNanos(result.CompletedAt), string(payload))
	if err != nil {
		return fmt.Errorf("saving processing result: %w", err)
	}
	return nil
}

// Get returns the record for a file.
func (s *resultStore) Get(ctx context.Context, fileID string) (*domain.ProcessingResult, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT payload FROM processing_results WHERE file_id = ?", fileID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying processing result: %w", err)
	}
	return decodeResult(payload)
}

// List returns records for a source, newest first.
func (s *resultStore) List(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT payload FROM processing_results WHERE source_id = ?
		ORDER BY completed_at DESC, file_id LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying processing results: %w", err)
	}
	defer rows.Close()

	var results []domain.ProcessingResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning processing result: %w", err)
		}
		r, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processing results: %w", err)
	}
	return results, nil
}

func decodeResult(payload string) (*domain.ProcessingResult, error) {
	var r domain.ProcessingResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("unmarshalling processing result: %w", err)
	}
	return &r, nil
}
