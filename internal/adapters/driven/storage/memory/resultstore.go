package memory

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.ResultStore = (*ResultStore)(nil)

type storedResult struct {
	sourceID string
	result   domain.ProcessingResult
}

// ResultStore keeps one processing record per file in memory.
type ResultStore struct {
	rows *table[storedResult]
}

func NewResultStore() *ResultStore {
	return &ResultStore{rows: newTable[storedResult]()}
}

// Save replaces any earlier record for result.FileID.
func (s *ResultStore) Save(_ context.Context, sourceID string, result *domain.ProcessingResult) error {
	if result == nil || result.FileID == "" {
		return domain.ErrInvalidInput
	}
	s.rows.put(result.FileID, storedResult{sourceID: sourceID, result: *result})
	return nil
}

func (s *ResultStore) Get(_ context.Context, fileID string) (*domain.ProcessingResult, error) {
	r, ok := s.rows.get(fileID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r.result, nil
}

// List returns a source's records newest first; an empty sourceID lists all.
func (s *ResultStore) List(_ context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	rows := sortedBy(s.rows,
		func(r storedResult) bool { return sourceID == "" || r.sourceID == sourceID },
		func(r storedResult) int64 { return -r.result.CompletedAt.UnixNano() })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]domain.ProcessingResult, len(rows))
	for i := range rows {
		out[i] = rows[i].result
	}
	return out, nil
}
