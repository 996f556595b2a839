package driving

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ResultService browses processing records handed off by the engine.
type ResultService interface {
	// List returns records for a source, newest first. An empty sourceID
	// lists every source.
	List(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error)

	// Get returns the record for a file.
	Get(ctx context.Context, fileID string) (*domain.ProcessingResult, error)

	// ReviewQueue returns completed records flagged for human review.
	ReviewQueue(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error)

	// Open opens the processed file in the default application.
	Open(ctx context.Context, fileID string) error
}
