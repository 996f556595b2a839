package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ObjectStore stages fetched bytes so the pipeline can work on files.
type ObjectStore interface {
	// Put stores the content under key and returns a local path the
	// pipeline can read.
	Put(ctx context.Context, key string, r io.Reader) (string, error)

	// Open returns a reader for a stored key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored key and any local copy.
	Delete(ctx context.Context, key string) error
}

// ResultStore receives processing records handed off by the engine.
type ResultStore interface {
	// Save stores the record of one pipeline run.
	Save(ctx context.Context, sourceID string, result *domain.ProcessingResult) error

	// Get returns the latest record for a file.
	Get(ctx context.Context, fileID string) (*domain.ProcessingResult, error)

	// List returns records for a source, newest first, at most limit.
	List(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error)
}
