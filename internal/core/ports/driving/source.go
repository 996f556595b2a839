package driving

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// SourceService adds, edits and removes the sources the engine pulls from.
type SourceService interface {
	// Add validates the config against the connector type and returns the
	// source with its assigned ID.
	Add(ctx context.Context, source domain.Source) (*domain.Source, error)
	Get(ctx context.Context, id string) (*domain.Source, error)
	List(ctx context.Context) ([]domain.Source, error)
	Update(ctx context.Context, source domain.Source) error
	// Remove also drops the source's credentials, dedup index and sync state.
	Remove(ctx context.Context, id string) error
	ValidateConfig(ctx context.Context, connectorType string, config map[string]string) error
	ConnectorTypes() []domain.ConnectorType
}
