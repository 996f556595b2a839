package driven

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ConnectorBuilder creates a Connector from a Source.
// Connectors without authentication get a provider whose token is empty.
type ConnectorBuilder func(source domain.Source, tokenProvider TokenProvider) (Connector, error)

// ConnectorFactory creates connectors from source configuration.
type ConnectorFactory interface {
	// Create returns a Connector for the given source with its credentials bound.
	// Returns ErrUnsupportedType if the source type is unknown.
	Create(ctx context.Context, source domain.Source) (Connector, error)

	// Register adds a connector builder for the given type.
	Register(connectorType domain.ConnectorType, builder ConnectorBuilder)

	// Types returns the descriptions of all registered connector types.
	Types() []domain.ConnectorType

	// Type returns the description of one connector type.
	Type(id string) (domain.ConnectorType, bool)
}
