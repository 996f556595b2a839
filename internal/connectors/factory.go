package connectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

type registration struct {
	typ     domain.ConnectorType
	builder driven.ConnectorBuilder
}

// Factory creates connectors from sources, binding credentials through
// a TokenProviderFactory.
type Factory struct {
	tokens driven.TokenProviderFactory

	mu    sync.RWMutex
	types map[string]registration
}

// NewFactory creates an empty factory. Call RegisterBuiltin to add the
// shipped connectors.
func NewFactory(tokens driven.TokenProviderFactory) *Factory {
	return &Factory{
		tokens: tokens,
		types:  make(map[string]registration),
	}
}

// Register adds or replaces a connector builder.
func (f *Factory) Register(connectorType domain.ConnectorType, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[connectorType.ID] = registration{typ: connectorType, builder: builder}
}

// Types returns the registered connector types sorted by ID.
func (f *Factory) Types() []domain.ConnectorType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.ConnectorType, 0, len(f.types))
	for _, r := range f.types {
		out = append(out, r.typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Type returns one connector type.
func (f *Factory) Type(id string) (domain.ConnectorType, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.types[id]
	return r.typ, ok
}

// Create builds the connector for a source.
func (f *Factory) Create(ctx context.Context, source domain.Source) (driven.Connector, error) {
	f.mu.RLock()
	r, ok := f.types[source.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, source.Type)
	}

	if missing := r.typ.MissingConfig(source.Config); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing config %s",
			domain.ErrConnectorValidation, source.Type, strings.Join(missing, ", "))
	}

	var tp driven.TokenProvider
	if f.tokens != nil {
		var err error
		if tp, err = f.tokens.ForSource(ctx, source); err != nil {
			return nil, fmt.Errorf("bind credentials for %s: %w", source.ID, err)
		}
	}
	if r.typ.RequiresAuth() && (tp == nil || tp.AuthMethod() == domain.AuthMethodNone || !tp.IsAuthenticated()) {
		return nil, fmt.Errorf("%w: source %s has no credentials", domain.ErrAuthRequired, source.ID)
	}
	if tp != nil && tp.AuthMethod() != domain.AuthMethodNone && !r.typ.AuthCapability.Allows(tp.AuthMethod()) {
		return nil, fmt.Errorf("%w: %s does not accept %s credentials",
			domain.ErrAuthInvalid, source.Type, tp.AuthMethod())
	}

	conn, err := r.builder(source, tp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}
	return conn, nil
}
