package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// ProviderRegistry derives provider information from the registered
// connector types.
type ProviderRegistry struct {
	connectors driven.ConnectorFactory
}

// NewProviderRegistry creates a registry over a connector factory.
func NewProviderRegistry(connectors driven.ConnectorFactory) *ProviderRegistry {
	return &ProviderRegistry{connectors: connectors}
}

// Providers returns the provider types with at least one connector, sorted.
func (r *ProviderRegistry) Providers() []domain.ProviderType {
	seen := map[domain.ProviderType]bool{}
	var out []domain.ProviderType
	for _, t := range r.connectors.Types() {
		if !seen[t.ProviderType] {
			seen[t.ProviderType] = true
			out = append(out, t.ProviderType)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConnectorsFor returns the connector types served by a provider.
func (r *ProviderRegistry) ConnectorsFor(provider domain.ProviderType) []string {
	var out []string
	for _, t := range r.connectors.Types() {
		if t.ProviderType == provider {
			out = append(out, t.ID)
		}
	}
	return out
}

// ProviderFor returns the provider of a connector type.
func (r *ProviderRegistry) ProviderFor(connectorType string) (domain.ProviderType, error) {
	t, ok := r.connectors.Type(connectorType)
	if !ok {
		return "", fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, connectorType)
	}
	return t.ProviderType, nil
}

// AuthCapability returns the union of auth methods the provider's connectors accept.
func (r *ProviderRegistry) AuthCapability(provider domain.ProviderType) domain.AuthCapability {
	c := domain.AuthCapNone
	for _, t := range r.connectors.Types() {
		if t.ProviderType == provider {
			c |= t.AuthCapability
		}
	}
	return c
}

// DefaultAuthMethod returns the recommended auth method. PAT is simpler,
// so it wins when available.
func (r *ProviderRegistry) DefaultAuthMethod(provider domain.ProviderType) domain.AuthMethod {
	c := r.AuthCapability(provider)
	switch {
	case c.SupportsPAT():
		return domain.AuthMethodPAT
	case c.SupportsOAuth():
		return domain.AuthMethodOAuth
	}
	return domain.AuthMethodNone
}
