package driving

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// OAuthFlowState is what `intake auth` keeps between opening the browser
// and receiving the callback.
type OAuthFlowState struct {
	AuthProviderID string
	AuthURL        string
	// CodeVerifier is the PKCE secret sent with the code exchange.
	CodeVerifier string
	// State must match the callback's state parameter.
	State       string
	RedirectURI string
}

// AuthProviderService validates and stores OAuth app registrations.
type AuthProviderService interface {
	// Save assigns a UUID when the ID is empty.
	Save(ctx context.Context, provider domain.AuthProvider) error
	Get(ctx context.Context, id string) (*domain.AuthProvider, error)
	List(ctx context.Context) ([]domain.AuthProvider, error)
	ListByProvider(ctx context.Context, providerType domain.ProviderType) ([]domain.AuthProvider, error)
	// Delete fails with domain.ErrAuthProviderInUse while a source refers to it.
	Delete(ctx context.Context, id string) error
}

// CredentialsService validates and stores the secret a source pulls with.
type CredentialsService interface {
	// Save requires exactly one of an OAuth token or a PAT.
	Save(ctx context.Context, creds domain.Credentials) error
	Get(ctx context.Context, id string) (*domain.Credentials, error)
	// GetBySourceID returns nil and no error when the source has none.
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Credentials, error)
	Delete(ctx context.Context, id string) error
}

// OAuthFlowService runs the authorization code flow with PKCE.
type OAuthFlowService interface {
	// Begin builds the authorization URL for an auth provider.
	Begin(ctx context.Context, authProviderID, redirectURI string) (*OAuthFlowState, error)

	// Complete exchanges the code, stores credentials for the source and
	// links the source to them.
	Complete(ctx context.Context, flow *OAuthFlowState, sourceID, code string) (*domain.Credentials, error)
}

// ProviderRegistry answers which connectors and auth methods belong to a provider.
type ProviderRegistry interface {
	// Providers returns the provider types with at least one connector.
	Providers() []domain.ProviderType

	// ConnectorsFor returns the connector types served by a provider.
	ConnectorsFor(provider domain.ProviderType) []string

	// ProviderFor returns the provider of a connector type.
	ProviderFor(connectorType string) (domain.ProviderType, error)

	// AuthCapability returns the union of auth methods the provider's connectors accept.
	AuthCapability(provider domain.ProviderType) domain.AuthCapability

	// DefaultAuthMethod returns the recommended method, preferring PAT.
	DefaultAuthMethod(provider domain.ProviderType) domain.AuthMethod
}
