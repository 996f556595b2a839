package driven

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// TokenProvider provides access tokens for authenticated API calls.
// Implementations refresh expired OAuth tokens transparently and persist
// the refreshed token.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// Returns empty string for no-auth connectors.
	GetToken(ctx context.Context) (string, error)

	// CredentialsID returns the credentials being used.
	// Returns empty string for no-auth connectors.
	CredentialsID() string

	// AuthMethod returns the authentication method (oauth, pat, none).
	AuthMethod() domain.AuthMethod

	// IsAuthenticated returns true if valid authentication is available.
	IsAuthenticated() bool
}

// TokenProviderFactory binds a source's credentials to a TokenProvider.
type TokenProviderFactory interface {
	// ForSource returns the TokenProvider for a source. Sources without
	// credentials get a provider that reports AuthMethodNone.
	ForSource(ctx context.Context, source domain.Source) (TokenProvider, error)
}

// TokenRefresher refreshes stored OAuth credentials ahead of expiry.
type TokenRefresher interface {
	// Refresh exchanges the refresh token for a new access token and
	// persists it. Returns ErrAuthExpired when the grant was revoked.
	Refresh(ctx context.Context, source domain.Source) error
}
