package connectors

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// OAuthHandler provides OAuth operations for a provider.
// Each handler encapsulates the provider's OAuth quirks (e.g., Google's access_type=offline).
type OAuthHandler interface {
	// Endpoint returns the provider's default authorization and token URLs.
	Endpoint() oauth2.Endpoint

	// DefaultScopes returns the scopes requested when the auth provider sets none.
	DefaultScopes() []string

	// AuthCodeOptions returns provider-specific authorization URL parameters.
	AuthCodeOptions() []oauth2.AuthCodeOption

	// AccountIdentifier fetches the account identifier (email/username) from the provider.
	AccountIdentifier(ctx context.Context, accessToken string) (string, error)

	// SetupHint returns guidance text for setting up an OAuth app with this provider.
	SetupHint() string
}

// OAuthHandlerFor returns the handler registered for a provider type.
func OAuthHandlerFor(provider domain.ProviderType) (OAuthHandler, error) {
	h, ok := oauthHandlers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no OAuth support for provider %q", domain.ErrUnsupportedType, provider)
	}
	return h, nil
}

// OAuthConfig builds the oauth2 configuration for an auth provider.
// Endpoints and scopes set on the provider override the handler defaults.
func OAuthConfig(h OAuthHandler, p *domain.AuthProvider, redirectURI string) (*oauth2.Config, error) {
	if p == nil || p.OAuth == nil {
		return nil, fmt.Errorf("%w: auth provider has no OAuth config", domain.ErrAuthInvalid)
	}
	endpoint := h.Endpoint()
	if p.OAuth.AuthURL != "" {
		endpoint.AuthURL = p.OAuth.AuthURL
	}
	if p.OAuth.TokenURL != "" {
		endpoint.TokenURL = p.OAuth.TokenURL
	}
	scopes := p.OAuth.Scopes
	if len(scopes) == 0 {
		scopes = h.DefaultScopes()
	}
	if redirectURI == "" {
		redirectURI = p.OAuth.RedirectURI
	}
	return &oauth2.Config{
		ClientID:     p.OAuth.ClientID,
		ClientSecret: p.OAuth.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
		RedirectURL:  redirectURI,
	}, nil
}

// TokenToCredentials converts an oauth2 token into stored OAuth credentials.
func TokenToCredentials(t *oauth2.Token) *domain.OAuthCredentials {
	return &domain.OAuthCredentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// CredentialsToToken converts stored OAuth credentials into an oauth2 token.
func CredentialsToToken(c *domain.OAuthCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}
