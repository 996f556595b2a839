package domain

import "time"

// ProviderType identifies an upstream identity provider.
type ProviderType string

const (
	ProviderLocal   ProviderType = "local"
	ProviderGoogle  ProviderType = "google"
	ProviderGitHub  ProviderType = "github"
	ProviderDropbox ProviderType = "dropbox"
)

// AuthProvider represents a reusable authentication provider configuration.
// For OAuth it stores client credentials shared across sources.
// For PAT it only records the provider; each source holds its own token.
type AuthProvider struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ProviderType ProviderType `json:"provider_type"`
	AuthMethod   AuthMethod   `json:"auth_method"`

	// OAuth is nil for PAT or no-auth providers.
	OAuth *OAuthProviderConfig `json:"oauth,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthProviderConfig stores OAuth application credentials.
type OAuthProviderConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	// AuthURL and TokenURL override the provider defaults.
	AuthURL     string `json:"auth_url,omitempty"`
	TokenURL    string `json:"token_url,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// IsOAuth returns true if this provider uses OAuth authentication.
func (p *AuthProvider) IsOAuth() bool {
	return p.AuthMethod == AuthMethodOAuth && p.OAuth != nil
}

// IsPAT returns true if this provider uses PAT authentication.
func (p *AuthProvider) IsPAT() bool {
	return p.AuthMethod == AuthMethodPAT
}
