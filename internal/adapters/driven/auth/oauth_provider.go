package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-intake/internal/connectors"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// Ensure OAuthProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*OAuthProvider)(nil)

// RefreshBuffer is how long before expiry an access token is refreshed.
const RefreshBuffer = 5 * time.Minute

// OAuthProvider serves OAuth access tokens, refreshing them through the
// auth provider's token endpoint and persisting the result.
type OAuthProvider struct {
	credentialsID     string
	credentialsStore  driven.CredentialsStore
	authProviderID    string
	authProviderStore driven.AuthProviderStore

	mu          sync.RWMutex
	cachedToken string
	cacheExpiry time.Time
	now         func() time.Time
}

// NewOAuthProvider creates a token provider for OAuth credentials.
func NewOAuthProvider(
	credentialsID string,
	credentialsStore driven.CredentialsStore,
	authProviderID string,
	authProviderStore driven.AuthProviderStore,
) *OAuthProvider {
	return &OAuthProvider{
		credentialsID:     credentialsID,
		credentialsStore:  credentialsStore,
		authProviderID:    authProviderID,
		authProviderStore: authProviderStore,
		now:               time.Now,
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (p *OAuthProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		token := p.cachedToken
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		return p.cachedToken, nil
	}

	creds, err := p.credentialsStore.Get(ctx, p.credentialsID)
	if err != nil {
		return "", fmt.Errorf("get credentials: %w", err)
	}
	if creds.OAuth == nil {
		return "", fmt.Errorf("%w: credentials have no OAuth tokens", domain.ErrAuthInvalid)
	}

	if creds.RefreshDue(p.now(), RefreshBuffer) {
		if err := p.refreshLocked(ctx, creds); err != nil {
			return "", err
		}
	} else if creds.OAuth.ExpiredAt(p.now()) {
		return "", fmt.Errorf("%w: access token expired and no refresh token", domain.ErrAuthExpired)
	}

	p.cache(creds.OAuth)
	return p.cachedToken, nil
}

// Refresh forces a refresh regardless of the cached token.
func (p *OAuthProvider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.credentialsStore.Get(ctx, p.credentialsID)
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if !creds.Refreshable() {
		return fmt.Errorf("%w: no refresh token", domain.ErrTokenRefreshFailed)
	}
	if err := p.refreshLocked(ctx, creds); err != nil {
		return err
	}
	p.cache(creds.OAuth)
	return nil
}

// refreshLocked exchanges the refresh token and saves the new tokens
// into creds. Caller holds p.mu.
func (p *OAuthProvider) refreshLocked(ctx context.Context, creds *domain.Credentials) error {
	provider, err := p.authProviderStore.Get(ctx, p.authProviderID)
	if err != nil {
		return fmt.Errorf("get auth provider: %w", err)
	}
	handler, err := connectors.OAuthHandlerFor(provider.ProviderType)
	if err != nil {
		return err
	}
	cfg, err := connectors.OAuthConfig(handler, provider, "")
	if err != nil {
		return err
	}

	// An empty access token makes the token source refresh unconditionally.
	stale := connectors.CredentialsToToken(creds.OAuth)
	stale.AccessToken = ""
	token, err := cfg.TokenSource(ctx, stale).Token()
	if err != nil {
		return refreshError(err)
	}

	refreshed := connectors.TokenToCredentials(token)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = creds.OAuth.RefreshToken
	}
	creds.OAuth = refreshed
	creds.UpdatedAt = p.now()
	if err := p.credentialsStore.Save(ctx, *creds); err != nil {
		return fmt.Errorf("save refreshed credentials: %w", err)
	}
	return nil
}

// refreshError maps a revoked grant to ErrAuthExpired so callers stop
// retrying; everything else is a refresh failure.
func refreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return fmt.Errorf("%w: refresh token revoked: %w", domain.ErrAuthExpired, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err)
}

func (p *OAuthProvider) cache(creds *domain.OAuthCredentials) {
	p.cachedToken = creds.AccessToken
	if creds.Expiry.IsZero() {
		p.cacheExpiry = p.now().Add(time.Hour)
		return
	}
	p.cacheExpiry = creds.Expiry.Add(-RefreshBuffer)
}

// CredentialsID returns the credentials ID.
func (p *OAuthProvider) CredentialsID() string {
	return p.credentialsID
}

// AuthMethod returns AuthMethodOAuth.
func (p *OAuthProvider) AuthMethod() domain.AuthMethod {
	return domain.AuthMethodOAuth
}

// IsAuthenticated returns true if the credentials hold a token or can get one.
func (p *OAuthProvider) IsAuthenticated() bool {
	p.mu.RLock()
	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		p.mu.RUnlock()
		return true
	}
	p.mu.RUnlock()

	creds, err := p.credentialsStore.Get(context.Background(), p.credentialsID)
	if err != nil {
		return false
	}
	return creds.OAuth != nil && creds.Usable()
}

// InvalidateCache clears the cached token.
func (p *OAuthProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cachedToken = ""
	p.cacheExpiry = time.Time{}
}
