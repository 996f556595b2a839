// Package auth binds stored credentials to connectors as TokenProviders.
package auth

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var (
	_ driven.TokenProviderFactory = (*Factory)(nil)
	_ driven.TokenRefresher       = (*Factory)(nil)
	_ driven.TokenProvider        = anonymous{}
)

// Factory picks a TokenProvider from the kind of credentials a source has.
type Factory struct {
	creds     driven.CredentialsStore
	providers driven.AuthProviderStore
}

func NewFactory(creds driven.CredentialsStore, providers driven.AuthProviderStore) *Factory {
	return &Factory{creds: creds, providers: providers}
}

// ForSource returns a PAT or OAuth provider, or an anonymous one when the
// source has no credentials (the filesystem connector).
func (f *Factory) ForSource(ctx context.Context, source domain.Source) (driven.TokenProvider, error) {
	if source.CredentialsID == "" {
		return anonymous{}, nil
	}
	creds, err := f.creds.Get(ctx, source.CredentialsID)
	if err != nil {
		return nil, fmt.Errorf("get credentials %s: %w", source.CredentialsID, err)
	}

	switch {
	case creds.PAT != nil:
		return NewPATProvider(source.CredentialsID, f.creds), nil
	case creds.OAuth == nil:
		return anonymous{}, nil
	case source.AuthProviderID == "":
		return nil, fmt.Errorf("%w: OAuth credentials require an auth provider", domain.ErrAuthInvalid)
	}
	return NewOAuthProvider(source.CredentialsID, f.creds, source.AuthProviderID, f.providers), nil
}

// Refresh forces an OAuth token refresh for the source. Other sources are
// left alone.
func (f *Factory) Refresh(ctx context.Context, source domain.Source) error {
	tp, err := f.ForSource(ctx, source)
	if err != nil {
		return err
	}
	if p, ok := tp.(*OAuthProvider); ok {
		return p.Refresh(ctx)
	}
	return nil
}

// anonymous serves connectors that need no credentials.
type anonymous struct{}

func (anonymous) GetToken(context.Context) (string, error) { return "", nil }
func (anonymous) CredentialsID() string                    { return "" }
func (anonymous) AuthMethod() domain.AuthMethod            { return domain.AuthMethodNone }
func (anonymous) IsAuthenticated() bool                    { return true }
