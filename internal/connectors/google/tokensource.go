package google

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// providerSource asks the TokenProvider on every call. The provider owns
// caching and refresh, so wrapping it in oauth2.ReuseTokenSource would only
// hide a rotated token.
type providerSource struct {
	ctx      context.Context
	provider driven.TokenProvider
}

// NewTokenSource bridges a TokenProvider into the oauth2 client stack.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return providerSource{ctx: ctx, provider: provider}
}

func (s providerSource) Token() (*oauth2.Token, error) {
	access, err := s.provider.GetToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
