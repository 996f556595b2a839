package github

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	ghoauth "golang.org/x/oauth2/github"
)

// scopes covers private repository issues and the login lookup.
var scopes = []string{"repo", "read:user"}

// OAuthHandler carries GitHub's OAuth details. GitHub issues long-lived
// tokens without refresh, so no extra auth code options are sent.
type OAuthHandler struct{}

func NewOAuthHandler() *OAuthHandler { return &OAuthHandler{} }

func (*OAuthHandler) Endpoint() oauth2.Endpoint { return ghoauth.Endpoint }

func (*OAuthHandler) DefaultScopes() []string { return append([]string(nil), scopes...) }

func (*OAuthHandler) AuthCodeOptions() []oauth2.AuthCodeOption { return nil }

// AccountIdentifier resolves the token to the user's login.
func (*OAuthHandler) AccountIdentifier(ctx context.Context, accessToken string) (string, error) {
	login, err := NewClientWithToken(ctx, accessToken).ValidateCredentials(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving github login: %w", err)
	}
	return login, nil
}

func (*OAuthHandler) SetupHint() string {
	return `Register an OAuth app at https://github.com/settings/developers
with callback URL http://localhost:18080/callback.`
}
