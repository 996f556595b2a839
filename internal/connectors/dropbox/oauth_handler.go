package dropbox

import (
	"context"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/oauth2"
)

// Endpoint is Dropbox's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.dropbox.com/oauth2/authorize",
	TokenURL: "https://api.dropboxapi.com/oauth2/token",
}

// OAuthHandler implements OAuth operations for Dropbox.
type OAuthHandler struct{}

// NewOAuthHandler creates a new Dropbox OAuth handler.
func NewOAuthHandler() *OAuthHandler {
	return &OAuthHandler{}
}

// Endpoint returns Dropbox's OAuth endpoints.
func (h *OAuthHandler) Endpoint() oauth2.Endpoint {
	return Endpoint
}

// DefaultScopes returns the scopes needed to list and download files.
func (h *OAuthHandler) DefaultScopes() []string {
	return []string{"account_info.read", "files.metadata.read", "files.content.read"}
}

// AuthCodeOptions requests a long-lived refresh token.
func (h *OAuthHandler) AuthCodeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("token_access_type", "offline")}
}

// AccountIdentifier fetches the account's email address.
func (h *OAuthHandler) AccountIdentifier(_ context.Context, accessToken string) (string, error) {
	account, err := users.New(dropbox.Config{Token: accessToken, LogLevel: dropbox.LogOff}).GetCurrentAccount()
	if err != nil {
		return "", WrapError(err, "get current account")
	}
	return account.Email, nil
}

// SetupHint returns guidance for setting up a Dropbox app.
func (h *OAuthHandler) SetupHint() string {
	return "Create an app at dropbox.com/developers/apps with files.content.read scope"
}
