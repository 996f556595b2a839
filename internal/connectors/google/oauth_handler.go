package google

import (
	"context"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// Scopes requested by the Google connectors.
const (
	ScopeUserInfoEmail = "https://www.googleapis.com/auth/userinfo.email"
	ScopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeDriveReadonly = "https://www.googleapis.com/auth/drive.readonly"
)

// OAuthHandler implements OAuth operations for Google.
type OAuthHandler struct{}

// NewOAuthHandler creates a new Google OAuth handler.
func NewOAuthHandler() *OAuthHandler {
	return &OAuthHandler{}
}

// Endpoint returns Google's OAuth endpoints.
func (h *OAuthHandler) Endpoint() oauth2.Endpoint {
	return googleoauth.Endpoint
}

// DefaultScopes covers both gmail and drive so one app serves both connectors.
func (h *OAuthHandler) DefaultScopes() []string {
	return []string{ScopeUserInfoEmail, ScopeGmailReadonly, ScopeDriveReadonly}
}

// AuthCodeOptions asks for a refresh token on every consent.
func (h *OAuthHandler) AuthCodeOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
}

// AccountIdentifier fetches the user's email address.
func (h *OAuthHandler) AccountIdentifier(ctx context.Context, accessToken string) (string, error) {
	return AccountEmail(ctx, accessToken)
}

// SetupHint returns guidance for setting up a Google OAuth app.
func (h *OAuthHandler) SetupHint() string {
	return "Create OAuth credentials at console.cloud.google.com/apis/credentials and enable the Gmail and Drive APIs"
}
