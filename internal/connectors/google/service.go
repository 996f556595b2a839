package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// NewGmailService creates a Gmail API service using the provided TokenSource.
// Extra options (endpoint overrides in tests) are appended.
func NewGmailService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*gmail.Service, error) {
	return gmail.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewDriveService creates a Google Drive API service using the provided TokenSource.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// AccountEmail fetches the email address of the token's owner.
func AccountEmail(ctx context.Context, accessToken string, opts ...option.ClientOption) (string, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := oauth2api.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
	if err != nil {
		return "", fmt.Errorf("create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", WrapError(err, "get user info")
	}
	return info.Email, nil
}
