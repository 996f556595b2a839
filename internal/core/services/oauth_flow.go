package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-intake/internal/connectors"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure OAuthFlow implements the interface.
var _ driving.OAuthFlowService = (*OAuthFlow)(nil)

// OAuthFlow runs the authorization code flow for a source.
type OAuthFlow struct {
	providers   driven.AuthProviderStore
	credentials driven.CredentialsStore
	sources     driven.SourceStore
	handlerFor  func(domain.ProviderType) (connectors.OAuthHandler, error)
}

// NewOAuthFlow creates an OAuth flow service.
func NewOAuthFlow(
	providers driven.AuthProviderStore,
	credentials driven.CredentialsStore,
	sources driven.SourceStore,
) *OAuthFlow {
	return &OAuthFlow{
		providers:   providers,
		credentials: credentials,
		sources:     sources,
		handlerFor:  connectors.OAuthHandlerFor,
	}
}

func (f *OAuthFlow) config(ctx context.Context, authProviderID, redirectURI string) (*oauth2.Config, connectors.OAuthHandler, error) {
	provider, err := f.providers.Get(ctx, authProviderID)
	if err != nil {
		return nil, nil, fmt.Errorf("get auth provider: %w", err)
	}
	if !provider.IsOAuth() {
		return nil, nil, fmt.Errorf("%w: auth provider %s is not OAuth", domain.ErrAuthInvalid, authProviderID)
	}
	handler, err := f.handlerFor(provider.ProviderType)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := connectors.OAuthConfig(handler, provider, redirectURI)
	if err != nil {
		return nil, nil, err
	}
	return cfg, handler, nil
}

// Begin builds the authorization URL with a fresh state and PKCE verifier.
func (f *OAuthFlow) Begin(ctx context.Context, authProviderID, redirectURI string) (*driving.OAuthFlowState, error) {
	cfg, handler, err := f.config(ctx, authProviderID, redirectURI)
	if err != nil {
		return nil, err
	}
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, handler.AuthCodeOptions()...)
	return &driving.OAuthFlowState{
		AuthProviderID: authProviderID,
		AuthURL:        cfg.AuthCodeURL(state, opts...),
		CodeVerifier:   verifier,
		State:          state,
		RedirectURI:    cfg.RedirectURL,
	}, nil
}

// Complete exchanges the code, stores the tokens as the source's
// credentials and links the source to the auth provider.
func (f *OAuthFlow) Complete(
	ctx context.Context, flow *driving.OAuthFlowState, sourceID, code string,
) (*domain.Credentials, error) {
	if flow == nil || code == "" {
		return nil, fmt.Errorf("%w: missing flow state or code", domain.ErrInvalidInput)
	}
	source, err := f.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	cfg, handler, err := f.config(ctx, flow.AuthProviderID, flow.RedirectURI)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", domain.ErrAuthInvalid, err)
	}

	account, err := handler.AccountIdentifier(ctx, token.AccessToken)
	if err != nil {
		logger.Warn("Could not read account identifier: %v", err)
	}

	now := time.Now()
	creds := domain.Credentials{
		ID:                source.CredentialsID,
		SourceID:          source.ID,
		AccountIdentifier: account,
		OAuth:             connectors.TokenToCredentials(token),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if creds.ID == "" {
		creds.ID = uuid.NewString()
	}
	if err := f.credentials.Save(ctx, creds); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}

	source.CredentialsID = creds.ID
	source.AuthProviderID = flow.AuthProviderID
	source.UpdatedAt = now
	if err := f.sources.Save(ctx, *source); err != nil {
		return nil, fmt.Errorf("link credentials: %w", err)
	}
	logger.Info("Connected source %s as %s", source.ID, account)
	return &creds, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
