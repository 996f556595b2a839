package auth

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.TokenProvider = (*PATProvider)(nil)

// PATProvider reads a personal access token from the credentials store on
// every call, so a token replaced with `intake auth` is picked up at once.
// PATs never need a refresh.
type PATProvider struct {
	id    string
	store driven.CredentialsStore
}

func NewPATProvider(credentialsID string, store driven.CredentialsStore) *PATProvider {
	return &PATProvider{id: credentialsID, store: store}
}

func (p *PATProvider) token(ctx context.Context) (string, error) {
	creds, err := p.store.Get(ctx, p.id)
	if err != nil {
		return "", fmt.Errorf("get credentials: %w", err)
	}
	if creds.PAT == nil || creds.PAT.Token == "" {
		return "", fmt.Errorf("%w: credentials have no token", domain.ErrAuthRequired)
	}
	return creds.PAT.Token, nil
}

func (p *PATProvider) GetToken(ctx context.Context) (string, error) { return p.token(ctx) }
func (p *PATProvider) CredentialsID() string                        { return p.id }
func (p *PATProvider) AuthMethod() domain.AuthMethod                { return domain.AuthMethodPAT }

func (p *PATProvider) IsAuthenticated() bool {
	_, err := p.token(context.Background())
	return err == nil
}
