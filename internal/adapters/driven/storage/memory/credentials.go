package memory

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var (
	_ driven.CredentialsStore  = (*CredentialsStore)(nil)
	_ driven.AuthProviderStore = (*AuthProviderStore)(nil)
)

// CredentialsStore keeps source credentials in memory.
type CredentialsStore struct {
	rows *table[domain.Credentials]
}

func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{rows: newTable[domain.Credentials]()}
}

func (s *CredentialsStore) Save(_ context.Context, creds domain.Credentials) error {
	if creds.ID == "" {
		return domain.ErrInvalidInput
	}
	s.rows.put(creds.ID, creds)
	return nil
}

func (s *CredentialsStore) Get(_ context.Context, id string) (*domain.Credentials, error) {
	c, ok := s.rows.get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetBySourceID returns nil and no error when the source has no credentials.
func (s *CredentialsStore) GetBySourceID(_ context.Context, sourceID string) (*domain.Credentials, error) {
	c, ok := s.rows.find(func(c domain.Credentials) bool { return c.SourceID == sourceID })
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *CredentialsStore) Delete(_ context.Context, id string) error {
	s.rows.del(id)
	return nil
}

// AuthProviderStore keeps OAuth app registrations in memory. Deleting a
// provider a source still points at fails with domain.ErrAuthProviderInUse.
type AuthProviderStore struct {
	rows    *table[domain.AuthProvider]
	sources driven.SourceStore
}

func NewAuthProviderStore(sources driven.SourceStore) *AuthProviderStore {
	return &AuthProviderStore{rows: newTable[domain.AuthProvider](), sources: sources}
}

func (s *AuthProviderStore) Save(_ context.Context, p domain.AuthProvider) error {
	if p.ID == "" {
		return domain.ErrInvalidInput
	}
	s.rows.put(p.ID, p)
	return nil
}

func (s *AuthProviderStore) Get(_ context.Context, id string) (*domain.AuthProvider, error) {
	p, ok := s.rows.get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *AuthProviderStore) List(ctx context.Context) ([]domain.AuthProvider, error) {
	return s.ListByProvider(ctx, "")
}

// ListByProvider orders by name; an empty type lists every provider.
func (s *AuthProviderStore) ListByProvider(_ context.Context, kind domain.ProviderType) ([]domain.AuthProvider, error) {
	keep := func(p domain.AuthProvider) bool { return kind == "" || p.ProviderType == kind }
	return sortedBy(s.rows, keep, func(p domain.AuthProvider) string { return p.Name }), nil
}

func (s *AuthProviderStore) Delete(ctx context.Context, id string) error {
	if s.sources != nil {
		sources, err := s.sources.List(ctx)
		if err != nil {
			return err
		}
		for i := range sources {
			if sources[i].AuthProviderID == id {
				return domain.ErrAuthProviderInUse
			}
		}
	}
	s.rows.del(id)
	return nil
}
