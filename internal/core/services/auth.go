package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

var (
	_ driving.AuthProviderService = (*AuthProviderService)(nil)
	_ driving.CredentialsService  = (*CredentialsService)(nil)
)

// stamp assigns a UUID to new records and maintains the timestamps.
func stamp(id *string, created, updated *time.Time) {
	now := time.Now()
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// AuthProviderService manages the OAuth apps and PAT provider entries that
// sources point at. A nil store makes every call ErrNotImplemented.
type AuthProviderService struct {
	store   driven.AuthProviderStore
	sources driven.SourceStore
}

func NewAuthProviderService(store driven.AuthProviderStore, sources driven.SourceStore) *AuthProviderService {
	return &AuthProviderService{store: store, sources: sources}
}

func validateProvider(p *domain.AuthProvider) error {
	if p.ProviderType == "" {
		return fmt.Errorf("%w: provider type is required", domain.ErrInvalidInput)
	}
	switch p.AuthMethod {
	case domain.AuthMethodOAuth:
		if p.OAuth == nil || p.OAuth.ClientID == "" {
			return fmt.Errorf("%w: OAuth providers need a client ID", domain.ErrInvalidInput)
		}
	case domain.AuthMethodPAT, domain.AuthMethodNone:
		p.OAuth = nil
	default:
		return fmt.Errorf("%w: auth method %q", domain.ErrInvalidInput, p.AuthMethod)
	}
	return nil
}

func (s *AuthProviderService) Save(ctx context.Context, p domain.AuthProvider) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if err := validateProvider(&p); err != nil {
		return err
	}
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return s.store.Save(ctx, p)
}

func (s *AuthProviderService) Get(ctx context.Context, id string) (*domain.AuthProvider, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.Get(ctx, id)
}

func (s *AuthProviderService) List(ctx context.Context) ([]domain.AuthProvider, error) {
	return s.ListByProvider(ctx, "")
}

func (s *AuthProviderService) ListByProvider(ctx context.Context, t domain.ProviderType) ([]domain.AuthProvider, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.ListByProvider(ctx, t)
}

// Delete refuses with ErrAuthProviderInUse, naming the first source that
// still uses the provider.
func (s *AuthProviderService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if s.sources != nil {
		sources, err := s.sources.List(ctx)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if src.AuthProviderID == id {
				return fmt.Errorf("%w: used by source %s", domain.ErrAuthProviderInUse, src.ID)
			}
		}
	}
	return s.store.Delete(ctx, id)
}

// CredentialsService manages the token a source authenticates with.
type CredentialsService struct {
	store driven.CredentialsStore
}

func NewCredentialsService(store driven.CredentialsStore) *CredentialsService {
	return &CredentialsService{store: store}
}

// Save requires exactly one of an OAuth token or a PAT.
func (s *CredentialsService) Save(ctx context.Context, c domain.Credentials) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	if (c.OAuth == nil) == (c.PAT == nil) {
		return fmt.Errorf("%w: credentials need exactly one of an OAuth token or a PAT", domain.ErrInvalidInput)
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return s.store.Save(ctx, c)
}

func (s *CredentialsService) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.Get(ctx, id)
}

func (s *CredentialsService) GetBySourceID(ctx context.Context, sourceID string) (*domain.Credentials, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.GetBySourceID(ctx, sourceID)
}

func (s *CredentialsService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.store.Delete(ctx, id)
}
