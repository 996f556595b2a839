package driven

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// SourceStore holds source definitions. Sources always live in the local
// database, whatever storage.driver selects for dedup state and results.
type SourceStore interface {
	// Save upserts by ID.
	Save(ctx context.Context, source domain.Source) error
	// Get fails with domain.ErrNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*domain.Source, error)
	Delete(ctx context.Context, id string) error
	// List orders sources by ID.
	List(ctx context.Context) ([]domain.Source, error)
}

// CredentialsStore holds the OAuth token or PAT a source pulls with. Each
// source has at most one set.
type CredentialsStore interface {
	Save(ctx context.Context, creds domain.Credentials) error
	Get(ctx context.Context, id string) (*domain.Credentials, error)
	// GetBySourceID returns nil and no error when the source has none.
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Credentials, error)
	Delete(ctx context.Context, id string) error
}

// AuthProviderStore holds OAuth app registrations shared by the sources of
// one provider, such as a single Google client used by Gmail and Drive.
type AuthProviderStore interface {
	Save(ctx context.Context, provider domain.AuthProvider) error
	Get(ctx context.Context, id string) (*domain.AuthProvider, error)
	List(ctx context.Context) ([]domain.AuthProvider, error)
	// ListByProvider lists every provider when providerType is empty.
	ListByProvider(ctx context.Context, providerType domain.ProviderType) ([]domain.AuthProvider, error)
	// Delete fails with domain.ErrAuthProviderInUse while a source refers to it.
	Delete(ctx context.Context, id string) error
}
