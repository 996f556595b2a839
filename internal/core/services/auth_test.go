package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestAuthProviderService(t *testing.T) {
	ctx := context.Background()
	sources := memory.NewSourceStore()
	store := memory.NewAuthProviderStore(sources)
	svc := NewAuthProviderService(store, sources)

	t.Run("validates", func(t *testing.T) {
		assert.ErrorIs(t, svc.Save(ctx, domain.AuthProvider{AuthMethod: domain.AuthMethodPAT}), domain.ErrInvalidInput)
		assert.ErrorIs(t, svc.Save(ctx, domain.AuthProvider{
			ProviderType: domain.ProviderGoogle, AuthMethod: domain.AuthMethodOAuth,
		}), domain.ErrInvalidInput)
		assert.ErrorIs(t, svc.Save(ctx, domain.AuthProvider{ProviderType: domain.ProviderGoogle, AuthMethod: "magic"}),
			domain.ErrInvalidInput)
	})

	t.Run("assigns ID and refuses delete in use", func(t *testing.T) {
		require.NoError(t, svc.Save(ctx, domain.AuthProvider{
			Name: "Google", ProviderType: domain.ProviderGoogle, AuthMethod: domain.AuthMethodOAuth,
			OAuth: &domain.OAuthProviderConfig{ClientID: "id"},
		}))
		list, err := svc.ListByProvider(ctx, domain.ProviderGoogle)
		require.NoError(t, err)
		require.Len(t, list, 1)
		id := list[0].ID
		assert.NotEmpty(t, id)

		require.NoError(t, sources.Save(ctx, domain.Source{ID: "s", AuthProviderID: id}))
		assert.ErrorIs(t, svc.Delete(ctx, id), domain.ErrAuthProviderInUse)

		require.NoError(t, sources.Delete(ctx, "s"))
		require.NoError(t, svc.Delete(ctx, id))
	})

	t.Run("pat providers drop oauth config", func(t *testing.T) {
		require.NoError(t, svc.Save(ctx, domain.AuthProvider{
			ID: "gh", ProviderType: domain.ProviderGitHub, AuthMethod: domain.AuthMethodPAT,
			OAuth: &domain.OAuthProviderConfig{ClientID: "stray"},
		}))
		got, err := svc.Get(ctx, "gh")
		require.NoError(t, err)
		assert.Nil(t, got.OAuth)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewAuthProviderService(nil, nil).List(ctx)
		assert.ErrorIs(t, err, domain.ErrNotImplemented)
		assert.ErrorIs(t, NewCredentialsService(nil).Delete(ctx, "x"), domain.ErrNotImplemented)
	})
}

func TestCredentialsService(t *testing.T) {
	ctx := context.Background()
	svc := NewCredentialsService(memory.NewCredentialsStore())

	assert.ErrorIs(t, svc.Save(ctx, domain.Credentials{SourceID: "s"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Save(ctx, domain.Credentials{
		SourceID: "s", PAT: &domain.PATCredentials{Token: "t"}, OAuth: &domain.OAuthCredentials{AccessToken: "a"},
	}), domain.ErrInvalidInput)

	require.NoError(t, svc.Save(ctx, domain.Credentials{SourceID: "s", PAT: &domain.PATCredentials{Token: "t"}}))
	got, err := svc.GetBySourceID(ctx, "s")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, svc.Delete(ctx, got.ID))
	_, err = svc.Get(ctx, got.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
