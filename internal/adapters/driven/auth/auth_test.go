package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

type fixture struct {
	creds     *memory.CredentialsStore
	providers *memory.AuthProviderStore
	factory   *Factory
	calls     *atomic.Int32
}

// newFixture starts a token endpoint that answers refresh requests with
// status and body.
func newFixture(t *testing.T, status int, body string) *fixture {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	f := &fixture{
		creds:     memory.NewCredentialsStore(),
		providers: memory.NewAuthProviderStore(nil),
		calls:     calls,
	}
	f.factory = NewFactory(f.creds, f.providers)

	ctx := context.Background()
	require.NoError(t, f.providers.Save(ctx, domain.AuthProvider{
		ID: "google-app", ProviderType: domain.ProviderGoogle, AuthMethod: domain.AuthMethodOAuth,
		OAuth: &domain.OAuthProviderConfig{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL},
	}))
	return f
}

func (f *fixture) saveOAuth(t *testing.T, access, refresh string, expiry time.Time) domain.Source {
	t.Helper()
	require.NoError(t, f.creds.Save(context.Background(), domain.Credentials{
		ID: "cred-1", SourceID: "src-1",
		OAuth: &domain.OAuthCredentials{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", Expiry: expiry},
	}))
	return domain.Source{ID: "src-1", Type: domain.ConnectorGmail, CredentialsID: "cred-1", AuthProviderID: "google-app"}
}

const okBody = `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`

func TestFactory_ForSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, http.StatusOK, okBody)

	t.Run("no credentials", func(t *testing.T) {
		tp, err := f.factory.ForSource(ctx, domain.Source{ID: "fs"})
		require.NoError(t, err)
		assert.Equal(t, domain.AuthMethodNone, tp.AuthMethod())
		assert.True(t, tp.IsAuthenticated())
		assert.Empty(t, tp.CredentialsID())
	})

	t.Run("pat", func(t *testing.T) {
		require.NoError(t, f.creds.Save(ctx, domain.Credentials{ID: "pat-1", PAT: &domain.PATCredentials{Token: "ghp_x"}}))
		tp, err := f.factory.ForSource(ctx, domain.Source{ID: "gh", CredentialsID: "pat-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.AuthMethodPAT, tp.AuthMethod())
		assert.True(t, tp.IsAuthenticated())
		token, err := tp.GetToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ghp_x", token)
	})

	t.Run("oauth needs provider", func(t *testing.T) {
		src := f.saveOAuth(t, "a", "r", time.Now().Add(time.Hour))
		src.AuthProviderID = ""
		_, err := f.factory.ForSource(ctx, src)
		assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := f.factory.ForSource(ctx, domain.Source{ID: "x", CredentialsID: "nope"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOAuthProvider_GetToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token is served without refresh", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		src := f.saveOAuth(t, "current", "r", time.Now().Add(time.Hour))
		tp, err := f.factory.ForSource(ctx, src)
		require.NoError(t, err)

		token, err := tp.GetToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "current", token)
		assert.Equal(t, int32(0), f.calls.Load())
	})

	t.Run("expiring token is refreshed and persisted", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		src := f.saveOAuth(t, "old", "keep-me", time.Now().Add(time.Minute))
		tp, err := f.factory.ForSource(ctx, src)
		require.NoError(t, err)

		token, err := tp.GetToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
		assert.Equal(t, int32(1), f.calls.Load())

		stored, err := f.creds.Get(ctx, "cred-1")
		require.NoError(t, err)
		assert.Equal(t, "fresh", stored.OAuth.AccessToken)
		assert.Equal(t, "keep-me", stored.OAuth.RefreshToken)
		assert.True(t, stored.OAuth.Expiry.After(time.Now().Add(30*time.Minute)))

		token, err = tp.GetToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
		assert.Equal(t, int32(1), f.calls.Load(), "second call served from cache")
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		src := f.saveOAuth(t, "old", "", time.Now().Add(-time.Minute))
		tp, err := f.factory.ForSource(ctx, src)
		require.NoError(t, err)

		_, err = tp.GetToken(ctx)
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
	})

	t.Run("revoked grant", func(t *testing.T) {
		f := newFixture(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"revoked"}`)
		src := f.saveOAuth(t, "old", "r", time.Now().Add(-time.Minute))
		tp, err := f.factory.ForSource(ctx, src)
		require.NoError(t, err)

		_, err = tp.GetToken(ctx)
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
	})

	t.Run("server error", func(t *testing.T) {
		f := newFixture(t, http.StatusInternalServerError, `{"error":"server_error"}`)
		src := f.saveOAuth(t, "old", "r", time.Now().Add(-time.Minute))
		tp, err := f.factory.ForSource(ctx, src)
		require.NoError(t, err)

		_, err = tp.GetToken(ctx)
		assert.ErrorIs(t, err, domain.ErrTokenRefreshFailed)
	})
}

func TestFactory_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("forces refresh of a valid token", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		src := f.saveOAuth(t, "still-valid", "r", time.Now().Add(time.Hour))

		require.NoError(t, f.factory.Refresh(ctx, src))
		assert.Equal(t, int32(1), f.calls.Load())

		stored, err := f.creds.Get(ctx, "cred-1")
		require.NoError(t, err)
		assert.Equal(t, "fresh", stored.OAuth.AccessToken)
	})

	t.Run("no refresh token", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		src := f.saveOAuth(t, "a", "", time.Now().Add(time.Hour))
		assert.ErrorIs(t, f.factory.Refresh(ctx, src), domain.ErrTokenRefreshFailed)
	})

	t.Run("non oauth sources are ignored", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, okBody)
		assert.NoError(t, f.factory.Refresh(ctx, domain.Source{ID: "fs"}))
		assert.Equal(t, int32(0), f.calls.Load())
	})
}

func TestPATProvider_NoToken(t *testing.T) {
	store := memory.NewCredentialsStore()
	require.NoError(t, store.Save(context.Background(), domain.Credentials{ID: "c", PAT: &domain.PATCredentials{}}))
	p := NewPATProvider("c", store)
	assert.False(t, p.IsAuthenticated())
	_, err := p.GetToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}
