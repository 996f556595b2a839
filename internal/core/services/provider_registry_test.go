package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/connectors"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func newProviderRegistry() *ProviderRegistry {
	f := connectors.NewFactory(nil)
	connectors.RegisterBuiltin(f)
	return NewProviderRegistry(f)
}

func TestProviderRegistry_Providers(t *testing.T) {
	r := newProviderRegistry()
	assert.Equal(t, []domain.ProviderType{
		domain.ProviderDropbox, domain.ProviderGitHub, domain.ProviderGoogle, domain.ProviderLocal,
	}, r.Providers())
}

func TestProviderRegistry_ConnectorsFor(t *testing.T) {
	r := newProviderRegistry()
	assert.ElementsMatch(t, []string{"gmail", "google-drive"}, r.ConnectorsFor(domain.ProviderGoogle))
	assert.Equal(t, []string{"filesystem"}, r.ConnectorsFor(domain.ProviderLocal))
	assert.Empty(t, r.ConnectorsFor("slack"))
}

func TestProviderRegistry_ProviderFor(t *testing.T) {
	r := newProviderRegistry()
	p, err := r.ProviderFor("google-drive")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, p)

	_, err = r.ProviderFor("notion")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestProviderRegistry_AuthMethods(t *testing.T) {
	r := newProviderRegistry()

	tests := []struct {
		provider domain.ProviderType
		want     domain.AuthMethod
		oauth    bool
	}{
		{domain.ProviderLocal, domain.AuthMethodNone, false},
		{domain.ProviderGoogle, domain.AuthMethodOAuth, true},
		{domain.ProviderGitHub, domain.AuthMethodPAT, true},
		{domain.ProviderDropbox, domain.AuthMethodPAT, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, r.DefaultAuthMethod(tt.provider))
			assert.Equal(t, tt.oauth, r.AuthCapability(tt.provider).SupportsOAuth())
		})
	}
}
