package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

type mockAuthProviderService struct {
	apps   []domain.AuthProvider
	saved  []domain.AuthProvider
	delErr error
	del    []string
}

func (m *mockAuthProviderService) Save(_ context.Context, p domain.AuthProvider) error {
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockAuthProviderService) Get(_ context.Context, id string) (*domain.AuthProvider, error) {
	for i := range m.apps {
		if m.apps[i].ID == id {
			return &m.apps[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockAuthProviderService) List(_ context.Context) ([]domain.AuthProvider, error) {
	return m.apps, nil
}

func (m *mockAuthProviderService) ListByProvider(_ context.Context, pt domain.ProviderType) ([]domain.AuthProvider, error) {
	var out []domain.AuthProvider
	for _, a := range m.apps {
		if a.ProviderType == pt {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAuthProviderService) Delete(_ context.Context, id string) error {
	m.del = append(m.del, id)
	return m.delErr
}

// stubRegistry serves github over OAuth and local over nothing.
type stubRegistry struct{}

func (stubRegistry) Providers() []domain.ProviderType {
	return []domain.ProviderType{domain.ProviderGitHub, "local"}
}

func (stubRegistry) ConnectorsFor(p domain.ProviderType) []string {
	if p == domain.ProviderGitHub {
		return []string{"github"}
	}
	return []string{"filesystem"}
}

func (stubRegistry) ProviderFor(string) (domain.ProviderType, error) { return domain.ProviderGitHub, nil }

func (stubRegistry) AuthCapability(p domain.ProviderType) domain.AuthCapability {
	if p == domain.ProviderGitHub {
		return domain.AuthCapOAuth | domain.AuthCapPAT
	}
	return 0
}

func (stubRegistry) DefaultAuthMethod(domain.ProviderType) domain.AuthMethod { return domain.AuthMethodOAuth }

func TestAuthAdd_FromFlags(t *testing.T) {
	apps := &mockAuthProviderService{}
	withServices(t, Services{AuthProvider: apps, Providers: stubRegistry{}})

	out, err := execute(t, "auth", "add", "--provider", "github",
		"--client-id", "cid", "--client-secret", "shh", "--scopes", "repo, read:user,")
	require.NoError(t, err)

	require.Len(t, apps.saved, 1)
	got := apps.saved[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "github OAuth App", got.Name)
	assert.Equal(t, domain.AuthMethodOAuth, got.AuthMethod)
	require.NotNil(t, got.OAuth)
	assert.Equal(t, "cid", got.OAuth.ClientID)
	assert.Equal(t, "shh", got.OAuth.ClientSecret)
	assert.Equal(t, []string{"repo", "read:user"}, got.OAuth.Scopes)
	assert.Contains(t, out, "--auth "+got.ID)
}

func TestAuthAdd_Prompts(t *testing.T) {
	apps := &mockAuthProviderService{}
	withServices(t, Services{AuthProvider: apps, Providers: stubRegistry{}})
	rootCmd.SetIn(strings.NewReader("1\nprompted-id\nprompted-secret\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "auth", "add", "--name", "Work")
	require.NoError(t, err)

	assert.Contains(t, out, "1) github")
	assert.NotContains(t, out, "filesystem")
	require.Len(t, apps.saved, 1)
	assert.Equal(t, "Work", apps.saved[0].Name)
	assert.Equal(t, domain.ProviderGitHub, apps.saved[0].ProviderType)
	assert.Equal(t, "prompted-id", apps.saved[0].OAuth.ClientID)
	assert.Equal(t, "prompted-secret", apps.saved[0].OAuth.ClientSecret)
}

func TestAuthAdd_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"no oauth", []string{"--provider", "local"}, "", "does not support OAuth"},
		{"bad pick", nil, "7\n", "invalid selection"},
		{"missing secret", []string{"--provider", "github", "--client-id", "cid"}, "\n", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := &mockAuthProviderService{}
			withServices(t, Services{AuthProvider: apps, Providers: stubRegistry{}})
			rootCmd.SetIn(strings.NewReader(tt.input))
			t.Cleanup(func() { rootCmd.SetIn(nil) })

			_, err := execute(t, append([]string{"auth", "add"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, apps.saved)
		})
	}
}

func TestAuthList(t *testing.T) {
	apps := &mockAuthProviderService{apps: []domain.AuthProvider{{
		ID:           "app-1",
		Name:         "Work",
		ProviderType: domain.ProviderGitHub,
		OAuth:        &domain.OAuthProviderConfig{ClientID: "0123456789abcdefghij", Scopes: []string{"repo"}},
		CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}}}
	withServices(t, Services{AuthProvider: apps})

	out, err := execute(t, "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PROVIDER")
	assert.Contains(t, out, "app-1")
	assert.Contains(t, out, "0123456789ab…")
	assert.NotContains(t, out, "cdefghij")
	assert.Contains(t, out, "2026-03-01")
}

func TestAuthList_Empty(t *testing.T) {
	withServices(t, Services{AuthProvider: &mockAuthProviderService{}})

	out, err := execute(t, "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No OAuth apps")
}

func TestAuthRemove(t *testing.T) {
	apps := &mockAuthProviderService{apps: []domain.AuthProvider{{ID: "app-1", Name: "Work"}}}
	withServices(t, Services{AuthProvider: apps})

	out, err := execute(t, "auth", "remove", "app-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"app-1"}, apps.del)
	assert.Contains(t, out, "Removed Work")

	apps.delErr = domain.ErrAuthProviderInUse
	_, err = execute(t, "auth", "remove", "app-1")
	assert.ErrorIs(t, err, domain.ErrAuthProviderInUse)

	_, err = execute(t, "auth", "remove", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthLogin_NeedsApp(t *testing.T) {
	withServices(t, Services{Source: &mockSourceService{sources: []domain.Source{{ID: "src-1"}}}})

	_, err := execute(t, "auth", "login", "src-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass --auth")

	_, err = execute(t, "auth", "login", "src-1", "--auth", "app-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth flow not configured")
}
