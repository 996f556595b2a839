package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCapability(t *testing.T) {
	tests := []struct {
		c                     AuthCapability
		str                   string
		none, pat, oauth, req bool
	}{
		{AuthCapNone, "none", true, false, false, false},
		{AuthCapPAT, "pat", false, true, false, true},
		{AuthCapOAuth, "oauth", false, false, true, true},
		{AuthCapPAT | AuthCapOAuth, "pat,oauth", false, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.c.String())
			assert.Equal(t, tt.req, tt.c.RequiresAuth())
			assert.Equal(t, tt.none, tt.c.Allows(AuthMethodNone))
			assert.Equal(t, tt.pat, tt.c.Allows(AuthMethodPAT))
			assert.Equal(t, tt.oauth, tt.c.Allows(AuthMethodOAuth))
			assert.False(t, tt.c.Allows("kerberos"))
		})
	}
}

func TestConnectorType_Config(t *testing.T) {
	ct := ConnectorType{
		ID:             ConnectorGitHub,
		AuthCapability: AuthCapPAT,
		ConfigKeys: []ConfigKey{
			{Key: "repos", Required: true},
			{Key: "state", Default: "open"},
			{Key: "labels", Required: true},
		},
	}

	assert.True(t, ct.RequiresAuth())
	assert.Equal(t, []string{"repos", "labels"}, ct.MissingConfig(nil))
	assert.Equal(t, []string{"labels"}, ct.MissingConfig(map[string]string{"repos": "acme/plant", "labels": ""}))
	assert.Empty(t, ct.MissingConfig(map[string]string{"repos": "a/b", "labels": "bug"}))

	key := ct.ConfigKey("state")
	require.NotNil(t, key)
	assert.Equal(t, "open", key.Default)
	assert.Nil(t, ct.ConfigKey("token"))
}
