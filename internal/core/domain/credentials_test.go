package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Token(t *testing.T) {
	assert.Equal(t, "oa", (&Credentials{OAuth: &OAuthCredentials{AccessToken: "oa"}, PAT: &PATCredentials{Token: "p"}}).Token())
	assert.Equal(t, "p", (&Credentials{OAuth: &OAuthCredentials{}, PAT: &PATCredentials{Token: "p"}}).Token())
	assert.Empty(t, (&Credentials{}).Token())
}

func TestCredentials_Usable(t *testing.T) {
	assert.True(t, (&Credentials{PAT: &PATCredentials{Token: "p"}}).Usable())
	assert.True(t, (&Credentials{OAuth: &OAuthCredentials{RefreshToken: "r"}}).Usable())
	assert.False(t, (&Credentials{OAuth: &OAuthCredentials{}}).Usable())
}

func TestCredentials_RefreshDue(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	oauth := func(access string, expiry time.Time) *Credentials {
		return &Credentials{OAuth: &OAuthCredentials{AccessToken: access, RefreshToken: "r", Expiry: expiry}}
	}

	tests := []struct {
		name  string
		creds *Credentials
		want  bool
	}{
		{"pat never refreshes", &Credentials{PAT: &PATCredentials{Token: "p"}}, false},
		{"no refresh token", &Credentials{OAuth: &OAuthCredentials{AccessToken: "a", Expiry: now.Add(-time.Hour)}}, false},
		{"missing access token", oauth("", time.Time{}), true},
		{"no expiry", oauth("a", time.Time{}), false},
		{"expires inside window", oauth("a", now.Add(2*time.Minute)), true},
		{"expires after window", oauth("a", now.Add(time.Hour)), false},
		{"already expired", oauth("a", now.Add(-time.Minute)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creds.RefreshDue(now, 5*time.Minute))
		})
	}
}

func TestOAuthCredentials_ExpiredAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, (&OAuthCredentials{}).ExpiredAt(now))
	assert.True(t, (&OAuthCredentials{Expiry: now.Add(-time.Second)}).ExpiredAt(now))
	assert.False(t, (&OAuthCredentials{Expiry: now.Add(time.Second)}).ExpiredAt(now))
}
