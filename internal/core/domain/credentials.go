package domain

import "time"

// Credentials is the per-source secret: the user's tokens. The OAuth
// client registration lives on the AuthProvider so one app can serve many
// sources. Exactly one of OAuth and PAT is set.
type Credentials struct {
	ID                string            `json:"id"`
	SourceID          string            `json:"source_id"`
	AccountIdentifier string            `json:"account_identifier,omitempty"`
	OAuth             *OAuthCredentials `json:"oauth,omitempty"`
	PAT               *PATCredentials   `json:"pat,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type OAuthCredentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

type PATCredentials struct {
	Token string `json:"token"`
}

// ExpiredAt reports whether the access token is dead at t. Tokens without
// an expiry never die.
func (o *OAuthCredentials) ExpiredAt(t time.Time) bool {
	return !o.Expiry.IsZero() && t.After(o.Expiry)
}

// Token is the bearer token to send, OAuth first.
func (c *Credentials) Token() string {
	switch {
	case c.OAuth != nil && c.OAuth.AccessToken != "":
		return c.OAuth.AccessToken
	case c.PAT != nil:
		return c.PAT.Token
	}
	return ""
}

func (c *Credentials) Refreshable() bool {
	return c.OAuth != nil && c.OAuth.RefreshToken != ""
}

// Usable reports whether a token is at hand or can be obtained.
func (c *Credentials) Usable() bool {
	return c.Token() != "" || c.Refreshable()
}

// RefreshDue reports whether a refreshable token is missing or expires
// within window of now.
func (c *Credentials) RefreshDue(now time.Time, window time.Duration) bool {
	if !c.Refreshable() {
		return false
	}
	if c.OAuth.AccessToken == "" {
		return true
	}
	return c.OAuth.ExpiredAt(now.Add(window))
}
