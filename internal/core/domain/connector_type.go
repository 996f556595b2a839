package domain

import (
	"slices"
	"strings"
)

// AuthMethod is how a source authenticates against its upstream.
type AuthMethod string

const (
	AuthMethodNone  AuthMethod = "none"
	AuthMethodPAT   AuthMethod = "pat"
	AuthMethodOAuth AuthMethod = "oauth"
)

// AuthCapability is the set of auth methods a connector accepts, as bits.
// The zero value means the connector needs no credentials.
type AuthCapability uint8

const (
	AuthCapNone  AuthCapability = 0
	AuthCapPAT   AuthCapability = 1 << 0
	AuthCapOAuth AuthCapability = 1 << 1
)

func (c AuthCapability) SupportsPAT() bool   { return c&AuthCapPAT != 0 }
func (c AuthCapability) SupportsOAuth() bool { return c&AuthCapOAuth != 0 }
func (c AuthCapability) RequiresAuth() bool  { return c != AuthCapNone }

// Allows reports whether a source of this connector may use m. None is only
// allowed for connectors that accept nothing else.
func (c AuthCapability) Allows(m AuthMethod) bool {
	switch m {
	case AuthMethodNone:
		return !c.RequiresAuth()
	case AuthMethodPAT:
		return c.SupportsPAT()
	case AuthMethodOAuth:
		return c.SupportsOAuth()
	}
	return false
}

// String lists the accepted methods, e.g. "pat,oauth", or "none".
func (c AuthCapability) String() string {
	if !c.RequiresAuth() {
		return string(AuthMethodNone)
	}
	var methods []string
	if c.SupportsPAT() {
		methods = append(methods, string(AuthMethodPAT))
	}
	if c.SupportsOAuth() {
		methods = append(methods, string(AuthMethodOAuth))
	}
	return strings.Join(methods, ",")
}

// Built-in connector types.
const (
	ConnectorFilesystem  = "filesystem"
	ConnectorGmail       = "gmail"
	ConnectorGoogleDrive = "google-drive"
	ConnectorDropbox     = "dropbox"
	ConnectorGitHub      = "github"
)

// ConnectorType is the registry entry for a connector: what it is called,
// which provider's credentials it uses and what config it takes.
type ConnectorType struct {
	ID             string
	Name           string
	Description    string
	ProviderType   ProviderType
	AuthCapability AuthCapability
	ConfigKeys     []ConfigKey
}

func (c *ConnectorType) RequiresAuth() bool {
	return c.AuthCapability.RequiresAuth()
}

// MissingConfig returns the required keys that are unset or empty in cfg,
// in declaration order.
func (c *ConnectorType) MissingConfig(cfg map[string]string) []string {
	var missing []string
	for _, k := range c.ConfigKeys {
		if k.Required && cfg[k.Key] == "" {
			missing = append(missing, k.Key)
		}
	}
	return missing
}

// ConfigKey returns the declared key named key, or nil.
func (c *ConnectorType) ConfigKey(key string) *ConfigKey {
	i := slices.IndexFunc(c.ConfigKeys, func(k ConfigKey) bool { return k.Key == key })
	if i < 0 {
		return nil
	}
	return &c.ConfigKeys[i]
}

// ConfigKey describes one connector config field.
type ConfigKey struct {
	Key         string
	Label       string
	Description string
	Default     string
	Required    bool
	// Secret values are masked when sources are listed.
	Secret bool
}
