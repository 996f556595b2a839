package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source represents a configured upstream system.
// Each source produces candidate documents via a connector.
type Source struct {
	// ID is the unique identifier for the source. It namespaces all dedup state.
	ID string `json:"id" yaml:"id"`

	// Type identifies the connector type (e.g., "filesystem", "gmail").
	Type string `json:"type" yaml:"type"`

	// Name is the human-readable name for this source.
	Name string `json:"name" yaml:"name"`

	// Config contains connector-specific configuration.
	Config map[string]string `json:"config,omitempty" yaml:"config,omitempty"`

	// AuthProviderID references the AuthProvider (OAuth app or PAT provider config).
	// Empty for no-auth connectors (filesystem).
	AuthProviderID string `json:"auth_provider_id,omitempty" yaml:"auth_provider_id,omitempty"`

	// CredentialsID references this source's Credentials.
	CredentialsID string `json:"credentials_id,omitempty" yaml:"credentials_id,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// DisplayName returns the source name with account identifier if provided.
// If the account identifier is already present in the name, it is not appended again.
func (s *Source) DisplayName(accountIdentifier string) string {
	name := s.Name
	if name == "" {
		name = s.ID
	}
	if accountIdentifier != "" && !strings.Contains(name, accountIdentifier) {
		return fmt.Sprintf("%s - %s", name, accountIdentifier)
	}
	return name
}
