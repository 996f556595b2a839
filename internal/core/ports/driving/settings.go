package driving

import "github.com/custodia-labs/sercha-intake/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// AppConfig resolves every setting over the defaults and validates the result.
	AppConfig() (domain.AppConfig, error)

	// Set parses value for a known key, validates the resulting
	// configuration and persists it.
	Set(key, value string) error

	// Values returns every known key with its effective value.
	Values() []Setting
}

// Setting is one effective configuration value.
type Setting struct {
	Key   string
	Value string
	// Default reports the value is not set in the file or environment.
	Default bool
}
