package driven

// ConfigStore is the settings backend behind SettingsService. Keys are
// dotted section paths such as "engine.batch_size". Typed getters
// return the zero value for missing keys or mismatched types.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat accepts integer values too.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes through to the backing file, if any.
	Set(key string, value any) error
	Save() error
	Load() error
	Path() string
}
