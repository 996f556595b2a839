package memory

import (
	"sync"

	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in a map. Nothing is persisted; tests use it
// in place of the TOML store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetInt truncates floats, matching how TOML decodes untyped numbers.
func (s *ConfigStore) GetInt(key string) int {
	n, _ := number(s.Get(key))
	return int(n)
}

func (s *ConfigStore) GetFloat(key string) float64 {
	n, _ := number(s.Get(key))
	return n
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }

func number(v any, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
