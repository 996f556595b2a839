package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix marks environment variables that override file settings.
const EnvPrefix = "INTAKE_"

// FileName is the settings file inside the config directory.
const FileName = "config.toml"

// ConfigStore layers environment overrides over a TOML file. Only the file
// layer is ever written back.
type ConfigStore struct {
	path string

	mu   sync.RWMutex
	file map[string]any
	env  map[string]string
}

// NewConfigStore loads dir/config.toml, creating dir if needed. An empty
// dir means ~/.intake.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".intake")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, FileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Path() string { return s.path }

// Load replaces the file layer with the current file contents. A missing
// file is an empty layer.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	flat := map[string]any{}
	flatten(flat, "", tree)

	s.mu.Lock()
	s.file = flat
	s.mu.Unlock()
	return nil
}

// LoadEnv rebuilds the override layer from the process environment, after
// loading any of dotenvFiles that exist.
func (s *ConfigStore) LoadEnv(dotenvFiles ...string) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			env[envKey(name)] = value
		}
	}

	s.mu.Lock()
	s.env = env
	s.mu.Unlock()
}

// envKey maps INTAKE_ENGINE_BATCH_SIZE to engine.batch_size: the first
// segment names the table, the rest is the key.
func envKey(name string) string {
	rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if table, key, ok := strings.Cut(rest, "_"); ok {
		return table + "." + key
	}
	return rest
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.env[key]; ok {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt accepts TOML integers and numeric override strings.
func (s *ConfigStore) GetInt(key string) int {
	switch v, _ := s.Get(key); v := v.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func (s *ConfigStore) GetFloat(key string) float64 {
	switch v, _ := s.Get(key); v := v.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	switch v, _ := s.Get(key); v := v.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// GetStringSlice reads TOML arrays; overrides are comma separated.
func (s *ConfigStore) GetStringSlice(key string) []string {
	var out []string
	switch v, _ := s.Get(key); v := v.(type) {
	case []string:
		return v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
	case string:
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Set updates the file layer and writes it out.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file[key] = value
	return s.write()
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

func (s *ConfigStore) write() error {
	tree := map[string]any{}
	for key, value := range s.file {
		nest(tree, strings.Split(key, "."), value)
	}
	raw, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// flatten turns TOML tables into dotted keys: {"a": {"b": 1}} is "a.b".
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(dst, key, table)
			continue
		}
		dst[key] = value
	}
}

func nest(tree map[string]any, path []string, value any) {
	if len(path) == 1 {
		tree[path[0]] = value
		return
	}
	child, ok := tree[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		tree[path[0]] = child
	}
	nest(child, path[1:], value)
}

