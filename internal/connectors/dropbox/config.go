package dropbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// DefaultMaxFileSize skips files larger than 50 MiB.
const DefaultMaxFileSize uint64 = 50 << 20

// Config holds Dropbox connector configuration.
type Config struct {
	// Path is the folder to sync. Empty means the whole Dropbox.
	Path string
	// Recursive includes subfolders.
	Recursive bool
	// Extensions limits syncing to these file extensions (lowercase, with dot).
	Extensions []string
	// MaxFileSize skips larger files without downloading them.
	MaxFileSize uint64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Recursive:   true,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := DefaultConfig()

	if p := strings.TrimSpace(source.Config["path"]); p != "" && p != "/" {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		cfg.Path = strings.TrimSuffix(p, "/")
	}
	if val := source.Config["recursive"]; val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("%w: dropbox recursive %q", domain.ErrInvalidInput, val)
		}
		cfg.Recursive = b
	}
	for _, ext := range strings.Split(source.Config["extensions"], ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}
	if val := source.Config["max_file_size"]; val != "" {
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("%w: dropbox max_file_size %q", domain.ErrInvalidInput, val)
		}
		cfg.MaxFileSize = n
	}
	return cfg, nil
}
