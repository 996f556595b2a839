package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// DefaultMaxFileSize skips files larger than 50 MiB.
const DefaultMaxFileSize int64 = 50 << 20

// Config holds filesystem connector configuration.
type Config struct {
	// Root is the directory to walk.
	Root string
	// Extensions limits syncing to these extensions (lowercase, with dot).
	Extensions []string
	// IncludeHidden walks dot files and dot directories too.
	IncludeHidden bool
	// MaxFileSize skips larger files.
	MaxFileSize int64
	// FilesPerSecond throttles reads. Zero means unlimited.
	FilesPerSecond float64
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	root := strings.TrimSpace(source.Config["path"])
	if root == "" {
		return nil, fmt.Errorf("%w: filesystem path is required", domain.ErrInvalidInput)
	}
	if strings.HasPrefix(root, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, root[2:])
		}
	}

	cfg := &Config{Root: filepath.Clean(root), MaxFileSize: DefaultMaxFileSize}
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
	if val := source.Config["include_hidden"]; val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("%w: filesystem include_hidden %q", domain.ErrInvalidInput, val)
		}
		cfg.IncludeHidden = b
	}
	if val := source.Config["max_file_size"]; val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: filesystem max_file_size %q", domain.ErrInvalidInput, val)
		}
		cfg.MaxFileSize = n
	}
	if val := source.Config["files_per_second"]; val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%w: filesystem files_per_second %q", domain.ErrInvalidInput, val)
		}
		cfg.FilesPerSecond = f
	}
	return cfg, nil
}

// limit returns the read rate for the limiter.
func (c *Config) limit() rate.Limit {
	if c.FilesPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.FilesPerSecond)
}

// wants reports whether a file name passes the extension filter.
func (c *Config) wants(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range c.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
