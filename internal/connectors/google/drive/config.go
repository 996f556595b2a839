package drive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ContentType identifies what content to sync from Google Drive.
type ContentType string

const (
	// ContentFiles syncs uploaded files (PDF, images, office documents).
	ContentFiles ContentType = "files"
	// ContentDocs syncs Google Docs, exported to PDF.
	ContentDocs ContentType = "docs"
	// ContentSheets syncs Google Sheets, exported to PDF.
	ContentSheets ContentType = "sheets"
	// ContentSlides syncs Google Slides, exported to PDF.
	ContentSlides ContentType = "slides"
)

// DefaultContentTypes are the content types synced by default.
var DefaultContentTypes = []ContentType{ContentFiles, ContentDocs}

// DefaultMaxFileSize skips files larger than 50 MiB.
const DefaultMaxFileSize int64 = 50 << 20

// Config holds Google Drive connector configuration.
type Config struct {
	// ContentTypes specifies what types of content to sync.
	ContentTypes []ContentType
	// MimeTypeFilter limits syncing to specific MIME types (optional).
	MimeTypeFilter []string
	// FolderIDs limits syncing to files directly inside these folders (optional).
	FolderIDs []string
	// PageSize is the page size for list requests.
	PageSize int64
	// MaxFileSize skips larger files without downloading them.
	MaxFileSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContentTypes: DefaultContentTypes,
		PageSize:     100,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := DefaultConfig()

	if val := source.Config["content_types"]; val != "" {
		cfg.ContentTypes = nil
		for _, t := range splitList(val) {
			ct := ContentType(t)
			if !isValidContentType(ct) {
				return nil, fmt.Errorf("%w: drive content type %q", domain.ErrInvalidInput, t)
			}
			cfg.ContentTypes = append(cfg.ContentTypes, ct)
		}
	}
	cfg.MimeTypeFilter = splitList(source.Config["mime_types"])
	cfg.FolderIDs = splitList(source.Config["folder_ids"])

	if val := source.Config["page_size"]; val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 || n > 1000 {
			return nil, fmt.Errorf("%w: drive page_size %q", domain.ErrInvalidInput, val)
		}
		cfg.PageSize = n
	}
	if val := source.Config["max_file_size"]; val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: drive max_file_size %q", domain.ErrInvalidInput, val)
		}
		cfg.MaxFileSize = n
	}
	return cfg, nil
}

// HasContentType checks if a content type is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

func isValidContentType(ct ContentType) bool {
	switch ct {
	case ContentFiles, ContentDocs, ContentSheets, ContentSlides:
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
