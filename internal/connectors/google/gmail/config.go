package gmail

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// DefaultMaxAttachmentSize skips attachments larger than 25 MiB,
// which is Gmail's own sending limit.
const DefaultMaxAttachmentSize int64 = 25 << 20

// Config holds Gmail connector configuration.
type Config struct {
	// LabelIDs limits syncing to specific label IDs. Defaults to INBOX.
	LabelIDs []string
	// Query is an extra Gmail search query, e.g. "from:plant@example.com".
	Query string
	// PageSize is the page size for list requests.
	PageSize int64
	// IncludeSpamTrash includes spam and trash if true.
	IncludeSpamTrash bool
	// IncludeMessage also emits the message itself as an .eml document.
	IncludeMessage bool
	// MaxAttachmentSize skips larger attachments.
	MaxAttachmentSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LabelIDs:          []string{"INBOX"},
		PageSize:          100,
		MaxAttachmentSize: DefaultMaxAttachmentSize,
	}
}

// ParseConfig extracts configuration from a Source.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := DefaultConfig()

	if val, ok := source.Config["label_ids"]; ok {
		cfg.LabelIDs = nil
		for _, id := range strings.Split(val, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.LabelIDs = append(cfg.LabelIDs, id)
			}
		}
	}
	cfg.Query = strings.TrimSpace(source.Config["query"])

	if val := source.Config["page_size"]; val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 || n > 500 {
			return nil, fmt.Errorf("%w: gmail page_size %q", domain.ErrInvalidInput, val)
		}
		cfg.PageSize = n
	}
	if val := source.Config["max_attachment_size"]; val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: gmail max_attachment_size %q", domain.ErrInvalidInput, val)
		}
		cfg.MaxAttachmentSize = n
	}

	var err error
	if cfg.IncludeSpamTrash, err = parseBool(source.Config, "include_spam_trash"); err != nil {
		return nil, err
	}
	if cfg.IncludeMessage, err = parseBool(source.Config, "include_message"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseBool(m map[string]string, key string) (bool, error) {
	val := m[key]
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%w: gmail %s %q", domain.ErrInvalidInput, key, val)
	}
	return b, nil
}
