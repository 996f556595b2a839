package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// IntakeConfig holds the tunables of the sync engine and the quality gate.
type IntakeConfig struct {
	// MaxFileSize is the hard size gate in bytes.
	MaxFileSize int64

	// ImageQualityThreshold flags image sub-scores below it as issues.
	ImageQualityThreshold float64

	// TextDensityThreshold flags text density below it as an issue.
	TextDensityThreshold float64

	// SyncIntervalMinutes throttles scheduled syncs per source.
	SyncIntervalMinutes int

	// HistoricalDaysBack is the default look-back window for historical syncs.
	HistoricalDaysBack int

	// MaxHistorical caps documents dispatched by one historical sync.
	MaxHistorical int

	// BatchSize is the number of documents a connector yields per batch.
	BatchSize int

	// HumanReviewConfidenceThreshold raises the review flag below it.
	HumanReviewConfidenceThreshold float64

	// BatchDelay is the pause between historical batches.
	BatchDelay time.Duration

	// Workers bounds concurrent documents within one batch.
	Workers int

	// ErrorLogSize bounds the per-source error log.
	ErrorLogSize int

	// ErrorRetention drops error log entries older than this.
	ErrorRetention time.Duration
}

// DefaultIntakeConfig returns sensible defaults.
func DefaultIntakeConfig() IntakeConfig {
	return IntakeConfig{
		MaxFileSize:                    50 << 20,
		ImageQualityThreshold:          0.5,
		TextDensityThreshold:           0.1,
		SyncIntervalMinutes:            60,
		HistoricalDaysBack:             30,
		MaxHistorical:                  1000,
		BatchSize:                      50,
		HumanReviewConfidenceThreshold: 0.7,
		BatchDelay:                     500 * time.Millisecond,
		Workers:                        4,
		ErrorLogSize:                   100,
		ErrorRetention:                 7 * 24 * time.Hour,
	}
}

// SyncInterval returns SyncIntervalMinutes as a duration.
func (c IntakeConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// Validate checks the configuration for out-of-range values.
func (c IntakeConfig) Validate() error {
	switch {
	case c.MaxFileSize <= 0:
		return fmt.Errorf("%w: max_file_size must be positive", ErrInvalidInput)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidInput)
	case c.SyncIntervalMinutes <= 0:
		return fmt.Errorf("%w: sync_interval_minutes must be positive", ErrInvalidInput)
	case c.HistoricalDaysBack <= 0:
		return fmt.Errorf("%w: historical_days_back must be positive", ErrInvalidInput)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidInput)
	}
	for name, v := range map[string]float64{
		"image_quality_threshold":           c.ImageQualityThreshold,
		"text_density_threshold":            c.TextDensityThreshold,
		"human_review_confidence_threshold": c.HumanReviewConfidenceThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1]", ErrInvalidInput, name)
		}
	}
	return nil
}

// StorageConfig selects the dedup/state store backend.
type StorageConfig struct {
	// Driver is "sqlite", "postgres" or "memory".
	Driver string

	// Path is the sqlite database file.
	Path string

	// PostgresDSN is the connection string of the shared store.
	PostgresDSN string
}

// StagingConfig selects where fetched documents are staged before processing.
type StagingConfig struct {
	// Driver is "local" or "s3".
	Driver string

	// Dir is the local staging and work directory.
	Dir string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// OCRConfig configures the OCR collaborator.
type OCRConfig struct {
	// TesseractPath is the tesseract binary. Empty disables OCR.
	TesseractPath string

	// Languages is the default tesseract language string (e.g. "eng+mal").
	Languages string
}

// HTTPConfig configures the status API started by serve.
type HTTPConfig struct {
	Addr string

	// AllowedOrigins is a comma-separated CORS origin list. Empty disables CORS.
	AllowedOrigins string
}

// Origins splits AllowedOrigins.
func (c HTTPConfig) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// TextConfig shapes the postprocessing applied to extracted text.
type TextConfig struct {
	// Processors is a comma-separated, ordered list of processor names.
	Processors   string
	ChunkSize    int
	ChunkOverlap int
}

// Stages splits Processors.
func (c TextConfig) Stages() []string {
	return splitList(c.Processors)
}

func (c TextConfig) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: text.chunk_size must be positive", ErrInvalidInput)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: text.chunk_overlap must be in [0, chunk_size)", ErrInvalidInput)
	}
	return nil
}

// AppConfig is the fully resolved application configuration.
type AppConfig struct {
	Intake    IntakeConfig
	Storage   StorageConfig
	Staging   StagingConfig
	OCR       OCRConfig
	HTTP      HTTPConfig
	Text      TextConfig
	Scheduler SchedulerConfig
}

// Storage and staging drivers.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	StagingLocal = "local"
	StagingS3    = "s3"
)

// DefaultAppConfig returns the defaults with files kept under dataDir.
func DefaultAppConfig(dataDir string) AppConfig {
	return AppConfig{
		Intake: DefaultIntakeConfig(),
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   filepath.Join(dataDir, "intake.db"),
		},
		Staging: StagingConfig{
			Driver: StagingLocal,
			Dir:    filepath.Join(dataDir, "staging"),
		},
		OCR: OCRConfig{
			TesseractPath: "tesseract",
			Languages:     "eng",
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8790",
		},
		Text: TextConfig{
			Processors:   "whitespace,chunker",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// Validate checks the intake tunables and the backend selections.
func (c AppConfig) Validate() error {
	if err := c.Intake.Validate(); err != nil {
		return err
	}
	if err := c.Text.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case StorageSQLite, StorageMemory:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: storage.postgres_dsn is required for the postgres driver", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidInput, c.Storage.Driver)
	}
	switch c.Staging.Driver {
	case StagingLocal:
	case StagingS3:
		if c.Staging.S3Bucket == "" {
			return fmt.Errorf("%w: staging.s3_bucket is required for the s3 driver", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown staging driver %q", ErrInvalidInput, c.Staging.Driver)
	}
	return nil
}
