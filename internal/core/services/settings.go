package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

// settingDef binds a config key to a field of domain.AppConfig.
type settingDef struct {
	key    string
	kind   settingKind
	secret bool
	apply  func(c *domain.AppConfig, v any)
	show   func(c domain.AppConfig) any
}

func taskSetting(id string, f func(*domain.TaskConfig, any)) func(*domain.AppConfig, any) {
	return func(c *domain.AppConfig, v any) {
		tc := c.Scheduler.TaskConfigs[id]
		f(&tc, v)
		c.Scheduler.TaskConfigs[id] = tc
	}
}

func taskDefs(id, prefix string) []settingDef {
	return []settingDef{
		{prefix + "_enabled", kindBool, false,
			taskSetting(id, func(t *domain.TaskConfig, v any) { t.Enabled = v.(bool) }),
			func(c domain.AppConfig) any { return c.Scheduler.TaskConfigs[id].Enabled }},
		{prefix + "_interval", kindDuration, false,
			taskSetting(id, func(t *domain.TaskConfig, v any) { t.Interval = v.(time.Duration) }),
			func(c domain.AppConfig) any { return c.Scheduler.TaskConfigs[id].Interval }},
	}
}

// settingDefs lists every key in display order. Keys are flat within a
// section so INTAKE_<SECTION>_<KEY> overrides map onto them.
var settingDefs = func() []settingDef {
	defs := []settingDef{
		{"engine.max_file_size", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.MaxFileSize = v.(int64) },
			func(c domain.AppConfig) any { return c.Intake.MaxFileSize }},
		{"engine.image_quality_threshold", kindFloat, false,
			func(c *domain.AppConfig, v any) { c.Intake.ImageQualityThreshold = v.(float64) },
			func(c domain.AppConfig) any { return c.Intake.ImageQualityThreshold }},
		{"engine.text_density_threshold", kindFloat, false,
			func(c *domain.AppConfig, v any) { c.Intake.TextDensityThreshold = v.(float64) },
			func(c domain.AppConfig) any { return c.Intake.TextDensityThreshold }},
		{"engine.sync_interval_minutes", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.SyncIntervalMinutes = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.SyncIntervalMinutes }},
		{"engine.historical_days_back", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.HistoricalDaysBack = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.HistoricalDaysBack }},
		{"engine.max_historical", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.MaxHistorical = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.MaxHistorical }},
		{"engine.batch_size", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.BatchSize = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.BatchSize }},
		{"engine.human_review_confidence_threshold", kindFloat, false,
			func(c *domain.AppConfig, v any) { c.Intake.HumanReviewConfidenceThreshold = v.(float64) },
			func(c domain.AppConfig) any { return c.Intake.HumanReviewConfidenceThreshold }},
		{"engine.batch_delay", kindDuration, false,
			func(c *domain.AppConfig, v any) { c.Intake.BatchDelay = v.(time.Duration) },
			func(c domain.AppConfig) any { return c.Intake.BatchDelay }},
		{"engine.workers", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.Workers = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.Workers }},
		{"engine.error_log_size", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Intake.ErrorLogSize = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Intake.ErrorLogSize }},
		{"engine.error_retention", kindDuration, false,
			func(c *domain.AppConfig, v any) { c.Intake.ErrorRetention = v.(time.Duration) },
			func(c domain.AppConfig) any { return c.Intake.ErrorRetention }},

		{"storage.driver", kindString, false,
			func(c *domain.AppConfig, v any) { c.Storage.Driver = v.(string) },
			func(c domain.AppConfig) any { return c.Storage.Driver }},
		{"storage.path", kindString, false,
			func(c *domain.AppConfig, v any) { c.Storage.Path = v.(string) },
			func(c domain.AppConfig) any { return c.Storage.Path }},
		{"storage.postgres_dsn", kindString, true,
			func(c *domain.AppConfig, v any) { c.Storage.PostgresDSN = v.(string) },
			func(c domain.AppConfig) any { return c.Storage.PostgresDSN }},

		{"staging.driver", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.Driver = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.Driver }},
		{"staging.dir", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.Dir = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.Dir }},
		{"staging.s3_bucket", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.S3Bucket = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.S3Bucket }},
		{"staging.s3_region", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.S3Region = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.S3Region }},
		{"staging.s3_endpoint", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.S3Endpoint = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.S3Endpoint }},
		{"staging.s3_access_key_id", kindString, false,
			func(c *domain.AppConfig, v any) { c.Staging.S3AccessKeyID = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.S3AccessKeyID }},
		{"staging.s3_secret_access_key", kindString, true,
			func(c *domain.AppConfig, v any) { c.Staging.S3SecretAccessKey = v.(string) },
			func(c domain.AppConfig) any { return c.Staging.S3SecretAccessKey }},

		{"ocr.tesseract_path", kindString, false,
			func(c *domain.AppConfig, v any) { c.OCR.TesseractPath = v.(string) },
			func(c domain.AppConfig) any { return c.OCR.TesseractPath }},
		{"ocr.languages", kindString, false,
			func(c *domain.AppConfig, v any) { c.OCR.Languages = v.(string) },
			func(c domain.AppConfig) any { return c.OCR.Languages }},

		{"http.addr", kindString, false,
			func(c *domain.AppConfig, v any) { c.HTTP.Addr = v.(string) },
			func(c domain.AppConfig) any { return c.HTTP.Addr }},
		{"http.allowed_origins", kindString, false,
			func(c *domain.AppConfig, v any) { c.HTTP.AllowedOrigins = v.(string) },
			func(c domain.AppConfig) any { return c.HTTP.AllowedOrigins }},

		{"text.processors", kindString, false,
			func(c *domain.AppConfig, v any) { c.Text.Processors = v.(string) },
			func(c domain.AppConfig) any { return c.Text.Processors }},
		{"text.chunk_size", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Text.ChunkSize = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Text.ChunkSize }},
		{"text.chunk_overlap", kindInt, false,
			func(c *domain.AppConfig, v any) { c.Text.ChunkOverlap = int(v.(int64)) },
			func(c domain.AppConfig) any { return c.Text.ChunkOverlap }},

		{"scheduler.enabled", kindBool, false,
			func(c *domain.AppConfig, v any) { c.Scheduler.Enabled = v.(bool) },
			func(c domain.AppConfig) any { return c.Scheduler.Enabled }},
	}
	defs = append(defs, taskDefs(domain.TaskIDDocumentSync, "scheduler.document_sync")...)
	defs = append(defs, taskDefs(domain.TaskIDOAuthRefresh, "scheduler.oauth_refresh")...)
	defs = append(defs, taskDefs(domain.TaskIDErrorLogPrune, "scheduler.error_log_prune")...)
	return defs
}()

func findSetting(key string) (settingDef, bool) {
	for _, d := range settingDefs {
		if d.key == key {
			return d, true
		}
	}
	return settingDef{}, false
}

// SettingsService resolves application settings from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	dataDir     string
}

// NewSettingsService creates a settings service. dataDir anchors the
// default database and staging paths.
func NewSettingsService(configStore driven.ConfigStore, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		dataDir:     dataDir,
	}
}

// AppConfig resolves every known key over the defaults.
func (s *SettingsService) AppConfig() (domain.AppConfig, error) {
	return s.resolve(s.configStore.Get)
}

func (s *SettingsService) resolve(lookup func(string) (any, bool)) (domain.AppConfig, error) {
	cfg := domain.DefaultAppConfig(s.dataDir)
	for _, def := range settingDefs {
		raw, ok := lookup(def.key)
		if !ok {
			continue
		}
		v, err := coerce(def.kind, raw)
		if err != nil {
			return domain.AppConfig{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, def.key, err)
		}
		def.apply(&cfg, v)
	}
	if err := cfg.Validate(); err != nil {
		return domain.AppConfig{}, err
	}
	return cfg, nil
}

// Set validates the value against the whole configuration before persisting.
func (s *SettingsService) Set(key, value string) error {
	def, ok := findSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	v, err := coerce(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	overlay := func(k string) (any, bool) {
		if k == key {
			return v, true
		}
		return s.configStore.Get(k)
	}
	if _, err := s.resolve(overlay); err != nil {
		return err
	}

	stored := v
	if def.kind == kindDuration {
		// TOML has no duration type.
		stored = v.(time.Duration).String()
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Values returns every known key with its effective value. Secrets are masked.
func (s *SettingsService) Values() []driving.Setting {
	defaults := domain.DefaultAppConfig(s.dataDir)
	out := make([]driving.Setting, 0, len(settingDefs))
	for _, def := range settingDefs {
		setting := driving.Setting{Key: def.key}
		if raw, ok := s.configStore.Get(def.key); ok {
			setting.Value = fmt.Sprint(raw)
		} else {
			setting.Value = fmt.Sprint(def.show(defaults))
			setting.Default = true
		}
		if def.secret && setting.Value != "" {
			setting.Value = "********"
		}
		out = append(out, setting)
	}
	return out
}

// coerce converts a raw TOML or environment value into the kind's Go type:
// string, int64, float64, bool or time.Duration.
func coerce(kind settingKind, raw any) (any, error) {
	switch kind {
	case kindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	case kindInt:
		switch v := raw.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("%v is not an integer", v)
			}
			return int64(v), nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
	case kindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(strings.TrimSpace(v))
		}
	case kindDuration:
		switch v := raw.(type) {
		case time.Duration:
			return v, nil
		case string:
			return time.ParseDuration(strings.TrimSpace(v))
		}
	}
	return nil, fmt.Errorf("unexpected value %v (%T)", raw, raw)
}
