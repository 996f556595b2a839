// Command intake pulls documents from configured sources and runs them
// through the quality-gated intake pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/objectstore/local"
	s3store "github.com/custodia-labs/sercha-intake/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-intake/internal/classifier"
	"github.com/custodia-labs/sercha-intake/internal/connectors"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/services"
	"github.com/custodia-labs/sercha-intake/internal/enhance"
	"github.com/custodia-labs/sercha-intake/internal/extractors"
	"github.com/custodia-labs/sercha-intake/internal/logger"
	"github.com/custodia-labs/sercha-intake/internal/postprocessors"
	"github.com/custodia-labs/sercha-intake/internal/quality"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	a, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	cli.SetVersion(version)
	cli.SetServices(a.services)

	// cobra prints command errors itself.
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

type app struct {
	services cli.Services
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".intake"), nil
}

func wire(ctx context.Context) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	configDir, err := homeDir()
	if err != nil {
		return nil, err
	}
	cfgStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfgStore.LoadEnv(".env", filepath.Join(configDir, ".env"))

	settings := services.NewSettingsService(cfgStore, filepath.Join(configDir, "data"))
	cfg, err := settings.AppConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Sources, credentials and scheduler state always live in the local database.
	db, err := sqlite.NewStore(filepath.Dir(cfg.Storage.Path))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	dedup, results, err := stateStores(ctx, a, db, cfg)
	if err != nil {
		return nil, err
	}

	work, err := local.New(cfg.Staging.Dir)
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	var objects driven.ObjectStore = work
	if cfg.Staging.Driver == domain.StagingS3 {
		st, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Staging.S3Bucket,
			Region:          cfg.Staging.S3Region,
			Endpoint:        cfg.Staging.S3Endpoint,
			AccessKeyID:     cfg.Staging.S3AccessKeyID,
			SecretAccessKey: cfg.Staging.S3SecretAccessKey,
			Prefix:          "intake",
		}, work)
		if err != nil {
			return nil, err
		}
		objects = st
		results = s3store.NewArchive(results, st)
	}

	text, err := postprocessors.FromConfig(cfg.Text)
	if err != nil {
		return nil, fmt.Errorf("text pipeline: %w", err)
	}
	intake := services.NewIntakeOrchestrator(
		classifier.New(),
		quality.New(quality.ConfigFrom(cfg.Intake)),
		extractors.Default(ocrEngine(cfg.OCR)),
		services.WithEnhancer(enhance.New(enhance.DefaultOptions())),
		services.WithTextPipeline(text),
		services.WithReviewThreshold(cfg.Intake.HumanReviewConfidenceThreshold),
	)

	sourceStore := db.SourceStore()
	credStore := db.CredentialsStore()
	authStore := db.AuthProviderStore()

	tokens := auth.NewFactory(credStore, authStore)
	factory := connectors.NewFactory(tokens)
	connectors.RegisterBuiltin(factory)

	engine := services.NewSyncEngine(sourceStore, dedup, factory, objects, intake, results, cfg.Intake)
	scheduler := services.NewScheduler(cfg.Scheduler, db.SchedulerStore(), sourceStore, engine,
		services.WithTokenRefresh(credStore, tokens),
		services.WithErrorLogPrune(dedup),
	)

	a.services = cli.Services{
		Source:       services.NewSourceService(sourceStore, credStore, dedup, factory),
		Sync:         engine,
		Intake:       intake,
		Results:      services.NewResultService(results, sourceStore),
		Settings:     settings,
		AuthProvider: services.NewAuthProviderService(authStore, sourceStore),
		Credentials:  services.NewCredentialsService(credStore),
		OAuthFlow:    services.NewOAuthFlow(authStore, credStore, sourceStore),
		Providers:    services.NewProviderRegistry(factory),
		Scheduler:    scheduler,
		SchedulerCfg: cfg.Scheduler,
		HTTP:         cfg.HTTP,
		WorkDir:      work.Dir(),
	}
	return a, nil
}

// stateStores picks the dedup and result backends named by storage.driver.
func stateStores(ctx context.Context, a *app, db *sqlite.Store, cfg domain.AppConfig) (driven.DedupStore, driven.ResultStore, error) {
	policy := driven.ErrorLogPolicy{Size: cfg.Intake.ErrorLogSize, Retention: cfg.Intake.ErrorRetention}

	switch cfg.Storage.Driver {
	case domain.StoragePostgres:
		pg, err := postgres.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg.DedupStore(policy), pg.ResultStore(), nil
	case domain.StorageMemory:
		return memory.NewDedupStore(policy), memory.NewResultStore(), nil
	case domain.StorageSQLite:
		return db.DedupStore(policy), db.ResultStore(), nil
	}
	return nil, nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
}

// ocrEngine returns nil when tesseract is disabled or missing, which makes
// image extraction fail per document instead of at startup.
func ocrEngine(cfg domain.OCRConfig) driven.OCREngine {
	if cfg.TesseractPath == "" {
		return nil
	}
	engine := tesseract.New(cfg.TesseractPath, cfg.Languages)
	if !engine.Available() {
		logger.Debug("tesseract not found at %q, OCR disabled", cfg.TesseractPath)
		return nil
	}
	return engine
}
