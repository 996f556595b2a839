// Package filesystem implements the local directory connector.
//
// Incremental walks yield files modified after the cursor; historical walks
// yield files modified on or after the start date. Watch pushes files as
// they are created or rewritten, using fsnotify.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.Connector = (*Connector)(nil)
	_ driven.Watcher   = (*Connector)(nil)
)

// Connector walks a local directory.
type Connector struct {
	sourceID string
	config   *Config
	limiter  *rate.Limiter

	mu      sync.Mutex
	closed  bool
	closers []func()
}

// New creates a filesystem connector.
func New(sourceID string, cfg *Config) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		limiter:  rate.NewLimiter(cfg.limit(), 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorFilesystem
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

func (c *Connector) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Validate checks that the root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	return c.checkRoot()
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.config.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: root path does not exist: %s", domain.ErrConnectorValidation, c.config.Root)
		}
		return fmt.Errorf("%w: root path error: %w", domain.ErrConnectorValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path is not a directory: %s", domain.ErrConnectorValidation, c.config.Root)
	}
	if _, err := os.ReadDir(c.config.Root); err != nil {
		return fmt.Errorf("%w: root path is not readable: %w", domain.ErrConnectorValidation, err)
	}
	return nil
}

// FetchIncremental yields files modified after the cursor, or after the
// last sync time when there is no cursor yet.
func (c *Connector) FetchIncremental(
	ctx context.Context, state domain.SyncState, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	cursor, err := DecodeCursor(state.Cursor)
	if err != nil {
		cursor = NewCursor()
	}
	since := cursor.ModifiedAfter
	if since.IsZero() {
		since = state.LastSyncTime
	}
	return c.walk(ctx, func(mod time.Time) bool { return mod.After(since) }, cursor, batchSize)
}

// FetchHistorical yields files modified on or after startDate.
func (c *Connector) FetchHistorical(
	ctx context.Context, startDate time.Time, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.walk(ctx, func(mod time.Time) bool { return !mod.Before(startDate) }, NewCursor(), batchSize)
}

//nolint:gocognit // WalkDir callback with filtering and batching
func (c *Connector) walk(
	ctx context.Context, include func(time.Time) bool, cursor *Cursor, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	batches := make(chan []domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errs)

		if c.isClosed() {
			errs <- domain.ErrConnectorClosed
			return
		}
		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		batch := make([]domain.RawDocument, 0, batchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case batches <- batch:
				batch = make([]domain.RawDocument, 0, batchSize)
				return nil
			}
		}

		err := filepath.WalkDir(c.config.Root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				logger.Warn("filesystem: %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path != c.config.Root && !c.config.IncludeHidden && isHidden(d.Name()) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !c.config.wants(d.Name()) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logger.Warn("filesystem: stat %s: %v", path, err)
				return nil
			}
			if !include(info.ModTime()) || info.Size() > c.config.MaxFileSize {
				return nil
			}
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}

			doc, err := c.readDocument(path, info)
			if err != nil {
				logger.Warn("filesystem: read %s: %v", path, err)
				return nil
			}
			batch = append(batch, doc)
			cursor.Advance(info.ModTime())
			if len(batch) >= batchSize {
				return flush()
			}
			return nil
		})
		if err == nil {
			err = flush()
		}
		if err != nil {
			if ctx.Err() == nil {
				errs <- fmt.Errorf("walk %s: %w", c.config.Root, err)
			}
			return
		}
		errs <- &driven.SyncComplete{NewCursor: cursor.Encode()}
	}()

	return batches, errs
}

// readDocument reads a file into a candidate document.
func (c *Connector) readDocument(path string, info fs.FileInfo) (domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, err
	}
	doc := domain.NewRawDocument(
		domain.ConnectorFilesystem,
		c.sourceID,
		filepath.Base(path),
		content,
		mimetype.Detect(content).String(),
		path,
	)
	doc.UploadedAt = info.ModTime()
	if rel, err := filepath.Rel(c.config.Root, path); err == nil {
		doc.Metadata["relative_path"] = filepath.ToSlash(rel)
	}
	doc.Metadata["modified_time"] = info.ModTime().UTC().Format(time.RFC3339)
	return doc, nil
}

// isHidden reports whether a path has a dot-prefixed element other than . and ..
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// Close stops any watchers. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.closed = true
	c.mu.Unlock()

	for _, fn := range closers {
		fn()
	}
	return nil
}
