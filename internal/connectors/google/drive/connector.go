// Package drive implements the Google Drive connector.
//
// Files are listed with a modifiedTime query ordered oldest first, so the
// cursor is the newest modification time seen. Uploaded files are
// downloaded as-is; Google Docs, Sheets and Slides are exported to PDF.
package drive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-intake/internal/connectors/google"
	"github.com/custodia-labs/sercha-intake/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// errStop ends paging early without reporting an error.
var errStop = errors.New("stop paging")

// Connector fetches files from Google Drive.
type Connector struct {
	sourceID      string
	config        *Config
	tokenProvider driven.TokenProvider
	rateLimiter   *throttle.Limiter
	opts          []option.ClientOption

	mu     sync.Mutex
	svc    *drive.Service
	closed bool
}

// New creates a Google Drive connector. Extra client options are passed
// to the Drive service (endpoint overrides).
func New(sourceID string, cfg *Config, tokenProvider driven.TokenProvider, opts ...option.ClientOption) *Connector {
	return &Connector{
		sourceID:      sourceID,
		config:        cfg,
		tokenProvider: tokenProvider,
		rateLimiter:   google.NewRateLimiter(google.ServiceDrive),
		opts:          opts,
	}
}

// WithRateLimiter replaces the default rate limiter.
func (c *Connector) WithRateLimiter(rl *throttle.Limiter) *Connector {
	c.rateLimiter = rl
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorGoogleDrive
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// service creates the Drive client on first use. The token source is
// bound to a background context because the client outlives single calls.
func (c *Connector) service(ctx context.Context) (*drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.svc != nil {
		return c.svc, nil
	}
	ts := google.NewTokenSource(context.WithoutCancel(ctx), c.tokenProvider)
	svc, err := google.NewDriveService(ctx, ts, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// Validate checks the credentials by fetching the account's about record.
func (c *Connector) Validate(ctx context.Context) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		if google.IsUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, google.WrapError(err, "about"))
	}
	for _, id := range c.config.FolderIDs {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := svc.Files.Get(id).Fields("id").Context(ctx).Do(); err != nil {
			return fmt.Errorf("%w: folder %s: %w", domain.ErrConnectorValidation, id, google.WrapError(err, "get folder"))
		}
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
		return failed(fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err))
	}
	since := cursor.ModifiedAfter
	if since.IsZero() {
		since = state.LastSyncTime
	}
	return c.fetch(ctx, BuildQuery(c.config, since, false), cursor, batchSize)
}

// FetchHistorical yields files modified on or after startDate.
func (c *Connector) FetchHistorical(
	ctx context.Context, startDate time.Time, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.fetch(ctx, BuildQuery(c.config, startDate, true), NewCursor(), batchSize)
}

func failed(err error) (<-chan []domain.RawDocument, <-chan error) {
	batches := make(chan []domain.RawDocument)
	errs := make(chan error, 1)
	errs <- err
	close(batches)
	close(errs)
	return batches, errs
}

//nolint:gocognit // Paging loop with per-file download
func (c *Connector) fetch(
	ctx context.Context, query string, cursor *Cursor, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	batches := make(chan []domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errs)

		svc, err := c.service(ctx)
		if err != nil {
			errs <- err
			return
		}

		batch := make([]domain.RawDocument, 0, batchSize)
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case batches <- batch:
				batch = make([]domain.RawDocument, 0, batchSize)
				return true
			}
		}

		call := svc.Files.List().
			Q(query).
			Fields(listFields).
			OrderBy("modifiedTime").
			PageSize(c.config.PageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)

		err = call.Pages(ctx, func(page *drive.FileList) error {
			for _, file := range page.Files {
				if !ShouldSyncFile(file, c.config) {
					continue
				}
				if err := c.rateLimiter.Wait(ctx); err != nil {
					return err
				}
				content, mimeType, err := FetchContent(ctx, svc, file, c.config.MaxFileSize)
				if err != nil {
					if fatal(err) {
						return err
					}
					logger.Warn("drive: skipping %s (%s): %v", file.Name, file.Id, err)
					continue
				}
				batch = append(batch, FileToRawDocument(c.sourceID, file, content, mimeType))
				if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
					cursor.Advance(t)
				}
				if len(batch) >= batchSize && !flush() {
					return errStop
				}
			}
			return c.rateLimiter.Wait(ctx)
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, errStop) {
				return
			}
			if google.IsRateLimited(err) {
				c.rateLimiter.Backoff(0)
			}
			errs <- google.WrapError(err, "list files")
			return
		}

		if !flush() {
			return
		}
		errs <- &driven.SyncComplete{NewCursor: cursor.Encode()}
	}()

	return batches, errs
}

// fatal reports whether a per-file error must abort the walk.
func fatal(err error) bool {
	return errors.Is(err, domain.ErrAuthExpired) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrTransientConnector) ||
		errors.Is(err, context.Canceled)
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.svc = nil
	return nil
}
