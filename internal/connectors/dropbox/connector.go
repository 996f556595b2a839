// Package dropbox implements the Dropbox connector.
//
// The first walk lists the configured folder recursively; the list_folder
// cursor returned at the end is stored, and later incremental runs ask
// list_folder/continue for the changes since. An expired cursor falls back
// to a full listing filtered by the last sync time.
package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// API is the subset of the Dropbox files client the connector uses.
type API interface {
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
	ListFolderContinue(arg *files.ListFolderContinueArg) (*files.ListFolderResult, error)
	Download(arg *files.DownloadArg) (*files.FileMetadata, io.ReadCloser, error)
	GetMetadata(arg *files.GetMetadataArg) (files.IsMetadata, error)
}

// DefaultRate keeps well under Dropbox's per-user limits.
const DefaultRate = 10

// Connector fetches files from Dropbox.
type Connector struct {
	sourceID      string
	config        *Config
	tokenProvider driven.TokenProvider
	limiter       *rate.Limiter

	mu     sync.Mutex
	api    API
	closed bool
}

// New creates a Dropbox connector. The files client is created on first
// use with the provider's current token.
func New(sourceID string, cfg *Config, tokenProvider driven.TokenProvider) *Connector {
	return &Connector{
		sourceID:      sourceID,
		config:        cfg,
		tokenProvider: tokenProvider,
		limiter:       rate.NewLimiter(DefaultRate, 5),
	}
}

// NewWithAPI creates a connector around an existing files client.
func NewWithAPI(sourceID string, cfg *Config, api API) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		api:      api,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorDropbox
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

func (c *Connector) client(ctx context.Context) (API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.api != nil {
		return c.api, nil
	}
	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return nil, domain.ErrAuthRequired
	}
	c.api = files.New(dropbox.Config{Token: token, LogLevel: dropbox.LogOff})
	return c.api, nil
}

// call waits for the limiter and checks the context, since the SDK does not take one.
func (c *Connector) call(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// Validate checks the token and that the configured folder exists.
func (c *Connector) Validate(ctx context.Context) error {
	api, err := c.client(ctx)
	if err != nil {
		return err
	}
	if err := c.call(ctx); err != nil {
		return err
	}
	if c.config.Path == "" {
		arg := files.NewListFolderArg("")
		arg.Limit = 1
		_, err = api.ListFolder(arg)
	} else {
		_, err = api.GetMetadata(files.NewGetMetadataArg(c.config.Path))
	}
	if err != nil {
		wrapped := WrapError(err, "validate")
		if errors.Is(wrapped, domain.ErrAuthExpired) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, wrapped)
	}
	return nil
}

// FetchIncremental yields files changed since the stored list cursor.
func (c *Connector) FetchIncremental(
	ctx context.Context, state domain.SyncState, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	cursor, err := DecodeCursor(state.Cursor)
	if err != nil || (!cursor.IsEmpty() && cursor.Path != c.config.Path) {
		cursor = NewCursor()
	}
	return c.fetch(ctx, cursor.ListCursor, state.LastSyncTime, false, batchSize)
}

// FetchHistorical lists the folder and yields files modified on or after startDate.
func (c *Connector) FetchHistorical(
	ctx context.Context, startDate time.Time, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.fetch(ctx, "", startDate, true, batchSize)
}

// list starts a walk from listCursor, or from a fresh listing when empty.
func (c *Connector) list(ctx context.Context, api API, listCursor string) (*files.ListFolderResult, error) {
	if err := c.call(ctx); err != nil {
		return nil, err
	}
	if listCursor != "" {
		return api.ListFolderContinue(files.NewListFolderContinueArg(listCursor))
	}
	arg := files.NewListFolderArg(c.config.Path)
	arg.Recursive = c.config.Recursive
	return api.ListFolder(arg)
}

//nolint:gocognit // Paging loop with per-file download
func (c *Connector) fetch(
	ctx context.Context, listCursor string, since time.Time, inclusive bool, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	batches := make(chan []domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errs)

		api, err := c.client(ctx)
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

		// Changes from a cursor are already bounded; no date filter.
		filterSince := since
		if listCursor != "" {
			filterSince = time.Time{}
		}

		res, err := c.list(ctx, api, listCursor)
		if err != nil && IsCursorReset(err) {
			logger.Warn("dropbox: cursor for %s expired, relisting", c.sourceID)
			filterSince = since
			res, err = c.list(ctx, api, "")
		}

		for {
			if err != nil {
				if ctx.Err() == nil {
					errs <- WrapError(err, "list folder")
				}
				return
			}
			for _, entry := range res.Entries {
				file, ok := entry.(*files.FileMetadata)
				if !ok || !ShouldSyncFile(file, c.config, filterSince, inclusive) {
					continue
				}
				doc, err := c.download(ctx, api, file)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if fatal(err) {
						errs <- err
						return
					}
					logger.Warn("dropbox: skipping %s: %v", file.PathDisplay, err)
					continue
				}
				batch = append(batch, doc)
				if len(batch) >= batchSize && !flush() {
					return
				}
			}
			if !res.HasMore {
				break
			}
			res, err = c.list(ctx, api, res.Cursor)
		}

		if !flush() {
			return
		}
		next := &Cursor{Version: CursorVersion, ListCursor: res.Cursor, Path: c.config.Path}
		errs <- &driven.SyncComplete{NewCursor: next.Encode()}
	}()

	return batches, errs
}

func (c *Connector) download(ctx context.Context, api API, file *files.FileMetadata) (domain.RawDocument, error) {
	if err := c.call(ctx); err != nil {
		return domain.RawDocument{}, err
	}
	_, body, err := api.Download(files.NewDownloadArg(file.PathLower))
	if err != nil {
		return domain.RawDocument{}, WrapError(err, "download")
	}
	defer body.Close()

	limit := int64(c.config.MaxFileSize)
	if limit <= 0 {
		limit = int64(DefaultMaxFileSize)
	}
	content, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("%w: read %s: %w", domain.ErrTransientConnector, file.PathDisplay, err)
	}
	if int64(len(content)) > limit {
		return domain.RawDocument{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, file.PathDisplay, limit)
	}
	return FileToRawDocument(c.sourceID, file, content), nil
}

func fatal(err error) bool {
	return errors.Is(err, domain.ErrAuthExpired) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrTransientConnector)
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
