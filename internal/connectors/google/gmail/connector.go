// Package gmail implements the Gmail connector.
//
// Each message matching the configured labels and query yields one
// candidate document per attachment. With include_message set, the raw
// RFC 822 message is emitted too so the email extractor can read the body.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-intake/internal/connectors/google"
	"github.com/custodia-labs/sercha-intake/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

var errStop = errors.New("stop paging")

// Connector fetches email attachments from Gmail.
type Connector struct {
	sourceID      string
	config        *Config
	tokenProvider driven.TokenProvider
	rateLimiter   *throttle.Limiter
	opts          []option.ClientOption

	mu     sync.Mutex
	svc    *gmail.Service
	closed bool
}

// New creates a Gmail connector.
func New(sourceID string, cfg *Config, tokenProvider driven.TokenProvider, opts ...option.ClientOption) *Connector {
	return &Connector{
		sourceID:      sourceID,
		config:        cfg,
		tokenProvider: tokenProvider,
		rateLimiter:   google.NewRateLimiter(google.ServiceGmail),
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
	return domain.ConnectorGmail
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

func (c *Connector) service(ctx context.Context) (*gmail.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.svc != nil {
		return c.svc, nil
	}
	ts := google.NewTokenSource(context.WithoutCancel(ctx), c.tokenProvider)
	svc, err := google.NewGmailService(ctx, ts, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// Validate checks the credentials by reading the mailbox profile.
func (c *Connector) Validate(ctx context.Context) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := svc.Users.GetProfile(userID).Context(ctx).Do(); err != nil {
		if google.IsUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, google.WrapError(err, "get profile"))
	}
	return nil
}

// FetchIncremental yields attachments of messages newer than the cursor,
// or newer than the last sync time when there is no cursor yet.
func (c *Connector) FetchIncremental(
	ctx context.Context, state domain.SyncState, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	cursor, err := DecodeCursor(state.Cursor)
	if err != nil {
		return failed(fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err))
	}
	since := cursor.After
	if since.IsZero() {
		since = state.LastSyncTime
	}
	return c.fetch(ctx, BuildQuery(c.config, since), cursor, batchSize)
}

// FetchHistorical yields attachments of messages received on or after startDate.
func (c *Connector) FetchHistorical(
	ctx context.Context, startDate time.Time, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.fetch(ctx, BuildQuery(c.config, startDate), NewCursor(), batchSize)
}

func failed(err error) (<-chan []domain.RawDocument, <-chan error) {
	batches := make(chan []domain.RawDocument)
	errs := make(chan error, 1)
	errs <- err
	close(batches)
	close(errs)
	return batches, errs
}

//nolint:gocognit // Paging loop with per-message fetch
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

		call := svc.Users.Messages.List(userID).
			Q(query).
			MaxResults(c.config.PageSize).
			IncludeSpamTrash(c.config.IncludeSpamTrash)
		if len(c.config.LabelIDs) > 0 {
			call = call.LabelIds(c.config.LabelIDs...)
		}

		err = call.Pages(ctx, func(page *gmail.ListMessagesResponse) error {
			for _, ref := range page.Messages {
				docs, msg, err := c.message(ctx, svc, ref.Id)
				if err != nil {
					if fatal(err) {
						return err
					}
					logger.Warn("gmail: skipping message %s: %v", ref.Id, err)
					continue
				}
				cursor.Advance(InternalDate(msg))
				for _, doc := range docs {
					batch = append(batch, doc)
					if len(batch) >= batchSize && !flush() {
						return errStop
					}
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
			errs <- google.WrapError(err, "list messages")
			return
		}

		if !flush() {
			return
		}
		errs <- &driven.SyncComplete{NewCursor: cursor.Encode()}
	}()

	return batches, errs
}

// message fetches one message and turns its attachments into documents.
func (c *Connector) message(ctx context.Context, svc *gmail.Service, id string) ([]domain.RawDocument, *gmail.Message, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	msg, err := svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, nil, google.WrapError(err, "get message "+id)
	}

	var docs []domain.RawDocument
	for _, att := range Attachments(msg) {
		if c.config.MaxAttachmentSize > 0 && att.Size > c.config.MaxAttachmentSize {
			logger.Debug("gmail: %s/%s is %d bytes, over the limit", id, att.Filename, att.Size)
			continue
		}
		data := att.Data
		if att.AttachmentID != "" {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, nil, err
			}
			body, err := svc.Users.Messages.Attachments.Get(userID, id, att.AttachmentID).Context(ctx).Do()
			if err != nil {
				return nil, nil, google.WrapError(err, "get attachment "+att.Filename)
			}
			data = body.Data
		}
		content, err := DecodeData(data)
		if err != nil {
			logger.Warn("gmail: %s/%s: %v", id, att.Filename, err)
			continue
		}
		docs = append(docs, ToRawDocument(c.sourceID, msg, AttachmentFilename(id, att.Filename), content, att.MimeType))
	}

	if c.config.IncludeMessage {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		raw, err := svc.Users.Messages.Get(userID, id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, nil, google.WrapError(err, "get raw message "+id)
		}
		content, err := DecodeData(raw.Raw)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, ToRawDocument(c.sourceID, msg, id+".eml", content, MIMETypeRFC822))
	}
	return docs, msg, nil
}

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
