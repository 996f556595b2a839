package github

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches maintenance tickets from GitHub issues.
type Connector struct {
	sourceID string
	config   *Config
	client   *Client

	mu     sync.Mutex
	closed bool
}

// New creates a new GitHub connector.
func New(sourceID string, cfg *Config, tokenProvider driven.TokenProvider) *Connector {
	return NewWithClient(sourceID, cfg, NewClient(tokenProvider))
}

// NewWithClient creates a connector around an existing client.
func NewWithClient(sourceID string, cfg *Config, client *Client) *Connector {
	return &Connector{sourceID: sourceID, config: cfg, client: client}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.ConnectorGitHub
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

// Validate checks the token and, when configured, that each repository is reachable.
func (c *Connector) Validate(ctx context.Context) error {
	if c.isClosed() {
		return domain.ErrConnectorClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.client.ValidateCredentials(ctx); err != nil {
		if IsUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	for _, full := range c.config.Repos {
		owner, name, _ := strings.Cut(full, "/")
		if _, err := c.client.GetRepository(ctx, owner, name); err != nil {
			return fmt.Errorf("repository %s: %w", full, err)
		}
	}
	return nil
}

// FetchIncremental yields issues updated since the cursor. Repositories
// without a cursor entry resume from the last sync time.
func (c *Connector) FetchIncremental(
	ctx context.Context, state domain.SyncState, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.fetch(ctx, batchSize, func(cursor *Cursor, repo string) time.Time {
		if since := cursor.Since(repo); !since.IsZero() {
			return since
		}
		return state.LastSyncTime
	}, state.Cursor)
}

// FetchHistorical yields issues updated on or after startDate.
func (c *Connector) FetchHistorical(
	ctx context.Context, startDate time.Time, batchSize int,
) (<-chan []domain.RawDocument, <-chan error) {
	return c.fetch(ctx, batchSize, func(*Cursor, string) time.Time { return startDate }, "")
}

type sinceFunc func(cursor *Cursor, repo string) time.Time

//nolint:gocognit // Paging loop over repositories and issues
func (c *Connector) fetch(
	ctx context.Context, batchSize int, since sinceFunc, encoded string,
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

		cursor, err := DecodeCursor(encoded)
		if err != nil {
			errs <- fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
			return
		}

		repos, err := c.repositories(ctx)
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

		for _, repo := range repos {
			owner, name := repo.GetOwner().GetLogin(), repo.GetName()
			full := owner + "/" + name
			opts := &gh.IssueListByRepoOptions{
				State:       c.config.State,
				Sort:        "updated",
				Direction:   "asc",
				ListOptions: gh.ListOptions{PerPage: 100},
			}
			if from := since(cursor, full); !from.IsZero() {
				opts.Since = from
			}

			err := c.client.ListIssues(ctx, owner, name, opts, func(issues []*gh.Issue) error {
				for _, issue := range issues {
					if issue.IsPullRequest() || !c.config.MatchesLabels(labelNames(issue)) {
						continue
					}
					var comments []*gh.IssueComment
					if issue.GetComments() > 0 {
						var cerr error
						comments, cerr = c.client.ListComments(ctx, owner, name, issue.GetNumber())
						if cerr != nil {
							logger.Warn("github: comments for %s#%d: %v", full, issue.GetNumber(), cerr)
						}
					}
					batch = append(batch, IssueToRawDocument(c.sourceID, owner, name, issue, comments))
					cursor.Advance(full, issue.GetUpdatedAt().Time)
					if len(batch) >= batchSize && !flush() {
						return ctx.Err()
					}
				}
				return nil
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if IsNotFound(err) {
					logger.Warn("github: skipping %s: %v", full, err)
					continue
				}
				errs <- fmt.Errorf("issues %s: %w", full, err)
				return
			}
		}

		if !flush() {
			return
		}
		errs <- &driven.SyncComplete{NewCursor: cursor.Encode()}
	}()

	return batches, errs
}

// repositories resolves the configured repositories, or lists every
// accessible one when none are configured.
func (c *Connector) repositories(ctx context.Context) ([]*gh.Repository, error) {
	if len(c.config.Repos) > 0 {
		repos := make([]*gh.Repository, 0, len(c.config.Repos))
		for _, full := range c.config.Repos {
			owner, name, _ := strings.Cut(full, "/")
			repo, err := c.client.GetRepository(ctx, owner, name)
			if err != nil {
				return nil, fmt.Errorf("get repo %s: %w", full, err)
			}
			repos = append(repos, repo)
		}
		return repos, nil
	}

	repos, err := c.client.ListAllAccessibleRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repos: %w", err)
	}
	return FilterRepos(repos), nil
}

// FilterRepos drops archived, forked, disabled and issue-less repositories.
func FilterRepos(repos []*gh.Repository) []*gh.Repository {
	filtered := make([]*gh.Repository, 0, len(repos))
	for _, r := range repos {
		if r.GetArchived() || r.GetFork() || r.GetDisabled() || !r.GetHasIssues() {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
