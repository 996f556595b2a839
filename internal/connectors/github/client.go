package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-intake/internal/connectors/throttle"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter
	baseURL       *url.URL

	mu sync.Mutex
	gh *gh.Client
}

// NewClient creates a GitHub API client that authenticates through a token provider.
func NewClient(tokenProvider driven.TokenProvider) *Client {
	return &Client{
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(),
	}
}

// NewClientWithToken creates a GitHub client with a static access token.
// Works for both PAT and OAuth access tokens.
func NewClientWithToken(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(),
	}
}

// WithBaseURL points the client at another API root (GitHub Enterprise).
func (c *Client) WithBaseURL(u *url.URL) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = u
	if c.gh != nil {
		c.gh.BaseURL = u
	}
	return c
}

// WithRateLimiter replaces the default rate limiter.
func (c *Client) WithRateLimiter(rl *RateLimiter) *Client {
	c.rateLimiter = rl
	return c
}

// ensureClient initialises the go-github client on first use so the token
// is only requested when needed.
func (c *Client) ensureClient(ctx context.Context) (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gh != nil {
		return c.gh, nil
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("github: no access token")
	}

	client := gh.NewClient(&http.Client{Timeout: DefaultTimeout}).WithAuthToken(token)
	if c.baseURL != nil {
		client.BaseURL = c.baseURL
	}
	c.gh = client
	return client, nil
}

// call waits for the rate limiter, runs fn and records the response quota.
func (c *Client) call(ctx context.Context, op string, fn func(*gh.Client) (*gh.Response, error)) error {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	resp, err := fn(client)
	if resp != nil && resp.Response != nil {
		c.rateLimiter.UpdateFromResponse(resp.Response)
	}
	if err != nil {
		return c.wrapError(err, op)
	}
	return nil
}

// ValidateCredentials checks the token by fetching the authenticated user.
func (c *Client) ValidateCredentials(ctx context.Context) (string, error) {
	var login string
	err := c.call(ctx, "validate credentials", func(client *gh.Client) (*gh.Response, error) {
		user, resp, err := client.Users.Get(ctx, "")
		login = user.GetLogin()
		return resp, err
	})
	return login, err
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	var repository *gh.Repository
	err := c.call(ctx, "get repo", func(client *gh.Client) (*gh.Response, error) {
		r, resp, err := client.Repositories.Get(ctx, owner, repo)
		repository = r
		return resp, err
	})
	return repository, err
}

// ListAllAccessibleRepos returns every repository the authenticated user can
// access: owned, collaborator and organisation member repositories.
func (c *Client) ListAllAccessibleRepos(ctx context.Context) ([]*gh.Repository, error) {
	var all []*gh.Repository
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Affiliation: "owner,collaborator,organization_member",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	for {
		var next int
		err := c.call(ctx, "list repos", func(client *gh.Client) (*gh.Response, error) {
			repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
			all = append(all, repos...)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		if next == 0 {
			return all, nil
		}
		opts.ListOptions.Page = next
	}
}

// ListIssues pages through a repository's issues, calling fn for each page.
func (c *Client) ListIssues(
	ctx context.Context, owner, repo string, opts *gh.IssueListByRepoOptions, fn func([]*gh.Issue) error,
) error {
	for {
		var (
			page []*gh.Issue
			next int
		)
		err := c.call(ctx, "list issues", func(client *gh.Client) (*gh.Response, error) {
			issues, resp, err := client.Issues.ListByRepo(ctx, owner, repo, opts)
			page = issues
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		opts.ListOptions.Page = next
	}
}

// ListComments retrieves all comments for an issue.
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]*gh.IssueComment, error) {
	var all []*gh.IssueComment
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: 100}}

	for {
		var next int
		err := c.call(ctx, "list comments", func(client *gh.Client) (*gh.Response, error) {
			comments, resp, err := client.Issues.ListComments(ctx, owner, repo, number, opts)
			all = append(all, comments...)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		if next == 0 {
			return all, nil
		}
		opts.ListOptions.Page = next
	}
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wait := throttle.DefaultBackoff
		if abuseErr.RetryAfter != nil {
			wait = *abuseErr.RetryAfter
		}
		c.rateLimiter.Backoff(wait)
		reset := time.Now().Add(wait)
		return &RateLimitError{ResetAt: reset, Remaining: c.rateLimiter.Remaining(), Limit: c.rateLimiter.Limit()}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{StatusCode: ghErr.Response.StatusCode, Message: ghErr.Message}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
