// Package github implements a connector for maintenance tickets tracked as
// GitHub issues.
//
// Each issue, with its comments, is rendered to a markdown document and
// handed to the intake pipeline as a TEXT candidate. An issue that changes
// upstream produces new content and therefore a new document identity, so
// updated tickets are picked up again on the next sync.
//
// # Authentication
//
// Two authentication methods are supported:
//
//   - Personal Access Tokens (PAT): classic or fine-grained tokens created at
//     github.com/settings/tokens. Requires 'repo' scope for private repositories.
//
//   - OAuth App: tokens obtained via the OAuth 2.0 authorisation code flow.
//     The application must be registered at github.com/settings/developers.
//
// # Configuration
//
// Source configuration accepts the following keys:
//
//   - repos: comma-separated owner/name list. Default: every repository the
//     token can access (archived repositories and forks excluded).
//
//   - labels: comma-separated label filter. An issue matches when it carries
//     any of the labels. Default: all issues.
//
//   - state: open, closed or all. Default: all.
//
// # Rate Limiting
//
// The connector implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to approximately
//     1.2 requests per second, staying under the 5,000/hour limit.
//
//  2. Reactive handling: the connector monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When limits are nearly exhausted, it waits
//     until the reset time before continuing.
//
// # Sync Operations
//
// Issues are listed per repository sorted by update time ascending, so the
// cursor can record the latest update seen for each repository. Incremental
// syncs pass that time as the Since filter; historical syncs use the start
// date instead.
//
// # Error Handling
//
// API errors are mapped onto the domain sentinels: 401 to
// [domain.ErrAuthExpired], exhausted quota to [domain.ErrRateLimited] and 5xx
// responses to [domain.ErrTransientConnector].
package github
