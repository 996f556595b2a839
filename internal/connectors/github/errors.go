package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var (
	ErrConfigInvalidRepo  = errors.New("github: invalid repository")
	ErrConfigInvalidState = errors.New("github: invalid issue state")
	ErrInvalidCursor      = fmt.Errorf("github: %w", cursor.ErrInvalid)
)

// RateLimitError is a primary or secondary rate limit hit. It matches
// domain.ErrRateLimited so the sync engine retries after backoff.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return "github: rate limit exceeded, resets at " + e.ResetAt.Format(time.RFC3339)
}

func (e *RateLimitError) Unwrap() error { return domain.ErrRateLimited }

// APIError is a non-2xx response other than a rate limit.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap classifies the status: 401 is expired auth, 429 and 5xx retry.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrAuthExpired
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrTransientConnector
	}
	return nil
}

func hasStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func IsNotFound(err error) bool     { return hasStatus(err, http.StatusNotFound) }
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
