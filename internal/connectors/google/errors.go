package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ErrForbidden indicates insufficient permissions.
var ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

func apiCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return apiCode(err) == http.StatusUnauthorized
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	return apiCode(err) == http.StatusForbidden
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return apiCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
// Google reports per-user quota exhaustion as 403 rateLimitExceeded.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// WrapError maps a Google API error onto the domain sentinels so the sync
// engine can classify it. The original error stays in the chain.
func WrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch code := apiCode(err); {
	case code == 0:
		return fmt.Errorf("%s: %w", op, err)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrAuthExpired, err)
	case IsRateLimited(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRateLimited, err)
	case code == http.StatusForbidden:
		return fmt.Errorf("%s: %w: %w", op, ErrForbidden, err)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransientConnector, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
