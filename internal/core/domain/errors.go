package domain

import "errors"

// Sentinels shared across layers. Adapters wrap them with context; callers
// test with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotImplemented  = errors.New("not implemented")
	ErrUnsupportedType = errors.New("unsupported type")
)

// Sync state machine.
var (
	ErrSyncInProgress = errors.New("sync in progress")
	// ErrSourcePaused is sticky: only an explicit resume clears it.
	ErrSourcePaused   = errors.New("source paused")
)

// Per-document pipeline failures. None of them fail a batch.
var (
	// ErrValidation rejects a file before any expensive work.
	ErrValidation  = errors.New("validation failed")
	// ErrDetection stays inside the classifier, which degrades to UNKNOWN.
	ErrDetection   = errors.New("detection failed")
	ErrExtraction  = errors.New("extraction failed")
	ErrEnhancement = errors.New("enhancement failed")
)

// Authentication.
var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrAuthExpired        = errors.New("authentication expired")
	ErrAuthInvalid        = errors.New("authentication invalid")
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	ErrAuthProviderInUse  = errors.New("auth provider is in use by one or more sources")
)

// Connectors.
var (
	// ErrTransientConnector covers network and 5xx failures while fetching
	// a batch.
	ErrTransientConnector  = errors.New("transient connector error")
	ErrConnectorValidation = errors.New("connector validation failed")
	ErrConnectorClosed     = errors.New("connector closed")
	ErrRateLimited         = errors.New("rate limited")
)

// IsRetryable reports whether the scheduler's retry policy should try err
// again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientConnector) || errors.Is(err, ErrRateLimited)
}
