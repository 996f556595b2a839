package dropbox

import (
	"errors"
	"fmt"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// IsCursorReset reports whether Dropbox expired the list_folder cursor.
func IsCursorReset(err error) bool {
	var apiErr files.ListFolderContinueAPIError
	if errors.As(err, &apiErr) && apiErr.EndpointError != nil {
		return apiErr.EndpointError.Tag == files.ListFolderContinueErrorReset
	}
	var ptrErr *files.ListFolderContinueAPIError
	if errors.As(err, &ptrErr) && ptrErr.EndpointError != nil {
		return ptrErr.EndpointError.Tag == files.ListFolderContinueErrorReset
	}
	return false
}

// WrapError maps Dropbox SDK errors onto the domain sentinels.
func WrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var authErr auth.AuthAPIError
	var authPtr *auth.AuthAPIError
	if errors.As(err, &authErr) || errors.As(err, &authPtr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrAuthExpired, err)
	}

	var rateErr auth.RateLimitAPIError
	var ratePtr *auth.RateLimitAPIError
	if errors.As(err, &rateErr) || errors.As(err, &ratePtr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRateLimited, err)
	}

	var sdkErr dropbox.SDKInternalError
	if errors.As(err, &sdkErr) && sdkErr.StatusCode >= 500 {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTransientConnector, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
