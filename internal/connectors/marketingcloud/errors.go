package marketingcloud

import (
	"errors"
	"net/http"
)

// Error types for Marketing Cloud token endpoint responses.
var (
	// ErrUnauthorised indicates the client credentials were rejected.
	ErrUnauthorised = errors.New("marketingcloud: unauthorised")

	// ErrForbidden indicates the API integration lacks the required permissions.
	ErrForbidden = errors.New("marketingcloud: forbidden")

	// ErrRateLimited indicates the request was throttled.
	ErrRateLimited = errors.New("marketingcloud: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("marketingcloud: bad request")

	// ErrServerError indicates a server-side error.
	ErrServerError = errors.New("marketingcloud: server error")

	// ErrMissingAccessToken indicates a 2xx token response without an access_token.
	ErrMissingAccessToken = errors.New("marketingcloud: token response missing access_token")
)

// WrapError converts an HTTP status code to an appropriate error.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsSuccess checks if the status code is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
