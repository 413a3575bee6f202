package domain

import "errors"

// Extraction error taxonomy.
var (
	// ErrAuthFailure indicates the token endpoint was unreachable or rejected the credentials.
	ErrAuthFailure = errors.New("domain: authentication failed")

	// ErrTokenExpired indicates the SOAP service rejected an expired access token.
	ErrTokenExpired = errors.New("domain: access token expired")

	// ErrSoapOperation indicates a SOAP fault or transport error during Retrieve.
	ErrSoapOperation = errors.New("domain: soap operation failed")

	// ErrNormalisation indicates a raw object could not be projected onto its property paths.
	ErrNormalisation = errors.New("domain: normalisation failed")

	// ErrInvalidConfig indicates configuration is missing or malformed.
	ErrInvalidConfig = errors.New("domain: invalid configuration")

	// ErrNotFound indicates the requested item does not exist.
	ErrNotFound = errors.New("domain: not found")
)
