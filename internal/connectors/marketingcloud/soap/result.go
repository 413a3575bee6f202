package soap

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// ResultKind tags the outcome of one SOAP round trip.
type ResultKind int

const (
	// ResultOK means the response was decoded successfully.
	ResultOK ResultKind = iota
	// ResultExpired means the service rejected the access token as expired.
	ResultExpired
	// ResultFault means any other fault or transport error.
	ResultFault
)

// String returns a readable name for the kind.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultExpired:
		return "expired"
	default:
		return "fault"
	}
}

// Result is the tagged outcome of a single SOAP operation.
type Result struct {
	Kind     ResultKind
	Response *RetrieveResponse
	Err      error
}

// OK returns a successful result.
func OK(resp *RetrieveResponse) Result {
	return Result{Kind: ResultOK, Response: resp}
}

// Expired returns a token-expired result.
func Expired(err error) Result {
	return Result{Kind: ResultExpired, Err: err}
}

// Fault returns a failed result.
func Fault(err error) Result {
	return Result{Kind: ResultFault, Err: err}
}

// FaultError is a SOAP fault returned by the service.
type FaultError struct {
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("soap fault: %s", e.Message)
	}
	return fmt.Sprintf("soap fault %s: %s", e.Code, e.Message)
}

// Unwrap exposes domain.ErrTokenExpired for expiry faults.
func (e *FaultError) Unwrap() error {
	if IsTokenExpiredFault(e.Message) {
		return domain.ErrTokenExpired
	}
	return nil
}

// IsTokenExpiredFault reports whether a fault message indicates token expiry.
func IsTokenExpiredFault(message string) bool {
	return strings.Contains(strings.ToLower(message), "token expired")
}
