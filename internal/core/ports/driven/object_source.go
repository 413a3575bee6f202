package driven

import (
	"context"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// ObjectSource opens retrieval sessions against the remote service.
type ObjectSource interface {
	// Open starts a fresh session for spec. Each session owns its own
	// authentication state. Credential failures wrap domain.ErrAuthFailure.
	Open(ctx context.Context, spec domain.ObjectTypeSpec) (ObjectIterator, error)
}

// ObjectIterator yields raw objects from one session.
type ObjectIterator interface {
	// Next returns the next raw object, or io.EOF when the session is exhausted.
	Next(ctx context.Context) (domain.RawObject, error)

	// Pages returns the number of completed round trips.
	Pages() int

	// ContinuationID returns the latest continuation identifier, if any.
	ContinuationID() string
}

// RecordNormaliser projects raw objects onto property paths.
type RecordNormaliser interface {
	// Normalise returns a flat record, or an error wrapping domain.ErrNormalisation.
	Normalise(raw domain.RawObject, properties []string) (domain.NormalizedRecord, error)
}
