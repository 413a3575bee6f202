package driving

import (
	"context"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Extractor runs extraction of configured object types.
type Extractor interface {
	// RunAll extracts every spec in order into the sink and reports per-type outcomes.
	// Only run-level failures (bad credentials, invalid configuration, cancellation)
	// are returned as errors; object-type failures are recorded in the report.
	RunAll(ctx context.Context, specs []domain.ObjectTypeSpec, sink driven.RecordSink) (*domain.RunReport, error)
}

// ObjectTypeRegistry provides information about supported object types.
type ObjectTypeRegistry interface {
	// List returns all registered specs in extraction order.
	List() []domain.ObjectTypeSpec

	// Get returns the spec for an object type.
	// Returns ErrNotFound if the object type is not registered.
	Get(objectType string) (*domain.ObjectTypeSpec, error)

	// Select returns the specs for the given object types, in registry order.
	// An empty selection returns every spec.
	Select(objectTypes []string) ([]domain.ObjectTypeSpec, error)
}
