// Package soapobject flattens SOAP raw objects into keyed records.
package soapobject

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.RecordNormaliser = (*Normaliser)(nil)

// pathSeparator separates the steps of a nested property path.
const pathSeparator = "."

// TimestampLayout is the canonical form of timestamp values in records.
const TimestampLayout = time.RFC3339Nano

// Normaliser projects raw objects onto configured property paths.
type Normaliser struct{}

// New creates a normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise builds a record with one field per property path.
// Missing properties and missing intermediate steps yield nil. A nil raw
// object, or a path resolving to a nested object or list, fails with
// domain.ErrNormalisation.
func (n *Normaliser) Normalise(raw domain.RawObject, properties []string) (domain.NormalizedRecord, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw object is nil", domain.ErrNormalisation)
	}

	record := make(domain.NormalizedRecord, len(properties))
	for _, path := range properties {
		value := resolve(raw, path)

		scalar, err := canonicalise(value)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q: %w", domain.ErrNormalisation, path, err)
		}
		record[FieldName(path)] = scalar
	}
	return record, nil
}

// FieldName returns the record key for a property path: segments joined
// with underscores and lower-cased.
func FieldName(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, pathSeparator, "_"))
}

// resolve walks path through nested objects. Any absent or non-object
// intermediate step resolves to nil.
func resolve(raw domain.RawObject, path string) any {
	if !strings.Contains(path, pathSeparator) {
		return raw[path]
	}

	var current any = raw
	for _, step := range strings.Split(path, pathSeparator) {
		obj, ok := current.(domain.RawObject)
		if !ok {
			return nil
		}
		current, ok = obj[step]
		if !ok {
			return nil
		}
	}
	return current
}

// canonicalise converts timestamps to their canonical string form and
// rejects non-scalar values.
func canonicalise(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return FormatTimestamp(v), nil
	case domain.RawObject, map[string]any:
		return nil, fmt.Errorf("resolves to a nested object")
	case []domain.RawObject, []any:
		return nil, fmt.Errorf("resolves to a list")
	default:
		return v, nil
	}
}

// FormatTimestamp renders t in the canonical record form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
