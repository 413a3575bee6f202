package domain

import (
	"fmt"
	"strings"
)

// DefaultFilterOperator is applied when a spec has a filter property but no operator.
const DefaultFilterOperator = "greaterThan"

// DefaultPrimaryKey is the record key used when a spec does not declare one.
const DefaultPrimaryKey = "id"

// WriteDisposition hints to the loading layer how a record stream should be written.
type WriteDisposition string

const (
	// DispositionReplace replaces the destination table with the stream contents.
	DispositionReplace WriteDisposition = "replace"
	// DispositionMerge upserts stream records keyed by the primary key.
	DispositionMerge WriteDisposition = "merge"
)

// ObjectTypeSpec configures extraction of one remote SOAP object type.
// Specs are built once from configuration and never mutated.
type ObjectTypeSpec struct {
	// ObjectType is the SOAP object type name (e.g. "SentEvent").
	ObjectType string
	// Properties is the ordered list of property paths to retrieve.
	// Dotted paths such as "Email.ID" denote nested access.
	Properties []string
	// FilterProperty is the date property used for incremental loads (optional).
	FilterProperty string
	// FilterOperator is the SimpleOperator for the date filter.
	FilterOperator string
	// DaysBack is the lookback window for incremental loads.
	DaysBack int
	// FullLoad retrieves every object of the type, ignoring any filter.
	FullLoad bool
	// PrimaryKey is the normalised record field that identifies a record.
	PrimaryKey string
}

// UsesFilter reports whether the initial Retrieve carries a date filter.
func (s ObjectTypeSpec) UsesFilter() bool {
	return !s.FullLoad && s.FilterProperty != ""
}

// Operator returns the filter operator, falling back to DefaultFilterOperator.
func (s ObjectTypeSpec) Operator() string {
	if s.FilterOperator == "" {
		return DefaultFilterOperator
	}
	return s.FilterOperator
}

// KeyField returns the primary-key field, falling back to DefaultPrimaryKey.
func (s ObjectTypeSpec) KeyField() string {
	if s.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return strings.ToLower(s.PrimaryKey)
}

// Disposition returns replace for full loads and merge otherwise.
func (s ObjectTypeSpec) Disposition() WriteDisposition {
	if s.FullLoad {
		return DispositionReplace
	}
	return DispositionMerge
}

// TableName returns the output name for the object type, e.g. "sentevents".
func (s ObjectTypeSpec) TableName() string {
	return strings.ToLower(s.ObjectType) + "s"
}

// Descriptor labels the record stream produced for this spec.
func (s ObjectTypeSpec) Descriptor() StreamDescriptor {
	return StreamDescriptor{
		ObjectType:  s.ObjectType,
		Table:       s.TableName(),
		Disposition: s.Disposition(),
		PrimaryKey:  s.KeyField(),
	}
}

// Validate checks the spec is usable.
func (s ObjectTypeSpec) Validate() error {
	if strings.TrimSpace(s.ObjectType) == "" {
		return fmt.Errorf("%w: object type is required", ErrInvalidConfig)
	}
	if len(s.Properties) == 0 {
		return fmt.Errorf("%w: %s: at least one property is required", ErrInvalidConfig, s.ObjectType)
	}
	for _, p := range s.Properties {
		for _, seg := range strings.Split(p, ".") {
			if strings.TrimSpace(seg) == "" {
				return fmt.Errorf("%w: %s: invalid property path %q", ErrInvalidConfig, s.ObjectType, p)
			}
		}
	}
	if s.DaysBack < 0 {
		return fmt.Errorf("%w: %s: days_back must not be negative", ErrInvalidConfig, s.ObjectType)
	}
	return nil
}

// StreamDescriptor identifies a record stream for the loading layer.
type StreamDescriptor struct {
	ObjectType  string
	Table       string
	Disposition WriteDisposition
	PrimaryKey  string
}
