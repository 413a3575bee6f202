package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driving"
)

// Ensure ObjectTypeRegistry implements the interface.
var _ driving.ObjectTypeRegistry = (*ObjectTypeRegistry)(nil)

// ObjectTypeRegistry holds the configured object type specs in extraction order.
type ObjectTypeRegistry struct {
	specs  []domain.ObjectTypeSpec
	byType map[string]int
}

// NewObjectTypeRegistry validates specs and registers them in order.
// Object type names are matched case-insensitively and must be unique.
func NewObjectTypeRegistry(specs []domain.ObjectTypeSpec) (*ObjectTypeRegistry, error) {
	r := &ObjectTypeRegistry{
		specs:  make([]domain.ObjectTypeSpec, 0, len(specs)),
		byType: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if err := r.register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *ObjectTypeRegistry) register(spec domain.ObjectTypeSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(spec.ObjectType)
	if _, exists := r.byType[key]; exists {
		return fmt.Errorf("%w: object type %s registered twice", domain.ErrInvalidConfig, spec.ObjectType)
	}
	r.byType[key] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// List returns all registered specs in extraction order.
func (r *ObjectTypeRegistry) List() []domain.ObjectTypeSpec {
	out := make([]domain.ObjectTypeSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Get returns the spec for an object type.
func (r *ObjectTypeRegistry) Get(objectType string) (*domain.ObjectTypeSpec, error) {
	i, ok := r.byType[strings.ToLower(objectType)]
	if !ok {
		return nil, fmt.Errorf("object type %q: %w", objectType, domain.ErrNotFound)
	}
	spec := r.specs[i]
	return &spec, nil
}

// Select returns the specs named by objectTypes, in registry order.
// An empty selection returns every spec.
func (r *ObjectTypeRegistry) Select(objectTypes []string) ([]domain.ObjectTypeSpec, error) {
	if len(objectTypes) == 0 {
		return r.List(), nil
	}

	wanted := make(map[int]bool, len(objectTypes))
	for _, name := range objectTypes {
		i, ok := r.byType[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("object type %q: %w", name, domain.ErrNotFound)
		}
		wanted[i] = true
	}

	out := make([]domain.ObjectTypeSpec, 0, len(wanted))
	for i, spec := range r.specs {
		if wanted[i] {
			out = append(out, spec)
		}
	}
	return out, nil
}
