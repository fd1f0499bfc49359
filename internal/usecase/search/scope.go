package search

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

// ScopeStrategy selects how results are restricted to one document type.
type ScopeStrategy string

const (
	// ScopeTypeFilter uses the engine's mapping-type filter. Only grammars
	// with mapping types support it.
	ScopeTypeFilter ScopeStrategy = "type_filter"
	// ScopeDiscriminator matches a term on a discriminator field.
	ScopeDiscriminator ScopeStrategy = "discriminator"
)

// ErrNoMappingTypes is returned by Scope.Validate for ScopeTypeFilter on a
// dialect without mapping types.
var ErrNoMappingTypes = errors.New("dialect has no mapping types")

// DefaultDiscriminatorField is the field ScopeDiscriminator matches when none is set.
const DefaultDiscriminatorField = "type"

// ParseStrategy resolves a strategy name. An empty name selects ScopeDiscriminator.
func ParseStrategy(name string) (ScopeStrategy, error) {
	switch ScopeStrategy(name) {
	case "", ScopeDiscriminator:
		return ScopeDiscriminator, nil
	case ScopeTypeFilter:
		return ScopeTypeFilter, nil
	default:
		return "", fmt.Errorf("unknown scope strategy %q", name)
	}
}

// Scope binds a service to an index and, optionally, a document type.
type Scope struct {
	Index    string
	Type     string // empty: no type filter is added
	Strategy ScopeStrategy
	Field    string // discriminator field, DefaultDiscriminatorField when empty
}

// Validate checks that d can express the scope's type filter.
func (s Scope) Validate(d dsl.Dialect) error {
	if s.Type == "" || s.Strategy != ScopeTypeFilter {
		return nil
	}
	if d.TypeFilter(s.Type) == nil {
		return fmt.Errorf("%w: %s cannot scope type %q with %s, use %s",
			ErrNoMappingTypes, d.Name(), s.Type, ScopeTypeFilter, ScopeDiscriminator)
	}
	return nil
}

// filter returns the type-scoping clause, or nil when the scope has no type.
func (s Scope) filter(d dsl.Dialect) dsl.Clause {
	if s.Type == "" {
		return nil
	}
	if s.Strategy == ScopeDiscriminator {
		field := s.Field
		if field == "" {
			field = DefaultDiscriminatorField
		}
		return dsl.Term(field, s.Type)
	}
	return d.TypeFilter(s.Type)
}
