// Package dsl holds the query DSL node type and the grammar dialects a
// compiled query can target.
package dsl

import "fmt"

// Clause is a single node of the backend query DSL.
type Clause map[string]any

// Dialect renders the boolean combinators whose shape differs between
// backend generations. Everything else (term, range, match_all,
// simple_query_string, has_child, has_parent) is shared.
type Dialect interface {
	// Name returns the configuration name of the dialect.
	Name() string
	// Or matches when any of terms matches.
	Or(terms []Clause) Clause
	// And matches when all of terms match.
	And(terms []Clause) Clause
	// Not negates inner.
	Not(inner Clause) Clause
	// Missing matches documents without field.
	Missing(field string) Clause
	// Exists matches documents with field.
	Exists(field string) Clause
	// TypeFilter restricts results to a mapping type. It returns nil when
	// the grammar has no mapping types.
	TypeFilter(docType string) Clause
	// Wrap combines scoring queries with non-scoring filters.
	Wrap(queries, filters []Clause) Clause
}

// Dialect names accepted by Parse.
const (
	NameLegacy = "legacy"
	NameModern = "modern"
)

var (
	// Legacy targets the 1.x grammar: or/and/not/missing filters and the filtered query.
	Legacy Dialect = legacy{}
	// Modern targets 5.x+ and OpenSearch, where every combinator is a bool query.
	Modern Dialect = modern{}
)

// Parse resolves a dialect by name. An empty name selects Modern.
func Parse(name string) (Dialect, error) {
	switch name {
	case "", NameModern:
		return Modern, nil
	case NameLegacy:
		return Legacy, nil
	default:
		return nil, fmt.Errorf("unknown query dialect %q", name)
	}
}

// Term is an exact value match.
func Term(field string, value any) Clause {
	return Clause{"term": Clause{field: value}}
}

// Range wraps a backend-native range body, e.g. {"age": {"gte": 18}}.
func Range(spec Clause) Clause {
	return Clause{"range": spec}
}

// MatchAll matches every document.
func MatchAll() Clause {
	return Clause{"match_all": Clause{}}
}

// SimpleQueryString runs a simple_query_string over fields.
func SimpleQueryString(text string, fields []string) Clause {
	return Clause{"simple_query_string": Clause{
		"query":  text,
		"fields": append([]string(nil), fields...),
	}}
}

// HasChild scopes query to children of the given type.
func HasChild(childType string, query Clause) Clause {
	return Clause{"has_child": Clause{"type": childType, "query": query}}
}

// HasParent scopes query to parents of the given type.
func HasParent(parentType string, query Clause) Clause {
	return Clause{"has_parent": Clause{"parent_type": parentType, "query": query}}
}

// Should is a bool query that matches when any clause matches.
func Should(clauses []Clause) Clause {
	return Clause{"bool": Clause{"should": clauses}}
}

// SortDesc sorts field in descending order.
func SortDesc(field string) Clause {
	return Clause{field: Clause{"order": "desc"}}
}

// SortAsc sorts field in ascending order.
func SortAsc(field string) Clause {
	return Clause{field: Clause{"order": "asc"}}
}

// ScoreSort is the relevance tiebreaker appended after every explicit sort.
func ScoreSort() Clause {
	return SortDesc("_score")
}

type legacy struct{}

func (legacy) Name() string { return NameLegacy }

func (legacy) Or(terms []Clause) Clause { return Clause{"or": terms} }

func (legacy) And(terms []Clause) Clause { return Clause{"and": terms} }

func (legacy) Not(inner Clause) Clause { return Clause{"not": inner} }

func (legacy) Missing(field string) Clause {
	return Clause{"missing": Clause{"field": field}}
}

func (legacy) Exists(field string) Clause {
	return Clause{"exists": Clause{"field": field}}
}

func (legacy) TypeFilter(docType string) Clause {
	return Clause{"type": Clause{"value": docType}}
}

func (legacy) Wrap(queries, filters []Clause) Clause {
	queries, filters = nonNil(queries), nonNil(filters)
	return Clause{"filtered": Clause{
		"query":  Clause{"bool": Clause{"must": queries}},
		"filter": Clause{"bool": Clause{"must": filters}},
	}}
}

type modern struct{}

func (modern) Name() string { return NameModern }

func (modern) Or(terms []Clause) Clause {
	return Clause{"bool": Clause{"should": terms, "minimum_should_match": 1}}
}

func (modern) And(terms []Clause) Clause {
	return Clause{"bool": Clause{"must": terms}}
}

func (modern) Not(inner Clause) Clause {
	return Clause{"bool": Clause{"must_not": []Clause{inner}}}
}

func (m modern) Missing(field string) Clause {
	return m.Not(m.Exists(field))
}

func (modern) Exists(field string) Clause {
	return Clause{"exists": Clause{"field": field}}
}

// TypeFilter returns nil: 7.x indexes a single _doc type and 8.x and
// OpenSearch 2 dropped _type altogether.
func (modern) TypeFilter(string) Clause {
	return nil
}

func (modern) Wrap(queries, filters []Clause) Clause {
	queries, filters = nonNil(queries), nonNil(filters)
	return Clause{"bool": Clause{
		"must":   queries,
		"filter": Clause{"bool": Clause{"must": filters}},
	}}
}

// nonNil keeps empty clause lists encoded as [] rather than null.
func nonNil(clauses []Clause) []Clause {
	if clauses == nil {
		return []Clause{}
	}
	return clauses
}
