// Package query accumulates search criteria and compiles them into an
// intermediate representation that knows nothing about indexes or document types.
package query

import (
	"sort"

	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

// Search text and field defaults.
const (
	Wildcard         = "*"
	AllFields        = "_all"
	DefaultSortField = "doc.created_at"
)

// DefaultSort orders by creation time, newest first.
func DefaultSort() []dsl.Clause {
	return []dsl.Clause{dsl.SortDesc(DefaultSortField)}
}

// Kind tags each filter group. Build emits groups in Kind order.
type Kind int

const (
	// KindEquality is one OR-group per field, AND-ed together.
	KindEquality Kind = iota
	// KindOr is a single OR-group across all fields.
	KindOr
	// KindAnd is a single AND-group across all fields.
	KindAnd
	// KindRange is one passthrough range clause per Range call.
	KindRange
	// KindNot is one negated OR-group per field.
	KindNot
	// KindMissing asserts a field is absent.
	KindMissing
	// KindExists asserts a field is present.
	KindExists
	// KindRaw is a prebuilt clause appended verbatim.
	KindRaw
)

var kindNames = [...]string{
	KindEquality: "equality",
	KindOr:       "or",
	KindAnd:      "and",
	KindRange:    "range",
	KindNot:      "not",
	KindMissing:  "missing",
	KindExists:   "exists",
	KindRaw:      "raw",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// compilers is the dispatch table; its index order is the clause order.
var compilers = [...]func(*Builder) []dsl.Clause{
	KindEquality: (*Builder).compileEquality,
	KindOr:       (*Builder).compileOr,
	KindAnd:      (*Builder).compileAnd,
	KindRange:    (*Builder).compileRange,
	KindNot:      (*Builder).compileNot,
	KindMissing:  (*Builder).compileMissing,
	KindExists:   (*Builder).compileExists,
	KindRaw:      (*Builder).compileRaw,
}

// Compiled is the output of Build. It is never touched by the Builder again.
type Compiled struct {
	Query   dsl.Clause
	Filters []dsl.Clause
	Offset  int
	Limit   int
	Sort    []dsl.Clause // nil when no sort applies
}

// Options configure a Builder at construction time.
type Options struct {
	Dialect  dsl.Dialect // nil selects dsl.Modern
	MaxLimit int         // <= 0 selects DefaultMaxLimit
}

// Builder accumulates search criteria for one logical query.
// Methods mutate the receiver and return it; a Builder is not safe for concurrent use.
//
// Filter, OrFilter, AndFilter and Not replace the value list of a field that
// was already set instead of merging into it.
type Builder struct {
	dialect dsl.Dialect

	searchText string
	fields     []string

	equality fieldValues
	or       fieldValues
	and      fieldValues
	not      fieldValues
	ranges   []dsl.Clause
	missing  fieldSet
	exists   fieldSet
	raw      []dsl.Clause

	hasChild  string
	hasParent string

	sort     []dsl.Clause
	limit    int
	offset   int
	maxLimit int
}

// New creates a Builder from caller input. Limit is clamped to [0, MaxLimit]
// and offset to [0, MaxOffset]; negative values become 0.
func New(p Params, opts Options) *Builder {
	d := opts.Dialect
	if d == nil {
		d = dsl.Modern
	}
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	b := &Builder{
		dialect:  d,
		fields:   []string{AllFields},
		maxLimit: maxLimit,
	}
	return b.SetLimit(p.Limit).SetOffset(p.Offset).SetSearchText(p.Text)
}

// SetLimit replaces the page size, clamped the same way New clamps it.
func (b *Builder) SetLimit(n int) *Builder {
	b.limit = clamp(n, 0, b.maxLimit)
	return b
}

// SetOffset replaces the page offset, clamped to [0, MaxOffset].
func (b *Builder) SetOffset(n int) *Builder {
	b.offset = clamp(n, 0, MaxOffset)
	return b
}

// Dialect returns the grammar the builder compiles to.
func (b *Builder) Dialect() dsl.Dialect { return b.dialect }

// Limit returns the clamped page size.
func (b *Builder) Limit() int { return b.limit }

// Offset returns the clamped page offset.
func (b *Builder) Offset() int { return b.offset }

// SearchText returns the effective search text including the trailing wildcard.
func (b *Builder) SearchText() string { return b.searchText }

// Fields returns the fields searched by the text query.
func (b *Builder) Fields() []string { return append([]string(nil), b.fields...) }

// SetSearchText stores raw followed by a wildcard. Empty raw disables text search.
func (b *Builder) SetSearchText(raw string) *Builder {
	b.searchText = raw + Wildcard
	return b
}

// AddSearchField prepends field to the searched fields. Duplicates are kept.
func (b *Builder) AddSearchField(field string) *Builder {
	b.fields = append([]string{field}, b.fields...)
	return b
}

// Filter requires field to equal one of values. A nil value matches a missing field.
func (b *Builder) Filter(field string, values ...any) *Builder {
	b.equality.set(field, values)
	return b
}

// FilterMap calls Filter for every key of filters in lexical key order.
func (b *Builder) FilterMap(filters map[string][]any) *Builder {
	b.equality.setMap(filters)
	return b
}

// OrFilter adds values to a single group in which any field/value may match.
func (b *Builder) OrFilter(field string, values ...any) *Builder {
	b.or.set(field, values)
	return b
}

// OrFilterMap calls OrFilter for every key of filters in lexical key order.
func (b *Builder) OrFilterMap(filters map[string][]any) *Builder {
	b.or.setMap(filters)
	return b
}

// AndFilter adds values to a single group in which every field/value must match.
func (b *Builder) AndFilter(field string, values ...any) *Builder {
	b.and.set(field, values)
	return b
}

// AndFilterMap calls AndFilter for every key of filters in lexical key order.
func (b *Builder) AndFilterMap(filters map[string][]any) *Builder {
	b.and.setMap(filters)
	return b
}

// Not excludes documents where field equals any of values.
func (b *Builder) Not(field string, values ...any) *Builder {
	b.not.set(field, values)
	return b
}

// NotMap calls Not for every key of filters in lexical key order.
func (b *Builder) NotMap(filters map[string][]any) *Builder {
	b.not.setMap(filters)
	return b
}

// Range adds a backend-native range body such as {"age": {"gte": 18}}.
func (b *Builder) Range(spec dsl.Clause) *Builder {
	b.ranges = append(b.ranges, spec)
	return b
}

// Missing requires each field to be absent.
func (b *Builder) Missing(fields ...string) *Builder {
	b.missing.add(fields)
	return b
}

// Exists requires each field to be present.
func (b *Builder) Exists(fields ...string) *Builder {
	b.exists.add(fields)
	return b
}

// RawFilter appends a prebuilt filter after all structured filters.
func (b *Builder) RawFilter(clause dsl.Clause) *Builder {
	b.raw = append(b.raw, clause)
	return b
}

// HasChild also matches documents whose children of childType match the text.
func (b *Builder) HasChild(childType string) *Builder {
	b.hasChild = childType
	return b
}

// HasParent also matches documents whose parent of parentType matches the text.
func (b *Builder) HasParent(parentType string) *Builder {
	b.hasParent = parentType
	return b
}

// SetSort replaces the sort order.
func (b *Builder) SetSort(specs ...dsl.Clause) *Builder {
	b.sort = append([]dsl.Clause{}, specs...)
	return b
}

// Build compiles the current state. It has no side effects, so repeated
// calls without mutation return equal values.
func (b *Builder) Build() Compiled {
	filters := make([]dsl.Clause, 0)
	for _, compile := range compilers {
		filters = append(filters, compile(b)...)
	}

	c := Compiled{
		Filters: filters,
		Offset:  b.offset,
		Limit:   b.limit,
	}
	if b.sort != nil {
		c.Sort = append([]dsl.Clause{}, b.sort...)
	}

	if len(b.searchText) > 1 {
		c.Query = b.textQuery()
		return c
	}

	c.Query = dsl.MatchAll()
	if c.Sort == nil {
		c.Sort = DefaultSort()
	}
	return c
}

func (b *Builder) textQuery() dsl.Clause {
	text := func() dsl.Clause { return dsl.SimpleQueryString(b.searchText, b.fields) }
	if b.hasChild == "" && b.hasParent == "" {
		return text()
	}

	should := []dsl.Clause{text()}
	if b.hasChild != "" {
		should = append(should, dsl.HasChild(b.hasChild, text()))
	}
	if b.hasParent != "" {
		should = append(should, dsl.HasParent(b.hasParent, text()))
	}
	return dsl.Should(should)
}

func (b *Builder) terms(field string, values []any) []dsl.Clause {
	out := make([]dsl.Clause, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, b.dialect.Missing(field))
			continue
		}
		out = append(out, dsl.Term(field, v))
	}
	return out
}

func (b *Builder) compileEquality() []dsl.Clause {
	var out []dsl.Clause
	b.equality.each(func(field string, values []any) {
		if terms := b.terms(field, values); len(terms) > 0 {
			out = append(out, b.dialect.Or(terms))
		}
	})
	return out
}

func (b *Builder) compileOr() []dsl.Clause {
	var terms []dsl.Clause
	b.or.each(func(field string, values []any) {
		terms = append(terms, b.terms(field, values)...)
	})
	if len(terms) == 0 {
		return nil
	}
	return []dsl.Clause{b.dialect.Or(terms)}
}

func (b *Builder) compileAnd() []dsl.Clause {
	var terms []dsl.Clause
	b.and.each(func(field string, values []any) {
		terms = append(terms, b.terms(field, values)...)
	})
	if len(terms) == 0 {
		return nil
	}
	return []dsl.Clause{b.dialect.And(terms)}
}

func (b *Builder) compileRange() []dsl.Clause {
	out := make([]dsl.Clause, 0, len(b.ranges))
	for _, spec := range b.ranges {
		out = append(out, dsl.Range(spec))
	}
	return out
}

func (b *Builder) compileNot() []dsl.Clause {
	var out []dsl.Clause
	b.not.each(func(field string, values []any) {
		if terms := b.terms(field, values); len(terms) > 0 {
			out = append(out, b.dialect.Not(b.dialect.Or(terms)))
		}
	})
	return out
}

func (b *Builder) compileMissing() []dsl.Clause {
	out := make([]dsl.Clause, 0, len(b.missing.keys))
	for _, field := range b.missing.keys {
		out = append(out, b.dialect.Missing(field))
	}
	return out
}

func (b *Builder) compileExists() []dsl.Clause {
	out := make([]dsl.Clause, 0, len(b.exists.keys))
	for _, field := range b.exists.keys {
		out = append(out, b.dialect.Exists(field))
	}
	return out
}

func (b *Builder) compileRaw() []dsl.Clause {
	return append([]dsl.Clause(nil), b.raw...)
}

// fieldValues maps fields to value lists, remembering first-insertion order.
type fieldValues struct {
	keys   []string
	values map[string][]any
}

func (f *fieldValues) set(field string, values []any) {
	if f.values == nil {
		f.values = make(map[string][]any)
	}
	if _, ok := f.values[field]; !ok {
		f.keys = append(f.keys, field)
	}
	f.values[field] = append([]any(nil), values...)
}

func (f *fieldValues) setMap(m map[string][]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.set(k, m[k])
	}
}

func (f *fieldValues) each(fn func(field string, values []any)) {
	for _, k := range f.keys {
		fn(k, f.values[k])
	}
}

// fieldSet is an insertion-ordered set of field names.
type fieldSet struct {
	keys []string
	seen map[string]struct{}
}

func (s *fieldSet) add(fields []string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, f := range fields {
		if _, ok := s.seen[f]; ok {
			continue
		}
		s.seen[f] = struct{}{}
		s.keys = append(s.keys, f)
	}
}
