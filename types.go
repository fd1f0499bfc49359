package esquery

import (
	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain/record"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
	"github.com/kailas-cloud/esquery/internal/domain/search/query"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

type (
	// Builder accumulates one search request. Not safe for concurrent use.
	Builder = query.Builder
	// Params is the untrusted text/limit/offset input a Builder starts from.
	Params = query.Params
	// Clause is one node of the compiled query DSL.
	Clause = dsl.Clause
	// Dialect selects the query grammar generation.
	Dialect = dsl.Dialect
	// Record is a loaded domain record.
	Record = record.Record
	// Result is a reconciled page of records.
	Result = result.Result
	// Formatter rewrites or drops a record before it is returned.
	Formatter = searchuc.Formatter
	// Request is the compiled wire request sent to the engine.
	Request = db.SearchRequest
)

// Query dialects. Legacy renders the Elasticsearch 1.x grammar; neither
// driver can reach such a cluster, so New rejects it.
var (
	Legacy = dsl.Legacy
	Modern = dsl.Modern
)

// Pagination limits applied to every Builder.
const (
	DefaultLimit    = query.DefaultLimit
	DefaultMaxLimit = query.DefaultMaxLimit
	MaxOffset       = query.MaxOffset
)

// ParseParams reads q, limit and offset from untyped input.
var ParseParams = query.ParseParams
