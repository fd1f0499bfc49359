package search

import (
	"context"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain/record"
)

// Searcher executes compiled requests against the search backend.
type Searcher interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error)
	Count(ctx context.Context, req *db.SearchRequest) (int64, error)
}

// RecordLoader loads domain records for hit ids. The result keeps the order
// of ids and omits ids that have no record.
type RecordLoader interface {
	LoadByIDs(ctx context.Context, docType string, ids []string) ([]record.Record, error)
}

// Formatter rewrites a loaded record before it is returned. Returning false
// drops the record from the page.
type Formatter func(ctx context.Context, rec record.Record) (record.Record, bool)
