// Package result reconciles backend hit totals with the records that survive
// client-side compaction.
package result

import "github.com/kailas-cloud/esquery/internal/domain/record"

// Result is one page of search output.
type Result struct {
	total   int64
	records []record.Record
}

// New creates a result without reconciliation.
func New(total int64, records []record.Record) Result {
	return Result{total: total, records: records}
}

// Total returns the reconciled number of matching records.
func (r *Result) Total() int64 { return r.total }

// Records returns the page in backend order.
func (r *Result) Records() []record.Record { return r.records }

// Reconcile adjusts rawTotal for records dropped within the current page.
//
// hits is the number of hits the backend returned, loaded the number of
// records found for them before formatting and kept the survivors. Only
// formatter drops (loaded - len(kept)) are subtracted. When the backend page
// was not full the total cannot exceed what has been observed so far
// (kept + offset). The total never drops below len(kept) and kept is
// truncated to limit.
func Reconcile(rawTotal int64, hits, loaded int, kept []record.Record, limit, offset int) Result {
	adjusted := rawTotal - int64(loaded-len(kept))

	if len(kept) > limit {
		kept = kept[:max(limit, 0)]
	}
	n := int64(len(kept))

	if hits < limit && adjusted > n+int64(offset) {
		adjusted = n + int64(offset)
	}
	if adjusted < n {
		adjusted = n
	}
	return Result{total: adjusted, records: kept}
}
