package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the record store is failing; searches fall back to errors per request.
	Degraded Status = "degraded"
	// Unhealthy indicates the search backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentSearch  = "search"
	ComponentRecords = "records"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search  Pinger
	records Pinger
}

// New creates a Service. records can be nil when hits are served from _source.
func New(search, records Pinger) *Service {
	return &Service{search: search, records: records}
}

// Check pings the search backend and, when configured, the record store.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentSearch: probe(ctx, s.search)}
	if s.records != nil {
		checks[ComponentRecords] = probe(ctx, s.records)
	}

	status := Healthy
	switch {
	case checks[ComponentSearch] == CheckError:
		status = Unhealthy
	case checks[ComponentRecords] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
