package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/esquery/internal/db"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

// --- Mocks ---

type fakeSearcher struct {
	resp    *db.SearchResponse
	count   int64
	err     error
	lastReq *db.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSearcher) Count(_ context.Context, req *db.SearchRequest) (int64, error) {
	f.lastReq = req
	return f.count, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestServer(t *testing.T, s *fakeSearcher, h HealthChecker) http.Handler {
	t.Helper()
	svc := searchuc.New(s, nil, searchuc.Scope{Index: "catalog", Type: "article"}, searchuc.Options{})
	srv := NewServer(map[string]TypeService{"article": svc}, h, nil)
	r := chi.NewRouter()
	srv.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestSearch_ReturnsReconciledPage(t *testing.T) {
	s := &fakeSearcher{resp: &db.SearchResponse{
		Total: 100,
		Hits: []db.Hit{
			{ID: "1", Score: 2, Source: json.RawMessage(`{"title":"a"}`)},
			{ID: "2", Score: 1, Source: json.RawMessage(`{"title":"b"}`)},
		},
	}}
	rr := do(t, newTestServer(t, s, nil), "/v1/types/article/search?q=go&limit=20&offset=0&index=secret")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Total   int64            `json:"total"`
		Limit   int              `json:"limit"`
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Two hits on an underfull page: the total clamps to offset + kept.
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if resp.Limit != 20 {
		t.Errorf("limit = %d, want 20", resp.Limit)
	}
	if len(resp.Results) != 2 || resp.Results[0]["id"] != "1" || resp.Results[0]["title"] != "a" {
		t.Errorf("results = %v", resp.Results)
	}
	if s.lastReq.Index != "catalog" {
		t.Errorf("index = %q, want catalog", s.lastReq.Index)
	}
}

func TestSearch_EmptyResultsIsArray(t *testing.T) {
	s := &fakeSearcher{resp: &db.SearchResponse{}}
	rr := do(t, newTestServer(t, s, nil), "/v1/types/article/search")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["results"]) != "[]" {
		t.Errorf("results = %s, want []", raw["results"])
	}
}

func TestSearch_UnknownType_404(t *testing.T) {
	rr := do(t, newTestServer(t, &fakeSearcher{}, nil), "/v1/types/nope/search")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeUnknownType {
		t.Errorf("code = %s, want %s", errResp.Code, CodeUnknownType)
	}
}

func TestSearch_BackendErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{
			"index missing",
			&db.Error{Op: db.OpSearch, Err: &db.ResponseError{Status: 404, Type: "index_not_found_exception"}},
			http.StatusNotFound, CodeIndexNotFound,
		},
		{
			"engine rejected",
			&db.Error{Op: db.OpSearch, Err: &db.ResponseError{Status: 400, Type: "parsing_exception"}},
			http.StatusBadGateway, CodeBackendError,
		},
		{
			"connection refused",
			&db.Error{Op: db.OpSearch, Err: errors.New("dial tcp: connection refused")},
			http.StatusServiceUnavailable, CodeBackendUnavailable,
		},
		{"no backend", db.ErrNoBackend, http.StatusServiceUnavailable, CodeBackendUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestServer(t, &fakeSearcher{err: tt.err}, nil), "/v1/types/article/search")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestCount(t *testing.T) {
	s := &fakeSearcher{count: 42}
	rr := do(t, newTestServer(t, s, nil), "/v1/types/article/count?q=go&limit=5&offset=10")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp CountResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 42 {
		t.Errorf("count = %d, want 42", resp.Count)
	}
	if s.lastReq.Body.From != nil || s.lastReq.Body.Size != nil || s.lastReq.Body.Sort != nil {
		t.Errorf("count request kept pagination or sort: %+v", s.lastReq.Body)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		status     healthuc.Status
		wantStatus int
	}{
		{"healthy", healthuc.Healthy, http.StatusOK},
		{"degraded", healthuc.Degraded, http.StatusOK},
		{"unhealthy", healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := fakeHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentSearch: healthuc.CheckOK},
			}}
			rr := do(t, newTestServer(t, &fakeSearcher{}, h), "/health")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("status = %q, want %q", resp.Status, tt.status)
			}
			if resp.Version.Version == "" {
				t.Error("version missing")
			}
		})
	}
}
