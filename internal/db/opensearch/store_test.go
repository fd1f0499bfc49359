package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

type recorded struct {
	path string
	body map[string]any
}

func newTestServer(t *testing.T, status int, reply string, got *recorded) *Store {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &got.body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{Addrs: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func size(n int) *int { return &n }

func searchRequest() *db.SearchRequest {
	return &db.SearchRequest{Index: "people", Body: db.Body{
		Sort:  []dsl.Clause{dsl.ScoreSort()},
		Query: dsl.MatchAll(),
		From:  size(20),
		Size:  size(10),
	}}
}

func TestNewStore_NoHosts(t *testing.T) {
	if _, err := NewStore(Config{}); !errors.Is(err, db.ErrNoHosts) {
		t.Fatalf("err = %v, want ErrNoHosts", err)
	}
}

func TestSearch_Success(t *testing.T) {
	var got recorded
	s := newTestServer(t, http.StatusOK, `{
		"took":1,"timed_out":false,
		"_shards":{"total":1,"successful":1,"skipped":0,"failed":0},
		"hits":{"total":{"value":31,"relation":"eq"},"max_score":1.0,
			"hits":[{"_index":"people","_id":"p1","_score":1.0,"_source":{"name":"ann"}}]}
	}`, &got)

	resp, err := s.Search(context.Background(), searchRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.path != "/people/_search" {
		t.Errorf("path = %q", got.path)
	}
	if got.body["track_total_hits"] != true {
		t.Errorf("track_total_hits = %v", got.body["track_total_hits"])
	}
	if got.body["from"] != float64(20) || got.body["size"] != float64(10) {
		t.Errorf("pagination = %v/%v", got.body["from"], got.body["size"])
	}
	if resp.Total != 31 {
		t.Errorf("Total = %d", resp.Total)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].ID != "p1" || resp.Hits[0].Score != 1 {
		t.Errorf("Hits = %+v", resp.Hits)
	}
}

func TestSearch_StructuredError(t *testing.T) {
	s := newTestServer(t, http.StatusBadRequest, `{
		"error":{"root_cause":[{"type":"parsing_exception","reason":"bad query"}],
			"type":"parsing_exception","reason":"bad query"},
		"status":400
	}`, nil)

	_, err := s.Search(context.Background(), searchRequest())
	var re *db.ResponseError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want ResponseError", err)
	}
	if re.Status != http.StatusBadRequest || re.Type != "parsing_exception" || re.Reason != "bad query" {
		t.Errorf("ResponseError = %+v", re)
	}
}

func TestCount(t *testing.T) {
	var got recorded
	s := newTestServer(t, http.StatusOK,
		`{"count":9,"_shards":{"total":1,"successful":1,"skipped":0,"failed":0}}`, &got)

	n, err := s.Count(context.Background(), searchRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 9 {
		t.Errorf("count = %d", n)
	}
	if got.path != "/people/_count" {
		t.Errorf("path = %q", got.path)
	}
	for _, key := range []string{"sort", "from", "size"} {
		if _, ok := got.body[key]; ok {
			t.Errorf("count body carries %q", key)
		}
	}
}

func TestPing(t *testing.T) {
	s := newTestServer(t, http.StatusOK,
		`{"name":"n1","cluster_name":"c","cluster_uuid":"u","version":{"distribution":"opensearch","number":"2.11.0"},"tagline":"The OpenSearch Project"}`,
		nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
