package db

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

func intPtr(n int) *int { return &n }

func TestBody_OmitsAbsentFields(t *testing.T) {
	req := &SearchRequest{Index: "idx", Body: Body{Query: dsl.MatchAll()}}
	r, err := req.Reader()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(r)
	if got := string(data); got != `{"query":{"match_all":{}}}` {
		t.Errorf("body = %s", got)
	}
}

func TestBody_FullEncoding(t *testing.T) {
	req := &SearchRequest{Index: "idx", Body: Body{
		Sort:  []dsl.Clause{dsl.ScoreSort()},
		Query: dsl.MatchAll(),
		From:  intPtr(0),
		Size:  intPtr(20),
	}}
	r, err := req.Reader()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(r)
	want := `{"sort":[{"_score":{"order":"desc"}}],"query":{"match_all":{}},"from":0,"size":20}`
	if string(data) != want {
		t.Errorf("body = %s\nwant   %s", data, want)
	}
}

func TestForCount_StripsPagination(t *testing.T) {
	req := &SearchRequest{Index: "idx", Body: Body{
		Sort:  []dsl.Clause{dsl.ScoreSort()},
		Query: dsl.MatchAll(),
		From:  intPtr(10),
		Size:  intPtr(5),
	}}
	c := req.ForCount()
	if c.Index != "idx" {
		t.Errorf("Index = %q", c.Index)
	}
	if c.Body.Sort != nil || c.Body.From != nil || c.Body.Size != nil {
		t.Errorf("count body kept pagination: %+v", c.Body)
	}
	if req.Body.Size == nil || *req.Body.Size != 5 {
		t.Error("original request mutated")
	}
}

func TestDecodeSearchResponse(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal int64
		wantIDs   []string
	}{
		{
			"object total",
			`{"hits":{"total":{"value":42,"relation":"eq"},"hits":[{"_id":"a","_score":1.5},{"_id":"b","_score":null}]}}`,
			42, []string{"a", "b"},
		},
		{
			"integer total",
			`{"took":3,"hits":{"total":7,"max_score":1,"hits":[{"_id":"x","_score":1,"_source":{"n":1}}]}}`,
			7, []string{"x"},
		},
		{"no hits", `{"hits":{"total":0,"hits":[]}}`, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeSearchResponse(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", resp.Total, tt.wantTotal)
			}
			ids := resp.IDs()
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("IDs() = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("IDs()[%d] = %q, want %q", i, ids[i], tt.wantIDs[i])
				}
			}
		})
	}
}

func TestDecodeSearchResponse_ScoreAndSource(t *testing.T) {
	resp, err := DecodeSearchResponse(strings.NewReader(
		`{"hits":{"total":1,"hits":[{"_id":"x","_score":2.5,"_source":{"name":"ann"}}]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := resp.Hits[0]
	if h.Score != 2.5 {
		t.Errorf("Score = %f", h.Score)
	}
	var src map[string]any
	if err := json.Unmarshal(h.Source, &src); err != nil || src["name"] != "ann" {
		t.Errorf("Source = %s (%v)", h.Source, err)
	}
}

func TestDecodeSearchResponse_Malformed(t *testing.T) {
	if _, err := DecodeSearchResponse(strings.NewReader(`{"hits":`)); err == nil {
		t.Fatal("expected error")
	}
	if _, err := DecodeSearchResponse(strings.NewReader(`{"hits":{"total":"many"}}`)); err == nil {
		t.Fatal("expected error for non-numeric total")
	}
}

func TestDecodeCount(t *testing.T) {
	n, err := DecodeCount(strings.NewReader(`{"count":12,"_shards":{"total":1}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("count = %d", n)
	}

	if _, err := DecodeCount(strings.NewReader(`{}`)); err == nil {
		t.Fatal("expected error for missing count")
	}
}
