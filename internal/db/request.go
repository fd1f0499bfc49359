package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

// SearchRequest is the wire request for one search or count.
type SearchRequest struct {
	Index string
	Body  Body
}

// Body is the JSON request body. Absent fields are omitted.
type Body struct {
	Sort  []dsl.Clause `json:"sort,omitempty"`
	Query dsl.Clause   `json:"query"`
	From  *int         `json:"from,omitempty"`
	Size  *int         `json:"size,omitempty"`
}

// ForCount returns a copy without sort and pagination, as _count rejects them.
func (r *SearchRequest) ForCount() *SearchRequest {
	return &SearchRequest{Index: r.Index, Body: Body{Query: r.Body.Query}}
}

// Reader encodes the body for a transport call.
func (r *SearchRequest) Reader() (io.Reader, error) {
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// SearchResponse is the decoded part of a search reply.
type SearchResponse struct {
	Total int64
	Hits  []Hit
}

// Hit is a single matching document.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// IDs returns hit ids in backend order.
func (r *SearchResponse) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// total accepts both the pre-7.x integer and the {"value": n} object form.
type total int64

func (t *total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*t = total(obj.Value)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = total(n)
	return nil
}

type searchEnvelope struct {
	Hits struct {
		Total total `json:"total"`
		Hits  []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// DecodeSearchResponse parses a _search reply body.
func DecodeSearchResponse(r io.Reader) (*SearchResponse, error) {
	var env searchEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := &SearchResponse{
		Total: int64(env.Hits.Total),
		Hits:  make([]Hit, len(env.Hits.Hits)),
	}
	for i, h := range env.Hits.Hits {
		out.Hits[i] = Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			out.Hits[i].Score = *h.Score
		}
	}
	return out, nil
}

// DecodeCount parses a _count reply body.
func DecodeCount(r io.Reader) (int64, error) {
	var env struct {
		Count *int64 `json:"count"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	if env.Count == nil {
		return 0, fmt.Errorf("decode count response: missing count")
	}
	return *env.Count, nil
}
