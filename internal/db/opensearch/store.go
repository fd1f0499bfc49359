// Package opensearch implements db.Backend on opensearch-go.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/kailas-cloud/esquery/internal/db"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

// Config holds connection parameters for an OpenSearch cluster.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
}

// Store implements db.Backend via opensearch-go.
type Store struct {
	client    *opensearchapi.Client
	transport *http.Transport
}

// NewStore creates an OpenSearch backend with its own transport.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, db.ErrNoHosts
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:  cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Transport:  transport,
			MaxRetries: cfg.MaxRetries,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, transport: transport}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Info(ctx, nil); err != nil {
		return &db.Error{Op: db.OpPing, Err: convertError(err)}
	}
	return nil
}

// searchBody asks for exact totals past the default 10k cap.
type searchBody struct {
	db.Body
	TrackTotalHits bool `json:"track_total_hits"`
}

// Search runs a _search request.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	data, err := json.Marshal(searchBody{Body: req.Body, TrackTotalHits: true})
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("encode request body: %w", err)}
	}

	resp, err := s.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: indices(req.Index),
		Body:    bytes.NewReader(data),
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: convertError(err)}
	}

	out := &db.SearchResponse{
		Total: int64(resp.Hits.Total.Value),
		Hits:  make([]db.Hit, len(resp.Hits.Hits)),
	}
	for i, h := range resp.Hits.Hits {
		out.Hits[i] = db.Hit{ID: h.ID, Score: float64(h.Score), Source: h.Source}
	}
	return out, nil
}

// Count runs a _count request with the query part of req.
func (s *Store) Count(ctx context.Context, req *db.SearchRequest) (int64, error) {
	body, err := req.ForCount().Reader()
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}

	resp, err := s.client.Indices.Count(ctx, &opensearchapi.IndicesCountReq{
		Indices: indices(req.Index),
		Body:    body,
	})
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: convertError(err)}
	}
	return int64(resp.Count), nil
}

// Close drops idle connections. Requests already in flight complete normally.
func (s *Store) Close() {
	s.transport.CloseIdleConnections()
}

func indices(index string) []string {
	if index == "" {
		return nil
	}
	return []string{index}
}

// convertError maps structured OpenSearch errors onto db.ResponseError.
func convertError(err error) error {
	var se *opensearch.StructError
	if errors.As(err, &se) {
		return &db.ResponseError{Status: se.Status, Type: se.Err.Type, Reason: se.Err.Reason}
	}
	return err
}
