// Package elastic implements db.Backend on go-elasticsearch.
package elastic

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esquery/internal/db"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
}

// Store implements db.Backend via go-elasticsearch.
type Store struct {
	es        *elasticsearch.Client
	transport *http.Transport
}

// NewStore creates an Elasticsearch backend. Each store owns its transport
// so that closing it does not affect a store built to replace it.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, db.ErrNoHosts
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addrs,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
		Transport:  transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{es: es, transport: transport}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: responseError(res)}
	}
	return nil
}

// Search runs a _search request. Totals are always tracked exactly.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	body, err := req.Reader()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	opts := []func(*esapi.SearchRequest){
		s.es.Search.WithContext(ctx),
		s.es.Search.WithBody(body),
		s.es.Search.WithTrackTotalHits(true),
	}
	if req.Index != "" {
		opts = append(opts, s.es.Search.WithIndex(req.Index))
	}

	res, err := s.es.Search(opts...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: responseError(res)}
	}

	out, err := db.DecodeSearchResponse(res.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return out, nil
}

// Count runs a _count request with the query part of req.
func (s *Store) Count(ctx context.Context, req *db.SearchRequest) (int64, error) {
	body, err := req.ForCount().Reader()
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}

	opts := []func(*esapi.CountRequest){
		s.es.Count.WithContext(ctx),
		s.es.Count.WithBody(body),
	}
	if req.Index != "" {
		opts = append(opts, s.es.Count.WithIndex(req.Index))
	}

	res, err := s.es.Count(opts...)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	defer closeBody(res)
	if res.IsError() {
		return 0, &db.Error{Op: db.OpCount, Err: responseError(res)}
	}

	n, err := db.DecodeCount(res.Body)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// Close drops idle connections. Requests already in flight complete normally.
func (s *Store) Close() {
	s.transport.CloseIdleConnections()
}

func responseError(res *esapi.Response) error {
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s: read error body: %w", res.Status(), err)
	}
	return db.ParseResponseError(res.StatusCode, data)
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}
