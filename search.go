package esquery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

// searchUseCase is the internal interface for search operations.
type searchUseCase interface {
	NewQuery(p Params) *Builder
	Query(params url.Values, filters map[string][]any) *Builder
	GenerateBody(b *Builder) *Request
	Search(ctx context.Context, b *Builder, formatter searchuc.Formatter) (Result, error)
	Count(ctx context.Context, b *Builder) (int64, error)
}

// SearchService runs queries for one document type.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// NewQuery starts a builder from typed parameters. Limit and offset are clamped.
func (s *SearchService) NewQuery(p Params) *Builder {
	return s.svc.NewQuery(p)
}

// Query starts a builder from untrusted input. Only q, limit and offset are read.
func (s *SearchService) Query(params url.Values, filters map[string][]any) *Builder {
	return s.svc.Query(params, filters)
}

// Body returns the wire request b compiles to without sending it.
func (s *SearchService) Body(b *Builder) *Request {
	return s.svc.GenerateBody(b)
}

// Search runs b and returns the page with a reconciled total. formatter may be nil.
func (s *SearchService) Search(ctx context.Context, b *Builder, formatter Formatter) (res Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	res, err = s.svc.Search(ctx, b, formatter)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// Count returns the number of documents b matches, ignoring pagination.
func (s *SearchService) Count(ctx context.Context, b *Builder) (n int64, err error) {
	start := time.Now()
	defer func() { s.obs.observe("count", start, err) }()

	n, err = s.svc.Count(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
