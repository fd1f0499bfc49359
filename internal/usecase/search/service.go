package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain/record"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
	"github.com/kailas-cloud/esquery/internal/domain/search/query"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
)

// Options tune a Service. Zero values select defaults.
type Options struct {
	Dialect  dsl.Dialect
	MaxLimit int
	// Filters are merged into every builder created by Query.
	Filters map[string][]any
}

// Service compiles builders for one scope, runs them and reconciles totals.
type Service struct {
	searcher Searcher
	loader   RecordLoader
	scope    Scope
	opts     Options
}

// New creates a search service. loader may be nil, in which case records are
// built from the hit _source.
func New(searcher Searcher, loader RecordLoader, scope Scope, opts Options) *Service {
	if opts.Dialect == nil {
		opts.Dialect = dsl.Modern
	}
	if scope.Strategy == "" {
		scope.Strategy = ScopeDiscriminator
	}
	return &Service{searcher: searcher, loader: loader, scope: scope, opts: opts}
}

// Scope returns the index and type the service is bound to.
func (s *Service) Scope() Scope { return s.scope }

// NewQuery starts a builder from typed parameters.
func (s *Service) NewQuery(p query.Params) *query.Builder {
	b := query.New(p, query.Options{Dialect: s.opts.Dialect, MaxLimit: s.opts.MaxLimit})
	if len(s.opts.Filters) > 0 {
		b.FilterMap(s.opts.Filters)
	}
	return b
}

// Query starts a builder from untyped caller input. Only q, limit and offset
// are read from params; filters are merged after the configured defaults.
func (s *Service) Query(params url.Values, filters map[string][]any) *query.Builder {
	b := s.NewQuery(query.ParseParams(params))
	if len(filters) > 0 {
		b.FilterMap(filters)
	}
	return b
}

// GenerateBody compiles b into the wire request: relevance breaks sort ties,
// the scope filter goes first and filters never affect scoring.
func (s *Service) GenerateBody(b *query.Builder) *db.SearchRequest {
	c := b.Build()
	d := b.Dialect()

	sort := make([]dsl.Clause, 0, len(c.Sort)+1)
	sort = append(sort, c.Sort...)
	sort = append(sort, dsl.ScoreSort())

	filters := make([]dsl.Clause, 0, len(c.Filters)+1)
	if f := s.scope.filter(d); f != nil {
		filters = append(filters, f)
	}
	filters = append(filters, c.Filters...)

	from, size := c.Offset, c.Limit
	return &db.SearchRequest{
		Index: s.scope.Index,
		Body: db.Body{
			Sort:  sort,
			Query: d.Wrap([]dsl.Clause{c.Query}, filters),
			From:  &from,
			Size:  &size,
		},
	}
}

// Search runs b, loads records for the hits, applies formatter and
// reconciles the total. formatter may be nil.
func (s *Service) Search(ctx context.Context, b *query.Builder, formatter Formatter) (result.Result, error) {
	log := logger.FromContext(ctx).With(zap.String("type", s.scope.Type), zap.String("index", s.scope.Index))
	req := s.GenerateBody(b)

	start := time.Now()
	resp, err := s.searcher.Search(ctx, req)
	metrics.ObserveBackend(db.OpSearch, start, err)
	if err != nil {
		log.Warn("search failed", zap.Error(err))
		return result.Result{}, fmt.Errorf("search %s: %w", s.scope.Type, err)
	}

	loaded, err := s.load(ctx, resp)
	if err != nil {
		return result.Result{}, err
	}

	kept := loaded
	if formatter != nil {
		kept = make([]record.Record, 0, len(loaded))
		for _, rec := range loaded {
			if out, ok := formatter(ctx, rec); ok {
				kept = append(kept, out)
			}
		}
	}

	if dropped := len(resp.Hits) - len(kept); dropped > 0 {
		metrics.SearchDroppedRecordsTotal.WithLabelValues(s.scope.Type).Add(float64(dropped))
		log.Debug("records dropped from page",
			zap.Int("hits", len(resp.Hits)), zap.Int("loaded", len(loaded)), zap.Int("kept", len(kept)))
	}

	return result.Reconcile(resp.Total, len(resp.Hits), len(loaded), kept, b.Limit(), b.Offset()), nil
}

// Count runs b without sort or pagination and returns the backend count as is.
func (s *Service) Count(ctx context.Context, b *query.Builder) (int64, error) {
	req := s.GenerateBody(b).ForCount()

	start := time.Now()
	n, err := s.searcher.Count(ctx, req)
	metrics.ObserveBackend(db.OpCount, start, err)
	if err != nil {
		logger.FromContext(ctx).Warn("count failed", zap.String("type", s.scope.Type), zap.Error(err))
		return 0, fmt.Errorf("count %s: %w", s.scope.Type, err)
	}
	return n, nil
}

func (s *Service) load(ctx context.Context, resp *db.SearchResponse) ([]record.Record, error) {
	if len(resp.Hits) == 0 {
		return nil, nil
	}
	if s.loader == nil {
		return recordsFromSource(s.scope.Type, resp.Hits)
	}

	scores := make(map[string]float64, len(resp.Hits))
	for _, h := range resp.Hits {
		scores[h.ID] = h.Score
	}
	recs, err := s.loader.LoadByIDs(ctx, s.scope.Type, resp.IDs())
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	for i := range recs {
		recs[i] = recs[i].WithScore(scores[recs[i].ID()])
	}
	return recs, nil
}

func recordsFromSource(docType string, hits []db.Hit) ([]record.Record, error) {
	out := make([]record.Record, 0, len(hits))
	for _, h := range hits {
		var fields map[string]any
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &fields); err != nil {
				return nil, fmt.Errorf("decode _source of %s: %w", h.ID, err)
			}
		}
		out = append(out, record.Reconstruct(h.ID, docType, h.Score, fields))
	}
	return out, nil
}
