package esquery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db/driver"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string
	addrs      []string
	username   string
	password   string
	maxRetries int

	index          string
	dialect        Dialect
	maxLimit       int
	reloadInterval time.Duration

	recordAddrs    []string
	recordPassword string
	recordPrefix   string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch connects to an Elasticsearch cluster.
// Hosts without a port get :9200.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.Elasticsearch
		c.addrs = addrs
	})
}

// WithOpenSearch connects to an OpenSearch cluster.
func WithOpenSearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver.OpenSearch
		c.addrs = addrs
	})
}

// WithBasicAuth sets credentials for the search cluster.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithMaxRetries sets the transport retry count. Default: 3.
func WithMaxRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = n
	})
}

// WithIndex sets the index services use unless InIndex overrides it.
// Default: "default".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithDialect selects the query grammar. Default: Modern.
func WithDialect(d Dialect) Option {
	return optionFunc(func(c *clientConfig) {
		c.dialect = d
	})
}

// WithMaxLimit caps the page size. Default: DefaultMaxLimit.
func WithMaxLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxLimit = n
	})
}

// WithReloadInterval replaces the backend connection on a fixed interval.
// Zero (default) keeps the first connection for the client's lifetime.
func WithReloadInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.reloadInterval = d
	})
}

// WithRedisRecords loads hit records from Redis instead of the hit _source.
// Keys are <prefix><type>:<id>; an empty prefix selects "esquery:record:".
func WithRedisRecords(addr, password, prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordAddrs = []string{addr}
		c.recordPassword = password
		c.recordPrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// ServiceOption configures a search service bound to one document type.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	index    string
	strategy string
	field    string
	filters  map[string][]any
}

// InIndex overrides the client index for this service.
func InIndex(name string) ServiceOption {
	return func(c *serviceConfig) {
		c.index = name
	}
}

// TypeFilter scopes results with the engine's mapping-type filter. Modern
// has no mapping types, so Client.Service rejects it there.
func TypeFilter() ServiceOption {
	return func(c *serviceConfig) {
		c.strategy = "type_filter"
		c.field = ""
	}
}

// Discriminator scopes results with a term on field (default). An empty field selects "type".
func Discriminator(field string) ServiceOption {
	return func(c *serviceConfig) {
		c.strategy = "discriminator"
		c.field = field
	}
}

// WithFilters merges default filters into every builder the service creates.
func WithFilters(filters map[string][]any) ServiceOption {
	return func(c *serviceConfig) {
		c.filters = filters
	}
}
