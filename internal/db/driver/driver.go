// Package driver selects a search backend implementation by name.
package driver

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/elastic"
	"github.com/kailas-cloud/esquery/internal/db/handle"
	"github.com/kailas-cloud/esquery/internal/db/opensearch"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
)

// Supported driver names.
const (
	Elasticsearch = "elasticsearch"
	OpenSearch    = "opensearch"
)

// DefaultPort is appended to hosts given without one.
const DefaultPort = "9200"

// ErrUnsupportedDialect is returned by CheckDialect.
var ErrUnsupportedDialect = errors.New("query dialect not supported by driver")

// CheckDialect reports whether bodies rendered with d can run on the named
// driver. The legacy grammar needs an Elasticsearch 1.x cluster: the
// elasticsearch client refuses servers older than 7.14 and OpenSearch never
// accepted it.
func CheckDialect(driverName string, d dsl.Dialect) error {
	if driverName == "" {
		driverName = Elasticsearch
	}
	if d != nil && d.Name() == dsl.NameLegacy {
		return fmt.Errorf("%w: %s cannot run %q queries", ErrUnsupportedDialect, driverName, d.Name())
	}
	return nil
}

// Config holds the connection parameters shared by every driver.
type Config struct {
	Driver     string
	Addrs      []string
	Username   string
	Password   string
	MaxRetries int
}

// New connects a backend for cfg.Driver. An empty driver selects Elasticsearch.
func New(cfg Config) (db.Backend, error) {
	var (
		backend db.Backend
		err     error
	)
	switch cfg.Driver {
	case "", Elasticsearch:
		var s *elastic.Store
		s, err = elastic.NewStore(elastic.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			MaxRetries: cfg.MaxRetries,
		})
		backend = s
	case OpenSearch:
		var s *opensearch.Store
		s, err = opensearch.NewStore(opensearch.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			MaxRetries: cfg.MaxRetries,
		})
		backend = s
	default:
		return nil, fmt.Errorf("unknown search driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
	}
	return backend, nil
}

// Factory returns a handle.Factory that connects a fresh backend per call.
func Factory(cfg Config) handle.Factory {
	addrs := append([]string(nil), cfg.Addrs...)
	cfg.Addrs = addrs
	return func() (db.Backend, error) {
		return New(cfg)
	}
}

// NormalizeHosts adds a scheme and the default port where they are missing
// and drops blank entries.
func NormalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, normalizeHost(h))
		}
	}
	return out
}

func normalizeHost(h string) string {
	if !strings.Contains(h, "://") {
		h = "http://" + h
	}
	u, err := url.Parse(h)
	if err != nil || u.Host == "" {
		return h
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}
	return u.String()
}
