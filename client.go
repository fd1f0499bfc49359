package esquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db/driver"
	"github.com/kailas-cloud/esquery/internal/db/handle"
	dbRedis "github.com/kailas-cloud/esquery/internal/db/redis"
	recordrepo "github.com/kailas-cloud/esquery/internal/repository/record"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultIndex            = "default"
	defaultMaxRetries       = 3
)

// Client is the esquery SDK entry point.
type Client struct {
	backends *handle.Handle
	records  *dbRedis.Store
	loader   searchuc.RecordLoader
	health   *healthuc.Service
	cfg      *clientConfig
	obs      *observer
	stop     context.CancelFunc
}

// New connects to the search cluster and, when configured, the record store.
// The provided context is used for the initial readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		index:      defaultIndex,
		dialect:    Modern,
		maxRetries: defaultMaxRetries,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	cfg.addrs = driver.NormalizeHosts(cfg.addrs)
	if len(cfg.addrs) == 0 {
		return nil, errors.New("esquery: search hosts required (use WithElasticsearch or WithOpenSearch)")
	}
	if err := driver.CheckDialect(cfg.driver, cfg.dialect); err != nil {
		return nil, fmt.Errorf("esquery: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backends, err := handle.New(driver.Factory(driver.Config{
		Driver:     cfg.driver,
		Addrs:      cfg.addrs,
		Username:   cfg.username,
		Password:   cfg.password,
		MaxRetries: cfg.maxRetries,
	}), cfg.reloadInterval, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("esquery: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, defaultReadinessTimeout)
	defer cancel()
	if err := backends.Ping(readyCtx); err != nil {
		backends.Close()
		return nil, fmt.Errorf("esquery: search backend not ready: %w", err)
	}

	c := &Client{backends: backends, cfg: cfg, obs: obs}
	if len(cfg.recordAddrs) > 0 {
		if err := c.connectRecords(ctx); err != nil {
			backends.Close()
			return nil, err
		}
	}

	if c.records != nil {
		c.health = healthuc.New(backends, c.records)
	} else {
		c.health = healthuc.New(backends, nil)
	}

	runCtx, stop := context.WithCancel(context.Background())
	c.stop = stop
	go backends.Run(runCtx)

	return c, nil
}

func (c *Client) connectRecords(ctx context.Context) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    c.cfg.recordAddrs,
		Password: c.cfg.recordPassword,
	})
	if err != nil {
		return fmt.Errorf("esquery: create record store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return fmt.Errorf("esquery: record store not ready: %w", err)
	}

	prefix := c.cfg.recordPrefix
	if prefix == "" {
		prefix = recordrepo.DefaultKeyPrefix
	}
	c.records = store
	c.loader = recordrepo.New(store, prefix)
	return nil
}

// Close stops backend replacement and releases all connections.
func (c *Client) Close() {
	if c.stop != nil {
		c.stop()
	}
	c.backends.Close()
	if c.records != nil {
		c.records.Close()
	}
}

// Ping checks search backend connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.backends.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Reload replaces the backend connection now. On failure the current one stays in use.
func (c *Client) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	return c.backends.Reload(ctx) //nolint:wrapcheck
}

// Service returns a search service bound to docType. An empty docType adds no
// type scoping.
func (c *Client) Service(docType string, opts ...ServiceOption) (*SearchService, error) {
	sc := &serviceConfig{index: c.cfg.index}
	for _, o := range opts {
		o(sc)
	}

	strategy, err := searchuc.ParseStrategy(sc.strategy)
	if err != nil {
		return nil, fmt.Errorf("esquery: %w", err)
	}

	scope := searchuc.Scope{
		Index:    sc.index,
		Type:     docType,
		Strategy: strategy,
		Field:    sc.field,
	}
	if err := scope.Validate(c.cfg.dialect); err != nil {
		return nil, fmt.Errorf("esquery: %w", err)
	}

	svc := searchuc.New(c.backends, c.loader, scope, searchuc.Options{
		Dialect:  c.cfg.dialect,
		MaxLimit: c.cfg.maxLimit,
		Filters:  sc.filters,
	})
	return &SearchService{svc: svc, obs: c.obs}, nil
}
