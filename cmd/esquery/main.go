package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/config"
	"github.com/kailas-cloud/esquery/internal/db/driver"
	"github.com/kailas-cloud/esquery/internal/db/handle"
	dbRedis "github.com/kailas-cloud/esquery/internal/db/redis"
	"github.com/kailas-cloud/esquery/internal/domain/search/dsl"
	logpkg "github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
	recordrepo "github.com/kailas-cloud/esquery/internal/repository/record"
	chiTransport "github.com/kailas-cloud/esquery/internal/transport/chi"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esquery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_driver", cfg.Search.Driver),
		zap.Strings("search_hosts", cfg.Search.Hosts),
		zap.String("default_index", cfg.Search.DefaultIndex),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Process-wide backend handle, replaced on reload_interval_sec
	backends, err := handle.New(driver.Factory(driver.Config{
		Driver:     cfg.Search.Driver,
		Addrs:      cfg.Search.Hosts,
		Username:   cfg.Search.Username,
		Password:   cfg.Search.Password,
		MaxRetries: cfg.Search.MaxRetries,
	}), time.Duration(cfg.Search.ReloadIntervalSec)*time.Second, logger)
	if err != nil {
		logger.Fatal("Failed to create search backend", zap.Error(err))
	}
	defer backends.Close()
	go backends.Run(ctx)

	// Optional record store: without it hits are served from _source
	var (
		loader  searchuc.RecordLoader
		records healthuc.Pinger
	)
	if cfg.Records.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Records.Addrs,
			Password: cfg.Records.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create record store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Records.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Record store not ready", zap.Error(err))
		}
		logger.Info("Connected to record store", zap.Strings("addrs", cfg.Records.Addrs))

		loader = recordrepo.New(store, cfg.Records.KeyPrefix)
		records = store
	}

	dialect, err := dsl.Parse(cfg.Search.Dialect)
	if err != nil {
		logger.Fatal("Invalid dialect", zap.Error(err))
	}

	types, err := buildServices(cfg.Search, dialect, backends, loader)
	if err != nil {
		logger.Fatal("Failed to configure document types", zap.Error(err))
	}
	logger.Info("Search services created",
		zap.String("dialect", dialect.Name()),
		zap.Int("types", len(types)),
	)

	healthSvc := healthuc.New(backends, records)
	server := chiTransport.NewServer(types, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildServices creates one search service per configured document type.
func buildServices(
	cfg config.SearchConfig,
	dialect dsl.Dialect,
	searcher searchuc.Searcher,
	loader searchuc.RecordLoader,
) (map[string]chiTransport.TypeService, error) {
	out := make(map[string]chiTransport.TypeService, len(cfg.Types))
	for _, t := range cfg.Types {
		strategy, err := searchuc.ParseStrategy(t.Strategy)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", t.Name, err)
		}
		out[t.Name] = searchuc.New(searcher, loader, searchuc.Scope{
			Index:    t.Index,
			Type:     t.Name,
			Strategy: strategy,
			Field:    t.Field,
		}, searchuc.Options{
			Dialect:  dialect,
			MaxLimit: cfg.MaxLimit,
			Filters:  t.Filters,
		})
	}
	return out, nil
}
