// Package handle keeps a process-wide search backend that is replaced on a
// fixed interval without blocking readers.
package handle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/metrics"
)

// Compile-time check: Handle can stand in for a backend.
var _ db.Searcher = (*Handle)(nil)

// Factory builds a fresh backend connection.
type Factory func() (db.Backend, error)

type holder struct {
	backend db.Backend
}

// Handle holds the current backend behind an atomic pointer. Readers either
// see the old or the new backend, never a partially built one.
type Handle struct {
	current  atomic.Pointer[holder]
	factory  Factory
	interval time.Duration
	logger   *zap.Logger

	mu sync.Mutex // serializes Reload
}

// New builds the initial backend. A factory error here is fatal to the caller.
func New(factory Factory, interval time.Duration, logger *zap.Logger) (*Handle, error) {
	if factory == nil {
		return nil, fmt.Errorf("backend factory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	if backend == nil {
		return nil, db.ErrNoBackend
	}

	h := &Handle{factory: factory, interval: interval, logger: logger}
	h.current.Store(&holder{backend: backend})
	return h, nil
}

// Current returns the backend in use. It never blocks.
func (h *Handle) Current() db.Backend {
	return h.current.Load().backend
}

// Reload builds and pings a replacement, swaps it in and closes the previous
// backend. On failure the previous backend stays in use.
func (h *Handle) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := h.factory()
	if err == nil && next == nil {
		err = db.ErrNoBackend
	}
	if err == nil {
		if err = next.Ping(ctx); err != nil {
			next.Close()
		}
	}
	metrics.ObserveReload(err)
	if err != nil {
		h.logger.Warn("backend reload failed, keeping current connection", zap.Error(err))
		return fmt.Errorf("reload backend: %w", err)
	}

	prev := h.current.Swap(&holder{backend: next})
	prev.backend.Close()
	h.logger.Debug("backend connection replaced")
	return nil
}

// Run reloads on every tick until ctx is done. A non-positive interval
// disables periodic replacement.
func (h *Handle) Run(ctx context.Context) {
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.Reload(ctx) // logged and counted by Reload
		}
	}
}

// Search delegates to the current backend.
func (h *Handle) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	return h.Current().Search(ctx, req) //nolint:wrapcheck // backend errors are already wrapped
}

// Count delegates to the current backend.
func (h *Handle) Count(ctx context.Context, req *db.SearchRequest) (int64, error) {
	return h.Current().Count(ctx, req) //nolint:wrapcheck // backend errors are already wrapped
}

// Ping checks the current backend.
func (h *Handle) Ping(ctx context.Context) error {
	return h.Current().Ping(ctx) //nolint:wrapcheck // backend errors are already wrapped
}

// Close closes the current backend.
func (h *Handle) Close() {
	h.Current().Close()
}
