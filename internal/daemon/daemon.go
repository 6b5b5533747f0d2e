package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Aman-CERP/bmsearch/internal/index"
	"github.com/Aman-CERP/bmsearch/internal/metrics"
	"github.com/Aman-CERP/bmsearch/internal/search"
	"github.com/Aman-CERP/bmsearch/internal/telemetry"
	"github.com/Aman-CERP/bmsearch/internal/watcher"
)

// Daemon owns the coordinator, the store watcher, the socket server and the
// optional metrics listener for the lifetime of one process.
type Daemon struct {
	config Config

	source     index.Source
	searchOpts search.Options
	cacheSize  int
	watchPaths []string
	watchOpts  watcher.Options
	minRebuild time.Duration
	metrics    *metrics.Metrics
	stats      *telemetry.QueryStats

	mu      sync.RWMutex
	coord   *index.Coordinator
	watcher *watcher.HybridWatcher
	server  *Server
	httpLn  net.Listener
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSource sets what every rebuild scans. Required.
func WithSource(src index.Source) Option {
	return func(d *Daemon) { d.source = src }
}

// WithSearchOptions sets the scoring policy and transliterator.
func WithSearchOptions(opts search.Options) Option {
	return func(d *Daemon) { d.searchOpts = opts }
}

// WithCacheSize bounds the query result cache. Zero disables it.
func WithCacheSize(n int) Option {
	return func(d *Daemon) { d.cacheSize = n }
}

// WithWatch enables live rebuilds when any of paths changes.
func WithWatch(paths []string, opts watcher.Options) Option {
	return func(d *Daemon) {
		d.watchPaths = append([]string(nil), paths...)
		d.watchOpts = opts
	}
}

// WithRebuildInterval spaces watch-triggered rebuilds by at least d.
func WithRebuildInterval(interval time.Duration) Option {
	return func(d *Daemon) { d.minRebuild = interval }
}

// WithMetrics records rebuilds and queries on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Daemon) { d.metrics = m }
}

// NewDaemon validates cfg and applies opts. Nothing is scanned until Start.
func NewDaemon(cfg Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon config: %w", err)
	}

	d := &Daemon{config: cfg, stats: telemetry.New(telemetry.DefaultConfig())}
	for _, opt := range opts {
		opt(d)
	}
	if d.source == nil {
		return nil, fmt.Errorf("invalid daemon config: no bookmark source")
	}
	return d, nil
}

// Start takes the instance lock, builds the initial index, then serves until
// ctx is cancelled. It returns ctx.Err() on a clean shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.config.EnsureDir(); err != nil {
		return err
	}

	lock := NewInstanceLock(d.config.LockPath)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	// Holding the lock means any recorded PID belongs to a dead daemon.
	pf := NewPIDFile(d.config.PIDPath)
	if removed, err := pf.RemoveIfStale(); err != nil {
		slog.Warn("failed to remove stale PID file", slog.String("error", err.Error()))
	} else if removed {
		slog.Info("removed stale PID file", slog.String("path", pf.Path()))
	}
	if err := pf.Write(); err != nil {
		return err
	}
	defer func() { _ = pf.Remove() }()

	coord := index.NewCoordinator(index.CoordinatorConfig{
		Source:             d.source,
		Search:             d.searchOpts,
		CacheSize:          d.cacheSize,
		Metrics:            d.metrics,
		MinRebuildInterval: d.minRebuild,
	})

	server, err := NewServer(d.config.SocketPath)
	if err != nil {
		return err
	}
	server.SetHandler(d)

	d.mu.Lock()
	d.coord = coord
	d.server = server
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	d.startWatcher(ctx, coord, &wg)

	if d.config.MetricsAddr != "" {
		if err := d.startHTTP(ctx, &wg); err != nil {
			return err
		}
	}

	slog.Info("daemon started",
		slog.String("socket", d.config.SocketPath),
		slog.String("metrics_addr", d.config.MetricsAddr),
		slog.Int("watch_paths", len(d.watchPaths)))

	err = server.ListenAndServe(ctx)
	cancel()
	wg.Wait()

	slog.Info("daemon stopped")
	return err
}

// startWatcher runs the store watcher and feeds its batches to coord. A
// watcher that cannot be created leaves the daemon serving a static index.
func (d *Daemon) startWatcher(ctx context.Context, coord *index.Coordinator, wg *sync.WaitGroup) {
	if len(d.watchPaths) == 0 {
		return
	}

	w, err := watcher.NewHybridWatcher(d.watchOpts)
	if err != nil {
		slog.Warn("file watcher unavailable, live updates disabled", slog.String("error", err.Error()))
		return
	}

	d.mu.Lock()
	d.watcher = w
	d.mu.Unlock()

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer func() { _ = w.Stop() }()
		if err := w.Start(ctx, d.watchPaths); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("file watcher stopped", slog.String("error", err.Error()))
		}
		<-ctx.Done()
	}()
	go func() {
		defer wg.Done()
		coord.Run(ctx, w.Events())
	}()
	go func() {
		defer wg.Done()
		for err := range w.Errors() {
			slog.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}()
}

// startHTTP serves /metrics and /healthz until ctx is cancelled.
func (d *Daemon) startHTTP(ctx context.Context, wg *sync.WaitGroup) error {
	ln, err := net.Listen("tcp", d.config.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.config.MetricsAddr, err)
	}

	d.mu.Lock()
	d.httpLn = ln
	d.mu.Unlock()

	srv := &http.Server{
		Handler:           d.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown", slog.String("error", err.Error()))
		}
	}()

	slog.Info("metrics listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Router returns the HTTP routes exposed on the metrics address.
func (d *Daemon) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(d.metrics.Middleware())

	r.Get("/healthz", d.handleHealth)
	r.Method(http.MethodGet, "/metrics", d.metrics.Handler())
	return r
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	d.mu.RLock()
	coord := d.coord
	d.mu.RUnlock()

	body := map[string]any{"status": "ok"}
	code := http.StatusOK
	if coord == nil {
		body["status"] = "starting"
		code = http.StatusServiceUnavailable
	} else {
		st := coord.Status()
		body["generation"] = st.Generation
		body["entries"] = st.Entries
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// MetricsAddr returns the bound metrics address, or "" if not listening.
func (d *Daemon) MetricsAddr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.httpLn == nil {
		return ""
	}
	return d.httpLn.Addr().String()
}

// HandleSearch implements RequestHandler.
func (d *Daemon) HandleSearch(_ context.Context, params SearchParams) ([]SearchResult, error) {
	coord, err := d.coordinator()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := coord.Query(params.Query, params.Limit)
	if err != nil {
		return nil, err
	}
	d.stats.Record(telemetry.QueryEvent{
		Query:   params.Query,
		Results: len(results),
		Latency: time.Since(start),
	})
	return results, nil
}

// HandleRebuild implements RequestHandler.
func (d *Daemon) HandleRebuild(_ context.Context) (RebuildResult, error) {
	coord, err := d.coordinator()
	if err != nil {
		return RebuildResult{}, err
	}
	return coord.Rebuild(index.TriggerManual), nil
}

// GetStatus implements RequestHandler.
func (d *Daemon) GetStatus() StatusResult {
	d.mu.RLock()
	coord, w := d.coord, d.watcher
	d.mu.RUnlock()

	status := StatusResult{Running: true, Watcher: "disabled"}
	if w != nil {
		status.Watcher = w.WatcherType()
		if !w.IsHealthy() {
			status.Watcher += " (stopped)"
		}
	}
	if coord != nil {
		status.Index = coord.Status()
	}
	queries := d.stats.Snapshot()
	status.Queries = &queries
	return status
}

func (d *Daemon) coordinator() (*index.Coordinator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.coord == nil {
		return nil, fmt.Errorf("index not built yet")
	}
	return d.coord, nil
}
