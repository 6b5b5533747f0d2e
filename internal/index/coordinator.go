// Package index owns the published search index: it builds it at startup,
// rebuilds it when bookmark stores change and serves queries against it.
package index

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	"github.com/Aman-CERP/bmsearch/internal/metrics"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/internal/search"
	"github.com/Aman-CERP/bmsearch/internal/watcher"
)

// Rebuild triggers.
const (
	TriggerStartup = "startup"
	TriggerWatch   = "watch"
	TriggerManual  = "manual"
)

// Source produces the records to index. *scanner.Scanner satisfies it.
type Source interface {
	ScanWithReport() ([]bookmark.Record, []scanner.SourceReport)
}

// CoordinatorConfig contains configuration for the Coordinator.
type CoordinatorConfig struct {
	// Source is scanned on every rebuild.
	Source Source

	// Search configures how each index is built.
	Search search.Options

	// CacheSize bounds the query result cache. Zero disables it.
	CacheSize int

	// Metrics is optional.
	Metrics *metrics.Metrics

	// MinRebuildInterval spaces watch-triggered rebuilds in Run. Batches
	// arriving while Run waits are folded into one rebuild. Zero disables it.
	MinRebuildInterval time.Duration
}

// RebuildStats describes one completed rebuild.
type RebuildStats struct {
	Trigger    string         `json:"trigger"`
	Generation uint64         `json:"generation"`
	Entries    int            `json:"entries"`
	Sources    map[string]int `json:"sources"`
	Duration   time.Duration  `json:"duration_ns"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Status is a snapshot of the published index.
type Status struct {
	Generation      uint64                 `json:"generation"`
	Entries         int                    `json:"entries"`
	Transliteration string                 `json:"transliteration"`
	LastRebuild     time.Time              `json:"last_rebuild"`
	LastDuration    time.Duration          `json:"last_duration_ns"`
	LastTrigger     string                 `json:"last_trigger"`
	Sources         []scanner.SourceReport `json:"sources"`
}

// Coordinator publishes an immutable search.Index and replaces it wholesale
// on every rebuild. Queries hold the read lock for their whole duration, so
// a query sees exactly one generation.
type Coordinator struct {
	config  CoordinatorConfig
	cache   *lru.Cache[string, []search.Result]
	limiter *rate.Limiter

	mu      sync.RWMutex
	index   *search.Index
	gen     uint64
	last    RebuildStats
	reports []scanner.SourceReport
}

// NewCoordinator creates a coordinator and performs the initial scan and
// build before returning.
func NewCoordinator(config CoordinatorConfig) *Coordinator {
	c := &Coordinator{config: config, limiter: rate.NewLimiter(rate.Inf, 1)}
	if config.MinRebuildInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(config.MinRebuildInterval), 1)
	}
	if config.CacheSize > 0 {
		// Only fails for a non-positive size.
		c.cache, _ = lru.New[string, []search.Result](config.CacheSize)
	}
	c.Rebuild(TriggerStartup)
	return c
}

// Rebuild rescans every source, builds a new index and publishes it.
// Scanning and building happen outside the lock; only the swap is exclusive.
func (c *Coordinator) Rebuild(trigger string) RebuildStats {
	start := time.Now()

	records, reports := c.config.Source.ScanWithReport()
	idx := search.Build(records, c.config.Search)

	byStatus := make(map[string]int)
	for _, r := range reports {
		byStatus[string(r.Status)]++
	}

	c.mu.Lock()
	c.index = idx
	c.gen++
	c.reports = reports
	if c.cache != nil {
		c.cache.Purge()
	}
	stats := RebuildStats{
		Trigger:    trigger,
		Generation: c.gen,
		Entries:    idx.Len(),
		Sources:    byStatus,
		Duration:   time.Since(start),
		FinishedAt: time.Now(),
	}
	c.last = stats
	c.mu.Unlock()

	c.config.Metrics.ObserveRebuild(trigger, stats.Duration, stats.Entries, stats.Generation)
	c.config.Metrics.ObserveSources(byStatus)

	slog.Info("index rebuilt",
		slog.String("trigger", trigger),
		slog.Uint64("generation", stats.Generation),
		slog.Int("entries", stats.Entries),
		slog.Int("sources", len(reports)),
		slog.Duration("duration", stats.Duration))

	return stats
}

// Query runs text against the current index.
func (c *Coordinator) Query(text string, limit int) ([]search.Result, error) {
	start := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if limit < 0 {
		// Let the index produce the validation error.
		return c.index.Query(text, limit)
	}

	key := search.Normalize(text) + "\x00" + strconv.Itoa(limit)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.config.Metrics.ObserveQuery(time.Since(start), true)
			return append([]search.Result(nil), cached...), nil
		}
	}

	results, err := c.index.Query(text, limit)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, results)
	}

	c.config.Metrics.ObserveQuery(time.Since(start), false)
	return append([]search.Result{}, results...), nil
}

// Run rebuilds once per delivered batch until ctx is done or events closes.
// Every kind of change is treated the same.
func (c *Coordinator) Run(ctx context.Context, events <-chan []watcher.FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			logBatch(batch)
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			open := c.foldPending(events)
			c.Rebuild(TriggerWatch)
			if !open {
				return
			}
		}
	}
}

// foldPending consumes batches already queued so one rebuild covers them.
// It reports false once events is closed.
func (c *Coordinator) foldPending(events <-chan []watcher.FileEvent) bool {
	for {
		select {
		case batch, ok := <-events:
			if !ok {
				return false
			}
			logBatch(batch)
		default:
			return true
		}
	}
}

func logBatch(batch []watcher.FileEvent) {
	for _, ev := range batch {
		slog.Debug("bookmark store changed",
			slog.String("path", ev.Path),
			slog.String("operation", ev.Operation.String()))
	}
}

// Status returns a snapshot of the published index.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		Generation:      c.gen,
		Entries:         c.index.Len(),
		Transliteration: c.index.Transliteration(),
		LastRebuild:     c.last.FinishedAt,
		LastDuration:    c.last.Duration,
		LastTrigger:     c.last.Trigger,
		Sources:         append([]scanner.SourceReport(nil), c.reports...),
	}
}
