// Package telemetry keeps in-memory statistics about the queries a daemon
// answers. Nothing is persisted or reported anywhere.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/bmsearch/internal/search"
)

// LatencyBucket is one bucket of the query latency histogram.
type LatencyBucket string

const (
	BucketUnder1ms  LatencyBucket = "lt1ms"
	BucketUnder5ms  LatencyBucket = "lt5ms"
	BucketUnder25ms LatencyBucket = "lt25ms"
	BucketSlow      LatencyBucket = "ge25ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketUnder1ms
	case d < 5*time.Millisecond:
		return BucketUnder5ms
	case d < 25*time.Millisecond:
		return BucketUnder25ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one answered query.
type QueryEvent struct {
	Query   string
	Results int
	Latency time.Duration
}

// Ring is a fixed-capacity FIFO that evicts the oldest item when full.
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

// NewRing creates a ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Add appends item, evicting the oldest when full.
func (r *Ring[T]) Add(item T) {
	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	if r.size < len(r.items) {
		r.size++
	}
}

// Items returns the contents oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.size)
	start := (r.head - r.size + len(r.items)) % len(r.items)
	for i := 0; i < r.size; i++ {
		out = append(out, r.items[(start+i)%len(r.items)])
	}
	return out
}

// ExtractTerms splits a query into normalized terms of at least two runes.
func ExtractTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(search.Normalize(query)) {
		if utf8.RuneCountInString(w) >= 2 {
			terms = append(terms, w)
		}
	}
	return terms
}

// TermCount is a term and how often it was queried.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the statistics.
type Snapshot struct {
	TotalQueries      int64                   `json:"total_queries"`
	ZeroResultCount   int64                   `json:"zero_result_count"`
	RepeatCount       int64                   `json:"repeat_count"`
	TopTerms          []TermCount             `json:"top_terms"`
	ZeroResultQueries []string                `json:"zero_result_queries"`
	Latency           map[LatencyBucket]int64 `json:"latency"`
	Since             time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of queries that found nothing.
func (s Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// Config bounds the memory the collector uses.
type Config struct {
	TopTermsCapacity    int
	ZeroResultsCapacity int
	RecentCapacity      int
	TopTermsReported    int
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    200,
		ZeroResultsCapacity: 20,
		RecentCapacity:      200,
		TopTermsReported:    10,
	}
}

// QueryStats collects query statistics. Safe for concurrent use.
type QueryStats struct {
	mu sync.Mutex

	cfg         Config
	terms       *lru.Cache[string, int64]
	recent      *lru.Cache[string, struct{}]
	zeroResults *Ring[string]
	latency     map[LatencyBucket]int64
	total       int64
	zero        int64
	repeats     int64
	since       time.Time
}

// New creates a collector. Non-positive config fields take their defaults.
func New(cfg Config) *QueryStats {
	def := DefaultConfig()
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = def.TopTermsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = def.ZeroResultsCapacity
	}
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = def.RecentCapacity
	}
	if cfg.TopTermsReported <= 0 {
		cfg.TopTermsReported = def.TopTermsReported
	}

	terms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RecentCapacity)
	return &QueryStats{
		cfg:         cfg,
		terms:       terms,
		recent:      recent,
		zeroResults: NewRing[string](cfg.ZeroResultsCapacity),
		latency:     make(map[LatencyBucket]int64),
		since:       time.Now(),
	}
}

// Record adds one answered query.
func (q *QueryStats) Record(ev QueryEvent) {
	key := search.Normalize(ev.Query)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.total++
	q.latency[LatencyToBucket(ev.Latency)]++

	for _, term := range ExtractTerms(ev.Query) {
		n, _ := q.terms.Get(term)
		q.terms.Add(term, n+1)
	}

	if ev.Results == 0 {
		q.zero++
		q.zeroResults.Add(key)
	}

	if _, seen := q.recent.Get(key); seen {
		q.repeats++
	}
	q.recent.Add(key, struct{}{})
}

// Snapshot returns the current statistics. TopTerms is ordered by count,
// then term.
func (q *QueryStats) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	top := make([]TermCount, 0, q.terms.Len())
	for _, term := range q.terms.Keys() {
		if n, ok := q.terms.Peek(term); ok {
			top = append(top, TermCount{Term: term, Count: n})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Term < top[j].Term
	})
	if len(top) > q.cfg.TopTermsReported {
		top = top[:q.cfg.TopTermsReported]
	}

	latency := make(map[LatencyBucket]int64, len(q.latency))
	for k, v := range q.latency {
		latency[k] = v
	}

	return Snapshot{
		TotalQueries:      q.total,
		ZeroResultCount:   q.zero,
		RepeatCount:       q.repeats,
		TopTerms:          top,
		ZeroResultQueries: q.zeroResults.Items(),
		Latency:           latency,
		Since:             q.since,
	}
}
