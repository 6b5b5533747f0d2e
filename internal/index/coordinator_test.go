package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
	"github.com/Aman-CERP/bmsearch/internal/metrics"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/internal/search"
	"github.com/Aman-CERP/bmsearch/internal/watcher"
)

// fakeSource is a mutable in-memory Source.
type fakeSource struct {
	mu      sync.Mutex
	records []bookmark.Record
	scans   int
}

func (f *fakeSource) ScanWithReport() ([]bookmark.Record, []scanner.SourceReport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	recs := append([]bookmark.Record(nil), f.records...)
	return recs, []scanner.SourceReport{{
		Source:  scanner.Source{Browser: "Chrome", Profile: "Default", Path: "/fake/Bookmarks"},
		Status:  scanner.StatusOK,
		Records: len(recs),
	}}
}

func (f *fakeSource) add(title, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, bookmark.Record{Title: title, URL: url, Browser: "Chrome", Profile: "Default"})
}

func newSource(titles ...string) *fakeSource {
	f := &fakeSource{}
	for _, t := range titles {
		f.add(t, "https://example.com/"+t)
	}
	return f
}

func TestNewCoordinator_BuildsSynchronously(t *testing.T) {
	// Given: a source with one bookmark
	src := newSource("golang")

	// When: creating the coordinator
	c := NewCoordinator(CoordinatorConfig{Source: src})

	// Then: the index is queryable immediately
	got, err := c.Query("golang", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, src.scans)

	st := c.Status()
	assert.Equal(t, uint64(1), st.Generation)
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, TriggerStartup, st.LastTrigger)
	assert.Equal(t, search.TransliterationPinyin, st.Transliteration)
	require.Len(t, st.Sources, 1)
}

func TestRebuild_AppendedRecordAppearsOnce(t *testing.T) {
	// Given: a coordinator over two bookmarks
	src := newSource("alpha one", "alpha two")
	c := NewCoordinator(CoordinatorConfig{Source: src, CacheSize: 16})

	before, err := c.Query("alpha", 10)
	require.NoError(t, err)
	require.Len(t, before, 2)

	// When: a bookmark is added and the index rebuilt
	src.add("alpha three", "https://example.com/3")
	stats := c.Rebuild(TriggerManual)

	// Then: the new bookmark is present with nothing duplicated or lost
	after, err := c.Query("alpha", 10)
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, []string{"alpha one", "alpha two", "alpha three"},
		[]string{after[0].Title, after[1].Title, after[2].Title})
	assert.Equal(t, uint64(2), stats.Generation)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 1, stats.Sources["ok"])
}

func TestRebuild_Idempotent(t *testing.T) {
	src := newSource("a", "b", "c")
	c := NewCoordinator(CoordinatorConfig{Source: src})

	first, err := c.Query("example", 10)
	require.NoError(t, err)
	c.Rebuild(TriggerManual)
	c.Rebuild(TriggerManual)
	second, err := c.Query("example", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(3), c.Status().Generation)
}

func TestQuery_CacheIsolatedFromCallers(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Source: newSource("golang"), CacheSize: 4})

	got, err := c.Query("golang", 10)
	require.NoError(t, err)
	got[0].Title = "mutated"

	again, err := c.Query("golang", 10)
	require.NoError(t, err)
	assert.Equal(t, "golang", again[0].Title)
}

func TestQuery_NegativeLimit(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Source: newSource("x"), CacheSize: 4})

	_, err := c.Query("x", -5)

	require.Error(t, err)
	assert.Equal(t, bmerrors.ErrCodeInvalidLimit, bmerrors.GetCode(err))
}

func TestQuery_EmptySource(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Source: &fakeSource{}})

	got, err := c.Query("anything", 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_RebuildsPerBatch(t *testing.T) {
	// Given: a running coordinator loop
	src := newSource("first")
	m := metrics.New()
	c := NewCoordinator(CoordinatorConfig{Source: src, Metrics: m})

	events := make(chan []watcher.FileEvent)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, events)
		close(done)
	}()

	// When: a store changes and a batch arrives
	src.add("second", "https://example.com/second")
	events <- []watcher.FileEvent{{Path: "/fake/Bookmarks", Operation: watcher.OpModify}}

	// Then: the index catches up
	require.Eventually(t, func() bool {
		got, _ := c.Query("second", 10)
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, TriggerWatch, c.Status().LastTrigger)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ReturnsWhenEventsClosed(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Source: newSource()})
	events := make(chan []watcher.FileEvent)
	close(events)

	c.Run(context.Background(), events)

	assert.Equal(t, uint64(1), c.Status().Generation)
}

func TestRun_FoldsBatchesWhileRateLimited(t *testing.T) {
	// Given: a loop whose rebuild token was just spent
	src := newSource("first")
	c := NewCoordinator(CoordinatorConfig{Source: src})
	c.limiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	require.True(t, c.limiter.Allow())

	events := make(chan []watcher.FileEvent, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When: three batches queue up before the limiter opens
	for i := 0; i < 3; i++ {
		events <- []watcher.FileEvent{{Path: "/fake/Bookmarks", Operation: watcher.OpModify}}
	}
	src.add("second", "https://example.com/second")
	close(events)
	c.Run(ctx, events)

	// Then: one rebuild covered all of them
	assert.Equal(t, uint64(2), c.Status().Generation)
	got, err := c.Query("second", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRun_CancelWhileRateLimited(t *testing.T) {
	c := NewCoordinator(CoordinatorConfig{Source: newSource(), MinRebuildInterval: time.Hour})
	require.True(t, c.limiter.Allow())

	events := make(chan []watcher.FileEvent, 1)
	events <- []watcher.FileEvent{{Path: "/fake/Bookmarks", Operation: watcher.OpModify}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c.Run(ctx, events)

	assert.Equal(t, uint64(1), c.Status().Generation)
}

func TestConcurrentQueriesDuringRebuilds(t *testing.T) {
	// Given: a source that grows while queries are running
	src := newSource()
	for i := 0; i < 50; i++ {
		src.add(fmt.Sprintf("item %d", i), fmt.Sprintf("https://example.com/%d", i))
	}
	c := NewCoordinator(CoordinatorConfig{Source: src, CacheSize: 8})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := c.Query("item", 1000)
				assert.NoError(t, err)
				// Every observed result set is a whole generation: a prefix
				// of the insertion order with no gaps.
				for i, r := range got {
					assert.Equal(t, fmt.Sprintf("item %d", i), r.Title)
				}
			}
		}()
	}

	// When: rebuilding repeatedly while bookmarks are appended
	for i := 50; i < 70; i++ {
		src.add(fmt.Sprintf("item %d", i), fmt.Sprintf("https://example.com/%d", i))
		c.Rebuild(TriggerManual)
	}
	close(stop)
	wg.Wait()

	// Then: the final generation holds everything
	got, err := c.Query("item", 1000)
	require.NoError(t, err)
	assert.Len(t, got, 70)
}
