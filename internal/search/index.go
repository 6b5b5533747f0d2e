package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
)

// Index is an immutable, queryable snapshot of bookmark records.
// It is safe for concurrent queries.
type Index struct {
	entries  []entry
	weights  Weights
	translit string
}

// Build indexes records in the given order. Index order is the tie-break for
// equal scores.
func Build(records []bookmark.Record, opts Options) *Index {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if opts.Transliterator == nil {
		opts.Transliterator = Pinyin{}
	}

	fold := cases.Fold()
	entries := make([]entry, len(records))
	for i, rec := range records {
		full, initials := opts.Transliterator.Transliterate(rec.Title)
		entries[i] = entry{
			record:   rec,
			title:    fold.String(rec.Title),
			url:      fold.String(rec.URL),
			full:     full,
			initials: initials,
		}
	}

	return &Index{
		entries:  entries,
		weights:  opts.Weights,
		translit: opts.Transliterator.Name(),
	}
}

// Len returns the number of indexed records.
func (idx *Index) Len() int { return len(idx.entries) }

// Transliteration returns the name of the transliterator used at build time.
func (idx *Index) Transliteration() string { return idx.translit }

// Normalize trims and case-folds a query the way Query does.
func Normalize(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

// Query returns at most limit records matching text, best first. Records with
// equal scores keep index order. A blank query matches nothing.
func (idx *Index) Query(text string, limit int) ([]Result, error) {
	if limit < 0 {
		return nil, bmerrors.New(bmerrors.ErrCodeInvalidLimit, "limit must not be negative", nil).
			WithDetail("limit", strconv.Itoa(limit))
	}

	q := Normalize(text)
	if q == "" || limit == 0 {
		return []Result{}, nil
	}

	type hit struct {
		pos   int
		score int
	}
	var hits []hit
	for i := range idx.entries {
		if s := idx.score(&idx.entries[i], q); s > 0 {
			hits = append(hits, hit{pos: i, score: s})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return lo.Map(hits, func(h hit, _ int) Result {
		rec := idx.entries[h.pos].record
		return Result{
			Title:   rec.Title,
			URL:     rec.URL,
			Browser: rec.Browser,
			Profile: rec.Profile,
			Score:   h.score,
		}
	}), nil
}

func (idx *Index) score(e *entry, q string) int {
	w := idx.weights
	score := 0
	if strings.Contains(e.title, q) {
		score += w.Title
	}
	if strings.Contains(e.url, q) {
		score += w.URL
	}
	if e.full != "" && strings.Contains(e.full, q) {
		score += w.Full
	}
	if e.initials != "" && strings.Contains(e.initials, q) {
		score += w.Initials
	}
	return score
}
