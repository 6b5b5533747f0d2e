package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
)

func rec(title, url string) bookmark.Record {
	return bookmark.Record{Title: title, URL: url, Browser: "Chrome", Profile: "Default"}
}

func TestQuery_EmptyQueryReturnsNothing(t *testing.T) {
	idx := Build([]bookmark.Record{rec("GitHub", "https://github.com")}, Options{})

	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := idx.Query(q, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestQuery_NegativeLimit(t *testing.T) {
	idx := Build(nil, Options{})

	_, err := idx.Query("git", -1)

	require.Error(t, err)
	assert.Equal(t, bmerrors.ErrCodeInvalidLimit, bmerrors.GetCode(err))
}

func TestQuery_GitExample(t *testing.T) {
	// Given: two bookmarks whose titles and URLs both contain "git"
	idx := Build([]bookmark.Record{
		rec("GitHub", "https://github.com"),
		rec("Gitee", "https://gitee.com"),
	}, Options{})

	// When: querying "git"
	got, err := idx.Query("git", 10)
	require.NoError(t, err)

	// Then: both match with equal scores, in insertion order
	require.Len(t, got, 2)
	assert.Equal(t, "GitHub", got[0].Title)
	assert.Equal(t, "Gitee", got[1].Title)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.GreaterOrEqual(t, got[0].Score, 200)
}

func TestQuery_NoMatch(t *testing.T) {
	idx := Build([]bookmark.Record{
		rec("GitHub", "https://github.com"),
		rec("Gitee", "https://gitee.com"),
	}, Options{})

	got, err := idx.Query("zh", 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_FieldScores(t *testing.T) {
	tests := []struct {
		name  string
		rec   bookmark.Record
		query string
		want  int
	}{
		{"title only", rec("Weekly Report", "https://example.com/a"), "report", 120 + 70 + 60},
		{"url only", rec("Home", "https://example.com/dash"), "dash", 80},
		{"title and url", rec("Dashboard", "https://dash.example.com"), "dash", 120 + 80 + 70 + 60},
		{"pinyin full", rec("中国新闻", "https://news.cn"), "zhongguo", 70},
		{"pinyin initials", rec("中国新闻", "https://news.example"), "zgxw", 60},
		{"case folded", rec("GITHUB", "https://GitHub.com"), "GitHub", 120 + 80 + 70 + 60},
		{"trimmed", rec("Go", "https://go.dev"), "  go  ", 120 + 80 + 70 + 60},
		{"accented query matches accented title", rec("Café", "https://example.com/c"), "café", 120 + 70 + 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := Build([]bookmark.Record{tt.rec}, Options{})

			got, err := idx.Query(tt.query, 10)

			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Score)
		})
	}
}

func TestQuery_AccentsAreNotFolded(t *testing.T) {
	// Given a title with an accented letter
	idx := Build([]bookmark.Record{rec("Café", "https://example.com/c")}, Options{})

	// When querying without the accent
	got, err := idx.Query("cafe", 10)

	// Then nothing matches
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_TitleMatchScoresAtLeast120(t *testing.T) {
	idx := Build([]bookmark.Record{
		rec("Rust Book", "https://doc.rust-lang.org/book"),
		rec("Crates", "https://crates.io"),
		rec("The Book", "file:///home/u/book.html"),
	}, Options{Transliterator: Passthrough{}})

	got, err := idx.Query("book", 10)
	require.NoError(t, err)

	require.Len(t, got, 2)
	for _, r := range got {
		assert.GreaterOrEqual(t, r.Score, 200)
	}
}

func TestQuery_OrderingAndLimit(t *testing.T) {
	// Given: many records with mixed match strength
	var records []bookmark.Record
	for i := 0; i < 50; i++ {
		switch i % 3 {
		case 0:
			records = append(records, rec(fmt.Sprintf("alpha %d", i), fmt.Sprintf("https://x/%d", i)))
		case 1:
			records = append(records, rec(fmt.Sprintf("beta %d", i), fmt.Sprintf("https://alpha/%d", i)))
		default:
			records = append(records, rec(fmt.Sprintf("alpha %d", i), fmt.Sprintf("https://alpha/%d", i)))
		}
	}
	idx := Build(records, Options{})

	for _, limit := range []int{0, 1, 5, 17, 100} {
		// When: querying with the limit
		got, err := idx.Query("alpha", limit)
		require.NoError(t, err)

		// Then: never more than limit, scores non-increasing
		assert.LessOrEqual(t, len(got), limit)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}
	}

	// Then: equal scores keep index order
	got, err := idx.Query("alpha", 100)
	require.NoError(t, err)
	require.Len(t, got, 50)
	assert.Equal(t, "alpha 2", got[0].Title)
	assert.Equal(t, "alpha 5", got[1].Title)
}

func TestQuery_ProvenanceCarried(t *testing.T) {
	idx := Build([]bookmark.Record{
		{Title: "Docs", URL: "https://docs", Browser: "Firefox", Profile: "default-release"},
	}, Options{})

	got, err := idx.Query("docs", 1)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Firefox", got[0].Browser)
	assert.Equal(t, "default-release", got[0].Profile)
	assert.Equal(t, "https://docs", got[0].URL)
}

func TestQuery_CustomWeights(t *testing.T) {
	idx := Build([]bookmark.Record{rec("Go", "https://golang.org")}, Options{
		Weights: Weights{Title: 4, URL: 3, Full: 2, Initials: 1},
	})

	got, err := idx.Query("go", 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].Score)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.Error(t, Weights{Title: 0, URL: -1, Full: 1, Initials: 1}.Validate())
	assert.Error(t, Weights{Title: 80, URL: 120, Full: 70, Initials: 60}.Validate())
	assert.Error(t, Weights{Title: 120, URL: 80, Full: 60, Initials: 60}.Validate())
}

func TestBuild_Metadata(t *testing.T) {
	idx := Build([]bookmark.Record{rec("a", "http://a"), rec("b", "http://b")}, Options{Transliterator: Passthrough{}})

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, TransliterationNone, idx.Transliteration())
}
