package scanner

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const chromeBookmarks = `{
  "checksum": "x",
  "roots": {
    "bookmark_bar": {"type": "folder", "name": "Bookmarks bar", "children": [
      {"type": "url", "name": "GitHub", "url": "https://github.com"},
      {"type": "folder", "name": "Dev", "children": [
        {"type": "url", "name": "Go", "url": "https://go.dev"},
        {"type": "url", "name": "Settings", "url": "chrome://settings"}
      ]}
    ]},
    "other": {"type": "folder", "name": "Other", "children": [
      {"type": "url", "name": "Local", "url": "file:///tmp/a.html"}
    ]},
    "synced": {"type": "folder", "name": "Mobile", "children": []}
  },
  "version": 1
}`

func titles(records []bookmark.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestScan_ChromiumPreOrderAndFilter(t *testing.T) {
	// Given: a Chrome Default profile with nested folders and a chrome:// link
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "Default", "Bookmarks"), chromeBookmarks)

	s := New(Options{Resolver: StaticResolver{"Chrome": base}, Families: []Family{Chrome}})

	// When: scanning
	records := s.Scan()

	// Then: accepted links come out in pre-order with provenance
	assert.Equal(t, []string{"GitHub", "Go", "Local"}, titles(records))
	for _, r := range records {
		assert.Equal(t, "Chrome", r.Browser)
		assert.Equal(t, "Default", r.Profile)
	}
}

func TestScan_MultiProfileOrder(t *testing.T) {
	// Given: Default plus two extra profiles and an unrelated directory
	base := t.TempDir()
	one := `{"roots":{"bookmark_bar":{"type":"folder","children":[{"type":"url","name":"%s","url":"https://x"}]}}}`
	writeFile(t, filepath.Join(base, "Default", "Bookmarks"), strings.Replace(one, "%s", "d", 1))
	writeFile(t, filepath.Join(base, "Profile 1", "Bookmarks"), strings.Replace(one, "%s", "p1", 1))
	writeFile(t, filepath.Join(base, "Profile 2", "Bookmarks"), strings.Replace(one, "%s", "p2", 1))
	writeFile(t, filepath.Join(base, "System Profile", "Bookmarks"), strings.Replace(one, "%s", "sys", 1))

	s := New(Options{Resolver: StaticResolver{"Edge": base}, Families: []Family{Edge}})

	// When: scanning with a report
	records, reports := s.ScanWithReport()

	// Then: Default first, then "Profile *" dirs; other dirs ignored
	assert.Equal(t, []string{"d", "p1", "p2"}, titles(records))
	require.Len(t, reports, 3)
	assert.Equal(t, "Profile 2", reports[2].Profile)
	assert.Equal(t, StatusOK, reports[2].Status)
	assert.Equal(t, 1, reports[2].Records)
}

func TestScan_FamilyOrderPreserved(t *testing.T) {
	// Given: Chrome and Opera stores
	chrome := t.TempDir()
	opera := t.TempDir()
	writeFile(t, filepath.Join(chrome, "Default", "Bookmarks"),
		`{"roots":{"other":{"type":"folder","children":[{"type":"url","name":"c","url":"https://c"}]}}}`)
	writeFile(t, filepath.Join(opera, "Bookmarks"),
		`{"roots":{"other":{"type":"folder","children":[{"type":"url","name":"o","url":"https://o"}]}}}`)

	s := New(Options{
		Resolver: StaticResolver{"Chrome": chrome, "Opera": opera},
		Families: []Family{Chrome, Edge, Opera},
	})

	// When: scanning
	records := s.Scan()

	// Then: records follow family order and Opera uses the Default profile
	require.Len(t, records, 2)
	assert.Equal(t, "Chrome", records[0].Browser)
	assert.Equal(t, "Opera", records[1].Browser)
	assert.Equal(t, "Default", records[1].Profile)
}

func TestScan_FailuresAreAbsorbed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  SourceStatus
	}{
		{"invalid json", `{"roots": {`, StatusMalformed},
		{"missing roots", `{"version": 1}`, StatusMalformed},
		{"empty roots", `{"roots": {}}`, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a broken Chrome store next to a good Opera store
			chrome := t.TempDir()
			opera := t.TempDir()
			writeFile(t, filepath.Join(chrome, "Default", "Bookmarks"), tt.content)
			writeFile(t, filepath.Join(opera, "Bookmarks"),
				`{"roots":{"other":{"type":"folder","children":[{"type":"url","name":"ok","url":"https://ok"}]}}}`)

			s := New(Options{
				Resolver: StaticResolver{"Chrome": chrome, "Opera": opera},
				Families: []Family{Chrome, Opera},
			})

			// When: scanning
			records, reports := s.ScanWithReport()

			// Then: the good store still contributes and the status is recorded
			assert.Equal(t, []string{"ok"}, titles(records))
			require.Len(t, reports, 2)
			assert.Equal(t, tt.status, reports[0].Status)
		})
	}
}

func TestScan_MissingEverything(t *testing.T) {
	// Given: a resolver pointing at a directory that does not exist
	s := New(Options{
		Resolver: StaticResolver{"Chrome": filepath.Join(t.TempDir(), "nope")},
		Families: []Family{Chrome, Firefox},
	})

	// When: scanning
	records, reports := s.ScanWithReport()

	// Then: nothing is found and nothing fails
	assert.Empty(t, records)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusMissing, reports[0].Status)
}

func TestScan_DeepNesting(t *testing.T) {
	// Given: a folder chain deeper than encoding/json's nesting limit
	const depth = 12000
	var b strings.Builder
	b.WriteString(`{"roots":{"bookmark_bar":`)
	for i := 0; i < depth; i++ {
		b.WriteString(`{"type":"folder","name":"f","children":[`)
	}
	b.WriteString(`{"type":"url","name":"leaf","url":"https://leaf"}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}`)
	}
	b.WriteString(`}}`)

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "Bookmarks"), b.String())
	s := New(Options{Resolver: StaticResolver{"Opera": base}, Families: []Family{Opera}})

	// When: scanning
	records := s.Scan()

	// Then: the leaf is found
	assert.Equal(t, []string{"leaf"}, titles(records))
}

func TestParseChromium(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Node
	}{
		{
			name:    "root order and unknown fields",
			content: `{"checksum":"x","roots":{"synced":{"type":"folder","name":"s"},"other":{"type":"folder","name":"o","meta_info":{"a":[1,{"b":2}]}},"bookmark_bar":{"type":"folder","name":"b"}},"version":1}`,
			want: []Node{
				{Type: NodeFolder, Name: "b"},
				{Type: NodeFolder, Name: "o"},
				{Type: NodeFolder, Name: "s"},
			},
		},
		{
			name:    "null root and null fields",
			content: `{"roots":{"bookmark_bar":null,"other":{"type":"folder","name":null,"children":[{"type":"url","name":"a","url":"https://a"},null]}}}`,
			want: []Node{{Type: NodeFolder, Children: []Node{
				{Type: NodeLink, Name: "a", URL: "https://a"},
				{},
			}}},
		},
		{
			name:    "escaped strings",
			content: `{"roots":{"other":{"type":"url","name":"café "x"","url":"https://a/?q=1&r=2"}}}`,
			want:    []Node{{Type: NodeLink, Name: `café "x"`, URL: "https://a/?q=1&r=2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChromium([]byte(tt.content))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChromium_Malformed(t *testing.T) {
	for _, content := range []string{
		``,
		`[]`,
		`{"roots": {`,
		`{"roots":{"other":{"type":1}}}`,
		`{"roots":{"other":{"children":{}}}}`,
		`{"roots":{"other":{"children":[1]}}}`,
		`{"roots":{}} trailing`,
	} {
		_, err := parseChromium([]byte(content))
		assert.Error(t, err, content)
	}
}

func TestCollect_IgnoresUnknownNodeTypes(t *testing.T) {
	roots := []Node{{Type: NodeFolder, Children: []Node{
		{Type: "separator", Name: "sep"},
		{Type: NodeLink, Name: "a", URL: "http://a"},
		{Type: NodeLink, Name: "ftp", URL: "ftp://b"},
	}}}

	records := collect("Chrome", "Default", roots)

	assert.Equal(t, []string{"a"}, titles(records))
}

func createPlaces(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT)`,
		`CREATE TABLE moz_bookmarks (id INTEGER PRIMARY KEY, type INTEGER, fk INTEGER,
			parent INTEGER, position INTEGER, title TEXT, guid TEXT)`,
		`INSERT INTO moz_places VALUES (1, 'https://mozilla.org', 'Mozilla page'),
			(2, 'https://go.dev', 'Go'), (3, 'place:sort=8', 'Recent'), (4, 'https://nested.dev', NULL)`,
		`INSERT INTO moz_bookmarks (id, type, fk, parent, position, title) VALUES
			(1, 2, NULL, 0, 0, ''),
			(2, 2, NULL, 1, 0, 'menu'),
			(3, 2, NULL, 1, 1, 'toolbar'),
			(10, 1, 2, 3, 1, 'Go'),
			(11, 1, 1, 3, 0, NULL),
			(12, 1, 3, 2, 0, 'Recent'),
			(13, 2, NULL, 2, 1, 'Sub'),
			(14, 1, 4, 13, 0, 'Nested')`,
		// Tags root: one folder per tag, one row per tagged place.
		`INSERT INTO moz_bookmarks VALUES
			(4, 2, NULL, 1, 2, 'tags', 'tags________'),
			(15, 2, NULL, 4, 0, 'lang', 'Zq9lang_____'),
			(16, 1, 2, 15, 0, NULL, 'Zq9tagrow___')`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func TestScan_FirefoxPlaces(t *testing.T) {
	// Given: a Firefox profile directory with a places database
	base := t.TempDir()
	createPlaces(t, filepath.Join(base, "abcd1234.default-release", "places.sqlite"))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "Crash Reports"), 0o755))

	s := New(Options{Resolver: StaticResolver{"Firefox": base}, Families: []Family{Firefox}})

	// When: scanning
	records, reports := s.ScanWithReport()

	// Then: folders are walked in position order, place: URLs dropped and
	// tag entries not reported as bookmarks
	assert.Equal(t, []string{"Nested", "Mozilla page", "Go"}, titles(records))
	for _, r := range records {
		assert.Equal(t, "Firefox", r.Browser)
		assert.Equal(t, "default-release", r.Profile)
	}

	// Then: the dir without a database is not a profile
	require.Len(t, reports, 1)
	assert.Equal(t, StatusOK, reports[0].Status)
}

func TestScan_FirefoxCorruptDatabase(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "x.default", "places.sqlite"), "not a database")

	s := New(Options{Resolver: StaticResolver{"Firefox": base}, Families: []Family{Firefox}})
	records, reports := s.ScanWithReport()

	assert.Empty(t, records)
	require.Len(t, reports, 1)
	assert.Equal(t, StatusMalformed, reports[0].Status)
	assert.Equal(t, "default", reports[0].Profile)
}

func TestWatchPaths(t *testing.T) {
	chrome := t.TempDir()
	firefox := t.TempDir()
	writeFile(t, filepath.Join(firefox, "a.default", "places.sqlite"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(firefox, "empty.profile"), 0o755))

	s := New(Options{
		Resolver: StaticResolver{"Chrome": chrome, "Firefox": firefox},
		Families: []Family{Chrome, Firefox},
	})

	assert.Equal(t, []string{
		filepath.Join(chrome, "Default", "Bookmarks"),
		filepath.Join(firefox, "a.default", "places.sqlite"),
		filepath.Join(firefox, "a.default", "places.sqlite-wal"),
	}, s.WatchPaths())
}

func TestFirefoxProfileName(t *testing.T) {
	assert.Equal(t, "default-release", firefoxProfileName("k3j2x9.default-release"))
	assert.Equal(t, "plain", firefoxProfileName("plain"))
	assert.Equal(t, "trailing.", firefoxProfileName("trailing."))
}
