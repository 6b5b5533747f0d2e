package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Scanning bookmark stores...")

	// Then: output contains icon and message
	assert.Equal(t, "🔍 Scanning bookmark stores...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")

	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("indexed %d bookmarks", 3)
	w.Warningf("%s unavailable", "Firefox")
	w.Errorf("daemon %s", "stopped")

	out := buf.String()
	assert.Contains(t, out, "✅ indexed 3 bookmarks")
	assert.Contains(t, out, "⚠️  Firefox unavailable")
	assert.Contains(t, out, "❌ daemon stopped")
}

func TestWriter_Code(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("a\nb")

	assert.Equal(t, "\n  a\n  b\n\n", buf.String())
}

func TestWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).JSON(map[string]int{"n": 1}))

	assert.Equal(t, "{\n  \"n\": 1\n}\n", buf.String())
}

func TestWriter_Table(t *testing.T) {
	buf := &bytes.Buffer{}

	require.NoError(t, New(buf).Table([]string{"A", "LONGER"}, [][]string{{"xxxx", "y"}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "A     LONGER", lines[0])
	assert.Equal(t, "xxxx  y", lines[1])
}

func TestResolveFormat(t *testing.T) {
	buf := &bytes.Buffer{}

	f, err := ResolveFormat("", buf)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f, "non-terminal defaults to JSON")

	f, err = ResolveFormat("TEXT", buf)
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ResolveFormat("yaml", buf)
	assert.Error(t, err)
	assert.False(t, IsTerminal(buf))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "中文书…", Truncate("中文书签管理", 4))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestTerminalWidth_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, TerminalWidth(&buf))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, 0, TerminalWidth(f))
}
