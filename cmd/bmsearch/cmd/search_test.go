package cmd

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bmsearch/internal/daemon"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/internal/search"
)

func decodeResults(t *testing.T, out string) []search.Result {
	t.Helper()
	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	return results
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
}

func TestSearchCmd_LocalFallback(t *testing.T) {
	// Given: no daemon and a store with three bookmarks
	env := newTestEnv(t, "GitHub", "Gitee", "Go")

	// When: searching (stdout is not a terminal, so JSON)
	out, err := execute(t, "search", "git", "--config", env.configFile)

	// Then: both git hosts match with equal scores in store order
	require.NoError(t, err)
	results := decodeResults(t, out)
	require.Len(t, results, 2)
	assert.Equal(t, "GitHub", results[0].Title)
	assert.Equal(t, "Gitee", results[1].Title)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[0].Score, 200)
	assert.Equal(t, "Opera", results[0].Browser)
}

func TestSearchCmd_MultiWordQueryAndLimit(t *testing.T) {
	env := newTestEnv(t, "go dev one", "go dev two", "go dev three")

	out, err := execute(t, "search", "go", "dev", "-n", "2", "--config", env.configFile)

	require.NoError(t, err)
	results := decodeResults(t, out)
	require.Len(t, results, 2)
	assert.Equal(t, "go dev one", results[0].Title)
}

func TestSearchCmd_NoMatchIsEmptyJSONList(t *testing.T) {
	env := newTestEnv(t, "GitHub")

	out, err := execute(t, "search", "zh", "--config", env.configFile)

	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestSearchCmd_TextFormat(t *testing.T) {
	env := newTestEnv(t, "GitHub")

	out, err := execute(t, "search", "github", "--format", "text", "--config", env.configFile)

	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "https://GitHub.com")
	assert.Contains(t, out, "Opera/")

	out, err = execute(t, "search", "nothing-here", "--format", "text", "--config", env.configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "No bookmarks found")
}

func TestSearchCmd_InvalidInput(t *testing.T) {
	env := newTestEnv(t, "GitHub")

	_, err := execute(t, "search", "git", "-n", "-1", "--config", env.configFile)
	assert.Equal(t, bmerrors.ErrCodeInvalidLimit, bmerrors.GetCode(err))

	_, err = execute(t, "search", "git", "--format", "xml", "--config", env.configFile)
	assert.Equal(t, bmerrors.ErrCodeInvalidInput, bmerrors.GetCode(err))
}

func TestSearchCmd_PrefersDaemon(t *testing.T) {
	// Given: a running daemon whose stores differ from the config's
	env := newTestEnv(t, "OnDisk")
	daemonStore := t.TempDir()
	writeStore(t, daemonStore, "FromDaemon")
	src := scanner.New(scanner.Options{
		Resolver: scanner.StaticResolver{"Opera": daemonStore},
		Families: []scanner.Family{scanner.Opera},
	})

	dcfg := daemon.DefaultConfig()
	d, err := daemon.NewDaemon(dcfg, daemon.WithSource(src))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()
	require.Eventually(t, daemon.NewClient(dcfg).IsRunning, 5*time.Second, 20*time.Millisecond)

	// When: searching without --local
	out, err := execute(t, "search", "from", "--config", env.configFile)
	require.NoError(t, err)
	results := decodeResults(t, out)

	// Then: the daemon's index answered
	require.Len(t, results, 1)
	assert.Equal(t, "FromDaemon", results[0].Title)

	// And: --local bypasses it
	out, err = execute(t, "search", "ondisk", "--local", "--config", env.configFile)
	require.NoError(t, err)
	assert.Len(t, decodeResults(t, out), 1)
}

func TestSearchCmd_CopyTopURL(t *testing.T) {
	// Given: a fake clipboard
	env := newTestEnv(t, "GitHub", "Gitee")
	var copied []string
	orig := clipboardWrite
	clipboardWrite = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { clipboardWrite = orig })

	// When: searching with --copy
	_, err := execute(t, "search", "git", "--copy", "--config", env.configFile)

	// Then: only the best match's URL is copied
	require.NoError(t, err)
	assert.Equal(t, []string{"https://GitHub.com"}, copied)
}

func TestSearchCmd_CopyFailure(t *testing.T) {
	env := newTestEnv(t, "GitHub")
	orig := clipboardWrite
	clipboardWrite = func(string) error { return assert.AnError }
	t.Cleanup(func() { clipboardWrite = orig })

	_, err := execute(t, "search", "git", "--copy", "--config", env.configFile)

	require.Error(t, err)
	assert.Equal(t, bmerrors.ErrCodeUnsupportedEnvironment, bmerrors.GetCode(err))
}

func TestSearchCmd_CopyNothingWhenNoMatch(t *testing.T) {
	env := newTestEnv(t, "GitHub")
	orig := clipboardWrite
	called := false
	clipboardWrite = func(string) error {
		called = true
		return nil
	}
	t.Cleanup(func() { clipboardWrite = orig })

	_, err := execute(t, "search", "zzz", "--copy", "--config", env.configFile)

	require.NoError(t, err)
	assert.False(t, called)
}

func TestColumnWidths(t *testing.T) {
	title, url := columnWidths(0)
	assert.Equal(t, 50, title)
	assert.Equal(t, 70, url)

	title, url = columnWidths(130)
	assert.Equal(t, 40, title)
	assert.Equal(t, 60, url)

	title, url = columnWidths(40)
	assert.Equal(t, 20, title)
	assert.Equal(t, 30, url)
}
