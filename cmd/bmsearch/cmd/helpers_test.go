package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv isolates config and state dirs and returns a config file that
// scans a single Opera store holding links.
type testEnv struct {
	home       string
	configFile string
	storeDir   string
}

func newTestEnv(t *testing.T, links ...string) testEnv {
	t.Helper()
	env := testEnv{
		home:     t.TempDir(),
		storeDir: t.TempDir(),
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("BMSEARCH_HOME", env.home)

	writeStore(t, env.storeDir, links...)

	env.configFile = filepath.Join(t.TempDir(), "config.yaml")
	cfg := fmt.Sprintf("browsers:\n  enabled: [opera]\n  roots:\n    opera: %s\n", env.storeDir)
	require.NoError(t, os.WriteFile(env.configFile, []byte(cfg), 0644))
	return env
}

// writeStore writes a Chromium Bookmarks file whose titles are links and
// whose URLs are https://<link>.com.
func writeStore(t *testing.T, dir string, links ...string) {
	t.Helper()
	children := make([]string, len(links))
	for i, l := range links {
		children[i] = fmt.Sprintf(`{"type":"url","name":%q,"url":"https://%s.com"}`, l, strings.ReplaceAll(l, " ", ""))
	}
	data := `{"roots":{"bookmark_bar":{"type":"folder","children":[` + strings.Join(children, ",") + `]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bookmarks"), []byte(data), 0644))
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}
