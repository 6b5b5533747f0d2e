package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bmsearch/pkg/version"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "default",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "bmsearch "+version.Short())
				assert.Contains(t, out, "commit")
				assert.Contains(t, out, "transliteration: pinyin")
			},
		},
		{
			name: "short",
			args: []string{"--short"},
			check: func(t *testing.T, out string) {
				assert.Equal(t, version.Short(), strings.TrimSpace(out))
			},
		},
		{
			name: "json",
			args: []string{"--json"},
			check: func(t *testing.T, out string) {
				var info version.BuildInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, version.Short(), info.Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)
			out, err := execute(t, append([]string{"version"}, tt.args...)...)
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestVersionCmd_ReportsConfiguredSearch(t *testing.T) {
	// Given: a config limited to Opera with transliteration off
	env := newTestEnv(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"browsers:\n  enabled: [opera, firefox]\n  roots:\n    opera: "+env.storeDir+"\nsearch:\n  transliteration: none\n"), 0644))

	// When: asking for JSON version info
	out, err := execute(t, "version", "--json", "--config", cfgFile)

	// Then: the build info is joined by the search setup
	require.NoError(t, err)
	var report struct {
		Version         string   `json:"version"`
		Transliteration string   `json:"transliteration"`
		Browsers        []string `json:"browsers"`
		StoreFormats    []string `json:"store_formats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, version.Short(), report.Version)
	assert.Equal(t, "none", report.Transliteration)
	assert.Equal(t, []string{"Opera", "Firefox"}, report.Browsers)
	assert.Equal(t, []string{"chromium-json", "firefox-places"}, report.StoreFormats)
}
