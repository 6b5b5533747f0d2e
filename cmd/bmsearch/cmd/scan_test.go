package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bmsearch/internal/scanner"
)

func TestScanCmd_JSON(t *testing.T) {
	// Given: one readable store
	env := newTestEnv(t, "GitHub", "Go")

	// When: scanning with --json
	out, err := execute(t, "scan", "--json", "--config", env.configFile)

	// Then: one ok report with two bookmarks
	require.NoError(t, err)
	var reports []scanner.SourceReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "Opera", reports[0].Browser)
	assert.Equal(t, scanner.StatusOK, reports[0].Status)
	assert.Equal(t, 2, reports[0].Records)
	assert.Equal(t, filepath.Join(env.storeDir, "Bookmarks"), reports[0].Path)
}

func TestScanCmd_TextReportsMalformedStore(t *testing.T) {
	// Given: a store that is not JSON
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.storeDir, "Bookmarks"), []byte("{broken"), 0644))

	// When: scanning
	out, err := execute(t, "scan", "--config", env.configFile)

	// Then: the scan still succeeds and reports the store
	require.NoError(t, err)
	assert.Contains(t, out, "BROWSER")
	assert.Contains(t, out, "malformed")
	assert.Contains(t, out, "0 bookmarks from 1 stores")
}

func TestSummarizeSources(t *testing.T) {
	reports := []scanner.SourceReport{
		{Status: scanner.StatusOK},
		{Status: scanner.StatusMissing},
		{Status: scanner.StatusOK},
		{Status: scanner.StatusUnreadable},
	}

	assert.Equal(t, "2 ok, 1 missing, 1 unreadable", summarizeSources(reports))
	assert.Equal(t, "none", summarizeSources(nil))
}
