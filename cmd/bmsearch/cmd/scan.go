package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/output"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
)

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List bookmark stores and what was read from them",
		Long: `Scan every configured browser and report each candidate bookmark store:
whether it was found and parsed, and how many bookmarks it contributed.

Missing or unreadable stores are not errors; they are reported and skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runScan(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, reports := newScanner(cfg).ScanWithReport()
	if reports == nil {
		reports = []scanner.SourceReport{}
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return out.JSON(reports)
	}

	if len(reports) == 0 {
		out.Warning("No browser bookmark locations found on this system")
		return nil
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.Source.Browser,
			r.Source.Profile,
			string(r.Status),
			strconv.Itoa(r.Records),
			r.Source.Path,
		}
	}
	if err := out.Table([]string{"BROWSER", "PROFILE", "STATUS", "BOOKMARKS", "PATH"}, rows); err != nil {
		return err
	}

	out.Newline()
	out.Statusf("", "%d bookmarks from %d stores", len(records), len(reports))
	return nil
}

// summarizeSources renders per-status counts, e.g. "3 ok, 1 missing".
func summarizeSources(reports []scanner.SourceReport) string {
	counts := make(map[scanner.SourceStatus]int)
	for _, r := range reports {
		counts[r.Status]++
	}

	var parts []string
	for _, st := range []scanner.SourceStatus{
		scanner.StatusOK, scanner.StatusMissing, scanner.StatusMalformed, scanner.StatusUnreadable,
	} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
