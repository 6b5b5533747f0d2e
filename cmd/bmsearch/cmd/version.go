package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/config"
	"github.com/Aman-CERP/bmsearch/internal/output"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/pkg/version"
)

// versionReport adds the search setup in effect to the build information.
type versionReport struct {
	version.BuildInfo
	Transliteration string   `json:"transliteration"`
	Browsers        []string `json:"browsers"`
	StoreFormats    []string `json:"store_formats"`
}

func newVersionCmd() *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the build version, commit and Go version, plus the transliteration
backend and browsers the current configuration searches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			}

			report := buildVersionReport()
			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(report)
			}

			out.Status("", version.String())
			out.Statusf("", "  transliteration: %s", report.Transliteration)
			out.Statusf("", "  browsers:        %s", strings.Join(report.Browsers, ", "))
			out.Statusf("", "  store formats:   %s", strings.Join(report.StoreFormats, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}

// buildVersionReport falls back to the defaults when the config cannot be
// loaded, so version always answers.
func buildVersionReport() versionReport {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.NewConfig()
	}
	families := cfg.Families()

	return versionReport{
		BuildInfo:       version.GetInfo(),
		Transliteration: cfg.SearchOptions().Transliterator.Name(),
		Browsers:        lo.Map(families, func(f scanner.Family, _ int) string { return f.Name }),
		StoreFormats: lo.Uniq(lo.Map(families, func(f scanner.Family, _ int) string {
			return string(f.Format)
		})),
	}
}
