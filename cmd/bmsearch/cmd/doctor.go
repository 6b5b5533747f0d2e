package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/daemon"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
	"github.com/Aman-CERP/bmsearch/internal/logging"
	"github.com/Aman-CERP/bmsearch/internal/output"
	"github.com/Aman-CERP/bmsearch/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment and diagnose issues",
		Long: heredoc.Doc(`
			Run diagnostics to ensure bmsearch can operate correctly.

			Checks:
			  - Data directory write permissions
			  - Disk space (10 MiB minimum)
			  - File descriptor limits (256 minimum)
			  - Bookmark stores of the enabled browsers
			  - Index daemon (informational)

			Use --verbose to list broken stores.
			Use --json for machine-readable output.
		`),
		Example: heredoc.Doc(`
			# Run diagnostics
			bmsearch doctor

			# JSON output for scripting
			bmsearch doctor --json
		`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// doctorReport is the JSON shape of a doctor run.
type doctorReport struct {
	Status   string                  `json:"status"`
	Checks   []preflight.CheckResult `json:"checks"`
	Warnings []string                `json:"warnings,omitempty"`
	Errors   []string                `json:"errors,omitempty"`
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checker := preflight.New(logging.DataDir(),
		preflight.WithStores(newScanner(cfg)),
		preflight.WithDaemon(daemon.NewClient(daemon.DefaultConfig())),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(cmd.Context())

	if jsonOutput {
		errs, warnings := preflight.Issues(results)
		if err := output.New(cmd.OutOrStdout()).JSON(doctorReport{
			Status:   checker.SummaryStatus(results),
			Checks:   results,
			Warnings: warnings,
			Errors:   errs,
		}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return bmerrors.New(bmerrors.ErrCodePreflightFailed, "system check failed", nil).
			WithSuggestion("Run 'bmsearch doctor --verbose' for details")
	}
	return nil
}
