// Package cmd provides the CLI commands for bmsearch.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/config"
	"github.com/Aman-CERP/bmsearch/internal/logging"
	"github.com/Aman-CERP/bmsearch/internal/profiling"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/pkg/version"
)

// Persistent flags.
var (
	debugMode      bool
	configPath     string
	loggingCleanup func()
)

// Profiling flags.
var (
	profileCPU string
	profileMem string
	profile    *profiling.Session
)

// NewRootCmd creates the root command for the bmsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bmsearch",
		Short: "Search bookmarks across every installed browser",
		Long: heredoc.Doc(`
			bmsearch reads the bookmark stores of Chromium-family browsers and
			Firefox, and finds bookmarks by title, URL or, for Chinese titles, pinyin.

			Run 'bmsearch daemon start' to keep an always-current index in memory;
			searches use it when it is running and scan the stores directly otherwise.
		`),
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("bmsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.bmsearch/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (overrides the user config)")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write heap profile to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling when requested, then routes slog
// to stderr at warn level, or to the log file at debug level with --debug.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	opts := profiling.Options{CPUPath: profileCPU, HeapPath: profileMem}
	if opts.Enabled() {
		s, err := profiling.Start(opts)
		if err != nil {
			return err
		}
		profile = s
	}

	cfg := logging.StderrConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Info("debug logging enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Short()))
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	err := profile.Stop()
	profile = nil
	return err
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig loads the effective configuration honouring --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newScanner builds a scanner for cfg over the host's browser locations.
func newScanner(cfg *config.Config) *scanner.Scanner {
	return scanner.New(scanner.Options{
		Resolver: cfg.Resolver(scanner.NewEnvResolver()),
		Families: cfg.Families(),
	})
}
