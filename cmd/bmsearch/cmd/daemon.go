package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/config"
	"github.com/Aman-CERP/bmsearch/internal/daemon"
	"github.com/Aman-CERP/bmsearch/internal/logging"
	"github.com/Aman-CERP/bmsearch/internal/metrics"
	"github.com/Aman-CERP/bmsearch/internal/output"
	"github.com/Aman-CERP/bmsearch/internal/watcher"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background index daemon",
		Long: heredoc.Doc(`
			The daemon keeps the bookmark index in memory and rebuilds it whenever a
			browser writes its bookmark store, so searches are instant and current.

			Commands:
			  start    Start the daemon (runs in background by default)
			  stop     Stop the running daemon
			  status   Show daemon and index status
			  rebuild  Rescan every store now
		`),
		Example: heredoc.Doc(`
			bmsearch daemon start      # Start daemon in background
			bmsearch daemon start -f   # Run in foreground (for debugging)
			bmsearch daemon status     # Check if daemon is running
			bmsearch daemon stop       # Stop the daemon
		`),
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	cmd.AddCommand(newDaemonRebuildCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the background daemon",
		Long: `Start the index daemon in the background.

Use --foreground for debugging or to see logs in real-time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStart(cmd.Context(), cmd, foreground)
		},
	}

	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (don't daemonize)")
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long: `Stop the running index daemon.

Sends SIGTERM for a graceful shutdown and SIGKILL if it does not exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStop(cmd.Context(), cmd)
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Long: `Show whether the daemon is running, its uptime, the watcher in use and the
state of the published index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDaemonRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rescan every bookmark store now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonRebuild(cmd.Context(), cmd)
		},
	}
}

func runDaemonStart(ctx context.Context, cmd *cobra.Command, foreground bool) error {
	out := output.New(cmd.OutOrStdout())
	dcfg := daemon.DefaultConfig()

	client := daemon.NewClient(dcfg)
	if client.IsRunning() {
		out.Status("", "Daemon is already running")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if foreground {
		return runDaemonForeground(ctx, out, cfg, dcfg)
	}

	out.Status("", "Starting daemon in background...")

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	bgCmd := exec.Command(execPath, args...)
	bgCmd.Stdout = nil
	bgCmd.Stderr = nil
	bgCmd.Stdin = nil
	bgCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := bgCmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Reap the child and notice if it dies before becoming ready.
	done := make(chan error, 1)
	go func() { done <- bgCmd.Wait() }()

	for i := 0; i < 50; i++ {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("daemon process exited unexpectedly: %w (see %s)", err, logging.DefaultLogPath())
			}
			return fmt.Errorf("daemon process exited unexpectedly (see %s)", logging.DefaultLogPath())
		default:
		}

		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Successf("Daemon started (pid: %d)", bgCmd.Process.Pid)
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

// runDaemonForeground logs to file and stderr, then serves until ctx ends.
func runDaemonForeground(ctx context.Context, out *output.Writer, cfg *config.Config, dcfg daemon.Config) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	if debugMode {
		logCfg.Level = "debug"
	}
	logCfg.WriteToStderr = true
	if cleanup, err := logging.SetupDefault(logCfg); err == nil {
		defer cleanup()
	}

	dcfg.MetricsAddr = cfg.Server.MetricsAddr
	src := newScanner(cfg)

	opts := []daemon.Option{
		daemon.WithSource(src),
		daemon.WithSearchOptions(cfg.SearchOptions()),
		daemon.WithCacheSize(cfg.Search.CacheSize),
		daemon.WithMetrics(metrics.New()),
	}
	if cfg.Watch.Enabled {
		opts = append(opts, daemon.WithWatch(src.WatchPaths(), watcher.Options{
			DebounceWindow: cfg.Watch.Debounce,
			PollInterval:   cfg.Watch.PollInterval,
			ForcePolling:   cfg.Watch.ForcePolling,
		}), daemon.WithRebuildInterval(cfg.Watch.MinRebuildInterval))
	}

	d, err := daemon.NewDaemon(dcfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	out.Status("", "Starting daemon in foreground...")
	out.Statusf("", "Socket: %s", dcfg.SocketPath)
	out.Statusf("", "Logs: %s", logging.DefaultLogPath())
	if dcfg.MetricsAddr != "" {
		out.Statusf("", "Metrics: http://%s/metrics", dcfg.MetricsAddr)
	}
	out.Status("", "Press Ctrl+C to stop")
	out.Newline()

	slog.Info("daemon starting in foreground mode",
		slog.String("socket", dcfg.SocketPath),
		slog.Int("families", len(src.Families())),
		slog.Bool("watch", cfg.Watch.Enabled))

	if err := d.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStop(ctx context.Context, cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	pidFile := daemon.NewPIDFile(daemon.DefaultConfig().PIDPath)

	if !pidFile.IsRunning() {
		if removed, _ := pidFile.RemoveIfStale(); removed {
			out.Status("", "Removed stale PID file")
		}
		out.Status("", "Daemon is not running")
		return nil
	}

	pid, err := pidFile.Read()
	if err != nil {
		return fmt.Errorf("failed to read PID: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pidFile.Terminate(waitCtx); err == nil {
		out.Successf("Daemon stopped (was pid: %d)", pid)
		return nil
	}

	out.Status("", "Daemon not responding, sending SIGKILL...")
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	_ = pidFile.Remove()

	out.Success("Daemon killed")
	return nil
}

func runDaemonStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())
	dcfg := daemon.DefaultConfig()
	client := daemon.NewClient(dcfg)

	if !client.IsRunning() {
		if jsonOutput {
			return out.JSON(daemon.StatusResult{Running: false})
		}
		out.Status("", "Daemon is not running")
		out.Status("", "Run 'bmsearch daemon start' to start it")
		return nil
	}

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if jsonOutput {
		return out.JSON(status)
	}

	idx := status.Index
	out.Status("", "Daemon is running")
	out.Statusf("", "  PID:             %d", status.PID)
	out.Statusf("", "  Uptime:          %s", status.Uptime)
	out.Statusf("", "  Watcher:         %s", status.Watcher)
	out.Statusf("", "  Bookmarks:       %d", idx.Entries)
	out.Statusf("", "  Generation:      %d", idx.Generation)
	out.Statusf("", "  Transliteration: %s", idx.Transliteration)
	out.Statusf("", "  Last rebuild:    %s (%s, %s)",
		idx.LastRebuild.Format(time.RFC3339), idx.LastTrigger, idx.LastDuration.Round(time.Millisecond))
	out.Statusf("", "  Stores:          %s", summarizeSources(idx.Sources))
	if q := status.Queries; q != nil {
		out.Statusf("", "  Queries:         %d (%.1f%% without results)", q.TotalQueries, q.ZeroResultPercentage())
	}
	out.Statusf("", "  Socket:          %s", dcfg.SocketPath)

	return nil
}

func runDaemonRebuild(ctx context.Context, cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	client := daemon.NewClient(daemon.DefaultConfig())

	stats, err := client.Rebuild(ctx)
	if err != nil {
		return err
	}

	out.Successf("Index rebuilt: %d bookmarks, generation %d (%s)",
		stats.Entries, stats.Generation, stats.Duration.Round(time.Millisecond))
	return nil
}
