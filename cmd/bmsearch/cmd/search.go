package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bmsearch/internal/config"
	"github.com/Aman-CERP/bmsearch/internal/daemon"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
	"github.com/Aman-CERP/bmsearch/internal/output"
	"github.com/Aman-CERP/bmsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "", "text", "json"
	local  bool   // bypass the daemon
	copy   bool   // put the top URL on the clipboard
}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search bookmarks by title, URL or pinyin",
		Long: heredoc.Doc(`
			Search bookmarks across every configured browser.

			A bookmark matches when the query appears in its title, its URL, or the
			full pinyin or pinyin initials of its title. Title hits rank above URL hits,
			which rank above pinyin hits; ties keep browser scan order.

			Uses the daemon's index when it is running, otherwise scans the stores.
			Output is a table on a terminal and JSON when piped.
		`),
		Example: heredoc.Doc(`
			bmsearch search github
			bmsearch search zhongwen -n 5
			bmsearch search "go dev" --format json
			bmsearch search rust book --copy
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: text, json (default: text on a terminal)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Scan stores directly instead of asking the daemon")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the best match's URL to the clipboard")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.limit < 0 {
		return bmerrors.New(bmerrors.ErrCodeInvalidLimit, "limit must not be negative", nil).
			WithDetail("limit", strconv.Itoa(opts.limit))
	}

	format, err := output.ResolveFormat(opts.format, cmd.OutOrStdout())
	if err != nil {
		return bmerrors.ValidationError(err.Error(), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit := cfg.ClampLimit(opts.limit)

	start := time.Now()
	mode := "daemon"
	results, err := searchDaemon(ctx, query, limit, opts.local)
	if err != nil {
		if bmerrors.GetCode(err) != bmerrors.ErrCodeDaemonUnavailable {
			return err
		}
		mode = "local"
		results, err = searchLocal(cfg, query, limit)
		if err != nil {
			return err
		}
	}

	slog.Debug("search complete",
		slog.String("mode", mode),
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	if opts.copy && len(results) > 0 {
		if err := clipboardWrite(results[0].URL); err != nil {
			return bmerrors.New(bmerrors.ErrCodeUnsupportedEnvironment, "could not write to the clipboard", err).
				WithSuggestion("Install xclip, xsel or wl-clipboard, or drop --copy")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s\n", results[0].URL)
	}

	return printResults(cmd, results, format)
}

// searchDaemon asks a running daemon. It reports ERR_302 when there is none
// or local is set, so the caller falls back to scanning.
func searchDaemon(ctx context.Context, query string, limit int, local bool) ([]search.Result, error) {
	if local {
		return nil, bmerrors.New(bmerrors.ErrCodeDaemonUnavailable, "local search requested", nil)
	}
	client := daemon.NewClient(daemon.DefaultConfig())
	return client.Search(ctx, daemon.SearchParams{Query: query, Limit: limit})
}

// searchLocal scans every store, builds a throwaway index and queries it.
func searchLocal(cfg *config.Config, query string, limit int) ([]search.Result, error) {
	records := newScanner(cfg).Scan()
	idx := search.Build(records, cfg.SearchOptions())
	return idx.Query(query, limit)
}

func printResults(cmd *cobra.Command, results []search.Result, format output.Format) error {
	out := output.New(cmd.OutOrStdout())

	if format == output.FormatJSON {
		return out.JSON(results)
	}

	if len(results) == 0 {
		out.Status("", "No bookmarks found")
		return nil
	}

	titleWidth, urlWidth := columnWidths(output.TerminalWidth(cmd.OutOrStdout()))
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			strconv.Itoa(r.Score),
			output.Truncate(r.Title, titleWidth),
			output.Truncate(r.URL, urlWidth),
			fmt.Sprintf("%s/%s", r.Browser, r.Profile),
		}
	}
	return out.Table([]string{"SCORE", "TITLE", "URL", "SOURCE"}, rows)
}

// columnWidths splits a terminal width between the title and URL columns.
// Width 0 (not a terminal) keeps fixed widths.
func columnWidths(width int) (title, url int) {
	const (
		fixed    = 30 // score, source and column gaps
		minTitle = 20
		minURL   = 30
	)
	if width <= 0 {
		return 50, 70
	}
	avail := width - fixed
	title = max(avail*2/5, minTitle)
	url = max(avail-title, minURL)
	return title, url
}
