package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status in lower case for JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	for _, c := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		if strings.EqualFold(string(text), c.String()) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", text)
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// StoreReporter scans the configured bookmark stores.
type StoreReporter interface {
	ScanWithReport() ([]bookmark.Record, []scanner.SourceReport)
}

// DaemonProbe reports whether the index daemon answers.
type DaemonProbe interface {
	IsRunning() bool
}

// Checker performs preflight validation checks.
type Checker struct {
	dataDir string
	stores  StoreReporter
	daemon  DaemonProbe
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithStores enables the bookmark store check.
func WithStores(s StoreReporter) Option {
	return func(c *Checker) {
		c.stores = s
	}
}

// WithDaemon enables the daemon check.
func WithDaemon(d DaemonProbe) Option {
	return func(c *Checker) {
		c.daemon = d
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a Checker for the given data directory.
func New(dataDir string, opts ...Option) *Checker {
	c := &Checker{
		dataDir: dataDir,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every configured check in order.
func (c *Checker) RunAll(_ context.Context) []CheckResult {
	results := []CheckResult{
		c.CheckWritePermissions(c.dataDir),
		c.CheckDiskSpace(c.dataDir),
		c.CheckFileDescriptors(),
	}
	if c.stores != nil {
		results = append(results, c.CheckStores(c.stores))
	}
	if c.daemon != nil {
		results = append(results, c.CheckDaemon(c.daemon))
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status != StatusPass {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "bmsearch System Check")
	_, _ = fmt.Fprintln(c.output, "=====================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			for _, line := range strings.Split(r.Details, "\n") {
				_, _ = fmt.Fprintf(c.output, "      %s\n", line)
			}
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	errs, warnings := Issues(results)
	printIssues(c.output, "error(s)", errs)
	printIssues(c.output, "warning(s)", warnings)
}

// Issues splits non-passing results into critical errors and warnings.
func Issues(results []CheckResult) (errs, warnings []string) {
	for _, r := range results {
		switch {
		case r.IsCritical():
			errs = append(errs, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	return errs, warnings
}

func printIssues(w io.Writer, label string, issues []string) {
	if len(issues) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d %s:\n", len(issues), label)
	for _, i := range issues {
		_, _ = fmt.Fprintf(w, "  - %s\n", i)
	}
}

// CheckWritePermissions checks that the data directory can be created and written.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "data_dir",
		Required: true,
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}

	testFile := filepath.Join(dir, ".bmsearch-preflight-test")
	f, err := os.Create(testFile)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	result.Status = StatusPass
	result.Message = dir
	return result
}

// CheckStores scans the enabled browsers. It fails when no store could be
// read and warns when some store is broken.
func (c *Checker) CheckStores(s StoreReporter) CheckResult {
	result := CheckResult{
		Name:     "bookmark_stores",
		Required: true,
	}

	records, reports := s.ScanWithReport()
	var ok int
	var problems []string
	for _, r := range reports {
		switch r.Status {
		case scanner.StatusOK:
			ok++
		case scanner.StatusMissing:
		default:
			problems = append(problems, fmt.Sprintf("%s %s: %s (%s)", r.Browser, r.Profile, r.Status, r.Path))
		}
	}
	result.Details = strings.Join(problems, "\n")

	switch {
	case ok == 0:
		result.Status = StatusFail
		result.Message = "no readable bookmark store found"
	case len(problems) > 0:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d readable, %d broken, %d bookmarks", ok, len(problems), len(records))
	default:
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d readable, %d bookmarks", ok, len(records))
	}
	return result
}

// CheckDaemon reports whether the daemon is running. Never critical.
func (c *Checker) CheckDaemon(d DaemonProbe) CheckResult {
	result := CheckResult{Name: "daemon"}
	if d.IsRunning() {
		result.Status = StatusPass
		result.Message = "running"
		return result
	}
	result.Status = StatusWarn
	result.Message = "not running (searches scan stores directly)"
	result.Details = "Run 'bmsearch daemon start' for instant, live-updated searches"
	return result
}
