package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"
)

// LogEntry represents a parsed JSON log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig configures the log viewer.
type ViewerConfig struct {
	Level   string         // minimum level
	Pattern *regexp.Regexp // raw-line filter
	Since   time.Time      // drop entries logged before this, if set
	NoColor bool
}

// Viewer reads, filters and prints bmsearch log files.
type Viewer struct {
	config  ViewerConfig
	out     io.Writer
	profile termenv.Profile
}

// NewViewer creates a new log viewer.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	profile := termenv.ANSI
	if cfg.NoColor {
		profile = termenv.Ascii
	}
	return &Viewer{
		config:  cfg,
		out:     out,
		profile: profile,
	}
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Ring of the last n lines.
	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	for scanner.Scan() {
		if n <= 0 {
			continue
		}
		if len(lines) == n {
			lines = lines[1:]
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		entry := v.parseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path until ctx is cancelled. It wakes on
// fsnotify events for the log directory, with a slow tick as fallback, and
// reopens the file after rotation.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	t, err := openTail(path)
	if err != nil {
		return err
	}
	defer func() { _ = t.file.Close() }()

	var events <-chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer func() { _ = w.Close() }()
		if w.Add(filepath.Dir(path)) == nil {
			events = w.Events
		}
	}

	ticker := time.NewTicker(followFallbackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// Drain the rotated file, then switch to the new one.
				if !v.drain(ctx, t, entries) {
					return nil
				}
				if nt, err := reopenTail(path); err == nil {
					_ = t.file.Close()
					t = nt
				}
			}
		case <-ticker.C:
		}
		if !v.drain(ctx, t, entries) {
			return nil
		}
	}
}

// followFallbackInterval bounds latency where fsnotify delivers nothing.
const followFallbackInterval = 250 * time.Millisecond

type tailFile struct {
	file    *os.File
	reader  *bufio.Reader
	partial string
}

func openTail(path string) (*tailFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to seek to end: %w", err)
	}
	return &tailFile{file: file, reader: bufio.NewReader(file)}, nil
}

// reopenTail opens a freshly rotated file from its start.
func reopenTail(path string) (*tailFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &tailFile{file: file, reader: bufio.NewReader(file)}, nil
}

// drain sends every complete line available in t. It returns false when ctx
// ended while sending.
func (v *Viewer) drain(ctx context.Context, t *tailFile, entries chan<- LogEntry) bool {
	for {
		chunk, err := t.reader.ReadString('\n')
		if err != nil {
			// Keep an incomplete trailing line for the next wake-up.
			t.partial += chunk
			return true
		}
		line := strings.TrimSuffix(t.partial+chunk, "\n")
		t.partial = ""
		if line == "" {
			continue
		}

		entry := v.parseLine(line)
		if !v.matchesFilter(entry) {
			continue
		}
		select {
		case entries <- entry:
		case <-ctx.Done():
			return false
		}
	}
}

// FormatEntry formats a log entry for display.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(entry.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.formatLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Attrs[k])
	}
	return b.String()
}

// Print prints entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// parseLine parses a JSON log line into LogEntry.
func (v *Viewer) parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = data["level"].(string)
	entry.Msg, _ = data["msg"].(string)

	entry.Attrs = make(map[string]any)
	for k, val := range data {
		if k != "time" && k != "level" && k != "msg" {
			entry.Attrs[k] = val
		}
	}
	return entry
}

// matchesFilter checks if an entry matches the configured filters.
// Unparseable lines pass the level filter.
func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" && entry.IsValid {
		if LevelFromString(entry.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}
	if !v.config.Since.IsZero() && entry.IsValid && !entry.Time.IsZero() && entry.Time.Before(v.config.Since) {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// formatLevel formats the log level with optional color.
func (v *Viewer) formatLevel(level string) string {
	levelStr := strings.ToUpper(level)
	if len(levelStr) > 5 {
		levelStr = levelStr[:5]
	}
	levelStr = fmt.Sprintf("%-5s", levelStr)

	if v.profile == termenv.Ascii {
		return levelStr
	}

	var color string
	switch strings.ToLower(level) {
	case "debug":
		color = "8"
	case "info":
		color = "2"
	case "warn", "warning":
		color = "3"
	case "error":
		color = "1"
	default:
		return levelStr
	}
	return v.profile.String(levelStr).Foreground(v.profile.Color(color)).String()
}
