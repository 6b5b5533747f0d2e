package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects where log records go and how much is kept.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// FilePath enables JSON file logging. Empty logs text to stderr only.
	FilePath string
	// MaxSizeMB triggers rotation of the log file.
	MaxSizeMB int
	// MaxFiles bounds the number of rotated generations.
	MaxFiles int
	// WriteToStderr mirrors file records to stderr.
	WriteToStderr bool
}

// DefaultConfig logs info and above to the rotating file in the data dir.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

// DebugConfig is DefaultConfig at debug level, mirrored to stderr.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.WriteToStderr = true
	return cfg
}

// StderrConfig logs warnings and errors to stderr only.
func StderrConfig() Config {
	return Config{Level: "warn"}
}

// Setup builds a logger for cfg. The returned cleanup flushes and closes
// the log file and is never nil on success.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: LevelFromString(cfg.Level)}

	if cfg.FilePath == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}

	file, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = file
	if cfg.WriteToStderr {
		sink = io.MultiWriter(file, os.Stderr)
	}

	cleanup := func() {
		_ = file.Sync()
		_ = file.Close()
	}
	return slog.New(slog.NewJSONHandler(sink, opts)), cleanup, nil
}

// SetupDefault installs the logger for cfg with slog.SetDefault.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// LevelFromString parses a level name, accepting "warning" for warn.
// Unknown names mean info.
func LevelFromString(level string) slog.Level {
	name := strings.TrimSpace(level)
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
