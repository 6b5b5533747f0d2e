// Package daemon provides a background service that keeps the bookmark
// index in memory and rebuilds it when browser stores change. CLI commands
// query it over a Unix socket instead of rescanning every store per call.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/bmsearch/internal/logging"
)

// Config holds configuration for the daemon service.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.bmsearch/daemon.sock
	SocketPath string

	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.bmsearch/daemon.pid
	PIDPath string

	// LockPath guards against a second daemon on the same data dir.
	// Default: ~/.bmsearch/daemon.lock
	LockPath string

	// Timeout is the maximum duration for client-daemon communication.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod bounds the HTTP listener shutdown.
	// Default: 5s
	ShutdownGracePeriod time.Duration

	// MetricsAddr enables the /metrics and /healthz listener when set.
	MetricsAddr string
}

// DefaultConfig returns a Config rooted at ~/.bmsearch.
func DefaultConfig() Config {
	return ConfigForDir(logging.DataDir())
}

// ConfigForDir returns the default Config with every file placed in dir.
func ConfigForDir(dir string) Config {
	return Config{
		SocketPath:          filepath.Join(dir, "daemon.sock"),
		PIDPath:             filepath.Join(dir, "daemon.pid"),
		LockPath:            filepath.Join(dir, "daemon.lock"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 5 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.LockPath == "" {
		return fmt.Errorf("lock path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directories holding the socket, PID and lock files.
func (c Config) EnsureDir() error {
	seen := make(map[string]bool, 3)
	for _, p := range []string{c.SocketPath, c.PIDPath, c.LockPath} {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create daemon directory: %w", err)
		}
	}
	return nil
}
