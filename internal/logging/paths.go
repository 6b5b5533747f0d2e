package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDir returns bmsearch's state directory: $BMSEARCH_HOME if set,
// otherwise ~/.bmsearch. Falls back to the temp directory if home is
// unavailable.
func DataDir() string {
	if dir := os.Getenv("BMSEARCH_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bmsearch")
	}
	return filepath.Join(home, ".bmsearch")
}

// DefaultLogDir returns the default log directory (~/.bmsearch/logs/).
func DefaultLogDir() string {
	return filepath.Join(DataDir(), "logs")
}

// DefaultLogPath returns the default log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "bmsearch.log")
}

// FindLogFile returns explicit if it exists, otherwise the default log path
// if that exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("no log file found. Run the daemon or use --debug first.\nExpected at: %s", path)
}
