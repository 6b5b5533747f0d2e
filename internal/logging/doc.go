// Package logging provides file-based logging with rotation for bmsearch.
// The daemon always logs to ~/.bmsearch/logs/bmsearch.log; CLI commands only
// log to file when --debug is set and otherwise report warnings to stderr.
package logging
