// Package preflight runs the environment checks behind "bmsearch doctor".
//
// The checker validates:
//   - Write permissions in the data directory
//   - Free disk space for logs (minimum 10 MiB)
//   - File descriptor limit for the store watcher (minimum 256)
//   - Readable bookmark stores for the enabled browsers
//   - Whether the index daemon is running (informational)
//
//	checker := preflight.New(dataDir, preflight.WithStores(scanner))
//	results := checker.RunAll(ctx)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
