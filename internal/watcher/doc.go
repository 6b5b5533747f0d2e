// Package watcher reports changes to a fixed set of files.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify on each target's parent directory, so a store that
//     is replaced by rename is still seen
//   - Fallback: polling target size and mtime where fsnotify is unavailable
//
// Events are debounced per path and delivered in batches.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, []string{"/home/u/.config/google-chrome/Default/Bookmarks"})
//
//	for batch := range w.Events() {
//	    rebuild()
//	}
package watcher
