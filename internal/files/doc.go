// Package files provides data-directory operations for the FireDays
// dashboard.
//
// Discovery resolves the four source files inside the data directory —
// exact configured name first, then a case-insensitive glob fallback — and
// lists CSV/Excel files for the status endpoint.
//
// Watcher observes the data directory with fsnotify and invokes a reload
// callback after a debounce window, so dropping new source files into the
// directory refreshes the dashboard without a restart.
package files
