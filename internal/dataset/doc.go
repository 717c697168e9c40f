// Package dataset loads the four wildfire source files, applies the cleaning
// rules, and joins them into the immutable Snapshot the dashboard serves.
//
// The four sources are externally owned and header-addressed: loaders locate
// columns by header name, never by position. Row-level parse failures are
// silent-but-counted — a bad row increments the source's dropped counter and
// emits a debug log line, it never fails the load. File-level failures
// (missing file, unreadable header) do fail the load.
//
// A Snapshot is built once per load and swapped atomically by the service
// layer; nothing in this package mutates a Snapshot after Build returns.
package dataset
