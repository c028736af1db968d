// Package logtail reads and formats deckhand's own log file.
//
// # Overview
//
// The dashboard owns the terminal, so the process logger writes JSON lines
// to a file instead of stderr. `deckhand logs` uses this package to show the
// tail of that file in a readable form.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) regardless of file size. Lines come back in
// chronological order. A non-positive maxLines returns the whole file.
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//
// # Formatting
//
// Parse turns a logrus JSON line into a Record. FormatLines parses, filters
// by minimum level, and renders each record as
//
//	2026-03-01 10:00:01 ERROR [stream] stream error url=ws://...
//
// Lines that are not JSON (panics, output from older versions) pass through
// untouched. Color uses lipgloss and is disabled when output is not a
// terminal.
package logtail
