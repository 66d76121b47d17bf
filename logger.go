package scenesync

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip attribute construction entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Displays may run in different
// goroutines, so the pointer is swapped atomically.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for scenesync and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by scenesync:
//   - [slog.LevelDebug]: per-frame diagnostics (frame ids, pruned subtrees,
//     incompatible subtree rebuilds, shared cache creation)
//   - [slog.LevelInfo]: display lifecycle
//   - [slog.LevelWarn]: recoverable anomalies (ignored cache hints,
//     stitcher falling back to a full rebuild)
//
// Example:
//
//	scenesync.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages call this instead of
// holding their own copy so SetLogger takes effect everywhere.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
