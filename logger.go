package dots

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/dots/internal/gpu"
)

// nopHandler discards every record. Enabled reports false so no message is
// ever formatted.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for dots and its internal packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// The GPU layer picks the logger up immediately. The geometry tracker and
// the volume provider receive it when a Visualizer is created, so call
// SetLogger before New.
//
// Log levels used:
//   - [slog.LevelDebug]: per-event diagnostics (AGC clipping, position queries)
//   - [slog.LevelInfo]: lifecycle (adapter opened, volume source, resize)
//   - [slog.LevelWarn]: degraded operation (constant volume, dropped frame)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
