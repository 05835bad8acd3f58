// Package geometry tracks the window size and its absolute position on the
// screen and pushes both into GPU-visible uniforms.
//
// The size always comes from the event loop. The position is best effort:
// it is asked from the window manager through a PositionQuerier selected
// once at startup and falls back to (0, 0) when the query fails. Only the
// background parallax depends on it.
package geometry

import (
	"log/slog"
)

// Sink receives geometry updates. internal/gpu.Uniforms implements it.
type Sink interface {
	SetWindowSize(w, h float32)
	SetWindowPosition(x, y float32)
}

// Tracker keeps the current window geometry.
type Tracker struct {
	sink    Sink
	querier PositionQuerier
	logger  *slog.Logger

	width, height uint32
	x, y          float32
}

// NewTracker creates a tracker. A nil querier disables position queries.
func NewTracker(sink Sink, querier PositionQuerier, logger *slog.Logger) *Tracker {
	if querier == nil {
		querier = None{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{sink: sink, querier: querier, logger: logger}
}

// OnResize records a new window size, writes the size uniform and refreshes
// the position. A zero width or height leaves everything untouched and
// returns false.
func (t *Tracker) OnResize(w, h uint32) bool {
	if w == 0 || h == 0 {
		return false
	}
	t.width, t.height = w, h
	t.sink.SetWindowSize(float32(w), float32(h))
	t.RefreshPosition()
	return true
}

// RefreshPosition asks the window manager where the window is and writes
// the position uniform. On failure the uniform is set to (0, 0) and ok is
// false.
func (t *Tracker) RefreshPosition() (x, y float32, ok bool) {
	x, y, err := t.querier.WindowPosition(t.height)
	if err != nil {
		t.logger.Debug("geometry: window position unavailable", "querier", t.querier.Name(), "error", err)
		x, y = 0, 0
	} else {
		ok = true
	}
	t.x, t.y = x, y
	t.sink.SetWindowPosition(x, y)
	return x, y, ok
}

// Size returns the last non-zero window size.
func (t *Tracker) Size() (w, h uint32) { return t.width, t.height }

// Position returns the last published window position.
func (t *Tracker) Position() (x, y float32) { return t.x, t.y }

// MonitorSize returns the resolution of the monitor holding the window, or
// the window size when the window manager cannot tell.
func (t *Tracker) MonitorSize() (w, h uint32) {
	mw, mh, err := t.querier.MonitorSize()
	if err != nil || mw == 0 || mh == 0 {
		return t.width, t.height
	}
	return mw, mh
}
