// Package volume provides the sources of audio peaks that drive the
// visualization intensity.
package volume

import (
	"errors"
	"log/slog"
)

// Provider reports audio peaks. Poll must not block: it returns the most
// recent peak and true, or false when nothing new arrived since the last
// call. Peaks are magnitudes and may exceed 1.
type Provider interface {
	Poll() (float32, bool)
}

// ErrUnavailable is returned when a live provider cannot be created.
var ErrUnavailable = errors.New("volume: live provider unavailable")

// Constant always reports the same value. It is the fallback when no live
// audio source can be opened.
type Constant struct {
	Value float32
}

// Poll returns c.Value.
func (c Constant) Poll() (float32, bool) { return c.Value, true }

// Options selects and tunes a provider.
type Options struct {
	// Live enables the system audio peak monitor.
	Live bool

	// Constant is reported when the live provider is disabled or fails.
	Constant float32

	// PeakRate is the requested sample rate of the monitor stream in Hz.
	PeakRate int

	// ApplicationName is announced to the sound server.
	ApplicationName string
}

// opener builds the live provider. Replaced in tests.
var opener = func(opts Options) (Provider, error) {
	p, err := OpenPulse(opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Open returns the live provider when it is enabled and can be created,
// and a Constant provider otherwise. It never fails: a missing sound server
// or output device only degrades the visualization to a steady intensity.
func Open(opts Options, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fallback := Constant{Value: opts.Constant}
	if !opts.Live {
		logger.Info("volume: live monitor disabled, using constant", "value", opts.Constant)
		return fallback
	}
	p, err := opener(opts)
	if err != nil {
		logger.Warn("volume: live monitor unavailable, using constant",
			"value", opts.Constant, "error", err)
		return fallback
	}
	logger.Info("volume: live monitor connected")
	return p
}

// Close releases p if it holds external resources.
func Close(p Provider) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
