package dots

import (
	"image"
	"math/rand/v2"

	"github.com/gogpu/dots/internal/geometry"
	"github.com/gogpu/dots/internal/telemetry"
	"github.com/gogpu/dots/internal/volume"
)

// Option configures a Visualizer during creation.
//
// Example:
//
//	v, err := dots.New(device, queue, cfg,
//	    dots.WithSurface(surface),
//	    dots.WithVolumeProvider(volume.Constant{Value: 0.5}),
//	)
type Option func(*options)

type options struct {
	surface    Surface
	background image.Image
	provider   volume.Provider
	querier    geometry.PositionQuerier
	rng        *rand.Rand
	trace      *telemetry.Trace
}

// WithSurface sets the surface that Resize configures and Render draws to.
// Its format selects the render pipeline format.
func WithSurface(s Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithBackground draws img behind the particles. The image is resampled to
// cover the monitor. It takes precedence over the configured background
// path.
func WithBackground(img image.Image) Option {
	return func(o *options) {
		o.background = img
	}
}

// WithVolumeProvider replaces the provider selected from the configuration.
// The Visualizer does not close a provider passed this way.
func WithVolumeProvider(p volume.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithQuerier replaces the window position strategy detected from the
// environment.
func WithQuerier(q geometry.PositionQuerier) Option {
	return func(o *options) {
		o.querier = q
	}
}

// WithRand sets the random source used to seed particles.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithTelemetry records every Update to tr. The caller closes tr.
func WithTelemetry(tr *telemetry.Trace) Option {
	return func(o *options) {
		o.trace = tr
	}
}
