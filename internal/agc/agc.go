// Package agc implements the auto-gain controller that turns raw volume
// peaks into a bounded visual intensity.
//
// The controller keeps two numbers between frames: the last published
// intensity and a gain multiplier. A usable signal slowly raises the gain,
// a clipping peak lowers it at once so the frame output is exactly 1, and
// silence lets the intensity decay linearly to zero.
package agc

import (
	"errors"
	"fmt"
)

// Default tunables.
const (
	DefaultInitialIntensity float32 = 0.8
	DefaultTimeConstant     float32 = 20
	DefaultMaxGain          float32 = 100
	DefaultInitialGain      float32 = 1
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("agc: invalid parameters")

// Params configures a Controller.
type Params struct {
	// InitialIntensity seeds the last published intensity, in [0, 1].
	InitialIntensity float32

	// TimeConstant is the decay/rise time in seconds. Silence drains a full
	// intensity in TimeConstant seconds and the gain rises by one unit over
	// the same period.
	TimeConstant float32

	// MaxGain caps the gain multiplier on the increasing branch.
	MaxGain float32
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		InitialIntensity: DefaultInitialIntensity,
		TimeConstant:     DefaultTimeConstant,
		MaxGain:          DefaultMaxGain,
	}
}

// Validate reports whether p can drive a Controller.
func (p Params) Validate() error {
	switch {
	case p.InitialIntensity < 0 || p.InitialIntensity > 1:
		return fmt.Errorf("%w: initial intensity %v outside [0, 1]", ErrInvalidParams, p.InitialIntensity)
	case p.TimeConstant <= 0:
		return fmt.Errorf("%w: time constant %v must be positive", ErrInvalidParams, p.TimeConstant)
	case p.MaxGain < 1:
		return fmt.Errorf("%w: max gain %v below 1", ErrInvalidParams, p.MaxGain)
	}
	return nil
}

// State is a snapshot of the controller between frames.
type State struct {
	LastIntensity float32
	Gain          float32
}

// Controller is the intensity state machine. It is not safe for concurrent
// use; the render loop owns it.
type Controller struct {
	params Params
	state  State

	// OnClip, when set, is called whenever a peak exceeds unity, with the
	// offending candidate and the gain before it was reduced.
	OnClip func(candidate, gain float32)
}

// New creates a controller seeded from p.
func New(p Params) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		params: p,
		state: State{
			LastIntensity: p.InitialIntensity,
			Gain:          DefaultInitialGain,
		},
	}, nil
}

// Step advances the controller by one frame. ok reports whether sample is
// a fresh reading; dt is the elapsed time in seconds. The returned value is
// the intensity to publish for this frame.
func (c *Controller) Step(sample float32, ok bool, dt float32) float32 {
	var candidate float32
	if ok {
		// Peaks are magnitudes; a negative reading carries no signal.
		candidate = max(sample, 0) * c.state.Gain
	} else {
		candidate = max(c.state.LastIntensity-dt/c.params.TimeConstant, 0)
	}

	if candidate > 1 {
		if c.OnClip != nil {
			c.OnClip(candidate, c.state.Gain)
		}
		c.state.Gain /= candidate
		candidate = 1
	} else if candidate != 0 {
		c.state.Gain = min(c.state.Gain+dt/c.params.TimeConstant, c.params.MaxGain)
	}

	c.state.LastIntensity = candidate
	return candidate
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Params returns the tuning the controller was built with.
func (c *Controller) Params() Params { return c.params }
