package dots

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dots/internal/agc"
	"github.com/gogpu/dots/internal/background"
	"github.com/gogpu/dots/internal/config"
	"github.com/gogpu/dots/internal/geometry"
	"github.com/gogpu/dots/internal/gpu"
	"github.com/gogpu/dots/internal/telemetry"
	"github.com/gogpu/dots/internal/volume"
)

// ErrNoDevice is returned by New without a device or queue.
var ErrNoDevice = errors.New("dots: nil device or queue")

// Surface is where frames are presented. See gpu.Surface.
type Surface = gpu.Surface

// Visualizer owns every GPU resource and the per-frame state. All methods
// must be called from the thread that drives the event loop.
type Visualizer struct {
	cfg    *config.Config
	device hal.Device
	queue  hal.Queue

	uniforms *gpu.Uniforms
	sim      *gpu.Simulator
	bg       *gpu.BackgroundImage
	comp     *gpu.Compositor
	frames   *gpu.FrameEncoder

	tracker      *geometry.Tracker
	agc          *agc.Controller
	provider     volume.Provider
	ownsProvider bool
	trace        *telemetry.Trace
	rng          *rand.Rand

	surface Surface
	frame   int
	paused  bool
}

// New builds the visualizer on device and queue. A nil cfg uses the
// embedded defaults. Particles are seeded for the configured window size
// until the first Resize.
func New(device hal.Device, queue hal.Queue, cfg *config.Config, opts ...Option) (*Visualizer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := Logger()
	v := &Visualizer{
		cfg:     cfg,
		device:  device,
		queue:   queue,
		trace:   o.trace,
		rng:     o.rng,
		surface: o.surface,
	}
	if v.rng == nil {
		seed := uint64(time.Now().UnixNano()) //nolint:gosec // seed only
		v.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	controller, err := agc.New(agc.Params{
		InitialIntensity: float32(cfg.AGC.InitialIntensity),
		TimeConstant:     float32(cfg.AGC.TimeConstant),
		MaxGain:          float32(cfg.AGC.MaxGain),
	})
	if err != nil {
		return nil, err
	}
	controller.OnClip = func(candidate, gain float32) {
		log.Debug("dots: clipping peak", "candidate", candidate, "gain", gain)
	}
	v.agc = controller

	if err := v.createGPU(o); err != nil {
		v.Close()
		return nil, err
	}

	querier := o.querier
	if querier == nil {
		querier = geometry.DetectQuerier()
	}
	v.tracker = geometry.NewTracker(v.uniforms, querier, log)

	if err := v.createBackground(o); err != nil {
		v.Close()
		return nil, err
	}
	if err := v.createCompositor(); err != nil {
		v.Close()
		return nil, err
	}

	w, h := uint32(cfg.Window.Width), uint32(cfg.Window.Height) //nolint:gosec // validated positive
	if _, err := v.sim.Reseed(v.rng, w, h); err != nil {
		v.Close()
		return nil, err
	}

	v.provider = o.provider
	if v.provider == nil {
		v.provider = volume.Open(volume.Options{
			Live:            cfg.Volume.Live,
			Constant:        float32(cfg.Volume.Constant),
			PeakRate:        cfg.Volume.PeakRate,
			ApplicationName: cfg.Volume.ApplicationName,
		}, log)
		v.ownsProvider = true
	}

	log.Info("dots: visualizer ready",
		"particles", v.sim.Count(),
		"samples", cfg.Render.SampleCount,
		"background", v.comp.HasBackground(),
		"querier", querier.Name())
	return v, nil
}

func (v *Visualizer) createGPU(o options) error {
	u, err := gpu.NewUniforms(v.device, v.queue,
		float32(v.cfg.Particles.PointSize), float32(v.cfg.AGC.InitialIntensity))
	if err != nil {
		return err
	}
	v.uniforms = u

	sim, err := gpu.NewSimulator(v.device, v.queue, uint32(v.cfg.Particles.Count), u) //nolint:gosec // validated positive
	if err != nil {
		return err
	}
	v.sim = sim
	v.frames = gpu.NewFrameEncoder(v.device, v.queue)
	return nil
}

// createBackground decodes the background for the monitor resolution. An
// explicit image wins over the configured path. Before the first resize the
// tracker knows no window size, so the configured one stands in for an
// unknown monitor.
func (v *Visualizer) createBackground(o options) error {
	if o.background == nil && v.cfg.Background.Path == "" {
		return nil
	}
	mw, mh := v.tracker.MonitorSize()
	if mw == 0 || mh == 0 {
		mw, mh = uint32(v.cfg.Window.Width), uint32(v.cfg.Window.Height) //nolint:gosec // validated positive
	}

	var (
		img *image.RGBA
		err error
	)
	if o.background != nil {
		img, err = background.Fill(o.background, int(mw), int(mh))
	} else {
		img, err = background.Load(v.cfg.Background.Path, int(mw), int(mh))
	}
	if err != nil {
		return fmt.Errorf("dots: background: %w", err)
	}

	bg, err := gpu.NewBackgroundImage(v.device, v.queue, img)
	if err != nil {
		return err
	}
	v.bg = bg
	Logger().Info("dots: background loaded", "width", mw, "height", mh)
	return nil
}

func (v *Visualizer) createCompositor() error {
	cc := v.cfg.Render.ClearColor
	cfg := gpu.CompositorConfig{
		Format:      gpu.DefaultCompositorConfig().Format,
		SampleCount: uint32(v.cfg.Render.SampleCount), //nolint:gosec // validated 1 or 4
		ClearColor:  gputypes.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
	}
	if v.surface != nil && v.surface.Format() != gputypes.TextureFormatUndefined {
		cfg.Format = v.surface.Format()
	}
	comp, err := gpu.NewCompositor(v.device, cfg, v.uniforms, v.sim, v.bg)
	if err != nil {
		return err
	}
	v.comp = comp
	return nil
}

// Update advances the per-frame state by dt: it writes the delta time,
// polls the volume provider, steps the intensity controller and writes the
// resulting intensity. While paused only a zero delta time is written.
func (v *Visualizer) Update(dt time.Duration) {
	if v.paused {
		v.uniforms.SetDeltaTime(0)
		return
	}
	secs := float32(dt.Seconds())
	v.uniforms.SetDeltaTime(secs)

	sample, ok := v.provider.Poll()
	intensity := v.agc.Step(sample, ok, secs)
	v.uniforms.SetIntensity(intensity)

	if v.trace != nil {
		err := v.trace.Record(telemetry.Frame{
			Index:     v.frame,
			DeltaTime: dt.Seconds(),
			Sample:    float64(sample),
			HasSample: ok,
			Intensity: float64(intensity),
			Gain:      float64(v.agc.State().Gain),
		})
		if err != nil {
			Logger().Warn("dots: trace disabled", "error", err)
			v.trace = nil
		}
	}
	v.frame++
}

// SetPaused freezes or resumes the animation. While paused the delta time
// uniform stays zero, so frames drawn for exposes or resizes do not move
// the particles, and the volume provider is not polled.
func (v *Visualizer) SetPaused(paused bool) {
	v.paused = paused
	if paused {
		v.uniforms.SetDeltaTime(0)
	}
}

// Paused reports whether the animation is frozen.
func (v *Visualizer) Paused() bool { return v.paused }

// Render draws one frame to surface, or to the surface given by WithSurface
// when surface is nil. Nothing is drawn until the surface has been
// configured by a Resize. Acquire failures are returned unwrapped so that
// HandleRenderError can classify them.
func (v *Visualizer) Render(surface Surface) error {
	if surface == nil {
		surface = v.surface
	} else {
		v.surface = surface
	}
	if surface == nil || !surface.Configured() {
		return nil
	}

	view, err := surface.Acquire()
	if err != nil {
		return err
	}
	if err := v.frames.Submit(v.sim, v.comp, view); err != nil {
		return fmt.Errorf("dots: submit frame: %w", err)
	}
	if err := v.frames.Drain(); err != nil {
		return fmt.Errorf("dots: wait for frame: %w", err)
	}
	return surface.Present()
}

// Resize handles a new window size. A zero width or height is ignored.
// Otherwise the multisampled target and the surface are reconfigured, the
// size and position uniforms rewritten and every particle re-seeded over
// the new viewport. When the surface rejects the size the target goes back
// to its previous size, so the next frame still draws at the old one.
func (v *Visualizer) Resize(w, h uint32) error {
	if w == 0 || h == 0 {
		return nil
	}
	pw, ph := v.comp.Size()
	if err := v.comp.Resize(w, h); err != nil {
		return err
	}
	if v.surface != nil {
		if err := v.surface.Configure(w, h); err != nil {
			// Before the first resize the surface stays unconfigured and
			// Render draws nothing, so there is no size to go back to.
			if pw != 0 && ph != 0 {
				if rerr := v.comp.Resize(pw, ph); rerr != nil {
					err = errors.Join(err, rerr)
				}
			}
			return fmt.Errorf("dots: configure surface: %w", err)
		}
	}
	v.tracker.OnResize(w, h)
	if _, err := v.sim.Reseed(v.rng, w, h); err != nil {
		return err
	}
	Logger().Info("dots: resized", "width", w, "height", h)
	return nil
}

// HandleRenderError reacts to an error returned by Render. A lost or
// outdated surface is reconfigured to the current window size; anything
// else drops the frame with a warning. The returned error is non-nil only
// when reconfiguration fails.
func (v *Visualizer) HandleRenderError(err error, surface Surface) error {
	if err == nil {
		return nil
	}
	if surface == nil {
		surface = v.surface
	}
	failure := gpu.RenderFailure(err)
	if !failure.Recoverable() || surface == nil {
		Logger().Warn("dots: frame dropped", "error", err)
		return nil
	}
	w, h := v.tracker.Size()
	if w == 0 || h == 0 {
		return nil
	}
	Logger().Info("dots: reconfiguring surface", "reason", failure.String(), "width", w, "height", h)
	if cerr := surface.Configure(w, h); cerr != nil {
		return fmt.Errorf("dots: reconfigure surface: %w", cerr)
	}
	return nil
}

// Size returns the last non-zero window size.
func (v *Visualizer) Size() (w, h uint32) { return v.tracker.Size() }

// ParticleCount returns the fixed number of particles.
func (v *Visualizer) ParticleCount() uint32 { return v.sim.Count() }

// Intensity returns the intensity published by the last Update.
func (v *Visualizer) Intensity() float32 { return v.agc.State().LastIntensity }

// HasBackground reports whether a background image is drawn.
func (v *Visualizer) HasBackground() bool { return v.comp != nil && v.comp.HasBackground() }

// Close waits for the GPU and releases every resource the visualizer
// created. The device, queue and surface stay with the caller.
func (v *Visualizer) Close() error {
	var errs []error
	if v.frames != nil {
		errs = append(errs, v.frames.Drain())
		v.frames = nil
	}
	if v.comp != nil {
		v.comp.Destroy()
		v.comp = nil
	}
	if v.bg != nil {
		v.bg.Destroy()
		v.bg = nil
	}
	if v.sim != nil {
		v.sim.Destroy()
		v.sim = nil
	}
	if v.uniforms != nil {
		v.uniforms.Destroy()
		v.uniforms = nil
	}
	if v.ownsProvider && v.provider != nil {
		errs = append(errs, volume.Close(v.provider))
		v.provider = nil
	}
	return errors.Join(errs...)
}
