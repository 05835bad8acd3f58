// Command dots shows an audio-reactive particle field in a gogpu window.
//
// Usage:
//
//	dots [-background PATH] [-class NAME] [-config PATH] [-log-level LEVEL]
//	     [-headless N] [-trace PATH] [-write-config PATH]
//
// With -headless N it renders N frames offscreen on a device it opens
// itself and exits. In a window, Space pauses and resumes the animation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/dots"
	"github.com/gogpu/dots/integration/gogpuwindow"
	"github.com/gogpu/dots/internal/config"
	"github.com/gogpu/dots/internal/gpu"
	"github.com/gogpu/dots/internal/telemetry"
)

// headlessFrameTime is the simulated frame time of headless runs.
const headlessFrameTime = 16 * time.Millisecond

type flags struct {
	background string
	class      string
	configPath string
	logLevel   string
	headless   int
	trace      string
	writeTo    string
}

func main() {
	var f flags
	flag.StringVar(&f.background, "background", "", "background image `path` (png, jpeg, gif, bmp, tiff, webp)")
	flag.StringVar(&f.class, "class", "", "window class `name`")
	flag.StringVar(&f.configPath, "config", "", "YAML configuration `path`")
	flag.StringVar(&f.logLevel, "log-level", "info", "log `level` (debug, info, warn, error)")
	flag.IntVar(&f.headless, "headless", 0, "render `N` frames offscreen and exit")
	flag.StringVar(&f.trace, "trace", "", "write the intensity trace as CSV to `path`")
	flag.StringVar(&f.writeTo, "write-config", "", "write the effective configuration to `path` and exit")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "dots: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return fmt.Errorf("invalid -log-level %q: %w", f.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dots.SetLogger(logger)

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if f.writeTo != "" {
		if err := cfg.WriteYAML(f.writeTo); err != nil {
			return err
		}
		logger.Info("configuration written", "path", f.writeTo)
		return nil
	}

	trace, err := telemetry.Create(cfg.Telemetry.TracePath)
	if err != nil {
		return err
	}
	defer func() {
		if trace == nil {
			return
		}
		s := trace.Summary()
		logger.Info("intensity trace",
			"path", cfg.Telemetry.TracePath,
			"frames", s.Frames,
			"sampled", s.Sampled,
			"clips", s.Clips,
			"mean_intensity", s.MeanIntensity,
			"std_intensity", s.StdIntensity,
			"max_gain", s.MaxGain)
		if err := trace.Close(); err != nil {
			logger.Warn("closing trace", "error", err)
		}
	}()

	if f.headless > 0 {
		return runHeadless(cfg, f.headless, trace)
	}
	return runWindow(cfg, trace, logger)
}

func loadConfig(f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.background != "" {
		cfg.Background.Path = f.background
	}
	if f.class != "" {
		// gogpu has no class setter; the class names the window instead.
		cfg.Window.Class = f.class
		cfg.Window.Title = f.class
	}
	if f.trace != "" {
		cfg.Telemetry.TracePath = f.trace
	}
	return cfg, nil
}

// runHeadless renders frames into an offscreen texture at the configured
// window size.
func runHeadless(cfg *config.Config, frames int, trace *telemetry.Trace) error {
	device, err := gpu.OpenDevice()
	if err != nil {
		return err
	}
	defer device.Close()

	surface := gpu.NewOffscreenSurface(device.Device, gpu.DefaultCompositorConfig().Format)
	defer surface.Destroy()

	v, err := dots.New(device.Device, device.Queue, cfg,
		dots.WithSurface(surface),
		dots.WithTelemetry(trace))
	if err != nil {
		return err
	}
	defer func() { _ = v.Close() }()

	w, h := uint32(cfg.Window.Width), uint32(cfg.Window.Height) //nolint:gosec // validated positive
	if err := v.Resize(w, h); err != nil {
		return err
	}
	for range frames {
		v.Update(headlessFrameTime)
		if err := v.Render(nil); err != nil {
			if herr := v.HandleRenderError(err, nil); herr != nil {
				return herr
			}
		}
	}
	dots.Logger().Info("headless run finished",
		"adapter", device.Name, "frames", surface.Presented(), "width", w, "height", h)
	return nil
}

// runWindow opens a gogpu window and drives the visualizer from its draw
// callback. The visualizer is created on the first frame, once the window
// hands out its device. Space pauses and resumes the animation.
func runWindow(cfg *config.Config, trace *telemetry.Trace, logger *slog.Logger) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(cfg.Window.Title).
		WithSize(cfg.Window.Width, cfg.Window.Height).
		WithContinuousRender(false))

	var (
		v         *dots.Visualizer
		surface   *gogpuwindow.Surface
		animToken *gogpu.AnimationToken
		initErr   error
		closed    bool
		last      time.Time
		prevW     int
		prevH     int
	)

	app.OnDraw(func(dc *gogpu.Context) {
		if initErr != nil || closed {
			return
		}
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}

		if v == nil {
			provider := app.GPUContextProvider()
			if provider == nil {
				return
			}
			device, err := gogpuwindow.Device(provider)
			if err != nil {
				initErr = err
				return
			}
			surface = gogpuwindow.NewSurface(device.SurfaceFormat)
			v, err = dots.New(device.Device, device.Queue, cfg,
				dots.WithSurface(surface),
				dots.WithTelemetry(trace))
			if err != nil {
				initErr = err
				return
			}
			logger.Info("window ready", "backend", dc.Backend(), "width", w, "height", h)
			animToken = app.StartAnimation()
			last = time.Now()
		}

		if w != prevW || h != prevH {
			if err := v.Resize(uint32(w), uint32(h)); err != nil { //nolint:gosec // positive window size
				logger.Warn("resize", "error", err)
			}
			prevW, prevH = w, h
		}

		now := time.Now()
		v.Update(now.Sub(last))
		last = now

		if err := surface.SetFrame(dc.SurfaceView()); err != nil {
			logger.Debug("no surface view", "error", err)
			return
		}
		if err := v.Render(surface); err != nil {
			if herr := v.HandleRenderError(err, surface); herr != nil {
				logger.Error("surface reconfigure failed", "error", herr)
			}
		}
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key != gpucontext.KeySpace || v == nil {
			return
		}
		paused := !v.Paused()
		v.SetPaused(paused)
		if paused {
			if animToken != nil {
				animToken.Stop()
				animToken = nil
			}
			logger.Info("paused")
			return
		}
		last = time.Now()
		animToken = app.StartAnimation()
		logger.Info("resumed")
	})

	app.OnClose(func() {
		if animToken != nil {
			animToken.Stop()
		}
		if v != nil {
			if err := v.Close(); err != nil {
				logger.Warn("close", "error", err)
			}
			v = nil
		}
		closed = true
	})

	if err := app.Run(); err != nil {
		return err
	}
	if initErr != nil {
		return fmt.Errorf("startup: %w", initErr)
	}
	return nil
}
