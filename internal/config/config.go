// Package config loads the visualizer settings from YAML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualizer settings.
type Config struct {
	Particles  ParticlesConfig  `yaml:"particles"`
	Render     RenderConfig     `yaml:"render"`
	AGC        AGCConfig        `yaml:"agc"`
	Volume     VolumeConfig     `yaml:"volume"`
	Window     WindowConfig     `yaml:"window"`
	Background BackgroundConfig `yaml:"background"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ParticlesConfig holds the particle system size.
type ParticlesConfig struct {
	Count     int     `yaml:"count"`      // Fixed for the process lifetime
	PointSize float64 `yaml:"point_size"` // Quad half-extent in pixels
}

// RenderConfig holds render target settings.
type RenderConfig struct {
	SampleCount int        `yaml:"sample_count"`
	ClearColor  [4]float64 `yaml:"clear_color"` // RGBA, each in [0, 1]
}

// AGCConfig holds the intensity controller tunables.
type AGCConfig struct {
	InitialIntensity float64 `yaml:"initial_intensity"`
	TimeConstant     float64 `yaml:"time_constant"` // Seconds
	MaxGain          float64 `yaml:"max_gain"`
}

// VolumeConfig selects the audio peak source.
type VolumeConfig struct {
	Live            bool    `yaml:"live"`
	Constant        float64 `yaml:"constant"`  // Used when the live source is off or unavailable
	PeakRate        int     `yaml:"peak_rate"` // Hz
	ApplicationName string  `yaml:"application_name"`
}

// WindowConfig holds the initial window settings.
type WindowConfig struct {
	Class  string `yaml:"class"`
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// BackgroundConfig holds the optional wallpaper.
type BackgroundConfig struct {
	Path string `yaml:"path"` // Empty disables the background layer
}

// TelemetryConfig holds the optional AGC trace output.
type TelemetryConfig struct {
	TracePath string `yaml:"trace_path"` // Empty disables tracing
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	return cfg
}

// Load returns the embedded defaults overlaid with the file at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Particles.Count <= 0:
		return fmt.Errorf("%w: particles.count must be positive, got %d", ErrInvalid, c.Particles.Count)
	case c.Particles.PointSize <= 0:
		return fmt.Errorf("%w: particles.point_size must be positive, got %g", ErrInvalid, c.Particles.PointSize)
	case c.Render.SampleCount != 1 && c.Render.SampleCount != 4:
		return fmt.Errorf("%w: render.sample_count must be 1 or 4, got %d", ErrInvalid, c.Render.SampleCount)
	case c.AGC.InitialIntensity < 0 || c.AGC.InitialIntensity > 1:
		return fmt.Errorf("%w: agc.initial_intensity must be in [0, 1], got %g", ErrInvalid, c.AGC.InitialIntensity)
	case c.AGC.TimeConstant <= 0:
		return fmt.Errorf("%w: agc.time_constant must be positive, got %g", ErrInvalid, c.AGC.TimeConstant)
	case c.AGC.MaxGain < 1:
		return fmt.Errorf("%w: agc.max_gain must be at least 1, got %g", ErrInvalid, c.AGC.MaxGain)
	case c.Volume.Constant < 0:
		return fmt.Errorf("%w: volume.constant must not be negative, got %g", ErrInvalid, c.Volume.Constant)
	case c.Volume.PeakRate <= 0:
		return fmt.Errorf("%w: volume.peak_rate must be positive, got %d", ErrInvalid, c.Volume.PeakRate)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size must be positive, got %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	for i, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: render.clear_color[%d] must be in [0, 1], got %g", ErrInvalid, i, v)
		}
	}
	return nil
}

// WriteYAML writes the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
