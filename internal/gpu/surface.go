package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Surface is where frames are presented. Window surfaces come from the
// windowing library; OffscreenSurface serves headless runs and tests.
type Surface interface {
	// Configure (re)creates the swap targets for a w x h frame.
	Configure(w, h uint32) error

	// Configured reports whether Configure has succeeded at least once.
	Configured() bool

	// Acquire returns the view to render the next frame into. It fails with
	// ErrSurfaceLost or ErrSurfaceOutdated when the surface needs to be
	// reconfigured.
	Acquire() (hal.TextureView, error)

	// Present shows the frame rendered into the last acquired view.
	Present() error

	// Format is the texture format of acquired views.
	Format() gputypes.TextureFormat
}

// OffscreenSurface renders into a single texture that is never shown.
type OffscreenSurface struct {
	device hal.Device
	format gputypes.TextureFormat

	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32

	presented int
}

// NewOffscreenSurface returns an unconfigured surface.
func NewOffscreenSurface(device hal.Device, format gputypes.TextureFormat) *OffscreenSurface {
	return &OffscreenSurface{device: device, format: format}
}

// Configure recreates the texture when the size changes.
func (s *OffscreenSurface) Configure(w, h uint32) error {
	if w == 0 || h == 0 {
		return fmt.Errorf("gpu: offscreen surface size %dx%d", w, h)
	}
	if s.tex != nil && s.width == w && s.height == h {
		return nil
	}
	s.release()

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_surface",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	s.tex = tex

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "offscreen_surface_view",
	})
	if err != nil {
		s.release()
		return fmt.Errorf("create offscreen view: %w", err)
	}
	s.view = view
	s.width, s.height = w, h
	return nil
}

// Configured reports whether a texture exists.
func (s *OffscreenSurface) Configured() bool { return s.tex != nil }

// Acquire returns the texture view.
func (s *OffscreenSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, ErrSurfaceOutdated
	}
	return s.view, nil
}

// Present counts the frame.
func (s *OffscreenSurface) Present() error {
	s.presented++
	return nil
}

// Format returns the texture format.
func (s *OffscreenSurface) Format() gputypes.TextureFormat { return s.format }

// Size returns the configured size.
func (s *OffscreenSurface) Size() (w, h uint32) { return s.width, s.height }

// Presented returns the number of presented frames.
func (s *OffscreenSurface) Presented() int { return s.presented }

// Texture returns the backing texture, nil before Configure.
func (s *OffscreenSurface) Texture() hal.Texture { return s.tex }

func (s *OffscreenSurface) release() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
	s.width, s.height = 0, 0
}

// Destroy releases the texture.
func (s *OffscreenSurface) Destroy() { s.release() }
