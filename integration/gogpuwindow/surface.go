// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuwindow

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dots/internal/gpu"
)

// ErrUnsupportedView is returned by SetFrame for a view type it cannot
// unwrap to a HAL texture view.
var ErrUnsupportedView = errors.New("gogpuwindow: unsupported surface view type")

// Device borrows the HAL device and queue of a gogpu window.
func Device(provider gpucontext.DeviceProvider) (*gpu.Device, error) {
	if provider == nil {
		return nil, gpu.ErrNoHAL
	}
	d, err := gpu.FromProvider(provider)
	if err != nil {
		return nil, err
	}
	if d.SurfaceFormat == gputypes.TextureFormatUndefined {
		d.SurfaceFormat = gputypes.TextureFormatBGRA8Unorm
	}
	return d, nil
}

// Surface hands the visualizer the swapchain image gogpu acquired for the
// current frame. It never configures or presents anything itself.
type Surface struct {
	format gputypes.TextureFormat

	view          hal.TextureView
	width, height uint32
	presented     int
}

// NewSurface returns a surface producing views of the given format.
func NewSurface(format gputypes.TextureFormat) *Surface {
	return &Surface{format: format}
}

// SetFrame stores the view of the current swapchain image. v is whatever
// the window's draw context returns for its surface view: a
// gpucontext.TextureView, a *wgpu.TextureView or a hal.TextureView.
func (s *Surface) SetFrame(v any) error {
	view, err := halView(v)
	if err != nil {
		s.view = nil
		return err
	}
	s.view = view
	return nil
}

// Configure records the window size. gogpu reconfigures the swapchain on
// its own.
func (s *Surface) Configure(w, h uint32) error {
	if w == 0 || h == 0 {
		return fmt.Errorf("gogpuwindow: surface size %dx%d", w, h)
	}
	s.width, s.height = w, h
	return nil
}

// Configured reports whether a size was recorded.
func (s *Surface) Configured() bool { return s.width > 0 && s.height > 0 }

// Acquire returns the view set by SetFrame. Each view is handed out once;
// without a new SetFrame the surface is outdated.
func (s *Surface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, gpu.ErrSurfaceOutdated
	}
	v := s.view
	s.view = nil
	return v, nil
}

// Present counts the frame. gogpu presents after the draw callback.
func (s *Surface) Present() error {
	s.presented++
	return nil
}

// Format returns the swapchain format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Presented returns the number of frames rendered into the window.
func (s *Surface) Presented() int { return s.presented }

// halView unwraps a window surface view to the HAL view the render pass
// targets.
func halView(v any) (hal.TextureView, error) {
	var view hal.TextureView
	switch tv := v.(type) {
	case nil:
		return nil, gpu.ErrSurfaceOutdated
	case hal.TextureView:
		view = tv
	case gpucontext.TextureView:
		if tv.IsNil() {
			return nil, gpu.ErrSurfaceOutdated
		}
		view = (*wgpu.TextureView)(tv.Pointer()).HalTextureView()
	case *wgpu.TextureView:
		if tv == nil {
			return nil, gpu.ErrSurfaceOutdated
		}
		view = tv.HalTextureView()
	case interface{ HalTextureView() hal.TextureView }:
		view = tv.HalTextureView()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedView, v)
	}
	if view == nil {
		return nil, gpu.ErrSurfaceOutdated
	}
	return view, nil
}
