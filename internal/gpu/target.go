package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// msaaTarget is the multisampled color attachment that resolves into the
// surface view. It follows the window size and is the only render resource
// recreated on resize.
type msaaTarget struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// ensure creates or recreates the texture if the requested size differs
// from the current one. Matching sizes are a no-op.
func (t *msaaTarget) ensure(device hal.Device, w, h uint32, format gputypes.TextureFormat, samples uint32) error {
	if t.width == w && t.height == h && t.tex != nil {
		return nil
	}
	t.destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "msaa_color",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA color texture: %w", err)
	}
	t.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "msaa_color_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create MSAA color view: %w", err)
	}
	t.view = view

	t.width = w
	t.height = h
	return nil
}

// destroy releases the texture and resets the size.
func (t *msaaTarget) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width = 0
	t.height = 0
}
