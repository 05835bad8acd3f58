package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BackgroundImage is a wallpaper uploaded once at startup. It is sampled
// with repeat addressing, linear magnification and nearest minification.
type BackgroundImage struct {
	device hal.Device

	texture hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	width   uint32
	height  uint32
}

// NewBackgroundImage uploads img as an sRGB texture.
func NewBackgroundImage(device hal.Device, queue hal.Queue, img *image.RGBA) (*BackgroundImage, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("gpu: empty background image")
	}
	w, h := uint32(b.Dx()), uint32(b.Dy()) //nolint:gosec // image bounds are positive
	bg := &BackgroundImage{device: device, width: w, height: h}

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "background_texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8UnormSrgb,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create background texture: %w", err)
	}
	bg.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "background_texture_view",
		Format:        gputypes.TextureFormatRGBA8UnormSrgb,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		bg.Destroy()
		return nil, fmt.Errorf("create background texture view: %w", err)
	}
	bg.view = view

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "background_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		bg.Destroy()
		return nil, fmt.Errorf("create background sampler: %w", err)
	}
	bg.sampler = sampler

	if err := queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		tightPixels(img),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&size,
	); err != nil {
		bg.Destroy()
		return nil, fmt.Errorf("upload background texture: %w", err)
	}
	return bg, nil
}

// tightPixels returns img's pixels without row padding.
func tightPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	if img.Stride == rowBytes && b.Min == (image.Point{}) {
		return img.Pix[:rowBytes*b.Dy()]
	}
	out := make([]byte, rowBytes*b.Dy())
	for y := range b.Dy() {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*rowBytes:], img.Pix[start:start+rowBytes])
	}
	return out
}

// Size returns the texture size in pixels.
func (bg *BackgroundImage) Size() (w, h uint32) { return bg.width, bg.height }

// Destroy releases the texture, view and sampler.
func (bg *BackgroundImage) Destroy() {
	if bg == nil || bg.device == nil {
		return
	}
	if bg.sampler != nil {
		bg.device.DestroySampler(bg.sampler)
		bg.sampler = nil
	}
	if bg.view != nil {
		bg.device.DestroyTextureView(bg.view)
		bg.view = nil
	}
	if bg.texture != nil {
		bg.device.DestroyTexture(bg.texture)
		bg.texture = nil
	}
}
