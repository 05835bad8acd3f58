// Package background loads the wallpaper drawn behind the particles and
// scales it to cover a monitor.
package background

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Errors.
var (
	// ErrEmptyTarget is returned when the target size has a zero dimension.
	ErrEmptyTarget = errors.New("background: empty target size")

	// ErrEmptyImage is returned when the decoded image has no pixels.
	ErrEmptyImage = errors.New("background: empty image")
)

// Load reads the image at path and scales it to cover w x h.
func Load(path string, w, h int) (*image.RGBA, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("background: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, w, h)
}

// Decode decodes an image in any registered format and scales it to cover
// w x h.
func Decode(r io.Reader, w, h int) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("background: decode: %w", err)
	}
	return Fill(img, w, h)
}

// Fill scales src preserving its aspect ratio so that it covers w x h and
// crops the overflow evenly from both sides.
func Fill(src image.Image, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyTarget
	}
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return nil, ErrEmptyImage
	}

	crop := coverRect(sw, sh, w, h).Add(sb.Min)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst, nil
}

// coverRect returns the region of a sw x sh source that, scaled uniformly,
// exactly covers a w x h target.
func coverRect(sw, sh, w, h int) image.Rectangle {
	// Compare sw/sh with w/h without floating point.
	if sw*h > w*sh {
		// Source is wider: keep full height.
		cw := max(1, w*sh/h)
		x0 := (sw - cw) / 2
		return image.Rect(x0, 0, x0+cw, sh)
	}
	ch := max(1, h*sw/w)
	y0 := (sh - ch) / 2
	return image.Rect(0, y0, sw, y0+ch)
}
