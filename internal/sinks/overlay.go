package sinks

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lkcod/svis/internal/svis"
)

// Overlay renders a small debug text block (frame counter, matched
// host timestamp) onto a copy of a matched image's decoded pixels,
// grounded on the teacher's
// internal/app/display.go font.Drawer/basicfont.Face7x13/fixed.P usage
// (there repointed from an OLED panel to an in-memory debug frame).
type Overlay struct {
	// Decode turns a raw image buffer (ImageRecord.ImageBytes) into a
	// drawable image.Image. The core never interprets image pixels
	// itself (spec.md §1 scope); callers supply the decoder matching
	// whatever pixel format the camera driver hands them.
	Decode func(raw []byte) (image.Image, error)
}

// Render draws the overlay text onto a fresh RGBA copy of the matched
// image and returns it. Decode errors are returned, not panicked.
func (o Overlay) Render(m svis.Match) (*image.RGBA, error) {
	src, err := o.Decode(m.Image.ImageBytes)
	if err != nil {
		return nil, fmt.Errorf("overlay: decode: %w", err)
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 0, G: 255, B: 0, A: 255}),
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(bounds.Min.X+4, bounds.Min.Y+13)
	drawer.DrawString(fmt.Sprintf("frame=%d", m.Image.FrameCounter))

	drawer.Dot = fixed.P(bounds.Min.X+4, bounds.Min.Y+26)
	drawer.DrawString(fmt.Sprintf("t_host=%.6f", m.THost))

	return dst, nil
}
