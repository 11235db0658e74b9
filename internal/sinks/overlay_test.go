package sinks

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/lkcod/svis/internal/svis"
)

// trivialDecode ignores the raw bytes' content (real decoders would parse
// them) and always hands back a blank canvas tall enough for the
// overlay's two text lines (the wider t_host line is clipped at the
// right edge), so Render has somewhere real to draw.
func trivialDecode(raw []byte) (image.Image, error) {
	bounds := image.Rect(0, 0, 96, 40)
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img, nil
}

func TestOverlayRenderDrawsOntoDecodedImage(t *testing.T) {
	o := Overlay{Decode: trivialDecode}

	match := svis.Match{
		Image: svis.ImageRecord{FrameCounter: 42, ImageBytes: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		THost: 1.5,
	}

	out, err := o.Render(match)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 96, 40) {
		t.Errorf("Bounds() = %v, want the decoded image's bounds", out.Bounds())
	}

	// The source canvas was solid black; any green pixel anywhere in the
	// output means the font drawer actually wrote the overlay text.
	drewSomething := false
	for y := out.Bounds().Min.Y; y < out.Bounds().Max.Y && !drewSomething; y++ {
		for x := out.Bounds().Min.X; x < out.Bounds().Max.X; x++ {
			if _, g, _, _ := out.At(x, y).RGBA(); g > 0 {
				drewSomething = true
				break
			}
		}
	}
	if !drewSomething {
		t.Error("Render did not draw the green overlay text onto any pixel")
	}
}

func TestOverlayRenderPropagatesDecodeError(t *testing.T) {
	wantErr := errors.New("bad frame")
	o := Overlay{Decode: func([]byte) (image.Image, error) {
		return nil, wantErr
	}}

	_, err := o.Render(svis.Match{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Render error = %v, want wrapped %v", err, wantErr)
	}
}
