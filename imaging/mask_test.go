package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestMaskFromAlphaPassthrough(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 0})
	img.SetNRGBA(2, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 128})

	mask := MaskFromAlpha(img)
	if got := mask.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("opaque pixel mask = %d, want 255", got)
	}
	if got := mask.GrayAt(1, 0).Y; got != 0 {
		t.Errorf("transparent pixel mask = %d, want 0", got)
	}
	if got := mask.GrayAt(2, 0).Y; got < 120 || got > 136 {
		t.Errorf("half-transparent pixel mask = %d, want about 128", got)
	}
}

func TestMaskFromAlphaNoAlphaChannel(t *testing.T) {
	// Gray images report full opacity everywhere, so the mask opens the
	// entire frame.
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	mask := MaskFromAlpha(img)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if mask.GrayAt(x, y).Y != 255 {
				t.Fatalf("mask at (%d,%d) = %d, want 255", x, y, mask.GrayAt(x, y).Y)
			}
		}
	}
}

func TestMaskFromAlphaDimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 20))
	mask := MaskFromAlpha(img)
	if mask.Bounds().Dx() != 10 || mask.Bounds().Dy() != 20 {
		t.Errorf("mask size = %dx%d, want 10x20", mask.Bounds().Dx(), mask.Bounds().Dy())
	}
}
