package imaging

import "image"

// MaskFromAlpha derives an inpainting blend mask from an image's alpha
// channel. The mask carries the alpha values verbatim: fully opaque logo
// pixels map to 255 (regenerate there), fully transparent pixels to 0
// (keep the base image). Inputs without an alpha channel yield an all-255
// mask, meaning the whole frame is open for regeneration.
//
// This is a pure function with no side effects.
func MaskFromAlpha(img image.Image) *image.Gray {
	bounds := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			mask.Pix[mask.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)] = uint8(a >> 8)
		}
	}
	return mask
}
