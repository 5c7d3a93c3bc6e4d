// Package imaging provides the image atoms for mockup generation: logo
// preprocessing, edge extraction for ControlNet conditioning, blend mask
// derivation, post-processing and PNG codec helpers.
package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// PrepareLogo normalizes an uploaded logo for conditioning extraction.
//
// The logo is scaled down (never up) so its longer side fits the target
// square, then pasted centered onto a fully transparent canvas of exactly
// size x size pixels. Aspect ratio is preserved. The output always carries
// an alpha channel; opaque inputs get alpha 255 everywhere they cover.
//
// This is a pure function with no side effects.
func PrepareLogo(logo image.Image, size int) *image.NRGBA {
	bounds := logo.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Thumbnail semantics: only scale down, never up.
	newW, newH := w, h
	if w > size || h > size {
		if w >= h {
			newW = size
			newH = h * size / w
		} else {
			newH = size
			newW = w * size / h
		}
		if newW < 1 {
			newW = 1
		}
		if newH < 1 {
			newH = 1
		}
	}

	// Zero-valued NRGBA is fully transparent.
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))

	offsetX := (size - newW) / 2
	offsetY := (size - newH) / 2
	dstRect := image.Rect(offsetX, offsetY, offsetX+newW, offsetY+newH)

	draw.CatmullRom.Scale(canvas, dstRect, logo, bounds, draw.Over, nil)
	return canvas
}
