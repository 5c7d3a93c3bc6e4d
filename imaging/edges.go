package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// Default Canny-style double-threshold values for edge extraction.
const (
	DefaultLowThreshold  = 100.0
	DefaultHighThreshold = 200.0

	// edgeBlurRadius smooths sensor noise before gradient computation.
	edgeBlurRadius = 2.0
)

// ExtractEdges produces the ControlNet conditioning image for a prepared
// logo using the default thresholds. The result has the same dimensions as
// the input with the binary edge map replicated identically across the R, G
// and B channels.
//
// This is a pure function with no side effects.
func ExtractEdges(img image.Image) *image.RGBA {
	return ExtractEdgesWithThresholds(img, DefaultLowThreshold, DefaultHighThreshold)
}

// ExtractEdgesWithThresholds runs the edge extraction with explicit
// double-threshold values: gradient magnitudes above high are strong edges,
// magnitudes between low and high survive only when connected to a strong
// edge (hysteresis), everything else is suppressed.
func ExtractEdgesWithThresholds(img image.Image, low, high float64) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	gray := toGray(img)
	blurred := blur.Gaussian(gray, edgeBlurRadius)

	// Sobel gradient magnitude on the blurred luminance.
	mag := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -lum(blurred, x-1, y-1) + lum(blurred, x+1, y-1) +
				-2*lum(blurred, x-1, y) + 2*lum(blurred, x+1, y) +
				-lum(blurred, x-1, y+1) + lum(blurred, x+1, y+1)
			gy := -lum(blurred, x-1, y-1) - 2*lum(blurred, x, y-1) - lum(blurred, x+1, y-1) +
				lum(blurred, x-1, y+1) + 2*lum(blurred, x, y+1) + lum(blurred, x+1, y+1)
			mag[y*w+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}

	// Double threshold. Strong edges seed the hysteresis pass.
	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	class := make([]byte, w*h)
	var queue []int
	for i, m := range mag {
		switch {
		case m >= high:
			class[i] = strong
			queue = append(queue, i)
		case m >= low:
			class[i] = weak
		}
	}

	// Hysteresis: promote weak pixels 8-connected to a strong pixel.
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if class[ni] == weak {
					class[ni] = strong
					queue = append(queue, ni)
				}
			}
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if class[y*w+x] == strong {
				v = 255
			}
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// toGray converts any image to 8-bit grayscale using the standard luminance
// weighting of the color package.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// lum reads the luminance of a blurred RGBA pixel. The blur output of a
// grayscale source keeps R == G == B, so the red channel is sufficient.
func lum(img *image.RGBA, x, y int) float64 {
	i := img.PixOffset(x, y)
	return float64(img.Pix[i])
}
