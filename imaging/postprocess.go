package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
)

// sharpenKernel is a mild unsharp kernel: the classic center-9 / neighbor
// -1 matrix scaled by 0.1 so the effect stays subtle on photographic
// output.
var sharpenKernel = func() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	k.Matrix = []float64{
		-0.1, -0.1, -0.1,
		-0.1, 0.9, -0.1,
		-0.1, -0.1, -0.1,
	}
	return k
}()

// Sharpen applies the mild unsharp filter to a generated mockup. Channel
// values are clamped to [0, 255] by the convolution. The alpha channel is
// preserved untouched.
//
// This is a pure function with no side effects.
func Sharpen(img image.Image) *image.RGBA {
	return convolution.Convolve(img, sharpenKernel, &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: true,
	})
}
