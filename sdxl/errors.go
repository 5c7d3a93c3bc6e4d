// Package sdxl provides SDXL + ControlNet image generation capabilities.
package sdxl

import "errors"

// Sentinel errors for the SDXL runtime.
// These are domain-specific errors that provide clear failure modes.
var (
	// Model-related errors
	ErrModelNotFound   = errors.New("sdxl: model file not found")
	ErrModelLoadFailed = errors.New("sdxl: failed to load model")

	// Generation errors
	ErrGenerationFailed = errors.New("sdxl: image generation failed")
	ErrInpaintFailed    = errors.New("sdxl: inpainting failed")

	// Input validation errors
	ErrInvalidPrompt = errors.New("sdxl: invalid prompt")
	ErrInvalidParams = errors.New("sdxl: invalid generation parameters")

	// Hardware/resource errors
	ErrCUDANotAvailable = errors.New("sdxl: CUDA not available")

	// Lifecycle errors
	ErrNotReady = errors.New("sdxl: pipelines are not loaded")
)
