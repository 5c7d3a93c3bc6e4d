package sdxl

import "fmt"

// Device identifies where pipelines are placed.
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

// Params holds parameters for a single diffusion invocation.
// The same struct serves both conditioned synthesis and inpainting.
type Params struct {
	Prompt            string  // Required: text description of the image to generate
	NegativePrompt    string  // Optional: what to avoid in the image
	Width             int     // Image width in pixels (128-2048, must be divisible by 8)
	Height            int     // Image height in pixels (128-2048, must be divisible by 8)
	Steps             int     // Number of inference steps (10-100)
	GuidanceScale     float64 // Classifier-free guidance scale (1.0-20.0)
	ConditioningScale float64 // ControlNet conditioning strength (0.0-2.0)
	Seed              int64   // Random seed for reproducibility (-1 for random)
}

// Parameter validation constants
const (
	MinImageSize       = 128
	MaxImageSize       = 2048
	ImageSizeMultiple  = 8 // Image dimensions must be divisible by this
	MinSteps           = 10
	MaxSteps           = 100
	MinGuidanceScale   = 1.0
	MaxGuidanceScale   = 20.0
	MinConditioning    = 0.0
	MaxConditioning    = 2.0
	MaxPromptLength    = 1000
)

// ValidatePrompt checks that a prompt is non-empty and within length limits.
// This is a pure function with no side effects.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return fmt.Errorf("%w: prompt must not be empty", ErrInvalidPrompt)
	}
	if len(prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(prompt), MaxPromptLength)
	}
	return nil
}

// ValidateParams validates generation parameters and returns an error if invalid.
// This is a pure function with no side effects.
func ValidateParams(p Params) error {
	// Validate prompt
	if err := ValidatePrompt(p.Prompt); err != nil {
		return err
	}

	// Validate width
	if p.Width < MinImageSize || p.Width > MaxImageSize {
		return fmt.Errorf("%w: width %d must be between %d and %d",
			ErrInvalidParams, p.Width, MinImageSize, MaxImageSize)
	}
	if p.Width%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: width %d must be divisible by %d",
			ErrInvalidParams, p.Width, ImageSizeMultiple)
	}

	// Validate height
	if p.Height < MinImageSize || p.Height > MaxImageSize {
		return fmt.Errorf("%w: height %d must be between %d and %d",
			ErrInvalidParams, p.Height, MinImageSize, MaxImageSize)
	}
	if p.Height%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: height %d must be divisible by %d",
			ErrInvalidParams, p.Height, ImageSizeMultiple)
	}

	// Validate steps
	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d must be between %d and %d",
			ErrInvalidParams, p.Steps, MinSteps, MaxSteps)
	}

	// Validate guidance scale
	if p.GuidanceScale < MinGuidanceScale || p.GuidanceScale > MaxGuidanceScale {
		return fmt.Errorf("%w: guidance scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.GuidanceScale, MinGuidanceScale, MaxGuidanceScale)
	}

	// Validate conditioning scale
	if p.ConditioningScale < MinConditioning || p.ConditioningScale > MaxConditioning {
		return fmt.Errorf("%w: conditioning scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.ConditioningScale, MinConditioning, MaxConditioning)
	}

	// Negative prompt is optional, but if provided, validate length
	if len(p.NegativePrompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(p.NegativePrompt), MaxPromptLength)
	}

	return nil
}
