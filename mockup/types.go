// Package mockup orchestrates product mockup generation: prompt
// construction, conditioning extraction, multi-variation sampling and
// inpainting-based blending on top of the sdxl pipelines.
package mockup

import (
	"context"
	"image"

	"mockupgen/sdxl"
)

// RandomSeed is the sentinel requesting a fresh random seed per variation.
const RandomSeed int64 = -1

// Request describes one mockup generation job. Zero or negative numeric
// fields fall back to the configured defaults; the pipeline clamps junk
// values instead of failing.
type Request struct {
	// Product selects the product type (tshirt, mug, phone_case, packaging).
	Product string
	// Style selects the photography style (studio, reallife, flatlay).
	Style string
	// Variations is the number of images to produce (clamped to 1..max).
	Variations int
	// GuidanceScale overrides the default classifier-free guidance when > 0.
	GuidanceScale float64
	// Steps overrides the default inference step count when > 0.
	Steps int
	// ConditioningScale overrides the default ControlNet strength when > 0.
	ConditioningScale float64
	// Seed is the base seed; variation i uses Seed+i. RandomSeed (-1)
	// draws a fresh random seed for every variation.
	Seed int64
	// SkipPostProcess leaves the raw diffusion output unsharpened.
	SkipPostProcess bool
}

// Mockup is one generated product image.
type Mockup struct {
	// PNG holds the encoded image bytes.
	PNG []byte
	// Seed is the seed that produced this image.
	Seed int64
	// Index is the variation index within the request.
	Index int
	// Prompt is the final prompt used, after enhancement.
	Prompt string
	// Steps, GuidanceScale and ConditioningScale echo the sampling
	// parameters actually used, with config defaults applied. The
	// request's raw fields may be zero; these never are.
	Steps             int
	GuidanceScale     float64
	ConditioningScale float64
}

// Pipelines is the slice of the model runtime the orchestrator needs.
// *sdxl.Manager satisfies it.
type Pipelines interface {
	Ready() bool
	Load(ctx context.Context) error
	Device() sdxl.Device
	Txt2ImgWithControl(ctx context.Context, params sdxl.Params, control image.Image) (*sdxl.Result, error)
	Inpaint(ctx context.Context, params sdxl.Params, base image.Image, mask *image.Gray) (*sdxl.Result, error)
}
