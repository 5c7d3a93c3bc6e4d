//go:build !sd || stub

// Stub implementation of the CGo bindings for when stable-diffusion.cpp is
// not available.
// Build with: go build -tags stub
// Or simply build without the "sd" tag: go build

package sdxl

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync/atomic"
)

// stubPipelineCounter generates unique IDs for stub pipelines
var stubPipelineCounter uint64

// loadPipelineImpl is the stub implementation of LoadPipeline.
// It validates that the model paths exist but does not actually load weights.
func loadPipelineImpl(modelPath string, kind PipelineKind, opts LoadOptions) (*Pipeline, error) {
	// The stub backend is CPU only; honoring a forced CUDA placement
	// silently would misreport where inference runs.
	if opts.Device == DeviceCUDA {
		return nil, fmt.Errorf("%w: stub backend is CPU only", ErrCUDANotAvailable)
	}

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, modelPath, err)
	}

	if kind == PipelineSynthesis && opts.ControlNetPath != "" {
		if _, err := os.Stat(opts.ControlNetPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, opts.ControlNetPath)
		} else if err != nil {
			return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, opts.ControlNetPath, err)
		}
	}

	return &Pipeline{
		id:        atomic.AddUint64(&stubPipelineCounter, 1),
		kind:      kind,
		modelPath: modelPath,
		device:    opts.Device,
		valid:     true,
	}, nil
}

// txt2ImgWithControlImpl is the stub implementation of Txt2ImgWithControl.
// It returns an error indicating the real library is not available.
func txt2ImgWithControlImpl(_ context.Context, p *Pipeline, _ Params, _ image.Image) (*Result, error) {
	if p == nil || !p.valid {
		return nil, fmt.Errorf("%w: pipeline is nil or invalid", ErrGenerationFailed)
	}

	// Stub mode cannot actually generate images
	return nil, fmt.Errorf("%w: stable-diffusion.cpp library not available (stub mode). "+
		"Build with CGO and the 'sd' tag to enable image generation", ErrGenerationFailed)
}

// inpaintImpl is the stub implementation of Inpaint.
func inpaintImpl(_ context.Context, p *Pipeline, _ Params, _ image.Image, _ *image.Gray) (*Result, error) {
	if p == nil || !p.valid {
		return nil, fmt.Errorf("%w: pipeline is nil or invalid", ErrInpaintFailed)
	}

	return nil, fmt.Errorf("%w: stable-diffusion.cpp library not available (stub mode). "+
		"Build with CGO and the 'sd' tag to enable inpainting", ErrInpaintFailed)
}

// freePipelineImpl is the stub implementation of FreePipeline.
// It marks the pipeline as invalid.
func freePipelineImpl(p *Pipeline) {
	if p == nil {
		return
	}
	p.valid = false
}

// releaseDeviceMemoryImpl is a no-op in stub mode.
func releaseDeviceMemoryImpl(Device) {}

// backendInfoImpl returns backend info for stub mode.
func backendInfoImpl() string {
	return "stub (no stable-diffusion.cpp library linked)"
}
