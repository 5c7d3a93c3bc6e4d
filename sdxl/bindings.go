// CGo bindings for stable-diffusion.cpp pipelines.
//
// This file contains the public wrapper functions for the stable-diffusion.cpp
// C library. When the library is not available, build with the "stub" tag to
// use mock implementations.
//
// Build requirements for the real CGo implementation:
//   - stable-diffusion.cpp compiled as shared library (libstable-diffusion.so/dylib/dll)
//   - Header file: stable-diffusion.h
//   - Set CGO_CFLAGS and CGO_LDFLAGS appropriately
//
// Example build with real library:
//
//	CGO_CFLAGS="-I/path/to/stable-diffusion.cpp" \
//	CGO_LDFLAGS="-L/path/to/stable-diffusion.cpp/build -lstable-diffusion" \
//	go build -tags sd
//
// Example build without library (stub mode):
//
//	go build -tags stub
package sdxl

import (
	"context"
	"fmt"
	"image"
)

// PipelineKind distinguishes the two diffusion pipelines the service runs.
type PipelineKind int

const (
	// PipelineSynthesis is the SDXL + ControlNet conditioned text-to-image pipeline.
	PipelineSynthesis PipelineKind = iota
	// PipelineInpaint is the SDXL inpainting pipeline.
	PipelineInpaint
)

// String returns a human-readable pipeline kind name.
func (k PipelineKind) String() string {
	switch k {
	case PipelineSynthesis:
		return "synthesis"
	case PipelineInpaint:
		return "inpaint"
	default:
		return "unknown"
	}
}

// Pipeline represents an opaque handle to a loaded diffusion pipeline.
// In the real implementation, this wraps a C pointer to sd_ctx_t.
// The stub implementation uses an internal ID for tracking.
type Pipeline struct {
	// id is used for stub implementation tracking
	id uint64
	// kind records which pipeline variant this handle drives
	kind PipelineKind
	// modelPath stores the path used to load this pipeline
	modelPath string
	// device is where the pipeline weights were placed
	device Device
	// valid indicates if this pipeline is usable
	valid bool
}

// IsValid returns whether this pipeline is valid and usable.
func (p *Pipeline) IsValid() bool {
	if p == nil {
		return false
	}
	return p.valid
}

// Kind returns the pipeline variant this handle drives.
func (p *Pipeline) Kind() PipelineKind {
	if p == nil {
		return PipelineSynthesis
	}
	return p.kind
}

// ModelPath returns the model path used to create this pipeline.
func (p *Pipeline) ModelPath() string {
	if p == nil {
		return ""
	}
	return p.modelPath
}

// LoadOptions configures pipeline construction and device placement.
type LoadOptions struct {
	// Device selects where weights are placed (cuda or cpu).
	Device Device
	// ControlNetPath points at the ControlNet weights. Required for
	// PipelineSynthesis, ignored for PipelineInpaint.
	ControlNetPath string
	// CPUOffload enables sequential CPU offload of model components.
	// Only honored on CUDA devices.
	CPUOffload bool
	// VAESlicing enables sliced VAE decoding to reduce peak VRAM.
	// Only honored on CUDA devices.
	VAESlicing bool
	// Threads is the CPU thread count for CPU placement (0 = all cores).
	Threads int
}

// Result holds the output of a single diffusion invocation.
type Result struct {
	// Image is the decoded RGBA output at the requested dimensions.
	Image image.Image
	// Seed is the seed actually used (resolved when -1 was requested).
	Seed int64
}

// LoadPipeline loads diffusion model weights and returns a pipeline handle.
// The modelPath should point to a valid .safetensors or .gguf model file.
//
// This function composes:
//   - ErrModelNotFound: when modelPath (or the ControlNet path) does not exist
//   - ErrModelLoadFailed: when the C library fails to load the model
//   - ErrCUDANotAvailable: when CUDA placement is requested but the
//     linked backend has no CUDA support
//
// The returned Pipeline must be freed with FreePipeline when no longer needed.
func LoadPipeline(modelPath string, kind PipelineKind, opts LoadOptions) (*Pipeline, error) {
	return loadPipelineImpl(modelPath, kind, opts)
}

// Txt2ImgWithControl generates an image from a prompt under ControlNet edge
// conditioning. The pipeline must be a valid PipelineSynthesis handle and the
// control image carries the edge map at the output dimensions.
//
// This function composes:
//   - ErrInvalidParams: when params fail validation (via ValidateParams)
//   - ErrGenerationFailed: when the C library fails to generate
func Txt2ImgWithControl(ctx context.Context, p *Pipeline, params Params, control image.Image) (*Result, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if control == nil {
		return nil, fmt.Errorf("%w: control image is nil", ErrInvalidParams)
	}
	if p.Kind() != PipelineSynthesis {
		return nil, fmt.Errorf("%w: pipeline is %s, need synthesis", ErrInvalidParams, p.Kind())
	}
	if params.Seed < 0 {
		params.Seed = RandomSeed()
	}
	return txt2ImgWithControlImpl(ctx, p, params, control)
}

// Inpaint regenerates the masked region of base according to the prompt.
// White (255) mask pixels are regenerated, black pixels are kept. The
// pipeline must be a valid PipelineInpaint handle and base/mask share the
// output dimensions.
//
// This function composes:
//   - ErrInvalidParams: when params fail validation or inputs are nil
//   - ErrInpaintFailed: when the C library fails to inpaint
func Inpaint(ctx context.Context, p *Pipeline, params Params, base image.Image, mask *image.Gray) (*Result, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("%w: base image is nil", ErrInvalidParams)
	}
	if mask == nil {
		return nil, fmt.Errorf("%w: mask image is nil", ErrInvalidParams)
	}
	if p.Kind() != PipelineInpaint {
		return nil, fmt.Errorf("%w: pipeline is %s, need inpaint", ErrInvalidParams, p.Kind())
	}
	if params.Seed < 0 {
		params.Seed = RandomSeed()
	}
	return inpaintImpl(ctx, p, params, base, mask)
}

// FreePipeline releases resources associated with a Pipeline.
// Calling FreePipeline on a nil or already-freed pipeline is safe (no-op).
// After calling FreePipeline, the handle is invalid and must not be used.
func FreePipeline(p *Pipeline) {
	freePipelineImpl(p)
}

// ReleaseDeviceMemory asks the backend to return cached allocations on the
// given device to the driver. No-op on CPU and in stub mode.
func ReleaseDeviceMemory(d Device) {
	releaseDeviceMemoryImpl(d)
}

// BackendInfo returns information about the available compute backend.
// This can be used to determine if CUDA or CPU inference is being used.
func BackendInfo() string {
	return backendInfoImpl()
}
