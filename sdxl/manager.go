package sdxl

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State describes where the model bundle is in its lifecycle.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ManagerConfig configures the model bundle.
type ManagerConfig struct {
	// SynthesisModelPath points at the SDXL base weights.
	SynthesisModelPath string
	// ControlNetPath points at the ControlNet conditioning weights.
	ControlNetPath string
	// InpaintModelPath points at the SDXL inpainting weights.
	InpaintModelPath string
	// Threads is the CPU thread count for CPU inference (0 = all cores).
	Threads int
	// Device forces placement; empty selects via DetectDevice.
	Device Device
}

// Manager owns the process-wide pair of diffusion pipelines and walks them
// through the UNLOADED -> LOADING -> READY -> UNLOADED lifecycle. The device
// is selected once at construction and never changes for the lifetime of the
// manager.
//
// Manager methods are safe for concurrent use, but inference itself is not
// parallelized. Callers that need request ordering serialize above this layer.
type Manager struct {
	mu     sync.Mutex
	state  State
	device Device
	cfg    ManagerConfig

	synthesis *Pipeline
	inpaint   *Pipeline

	logger *zap.Logger
}

// NewManager creates an unloaded manager and selects the inference device.
// No model weights are touched until Load is called.
func NewManager(cfg ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	device := cfg.Device
	if device == "" {
		device = DetectDevice()
	}
	logger.Info("model manager created",
		zap.String("device", string(device)),
		zap.String("backend", BackendInfo()),
	)
	return &Manager{
		state:  StateUnloaded,
		device: device,
		cfg:    cfg,
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ready reports whether both pipelines are loaded and usable.
func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// Device returns the device selected at construction.
func (m *Manager) Device() Device {
	return m.device
}

// Load constructs both pipelines on the configured device. On CUDA the
// memory-saving flags (CPU offload, VAE slicing) are enabled; on CPU they
// are meaningless and left off. Loading is idempotent: calling Load on a
// READY manager is a no-op. A load failure leaves the manager UNLOADED
// with no partial pipelines retained, and is returned without retry.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateReady {
		return nil
	}
	m.state = StateLoading

	start := time.Now()
	onCUDA := m.device == DeviceCUDA
	opts := LoadOptions{
		Device:     m.device,
		CPUOffload: onCUDA,
		VAESlicing: onCUDA,
		Threads:    m.cfg.Threads,
	}

	m.logger.Info("loading pipelines",
		zap.String("device", string(m.device)),
		zap.Bool("cpu_offload", opts.CPUOffload),
		zap.Bool("vae_slicing", opts.VAESlicing),
	)

	synthOpts := opts
	synthOpts.ControlNetPath = m.cfg.ControlNetPath
	synthesis, err := LoadPipeline(m.cfg.SynthesisModelPath, PipelineSynthesis, synthOpts)
	if err != nil {
		m.state = StateUnloaded
		return fmt.Errorf("load synthesis pipeline: %w", err)
	}

	if err := ctx.Err(); err != nil {
		FreePipeline(synthesis)
		m.state = StateUnloaded
		return fmt.Errorf("load canceled: %w", err)
	}

	inpaint, err := LoadPipeline(m.cfg.InpaintModelPath, PipelineInpaint, opts)
	if err != nil {
		FreePipeline(synthesis)
		m.state = StateUnloaded
		return fmt.Errorf("load inpaint pipeline: %w", err)
	}

	m.synthesis = synthesis
	m.inpaint = inpaint
	m.state = StateReady

	m.logger.Info("pipelines ready",
		zap.String("device", string(m.device)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Unload frees both pipelines and, on CUDA, releases the cached device
// memory back to the driver. Calling Unload on an UNLOADED manager is a
// safe no-op.
func (m *Manager) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateUnloaded {
		return
	}

	FreePipeline(m.synthesis)
	FreePipeline(m.inpaint)
	m.synthesis = nil
	m.inpaint = nil

	if m.device == DeviceCUDA {
		ReleaseDeviceMemory(m.device)
	}

	m.state = StateUnloaded
	m.logger.Info("pipelines unloaded", zap.String("device", string(m.device)))
}

// Txt2ImgWithControl runs the conditioned synthesis pipeline.
// Returns ErrNotReady when the manager is not READY.
func (m *Manager) Txt2ImgWithControl(ctx context.Context, params Params, control image.Image) (*Result, error) {
	m.mu.Lock()
	p := m.synthesis
	ready := m.state == StateReady
	m.mu.Unlock()

	if !ready {
		return nil, ErrNotReady
	}
	return Txt2ImgWithControl(ctx, p, params, control)
}

// Inpaint runs the inpainting pipeline.
// Returns ErrNotReady when the manager is not READY.
func (m *Manager) Inpaint(ctx context.Context, params Params, base image.Image, mask *image.Gray) (*Result, error) {
	m.mu.Lock()
	p := m.inpaint
	ready := m.state == StateReady
	m.mu.Unlock()

	if !ready {
		return nil, ErrNotReady
	}
	return Inpaint(ctx, p, params, base, mask)
}
