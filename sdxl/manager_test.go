package sdxl

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

// writeModelFile creates a placeholder weights file so the stub loader's
// existence check passes.
func writeModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("weights"), 0o644); err != nil {
		t.Fatalf("writing model file: %v", err)
	}
	return path
}

func testManagerConfig(t *testing.T) ManagerConfig {
	dir := t.TempDir()
	return ManagerConfig{
		SynthesisModelPath: writeModelFile(t, dir, "sdxl_base.safetensors"),
		ControlNetPath:     writeModelFile(t, dir, "controlnet_canny.safetensors"),
		InpaintModelPath:   writeModelFile(t, dir, "sdxl_inpaint.safetensors"),
		Device:             DeviceCPU,
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(testManagerConfig(t), nil)

	if m.State() != StateUnloaded {
		t.Fatalf("new manager state = %v, want unloaded", m.State())
	}
	if m.Ready() {
		t.Fatal("new manager reports ready")
	}

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if m.State() != StateReady {
		t.Errorf("state after Load = %v, want ready", m.State())
	}

	// Load on a ready manager is a no-op.
	if err := m.Load(context.Background()); err != nil {
		t.Errorf("second Load() = %v", err)
	}

	m.Unload()
	if m.State() != StateUnloaded {
		t.Errorf("state after Unload = %v, want unloaded", m.State())
	}

	// Unload on an unloaded manager is a safe no-op.
	m.Unload()
	if m.State() != StateUnloaded {
		t.Errorf("state after double Unload = %v, want unloaded", m.State())
	}
}

func TestManagerLoadMissingModel(t *testing.T) {
	cfg := testManagerConfig(t)
	cfg.SynthesisModelPath = filepath.Join(t.TempDir(), "missing.safetensors")

	m := NewManager(cfg, nil)
	err := m.Load(context.Background())
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Load() = %v, want ErrModelNotFound", err)
	}
	if m.State() != StateUnloaded {
		t.Errorf("state after failed Load = %v, want unloaded", m.State())
	}
}

func TestManagerLoadMissingInpaintModel(t *testing.T) {
	cfg := testManagerConfig(t)
	cfg.InpaintModelPath = filepath.Join(t.TempDir(), "missing.safetensors")

	m := NewManager(cfg, nil)
	err := m.Load(context.Background())
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Load() = %v, want ErrModelNotFound", err)
	}
	if m.State() != StateUnloaded {
		t.Errorf("state after failed Load = %v, want unloaded", m.State())
	}
}

func TestManagerLoadForcedCUDAWithoutBackend(t *testing.T) {
	cfg := testManagerConfig(t)
	cfg.Device = DeviceCUDA

	m := NewManager(cfg, nil)
	err := m.Load(context.Background())
	if !errors.Is(err, ErrCUDANotAvailable) {
		t.Fatalf("Load() = %v, want ErrCUDANotAvailable", err)
	}
	if m.State() != StateUnloaded {
		t.Errorf("state after failed Load = %v, want unloaded", m.State())
	}
}

func TestManagerLoadCanceledContext(t *testing.T) {
	m := NewManager(testManagerConfig(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Load(ctx); err == nil {
		t.Fatal("Load() with canceled context succeeded")
	}
	if m.State() != StateUnloaded {
		t.Errorf("state after canceled Load = %v, want unloaded", m.State())
	}
}

func TestManagerInferenceRequiresReady(t *testing.T) {
	m := NewManager(testManagerConfig(t), nil)

	control := image.NewRGBA(image.Rect(0, 0, 1024, 1024))
	_, err := m.Txt2ImgWithControl(context.Background(), validParams(), control)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Txt2ImgWithControl() on unloaded manager = %v, want ErrNotReady", err)
	}

	mask := image.NewGray(image.Rect(0, 0, 1024, 1024))
	_, err = m.Inpaint(context.Background(), validParams(), control, mask)
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Inpaint() on unloaded manager = %v, want ErrNotReady", err)
	}
}

func TestManagerDeviceFixedAtConstruction(t *testing.T) {
	m := NewManager(testManagerConfig(t), nil)
	if m.Device() != DeviceCPU {
		t.Fatalf("Device() = %v, want cpu", m.Device())
	}

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	m.Unload()
	if m.Device() != DeviceCPU {
		t.Errorf("Device() after load/unload cycle = %v, want cpu", m.Device())
	}
}
