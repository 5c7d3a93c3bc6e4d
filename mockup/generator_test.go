package mockup

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"mockupgen/config"
	"mockupgen/sdxl"
)

// fakePipelines records every invocation and returns canned results,
// standing in for the CGo-backed runtime.
type fakePipelines struct {
	ready     bool
	loadErr   error
	loadCalls int

	synthCalls  []sdxl.Params
	failSynthAt map[int]bool
	failAll     bool

	inpaintErr    error
	inpaintParams []sdxl.Params
	lastBase      image.Image
	lastMask      *image.Gray
}

func (f *fakePipelines) Ready() bool { return f.ready }

func (f *fakePipelines) Load(_ context.Context) error {
	f.loadCalls++
	if f.loadErr != nil {
		return f.loadErr
	}
	f.ready = true
	return nil
}

func (f *fakePipelines) Device() sdxl.Device { return sdxl.DeviceCPU }

func (f *fakePipelines) result(params sdxl.Params) *sdxl.Result {
	img := image.NewRGBA(image.Rect(0, 0, params.Width, params.Height))
	for y := 0; y < params.Height; y++ {
		for x := 0; x < params.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	return &sdxl.Result{Image: img, Seed: params.Seed}
}

func (f *fakePipelines) Txt2ImgWithControl(_ context.Context, params sdxl.Params, _ image.Image) (*sdxl.Result, error) {
	call := len(f.synthCalls)
	f.synthCalls = append(f.synthCalls, params)
	if f.failAll || f.failSynthAt[call] {
		return nil, sdxl.ErrGenerationFailed
	}
	return f.result(params), nil
}

func (f *fakePipelines) Inpaint(_ context.Context, params sdxl.Params, base image.Image, mask *image.Gray) (*sdxl.Result, error) {
	f.inpaintParams = append(f.inpaintParams, params)
	f.lastBase = base
	f.lastMask = mask
	if f.inpaintErr != nil {
		return nil, f.inpaintErr
	}
	return f.result(params), nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	// Keep image work small so tests stay fast.
	cfg.ImageSize = 64
	return cfg
}

// testLogo is an opaque square logo on a transparent border.
func testLogo() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return img
}

func newTestGenerator(f *fakePipelines) *Generator {
	return NewGenerator(testConfig(), f, nil, nil)
}

func TestGenerateSeedSequence(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 3, Seed: 42,
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(mockups) != 3 {
		t.Fatalf("got %d mockups, want 3", len(mockups))
	}
	for i, m := range mockups {
		want := int64(42 + i)
		if m.Seed != want {
			t.Errorf("mockup %d seed = %d, want %d", i, m.Seed, want)
		}
		if m.Index != i {
			t.Errorf("mockup %d index = %d", i, m.Index)
		}
	}
	for i, p := range f.synthCalls {
		if p.Seed != int64(42+i) {
			t.Errorf("call %d seed = %d, want %d", i, p.Seed, 42+i)
		}
	}
}

func TestGenerateRandomSeeds(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 2, Seed: RandomSeed,
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(mockups) != 2 {
		t.Fatalf("got %d mockups, want 2", len(mockups))
	}
	for i, m := range mockups {
		if m.Seed < 0 {
			t.Errorf("mockup %d got negative seed %d", i, m.Seed)
		}
	}
}

func TestGenerateAllVariationsFail(t *testing.T) {
	f := &fakePipelines{ready: true, failAll: true}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 3, Seed: 1,
	})
	if err != nil {
		t.Fatalf("Generate() with failing variations = %v, want nil error", err)
	}
	if len(mockups) != 0 {
		t.Errorf("got %d mockups, want 0", len(mockups))
	}
}

func TestGeneratePartialFailure(t *testing.T) {
	f := &fakePipelines{ready: true, failSynthAt: map[int]bool{1: true}}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "tshirt", Style: "flatlay", Variations: 3, Seed: 7,
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(mockups) != 2 {
		t.Fatalf("got %d mockups, want 2 survivors", len(mockups))
	}
	if mockups[0].Index != 0 || mockups[1].Index != 2 {
		t.Errorf("surviving indices = %d, %d, want 0 and 2", mockups[0].Index, mockups[1].Index)
	}
	if mockups[1].Seed != 9 {
		t.Errorf("second survivor seed = %d, want 9", mockups[1].Seed)
	}
}

func TestGenerateLazyLoad(t *testing.T) {
	f := &fakePipelines{}
	g := newTestGenerator(f)

	if _, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 1, Seed: 1,
	}); err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if f.loadCalls != 1 {
		t.Errorf("loadCalls = %d, want 1", f.loadCalls)
	}

	// Already ready: no second load.
	if _, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 1, Seed: 1,
	}); err != nil {
		t.Fatalf("second Generate() = %v", err)
	}
	if f.loadCalls != 1 {
		t.Errorf("loadCalls after second run = %d, want 1", f.loadCalls)
	}
}

func TestGenerateLoadFailurePropagates(t *testing.T) {
	loadErr := errors.New("weights corrupted")
	f := &fakePipelines{loadErr: loadErr}
	g := newTestGenerator(f)

	_, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 1, Seed: 1,
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("Generate() = %v, want load error", err)
	}
	if len(f.synthCalls) != 0 {
		t.Errorf("synthesis ran despite load failure")
	}
}

func TestGenerateClampsAndDefaults(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 99, Seed: 1,
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(f.synthCalls) != 4 {
		t.Fatalf("variations clamped to %d, want max 4", len(f.synthCalls))
	}

	// The resolved parameters ride back on each mockup even though the
	// request left them zero.
	for i, m := range mockups {
		if m.Steps != 30 || m.GuidanceScale != 7.5 || m.ConditioningScale != 0.8 {
			t.Errorf("mockup %d resolved params = %d/%v/%v, want 30/7.5/0.8",
				i, m.Steps, m.GuidanceScale, m.ConditioningScale)
		}
	}

	p := f.synthCalls[0]
	if p.Steps != 30 {
		t.Errorf("default steps = %d, want 30", p.Steps)
	}
	if p.GuidanceScale != 7.5 {
		t.Errorf("default guidance = %v, want 7.5", p.GuidanceScale)
	}
	if p.ConditioningScale != 0.8 {
		t.Errorf("default conditioning = %v, want 0.8", p.ConditioningScale)
	}
	if p.Width != 64 || p.Height != 64 {
		t.Errorf("dimensions = %dx%d, want 64x64", p.Width, p.Height)
	}
	if p.NegativePrompt == "" {
		t.Error("negative prompt not applied")
	}
}

func TestGenerateBlendedDerivesMask(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	base := image.NewRGBA(image.Rect(0, 0, 128, 128))
	_, err := g.GenerateBlended(context.Background(), base, testLogo(), nil, Request{
		Product: "mug", Style: "studio", Seed: 5,
	})
	if err != nil {
		t.Fatalf("GenerateBlended() = %v", err)
	}
	if f.lastMask == nil {
		t.Fatal("no mask passed to inpainting")
	}
	if f.lastMask.Bounds().Dx() != 64 || f.lastMask.Bounds().Dy() != 64 {
		t.Errorf("mask size = %v, want 64x64", f.lastMask.Bounds())
	}
	// The opaque logo block must open the mask, the transparent border
	// must keep it closed.
	if f.lastMask.GrayAt(32, 32).Y != 255 {
		t.Errorf("mask center = %d, want 255", f.lastMask.GrayAt(32, 32).Y)
	}
	if f.lastMask.GrayAt(2, 2).Y != 0 {
		t.Errorf("mask corner = %d, want 0", f.lastMask.GrayAt(2, 2).Y)
	}
}

func TestGenerateBlendedErrorPropagates(t *testing.T) {
	f := &fakePipelines{ready: true, inpaintErr: sdxl.ErrInpaintFailed}
	g := newTestGenerator(f)

	base := image.NewRGBA(image.Rect(0, 0, 64, 64))
	_, err := g.GenerateBlended(context.Background(), base, testLogo(), nil, Request{
		Product: "mug", Style: "studio", Seed: 5,
	})
	if !errors.Is(err, sdxl.ErrInpaintFailed) {
		t.Fatalf("GenerateBlended() = %v, want ErrInpaintFailed", err)
	}
}

func TestGenerateBlendedPromptCarriesBlendSuffix(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	base := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if _, err := g.GenerateBlended(context.Background(), base, testLogo(), nil, Request{
		Product: "mug", Style: "studio", Seed: 5,
	}); err != nil {
		t.Fatalf("GenerateBlended() = %v", err)
	}
	if len(f.inpaintParams) != 1 {
		t.Fatalf("inpaint calls = %d, want 1", len(f.inpaintParams))
	}
	if !strings.HasSuffix(f.inpaintParams[0].Prompt, BlendSuffix) {
		t.Errorf("inpaint prompt = %q, missing blend suffix", f.inpaintParams[0].Prompt)
	}
}

func TestGenerateMugStudioScenario(t *testing.T) {
	f := &fakePipelines{ready: true}
	g := newTestGenerator(f)

	mockups, err := g.Generate(context.Background(), testLogo(), Request{
		Product: "mug", Style: "studio", Variations: 2, Seed: 42,
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if len(mockups) != 2 {
		t.Fatalf("got %d mockups, want 2", len(mockups))
	}
	if mockups[0].Seed != 42 || mockups[1].Seed != 43 {
		t.Errorf("seeds = %d, %d, want 42, 43", mockups[0].Seed, mockups[1].Seed)
	}

	prompt := f.synthCalls[0].Prompt
	if !strings.Contains(prompt, "coffee mug") {
		t.Errorf("prompt = %q, missing product wording", prompt)
	}
	if !strings.Contains(prompt, "studio lighting") {
		t.Errorf("prompt = %q, missing style suffix", prompt)
	}

	// The output bytes are valid PNGs at the configured size.
	for i, m := range mockups {
		img, err := png.Decode(bytes.NewReader(m.PNG))
		if err != nil {
			t.Fatalf("mockup %d is not valid PNG: %v", i, err)
		}
		if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
			t.Errorf("mockup %d size = %v, want 64x64", i, img.Bounds())
		}
	}
}
