package mockup

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"mockupgen/config"
	"mockupgen/imaging"
	"mockupgen/logging"
	"mockupgen/sdxl"
)

// Generator is the orchestrator for mockup generation. It owns the fixed
// sequence logo preprocessing -> edge extraction -> prompt construction ->
// sampling -> post-processing and leans on the Pipelines runtime for the
// actual diffusion work.
type Generator struct {
	cfg       *config.Config
	pipelines Pipelines
	enhancer  *Enhancer
	logger    *logging.Logger
}

// NewGenerator creates a Generator. The enhancer may be nil, in which case
// prompts are used as built.
func NewGenerator(cfg *config.Config, pipelines Pipelines, enhancer *Enhancer, logger *logging.Logger) *Generator {
	return &Generator{
		cfg:       cfg,
		pipelines: pipelines,
		enhancer:  enhancer,
		logger:    logger,
	}
}

// resolve fills request defaults from the configuration and clamps junk
// values. This is a pure function with no side effects.
func (g *Generator) resolve(req Request) Request {
	if req.Variations < 1 {
		req.Variations = 1
	}
	if req.Variations > g.cfg.MaxVariations {
		req.Variations = g.cfg.MaxVariations
	}
	if req.GuidanceScale <= 0 {
		req.GuidanceScale = g.cfg.Defaults.GuidanceScale
	}
	if req.Steps <= 0 {
		req.Steps = g.cfg.Defaults.Steps
	}
	if req.ConditioningScale <= 0 {
		req.ConditioningScale = g.cfg.Defaults.ConditioningScale
	}
	if req.Seed < 0 {
		req.Seed = RandomSeed
	}
	return req
}

// ensureReady lazily loads the pipelines on first use. Load failures are
// fatal for the request and propagate without retry.
func (g *Generator) ensureReady(ctx context.Context) error {
	if g.pipelines.Ready() {
		return nil
	}
	if err := g.pipelines.Load(ctx); err != nil {
		return fmt.Errorf("loading pipelines: %w", err)
	}
	return nil
}

// buildParams assembles the diffusion parameters shared by all variations
// of a resolved request.
func (g *Generator) buildParams(req Request, prompt string) sdxl.Params {
	return sdxl.Params{
		Prompt:            prompt,
		NegativePrompt:    g.cfg.NegativePrompt,
		Width:             g.cfg.ImageSize,
		Height:            g.cfg.ImageSize,
		Steps:             req.Steps,
		GuidanceScale:     req.GuidanceScale,
		ConditioningScale: req.ConditioningScale,
	}
}

// Generate produces up to req.Variations mockups for the given logo.
//
// The logo is normalized once, its edge map extracted once and the prompt
// built once; each variation then runs the synthesis pipeline with seed
// base+i (or a fresh random seed per variation when the request asked for
// RandomSeed). A failed variation is logged and skipped; the remaining
// variations still run. The returned slice holds the successes in
// variation order and may be empty. Generate only returns an error when
// the pipelines cannot be loaded.
func (g *Generator) Generate(ctx context.Context, logo image.Image, req Request) ([]Mockup, error) {
	if err := g.ensureReady(ctx); err != nil {
		return nil, err
	}
	req = g.resolve(req)

	prepared := imaging.PrepareLogo(logo, g.cfg.ImageSize)
	control := imaging.ExtractEdges(prepared)

	prompt := BuildPrompt(g.cfg, req.Product, req.Style)
	prompt = g.enhancer.Enhance(ctx, prompt)

	if g.logger != nil {
		g.logger.Info("starting generation",
			logging.GenerationFields(req.Product, req.Style, req.Variations, req.Seed)...)
	}

	params := g.buildParams(req, prompt)
	mockups := make([]Mockup, 0, req.Variations)
	for i := 0; i < req.Variations; i++ {
		seed := req.Seed
		if seed == RandomSeed {
			seed = sdxl.RandomSeed()
		} else {
			seed += int64(i)
		}
		params.Seed = seed

		start := time.Now()
		res, err := g.pipelines.Txt2ImgWithControl(ctx, params, control)
		if err != nil {
			if g.logger != nil {
				g.logger.Warn("variation failed, continuing",
					zap.Int("variation", i),
					zap.Int64("seed", seed),
					zap.Error(err),
				)
			}
			continue
		}

		png, err := g.finishImage(res.Image, req.SkipPostProcess)
		if err != nil {
			if g.logger != nil {
				g.logger.Warn("variation post-processing failed, continuing",
					zap.Int("variation", i),
					zap.Error(err),
				)
			}
			continue
		}

		mockups = append(mockups, Mockup{
			PNG:               png,
			Seed:              res.Seed,
			Index:             i,
			Prompt:            prompt,
			Steps:             req.Steps,
			GuidanceScale:     req.GuidanceScale,
			ConditioningScale: req.ConditioningScale,
		})
		if g.logger != nil {
			g.logger.Debug("variation complete",
				logging.VariationFields(i, res.Seed, time.Since(start))...)
		}
	}

	if g.logger != nil {
		g.logger.Info("generation finished",
			zap.String("product", req.Product),
			zap.Int("requested", req.Variations),
			zap.Int("produced", len(mockups)),
		)
	}
	return mockups, nil
}

// GenerateBlended regenerates the logo region of an existing base image via
// the inpainting pipeline, producing a single blended mockup.
//
// When mask is nil it is derived from the logo's alpha channel: opaque logo
// pixels mark the region to regenerate. Base and mask are resized to the
// configured square before inpainting. Unlike Generate, inpainting errors
// are fatal for the call and propagate to the caller.
func (g *Generator) GenerateBlended(ctx context.Context, base, logo image.Image, mask *image.Gray, req Request) (*Mockup, error) {
	if err := g.ensureReady(ctx); err != nil {
		return nil, err
	}
	req = g.resolve(req)

	if mask == nil {
		prepared := imaging.PrepareLogo(logo, g.cfg.ImageSize)
		mask = imaging.MaskFromAlpha(prepared)
	}

	size := g.cfg.ImageSize
	baseResized := imaging.Resize(base, size, size)
	maskResized := imaging.ResizeGray(mask, size, size)

	prompt := BuildPrompt(g.cfg, req.Product, req.Style)
	prompt = g.enhancer.Enhance(ctx, prompt)
	prompt = prompt + ", " + BlendSuffix

	params := g.buildParams(req, prompt)
	params.Seed = req.Seed

	res, err := g.pipelines.Inpaint(ctx, params, baseResized, maskResized)
	if err != nil {
		return nil, fmt.Errorf("inpainting: %w", err)
	}

	png, err := g.finishImage(res.Image, req.SkipPostProcess)
	if err != nil {
		return nil, err
	}
	return &Mockup{
		PNG:               png,
		Seed:              res.Seed,
		Index:             0,
		Prompt:            prompt,
		Steps:             req.Steps,
		GuidanceScale:     req.GuidanceScale,
		ConditioningScale: req.ConditioningScale,
	}, nil
}

// finishImage applies the optional sharpening pass and encodes to PNG.
func (g *Generator) finishImage(img image.Image, skipPostProcess bool) ([]byte, error) {
	if !skipPostProcess {
		img = imaging.Sharpen(img)
	}
	png, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encoding mockup: %w", err)
	}
	return png, nil
}
