// Package config loads the mockup service configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GenericBasePrompt is the prompt template used when a product type is not
// found in the configuration. The single %s takes the style display name.
const GenericBasePrompt = "professional %s product photography"

// Product describes a supported product type and its prompt template.
type Product struct {
	// DisplayName is the human-readable product name.
	DisplayName string `yaml:"display_name"`
	// BasePrompt is the prompt template with one %s substitution point
	// for the style display name.
	BasePrompt string `yaml:"base_prompt"`
}

// Style describes a supported photography style.
type Style struct {
	// DisplayName is substituted into the product base prompt.
	DisplayName string `yaml:"display_name"`
	// PromptSuffix is appended to the formatted base prompt.
	PromptSuffix string `yaml:"prompt_suffix"`
}

// Defaults holds the numeric generation defaults applied when a request
// leaves a parameter unset.
type Defaults struct {
	GuidanceScale     float64 `yaml:"guidance_scale"`
	Steps             int     `yaml:"steps"`
	ConditioningScale float64 `yaml:"conditioning_scale"`
}

// Models holds the diffusion model weight locations and placement options.
type Models struct {
	SynthesisPath  string `yaml:"synthesis_path"`
	ControlNetPath string `yaml:"controlnet_path"`
	InpaintPath    string `yaml:"inpaint_path"`
	// Device forces placement: "cuda", "cpu" or "" for auto-detection.
	Device  string `yaml:"device"`
	Threads int    `yaml:"threads"`
}

// Server holds the HTTP listener settings. The API key comes from the
// environment only, never from YAML; when empty, auth is disabled.
type Server struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"-"`
}

// Enhancer holds the optional OpenAI prompt enhancement settings.
// The API key comes from the environment only, never from YAML.
type Enhancer struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"`
}

// Config is the full service configuration.
type Config struct {
	Products map[string]Product `yaml:"products"`
	Styles   map[string]Style   `yaml:"styles"`
	Defaults Defaults           `yaml:"defaults"`

	NegativePrompt string `yaml:"negative_prompt"`
	ImageSize      int    `yaml:"image_size"`
	MaxVariations  int    `yaml:"max_variations"`

	OutputDir string `yaml:"output_dir"`
	UploadDir string `yaml:"upload_dir"`
	LogFile   string `yaml:"log_file"`
	DBPath    string `yaml:"db_path"`

	Models   Models   `yaml:"models"`
	Server   Server   `yaml:"server"`
	Enhancer Enhancer `yaml:"enhancer"`

	Development bool `yaml:"development"`
}

// Default returns the built-in configuration covering the four stock
// product types and three styles.
// This is a pure function with no side effects.
func Default() *Config {
	return &Config{
		Products: map[string]Product{
			"tshirt": {
				DisplayName: "T-Shirt",
				BasePrompt:  "professional %s photo of a t-shirt on a model, printed logo design on the chest",
			},
			"mug": {
				DisplayName: "Mug",
				BasePrompt:  "professional %s photo of a ceramic coffee mug, printed logo design on the side",
			},
			"phone_case": {
				DisplayName: "Phone Case",
				BasePrompt:  "professional %s photo of a smartphone case, printed logo design on the back",
			},
			"packaging": {
				DisplayName: "Packaging",
				BasePrompt:  "professional %s photo of a product box, printed logo design on the front",
			},
		},
		Styles: map[string]Style{
			"studio": {
				DisplayName:  "studio",
				PromptSuffix: "clean studio lighting, white background, high detail, 8k, commercial photography",
			},
			"reallife": {
				DisplayName:  "lifestyle",
				PromptSuffix: "natural lighting, everyday setting, shallow depth of field, photorealistic",
			},
			"flatlay": {
				DisplayName:  "flat lay",
				PromptSuffix: "top-down view, minimal props, soft shadows, pastel background",
			},
		},
		Defaults: Defaults{
			GuidanceScale:     7.5,
			Steps:             30,
			ConditioningScale: 0.8,
		},
		NegativePrompt: "blurry, low quality, distorted, deformed, watermark, text artifacts",
		ImageSize:      1024,
		MaxVariations:  4,
		OutputDir:      "output",
		UploadDir:      "uploads",
		LogFile:        "mockupgen.log",
		DBPath:         "mockupgen.db",
		Models: Models{
			SynthesisPath:  "models/sdxl_base.safetensors",
			ControlNetPath: "models/controlnet_canny.safetensors",
			InpaintPath:    "models/sdxl_inpaint.safetensors",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Enhancer: Enhancer{
			Model: "gpt-4o-mini",
		},
	}
}

// Load reads a YAML configuration file, fills unset fields from the
// defaults and applies environment overrides. A missing file is not an
// error: the defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.fillZeroDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// fillZeroDefaults restores defaults for numeric fields a sparse YAML file
// left at zero.
func (c *Config) fillZeroDefaults() {
	def := Default()
	if c.Defaults.GuidanceScale == 0 {
		c.Defaults.GuidanceScale = def.Defaults.GuidanceScale
	}
	if c.Defaults.Steps == 0 {
		c.Defaults.Steps = def.Defaults.Steps
	}
	if c.Defaults.ConditioningScale == 0 {
		c.Defaults.ConditioningScale = def.Defaults.ConditioningScale
	}
	if c.ImageSize == 0 {
		c.ImageSize = def.ImageSize
	}
	if c.MaxVariations == 0 {
		c.MaxVariations = def.MaxVariations
	}
	if len(c.Products) == 0 {
		c.Products = def.Products
	}
	if len(c.Styles) == 0 {
		c.Styles = def.Styles
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.UploadDir == "" {
		c.UploadDir = def.UploadDir
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Enhancer.Model == "" {
		c.Enhancer.Model = def.Enhancer.Model
	}
}

// applyEnv layers environment variable overrides on top of the file values.
func (c *Config) applyEnv() {
	c.Server.Host = GetEnvOrDefault("MOCKUPGEN_HOST", c.Server.Host)
	c.Server.Port = ParseIntEnv("MOCKUPGEN_PORT", c.Server.Port)
	c.OutputDir = GetEnvOrDefault("MOCKUPGEN_OUTPUT_DIR", c.OutputDir)
	c.UploadDir = GetEnvOrDefault("MOCKUPGEN_UPLOAD_DIR", c.UploadDir)
	c.LogFile = GetEnvOrDefault("MOCKUPGEN_LOG_FILE", c.LogFile)
	c.DBPath = GetEnvOrDefault("MOCKUPGEN_DB_PATH", c.DBPath)
	c.ImageSize = ParseIntEnv("MOCKUPGEN_IMAGE_SIZE", c.ImageSize)
	c.MaxVariations = ParseIntEnv("MOCKUPGEN_MAX_VARIATIONS", c.MaxVariations)
	c.Development = ParseBoolEnv("MOCKUPGEN_DEV", c.Development)

	c.Models.SynthesisPath = GetEnvOrDefault("MOCKUPGEN_SYNTHESIS_MODEL", c.Models.SynthesisPath)
	c.Models.ControlNetPath = GetEnvOrDefault("MOCKUPGEN_CONTROLNET_MODEL", c.Models.ControlNetPath)
	c.Models.InpaintPath = GetEnvOrDefault("MOCKUPGEN_INPAINT_MODEL", c.Models.InpaintPath)
	c.Models.Device = GetEnvOrDefault("MOCKUPGEN_DEVICE", c.Models.Device)
	c.Models.Threads = ParseIntEnv("MOCKUPGEN_THREADS", c.Models.Threads)

	c.Server.APIKey = os.Getenv("MOCKUPGEN_API_KEY")
	c.Enhancer.APIKey = os.Getenv("OPENAI_API_KEY")
	c.Enhancer.Enabled = ParseBoolEnv("MOCKUPGEN_ENHANCER", c.Enhancer.Enabled)
}

// BasePrompt returns the prompt template for a product type. Unknown
// products degrade to the generic template rather than failing.
// This is a pure function with no side effects.
func (c *Config) BasePrompt(product string) string {
	if p, ok := c.Products[product]; ok && p.BasePrompt != "" {
		return p.BasePrompt
	}
	return GenericBasePrompt
}

// StyleInfo returns the display name and prompt suffix for a style key.
// Unknown styles degrade to the raw key with an empty suffix.
// This is a pure function with no side effects.
func (c *Config) StyleInfo(style string) (displayName, suffix string) {
	if s, ok := c.Styles[style]; ok {
		name := s.DisplayName
		if name == "" {
			name = style
		}
		return name, s.PromptSuffix
	}
	return style, ""
}

// KnownProduct reports whether a product key is configured.
func (c *Config) KnownProduct(product string) bool {
	_, ok := c.Products[product]
	return ok
}

// KnownStyle reports whether a style key is configured.
func (c *Config) KnownStyle(style string) bool {
	_, ok := c.Styles[style]
	return ok
}
