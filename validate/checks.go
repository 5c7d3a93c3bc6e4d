package validate

import (
	"fmt"
	"os"
	"path/filepath"
)

// checkConfig verifies the loaded configuration is usable.
func (s *Suite) checkConfig() checkResult {
	if s.cfg == nil {
		return failed("no configuration", fmt.Errorf("configuration is nil"))
	}
	if len(s.cfg.Products) == 0 {
		return failed("no product types configured", fmt.Errorf("products map is empty"))
	}
	if len(s.cfg.Styles) == 0 {
		return failed("no styles configured", fmt.Errorf("styles map is empty"))
	}
	return passed(fmt.Sprintf("%d products, %d styles", len(s.cfg.Products), len(s.cfg.Styles)))
}

// checkOutputDir verifies the gallery directory can be created and written.
func (s *Suite) checkOutputDir() checkResult {
	return s.checkWritableDir(s.cfg.OutputDir)
}

// checkUploadDir verifies the upload scratch directory is writable.
func (s *Suite) checkUploadDir() checkResult {
	return s.checkWritableDir(s.cfg.UploadDir)
}

// checkWritableDir creates dir if needed and probes it with a temp file.
func (s *Suite) checkWritableDir(dir string) checkResult {
	if dir == "" {
		return failed("directory not configured", fmt.Errorf("empty directory path"))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return failed("cannot create directory", err)
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return failed("directory not writable", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return passed(dir)
}

// checkDatabasePath verifies the history database location is usable.
func (s *Suite) checkDatabasePath() checkResult {
	if s.cfg.DBPath == "" {
		return failed("database path not configured", fmt.Errorf("empty db_path"))
	}

	dir := filepath.Dir(s.cfg.DBPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return failed("cannot create database directory", err)
		}
	}

	return passed(s.cfg.DBPath)
}

// checkSynthesisModel reports whether the conditioned synthesis model
// file is present. Missing models are warnings, not failures: the
// service starts unloaded and loads on first use or via /load-models.
func (s *Suite) checkSynthesisModel() checkResult {
	return s.checkModelFile(s.cfg.Models.SynthesisPath)
}

// checkControlNetModel reports whether the edge conditioning model is present.
func (s *Suite) checkControlNetModel() checkResult {
	return s.checkModelFile(s.cfg.Models.ControlNetPath)
}

// checkInpaintModel reports whether the inpainting model is present.
func (s *Suite) checkInpaintModel() checkResult {
	return s.checkModelFile(s.cfg.Models.InpaintPath)
}

// checkModelFile probes a model path on disk.
func (s *Suite) checkModelFile(path string) checkResult {
	if path == "" {
		return warned("model path not configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		return warned(fmt.Sprintf("not found at %s, load will fail until provided", path))
	}
	if info.IsDir() {
		return warned(fmt.Sprintf("%s is a directory, expected a model file", path))
	}

	return passed(fmt.Sprintf("%s (%.1f GB)", path, float64(info.Size())/(1<<30)))
}

// checkEnhancer verifies the optional prompt enhancer configuration.
func (s *Suite) checkEnhancer() checkResult {
	if !s.cfg.Enhancer.Enabled {
		return skipped("disabled")
	}
	if s.cfg.Enhancer.APIKey == "" {
		return warned("enabled but OPENAI_API_KEY is not set, prompts will pass through")
	}
	return passed(fmt.Sprintf("model %s", s.cfg.Enhancer.Model))
}
