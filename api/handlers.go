package api

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mockupgen/config"
	"mockupgen/db"
	"mockupgen/imaging"
	"mockupgen/logging"
	"mockupgen/metrics"
	"mockupgen/mockup"
	"mockupgen/sdxl"
	"mockupgen/store"
)

// maxUploadBytes bounds the multipart form size for logo uploads.
const maxUploadBytes = 20 << 20 // 20 MB

// Generator produces mockup images from an uploaded logo.
// Implemented by *mockup.Generator.
type Generator interface {
	Generate(ctx context.Context, logo image.Image, req mockup.Request) ([]mockup.Mockup, error)
}

// Models controls the diffusion pipeline lifecycle.
// Implemented by *sdxl.Manager.
type Models interface {
	Load(ctx context.Context) error
	Unload()
	Ready() bool
	State() sdxl.State
	Device() sdxl.Device
}

// Handlers holds the HTTP handlers and their dependencies. A single
// mutex serializes all pipeline access: generation and model lifecycle
// calls never overlap, which keeps VRAM usage predictable.
type Handlers struct {
	cfg       *config.Config
	generator Generator
	models    Models
	gallery   *store.Gallery
	repo      *db.GenerationRepository
	stats     *metrics.Store
	gpu       *metrics.GPUCollector
	logger    *logging.Logger

	mu sync.Mutex
}

// HandlersConfig collects the dependencies for NewHandlers.
// Repo, Stats, and GPU are optional; the handlers degrade gracefully
// when they are nil.
type HandlersConfig struct {
	Config    *config.Config
	Generator Generator
	Models    Models
	Gallery   *store.Gallery
	Repo      *db.GenerationRepository
	Stats     *metrics.Store
	GPU       *metrics.GPUCollector
	Logger    *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(cfg HandlersConfig) (*Handlers, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Models == nil {
		return nil, fmt.Errorf("models manager is required")
	}
	if cfg.Gallery == nil {
		return nil, fmt.Errorf("gallery is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	return &Handlers{
		cfg:       cfg.Config,
		generator: cfg.Generator,
		models:    cfg.Models,
		gallery:   cfg.Gallery,
		repo:      cfg.Repo,
		stats:     cfg.Stats,
		gpu:       cfg.GPU,
		logger:    cfg.Logger,
	}, nil
}

// RegisterRoutes wires the handlers into a mux. The optional auth
// middleware guards the mutating endpoints; health and gallery reads
// stay open.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, auth *APIKeyAuth) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc {
		if auth == nil {
			return fn
		}
		return auth.MiddlewareFunc(fn)
	}

	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/stats", h.HandleStats)
	mux.HandleFunc("/generate", protect(h.HandleGenerate))
	mux.HandleFunc("/load-models", protect(h.HandleLoadModels))
	mux.HandleFunc("/unload-models", protect(h.HandleUnloadModels))
	mux.HandleFunc("/mockups/", h.HandleMockupFile)
}

// HandleGenerate handles POST /generate. The request is a multipart
// form with a "logo" file plus product, style, and optional sampling
// parameter fields.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read logo upload: "+err.Error())
		return
	}

	logo, err := imaging.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode logo image: "+err.Error())
		return
	}

	req, err := h.parseGenerateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()

	h.mu.Lock()
	mockups, err := h.generator.Generate(r.Context(), logo, req)
	h.mu.Unlock()

	if err != nil {
		h.logger.Errorw("generation failed",
			"product", req.Product, "style", req.Style, "error", err)
		h.recordRun(req, 0, start, err.Error())
		writeError(w, http.StatusInternalServerError, "generation failed: "+err.Error())
		return
	}

	if len(mockups) == 0 {
		h.recordRun(req, 0, start, "no variations produced")
		writeJSON(w, http.StatusOK, GenerateResponse{
			Success:    false,
			Message:    "no mockups could be generated",
			MockupURLs: []string{},
		})
		return
	}

	pngs := make([][]byte, len(mockups))
	for i, m := range mockups {
		pngs[i] = m.PNG
	}

	names, err := h.gallery.Save(req.Product, req.Style, pngs)
	if err != nil {
		h.logger.Errorw("failed to persist mockups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save mockups: "+err.Error())
		return
	}

	h.persistHistory(req, mockups, names)
	h.recordRun(req, len(mockups), start, "")

	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = "/mockups/" + name
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:      true,
		Message:      fmt.Sprintf("generated %d mockup(s)", len(mockups)),
		MockupURLs:   urls,
		NumGenerated: len(mockups),
	})
}

// parseGenerateRequest validates and extracts the form fields.
func (h *Handlers) parseGenerateRequest(r *http.Request) (mockup.Request, error) {
	req := mockup.Request{Seed: mockup.RandomSeed}

	req.Product = r.FormValue("product")
	if !h.cfg.KnownProduct(req.Product) {
		return req, fmt.Errorf("unknown product type %q", req.Product)
	}

	req.Style = r.FormValue("style")
	if req.Style == "" {
		req.Style = "studio"
	}
	if !h.cfg.KnownStyle(req.Style) {
		return req, fmt.Errorf("unknown style %q", req.Style)
	}

	var parseErr error
	intField := func(name string, dst *int) {
		if v := r.FormValue(name); v != "" && parseErr == nil {
			n, err := strconv.Atoi(v)
			if err != nil {
				parseErr = fmt.Errorf("invalid %s value %q", name, v)
				return
			}
			*dst = n
		}
	}
	floatField := func(name string, dst *float64) {
		if v := r.FormValue(name); v != "" && parseErr == nil {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				parseErr = fmt.Errorf("invalid %s value %q", name, v)
				return
			}
			*dst = f
		}
	}

	intField("num_variations", &req.Variations)
	intField("steps", &req.Steps)
	floatField("guidance_scale", &req.GuidanceScale)
	floatField("conditioning_scale", &req.ConditioningScale)

	if v := r.FormValue("seed"); v != "" && parseErr == nil {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			parseErr = fmt.Errorf("invalid seed value %q", v)
		} else {
			req.Seed = n
		}
	}

	return req, parseErr
}

// persistHistory writes one best-effort history row per saved image.
func (h *Handlers) persistHistory(req mockup.Request, mockups []mockup.Mockup, names []string) {
	if h.repo == nil {
		return
	}

	runID := uuid.New().String()
	for i, m := range mockups {
		if i >= len(names) {
			break
		}
		gen := &db.Generation{
			ID:                uuid.New().String(),
			RunID:             runID,
			Product:           req.Product,
			Style:             req.Style,
			Prompt:            m.Prompt,
			Seed:              m.Seed,
			Steps:             m.Steps,
			GuidanceScale:     m.GuidanceScale,
			ConditioningScale: m.ConditioningScale,
			Width:             h.cfg.ImageSize,
			Height:            h.cfg.ImageSize,
			Filename:          names[i],
		}
		if !h.repo.InsertAsync(gen) {
			if err := h.repo.Insert(gen); err != nil {
				h.logger.Warnw("failed to persist generation history",
					"id", gen.ID, "error", err)
			}
		}
	}
}

// recordRun adds one run to the in-memory stats store.
func (h *Handlers) recordRun(req mockup.Request, produced int, start time.Time, errMsg string) {
	if h.stats == nil {
		return
	}

	status := metrics.RunStatusSuccess
	if produced == 0 {
		status = metrics.RunStatusError
	} else if req.Variations > 0 && produced < req.Variations {
		status = metrics.RunStatusPartial
	}

	h.stats.Record(metrics.GenerationRecord{
		ID:        uuid.New().String(),
		Product:   req.Product,
		Style:     req.Style,
		Status:    status,
		Requested: req.Variations,
		Produced:  produced,
		StartTime: start,
		Duration:  time.Since(start),
		ErrorMsg:  errMsg,
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:      "ok",
		ModelLoaded: h.models.Ready(),
		Device:      string(h.models.Device()),
	}
	if h.gpu != nil && h.gpu.IsAvailable() {
		current := h.gpu.GetCurrentMetrics()
		resp.GPU = &current
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := StatsResponse{Recent: []metrics.GenerationRecord{}}
	if h.stats != nil {
		resp.Stats = h.stats.Stats()
		resp.Recent = h.stats.Recent(20)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleLoadModels handles POST /load-models. Loading is idempotent;
// a second call on a ready manager returns success immediately.
func (h *Handlers) HandleLoadModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.mu.Lock()
	err := h.models.Load(r.Context())
	state := h.models.State()
	h.mu.Unlock()

	if err != nil {
		h.logger.Errorw("model load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ModelsResponse{
			Message: "model load failed: " + err.Error(),
			State:   state.String(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ModelsResponse{
		Success: true,
		Message: "models loaded",
		State:   state.String(),
	})
}

// HandleUnloadModels handles POST /unload-models.
func (h *Handlers) HandleUnloadModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.mu.Lock()
	h.models.Unload()
	state := h.models.State()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, ModelsResponse{
		Success: true,
		Message: "models unloaded",
		State:   state.String(),
	})
}

// HandleMockupFile handles GET /mockups/{filename}.
func (h *Handlers) HandleMockupFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/mockups/")
	path, err := h.gallery.Path(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "mockup not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
