// Package api exposes the HTTP surface of the mockup service:
// generation, model lifecycle, health, and gallery file serving.
package api

import "mockupgen/metrics"

// GenerateResponse is the JSON body returned by POST /generate.
type GenerateResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	MockupURLs   []string `json:"mockup_urls"`
	NumGenerated int      `json:"num_generated"`
}

// HealthResponse is the JSON body returned by GET /health.
type HealthResponse struct {
	Status      string              `json:"status"`
	ModelLoaded bool                `json:"model_loaded"`
	Device      string              `json:"device"`
	GPU         *metrics.GPUMetrics `json:"gpu"`
}

// ModelsResponse is the JSON body returned by the model lifecycle endpoints.
type ModelsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	State   string `json:"state"`
}

// StatsResponse is the JSON body returned by GET /stats.
type StatsResponse struct {
	Stats  metrics.GenerationStats    `json:"stats"`
	Recent []metrics.GenerationRecord `json:"recent"`
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
