// Package metrics provides GPU polling and generation statistics for the
// health surface of the mockup service.
package metrics

import "time"

// GPUMetrics represents GPU resource utilization metrics in bytes.
type GPUMetrics struct {
	// Utilization is the GPU utilization percentage (0-100)
	Utilization float64 `json:"utilization"`

	// Temperature is the GPU temperature in Celsius
	Temperature float64 `json:"temperature"`

	// MemoryTotal is the total available GPU memory in bytes
	MemoryTotal int64 `json:"memory_total"`

	// MemoryUsed is the amount of GPU memory currently in use (bytes)
	MemoryUsed int64 `json:"memory_used"`

	// MemoryFree is the amount of available GPU memory (bytes)
	MemoryFree int64 `json:"memory_free"`
}

// GenerationRecord represents a single completed generation run.
// This is a pure data structure with no behavior.
type GenerationRecord struct {
	// ID is the unique identifier for this run
	ID string `json:"id"`

	// Product is the product type that was generated
	Product string `json:"product"`

	// Style is the photography style that was used
	Style string `json:"style"`

	// Status indicates the outcome: "success", "partial", "error"
	Status string `json:"status"`

	// Requested is the number of variations asked for
	Requested int `json:"requested"`

	// Produced is the number of variations actually generated
	Produced int `json:"produced"`

	// StartTime is when the run began
	StartTime time.Time `json:"start_time"`

	// Duration is the total run time
	Duration time.Duration `json:"duration"`

	// ErrorMsg contains error details if Status is "error"
	ErrorMsg string `json:"error_msg,omitempty"`
}

// Run status constants for GenerationRecord
const (
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusError   = "error"
)

// ProductStats represents aggregated statistics for one product type.
// This is a pure data structure with no behavior.
type ProductStats struct {
	// Runs is the number of generation runs for this product
	Runs int64 `json:"runs"`

	// Images is the number of images produced for this product
	Images int64 `json:"images"`

	// AvgDuration is the average run time for this product
	AvgDuration time.Duration `json:"avg_duration"`
}

// GenerationStats represents aggregated generation statistics.
// This is a pure data structure with no behavior.
type GenerationStats struct {
	// TotalRuns is the number of generation runs recorded
	TotalRuns int64 `json:"total_runs"`

	// TotalImages is the number of images produced across all runs
	TotalImages int64 `json:"total_images"`

	// TotalErrors is the number of runs that produced nothing
	TotalErrors int64 `json:"total_errors"`

	// ByProduct contains per-product statistics
	ByProduct map[string]*ProductStats `json:"by_product"`
}
