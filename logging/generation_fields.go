package logging

import (
	"time"

	"go.uber.org/zap"
)

// GenerationFields builds the standard field set attached to every log entry
// describing a mockup generation run. Keeping the field names in one place
// makes log queries across the service consistent.
//
// This is a pure function with no side effects.
func GenerationFields(product, style string, variations int, seed int64) []zap.Field {
	return []zap.Field{
		zap.String("product", product),
		zap.String("style", style),
		zap.Int("variations", variations),
		zap.Int64("seed", seed),
	}
}

// VariationFields builds the field set for a single variation within a run.
//
// This is a pure function with no side effects.
func VariationFields(index int, seed int64, elapsed time.Duration) []zap.Field {
	return []zap.Field{
		zap.Int("variation", index),
		zap.Int64("seed", seed),
		zap.Duration("elapsed", elapsed),
	}
}
