package metrics

import (
	"sync"
	"time"
)

// DefaultRecentLimit is how many recent generation records the store keeps.
const DefaultRecentLimit = 100

// Store aggregates generation run records for the health and stats
// surfaces. It keeps a bounded list of recent records plus running
// aggregates. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	recent      []GenerationRecord
	recentLimit int

	totalRuns   int64
	totalImages int64
	totalErrors int64

	byProduct map[string]*productAccum
}

// productAccum tracks the running sums needed for per-product averages.
type productAccum struct {
	runs          int64
	images        int64
	totalDuration time.Duration
}

// NewStore creates an empty metrics store.
func NewStore() *Store {
	return &Store{
		recentLimit: DefaultRecentLimit,
		byProduct:   make(map[string]*productAccum),
	}
}

// Record adds one completed generation run to the store.
func (s *Store) Record(rec GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRuns++
	s.totalImages += int64(rec.Produced)
	if rec.Status == RunStatusError {
		s.totalErrors++
	}

	acc, ok := s.byProduct[rec.Product]
	if !ok {
		acc = &productAccum{}
		s.byProduct[rec.Product] = acc
	}
	acc.runs++
	acc.images += int64(rec.Produced)
	acc.totalDuration += rec.Duration

	s.recent = append(s.recent, rec)
	if len(s.recent) > s.recentLimit {
		s.recent = s.recent[len(s.recent)-s.recentLimit:]
	}
}

// Stats returns a snapshot of the aggregated statistics.
func (s *Store) Stats() GenerationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct := make(map[string]*ProductStats, len(s.byProduct))
	for product, acc := range s.byProduct {
		stats := &ProductStats{
			Runs:   acc.runs,
			Images: acc.images,
		}
		if acc.runs > 0 {
			stats.AvgDuration = acc.totalDuration / time.Duration(acc.runs)
		}
		byProduct[product] = stats
	}

	return GenerationStats{
		TotalRuns:   s.totalRuns,
		TotalImages: s.totalImages,
		TotalErrors: s.totalErrors,
		ByProduct:   byProduct,
	}
}

// Recent returns up to limit of the most recent records, newest last.
func (s *Store) Recent(limit int) []GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	result := make([]GenerationRecord, limit)
	copy(result, s.recent[len(s.recent)-limit:])
	return result
}
