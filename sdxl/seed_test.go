package sdxl

import "testing"

func TestRandomSeedNonNegative(t *testing.T) {
	for i := 0; i < 100; i++ {
		seed := RandomSeed()
		if seed < 0 {
			t.Errorf("RandomSeed() returned negative value: %d", seed)
		}
	}
}

func TestRandomSeedVariability(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		seen[RandomSeed()] = true
	}
	// With 63 bits of entropy, 50 draws should essentially never collide.
	if len(seen) < 45 {
		t.Errorf("RandomSeed() produced only %d distinct values in 50 draws", len(seen))
	}
}
