package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestParseNvidiaSMIOutput(t *testing.T) {
	m, err := parseNvidiaSMIOutput("45, 62, 8192, 24576\n")
	if err != nil {
		t.Fatalf("parseNvidiaSMIOutput() = %v", err)
	}
	if m.Utilization != 45 {
		t.Errorf("utilization = %v, want 45", m.Utilization)
	}
	if m.Temperature != 62 {
		t.Errorf("temperature = %v, want 62", m.Temperature)
	}
	wantUsed := int64(8192) * 1024 * 1024
	if m.MemoryUsed != wantUsed {
		t.Errorf("memory used = %d, want %d", m.MemoryUsed, wantUsed)
	}
	if m.MemoryFree != m.MemoryTotal-m.MemoryUsed {
		t.Errorf("memory free = %d, inconsistent with total-used", m.MemoryFree)
	}
}

func TestParseNvidiaSMIOutputMalformed(t *testing.T) {
	cases := []string{"", "45, 62", "abc, def, ghi, jkl"}
	for _, input := range cases {
		if _, err := parseNvidiaSMIOutput(input); err == nil {
			t.Errorf("parseNvidiaSMIOutput(%q) succeeded, want error", input)
		}
	}
}

func TestGPUCollectorWithMockReader(t *testing.T) {
	reader := NewMockGPUReader(GPUMetrics{Utilization: 80, Temperature: 70})
	c := NewGPUCollectorWithReader(DefaultGPUCollectorConfig(), reader)

	c.Start()
	// First sample is collected synchronously at start; give the goroutine
	// a moment to run it.
	deadline := time.Now().Add(2 * time.Second)
	for reader.CallCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Stop()

	if !c.IsAvailable() {
		t.Fatal("collector not available with working reader")
	}
	if got := c.GetCurrentMetrics().Utilization; got != 80 {
		t.Errorf("utilization = %v, want 80", got)
	}
	if c.GetHistorySize() < 1 {
		t.Error("no samples recorded in history")
	}
}

func TestGPUCollectorReaderError(t *testing.T) {
	reader := NewMockGPUReader(GPUMetrics{})
	reader.SetError(errors.New("no gpu"))
	c := NewGPUCollectorWithReader(DefaultGPUCollectorConfig(), reader)

	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for reader.CallCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Stop()

	if c.IsAvailable() {
		t.Error("collector reports available despite reader error")
	}
	if c.GetLastError() == nil {
		t.Error("GetLastError() = nil, want error")
	}
	if c.GetHistorySize() != 0 {
		t.Error("failed samples were added to history")
	}
}

func TestGPUCollectorHistoryOrder(t *testing.T) {
	c := NewGPUCollector(DefaultGPUCollectorConfig())
	c.reader = NewMockGPUReader(GPUMetrics{})

	// Feed samples directly through collectOnce with changing values.
	for i := 1; i <= 5; i++ {
		c.reader.(*MockGPUReader).SetMetrics(GPUMetrics{Utilization: float64(i * 10)})
		c.collectOnce()
	}

	history := c.GetHistory(3)
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, m := range history {
		want := float64((3 + i) * 10)
		if m.Utilization != want {
			t.Errorf("history[%d].Utilization = %v, want %v", i, m.Utilization, want)
		}
	}
}
