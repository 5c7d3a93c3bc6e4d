package db

import (
	"sync"
	"testing"
	"time"
)

func TestAsyncWriterProcessesWrites(t *testing.T) {
	var mu sync.Mutex
	var got []interface{}

	writer := NewAsyncWriter(func(op WriteOperation) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, op.Data)
		return nil
	})

	writer.Start()
	if !writer.Write("first") {
		t.Fatal("Write() = false, want queued")
	}
	if !writer.Write("second") {
		t.Fatal("Write() = false, want queued")
	}
	writer.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("processed %d operations, want 2", len(got))
	}
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("processed order = %v", got)
	}
}

func TestAsyncWriterFullBuffer(t *testing.T) {
	block := make(chan struct{})
	writer := NewAsyncWriterWithConfig(func(op WriteOperation) error {
		<-block
		return nil
	}, AsyncWriterConfig{ChannelCapacity: 1, DrainTimeout: time.Second})

	// Not started, so nothing consumes the channel.
	if !writer.Write("fits") {
		t.Fatal("first write rejected with empty buffer")
	}
	if writer.Write("overflow") {
		t.Error("write accepted on full buffer")
	}
	if writer.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", writer.Pending())
	}
	close(block)
}

func TestAsyncWriterStopDrainsPending(t *testing.T) {
	var mu sync.Mutex
	count := 0

	writer := NewAsyncWriterWithConfig(func(op WriteOperation) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}, AsyncWriterConfig{ChannelCapacity: 10, DrainTimeout: time.Second})

	// Queue before starting so writes are pending when Stop runs.
	for i := 0; i < 5; i++ {
		writer.Write(i)
	}
	writer.Start()
	writer.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("drained %d operations, want 5", count)
	}
}

func TestAsyncWriterStartIdempotent(t *testing.T) {
	writer := NewAsyncWriter(func(op WriteOperation) error { return nil })
	writer.Start()
	writer.Start() // second call is a no-op
	if !writer.IsStarted() {
		t.Error("IsStarted() = false after Start")
	}
	writer.Stop()
}

func TestAsyncWriterStopWithTimeout(t *testing.T) {
	writer := NewAsyncWriter(func(op WriteOperation) error { return nil })
	writer.Start()
	if !writer.StopWithTimeout(2 * time.Second) {
		t.Error("StopWithTimeout() timed out on idle writer")
	}
}
