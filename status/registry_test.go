package status

import (
	"sync"
	"testing"
)

func TestMetricMapPointerStability(t *testing.T) {
	r := NewRegistry()

	a := r.Ints.Get("warp.completed")
	b := r.Ints.Get("warp.completed")
	if a != b {
		t.Fatal("Get returned different pointers for the same key")
	}

	a.Add(3)
	if got := b.Load(); got != 3 {
		t.Fatalf("cached pointer reads %d, want 3", got)
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Ints.Get("shared").Add(1)
		}()
	}
	wg.Wait()

	if got := r.Ints.Get("shared").Load(); got != 16 {
		t.Fatalf("shared counter = %d, want 16", got)
	}
	if got := r.Ints.Count(); got != 1 {
		t.Fatalf("metric count = %d, want 1", got)
	}
}

func TestSnapshots(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("queue.length").Store(2)
	r.Ints.Get("engine.ticks").Store(100)
	r.Floats.Get("mask.opacity").Set(0.75)

	ints := r.SnapshotInts()
	if ints["queue.length"] != 2 || ints["engine.ticks"] != 100 {
		t.Fatalf("int snapshot = %v", ints)
	}

	floats := r.SnapshotFloats()
	if floats["mask.opacity"] != 0.75 {
		t.Fatalf("float snapshot = %v", floats)
	}

	// Snapshots are copies, not views
	r.Ints.Get("queue.length").Store(9)
	if ints["queue.length"] != 2 {
		t.Fatal("snapshot mutated after the fact")
	}
}

func TestAtomicFloatRoundTrip(t *testing.T) {
	var f AtomicFloat
	if f.Get() != 0 {
		t.Fatal("zero value not 0.0")
	}
	f.Set(-12.5)
	if got := f.Get(); got != -12.5 {
		t.Fatalf("Get = %v, want -12.5", got)
	}
}
