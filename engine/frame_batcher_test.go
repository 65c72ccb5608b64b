package engine

import (
	"testing"
)

// TestBatcherSingleCallForMultipleChanges pins the batching invariant: five
// parameters changing in one tick produce exactly one sink call carrying all
// five entries, never five calls
func TestBatcherSingleCallForMultipleChanges(t *testing.T) {
	sink := &recordingSink{}
	b := NewFrameParameterBatcher(sink)

	b.Push("bg", map[string]float64{
		"shake":    0.5,
		"progress": 0.3,
		"tunnel":   0.8,
		"fov":      0.2,
		"drift":    1.25,
	})

	if got := sink.callCount(); got != 1 {
		t.Fatalf("sink calls = %d, want 1", got)
	}
	if got := len(sink.calls[0].params); got != 5 {
		t.Fatalf("batched entries = %d, want 5", got)
	}
}

func TestBatcherSkipsUnchangedValues(t *testing.T) {
	sink := &recordingSink{}
	b := NewFrameParameterBatcher(sink)

	params := map[string]float64{"shake": 0.5, "progress": 0.3}
	b.Push("bg", params)
	b.Push("bg", params)

	if got := sink.callCount(); got != 1 {
		t.Fatalf("sink calls = %d after identical push, want 1", got)
	}
}

func TestBatcherSendsOnlyChangedSubset(t *testing.T) {
	sink := &recordingSink{}
	b := NewFrameParameterBatcher(sink)

	b.Push("bg", map[string]float64{"shake": 0.5, "progress": 0.3, "fov": 0})
	b.Push("bg", map[string]float64{"shake": 0.5, "progress": 0.4, "fov": 0})

	if got := sink.callCount(); got != 2 {
		t.Fatalf("sink calls = %d, want 2", got)
	}
	second := sink.calls[1].params
	if len(second) != 1 {
		t.Fatalf("second batch carried %d entries, want 1 (only progress changed)", len(second))
	}
	if second["progress"] != 0.4 {
		t.Fatalf("second batch progress = %v, want 0.4", second["progress"])
	}
}

func TestBatcherSeparatesTargets(t *testing.T) {
	sink := &recordingSink{}
	b := NewFrameParameterBatcher(sink)

	b.Push("bg", map[string]float64{"shake": 0.5})
	b.Push("minimap", map[string]float64{"shake": 0.5})

	if got := sink.callCount(); got != 2 {
		t.Fatalf("sink calls = %d, want 2 (one per target)", got)
	}
	if sink.calls[0].target == sink.calls[1].target {
		t.Fatal("both calls hit the same target")
	}
}

func TestBatcherResetResendsAll(t *testing.T) {
	sink := &recordingSink{}
	b := NewFrameParameterBatcher(sink)

	b.Push("bg", map[string]float64{"shake": 0.5})
	b.Reset()
	b.Push("bg", map[string]float64{"shake": 0.5})

	if got := sink.callCount(); got != 2 {
		t.Fatalf("sink calls = %d after reset, want 2", got)
	}
}

func TestBatcherNilSink(t *testing.T) {
	b := NewFrameParameterBatcher(nil)
	// Must not panic
	b.Push("bg", map[string]float64{"shake": 0.5})
}
