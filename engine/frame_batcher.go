package engine

// FrameParameterBatcher pushes per-frame derived values to the render
// boundary. Values are compared against the last pushed state; only changed
// entries are sent, and all changed entries for a target go out in a single
// ApplyBatchedParameters call. Per-parameter calls are disallowed by
// contract - each extra sink call is a potential GPU upload.
//
// The batcher owns the last-pushed map exclusively and is written only from
// the tick thread.
type FrameParameterBatcher struct {
	sink ParameterSink
	last map[string]map[string]float64
}

// NewFrameParameterBatcher creates a batcher over the given sink
func NewFrameParameterBatcher(sink ParameterSink) *FrameParameterBatcher {
	return &FrameParameterBatcher{
		sink: sink,
		last: make(map[string]map[string]float64),
	}
}

// Push diffs params against the last pushed values for targetID and emits
// one batched call containing only the changed entries. No call is made
// when nothing changed.
func (b *FrameParameterBatcher) Push(targetID string, params map[string]float64) {
	prev, ok := b.last[targetID]
	if !ok {
		prev = make(map[string]float64, len(params))
		b.last[targetID] = prev
	}

	var changed map[string]float64
	for name, value := range params {
		if old, seen := prev[name]; seen && old == value {
			continue
		}
		if changed == nil {
			changed = make(map[string]float64, len(params))
		}
		changed[name] = value
		prev[name] = value
	}

	if changed != nil && b.sink != nil {
		b.sink.ApplyBatchedParameters(targetID, changed)
	}
}

// Reset forgets pushed state so the next Push resends everything,
// used after the render context is rebuilt
func (b *FrameParameterBatcher) Reset() {
	b.last = make(map[string]map[string]float64)
}
