package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/warpcore/events"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recordingSink captures every batched parameter push
type recordingSink struct {
	mu     sync.Mutex
	calls  []batchCall
	latest map[string]map[string]float64
}

type batchCall struct {
	target string
	params map[string]float64
}

func (r *recordingSink) ApplyBatchedParameters(targetID string, params map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make(map[string]float64, len(params))
	for k, v := range params {
		cp[k] = v
	}
	r.calls = append(r.calls, batchCall{target: targetID, params: cp})

	if r.latest == nil {
		r.latest = make(map[string]map[string]float64)
	}
	if r.latest[targetID] == nil {
		r.latest[targetID] = make(map[string]float64)
	}
	for k, v := range cp {
		r.latest[targetID][k] = v
	}
}

func (r *recordingSink) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSink) value(target, name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.latest[target]; ok {
		return m[name]
	}
	return 0
}

// recordingMask captures mask opacity writes
type recordingMask struct {
	mu      sync.Mutex
	opacity float64
	history []float64
}

func (m *recordingMask) SetMaskOpacity(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opacity = v
	m.history = append(m.history, v)
}

func (m *recordingMask) current() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opacity
}

// scriptedProvider blocks each load until the test releases it, recording
// the order loads were started in
type scriptedProvider struct {
	mu      sync.Mutex
	started []string
	release chan error
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{release: make(chan error, 16)}
}

func (p *scriptedProvider) LoadSceneContent(sceneID string, _ SceneConfig, _ []ContentRef) error {
	p.mu.Lock()
	p.started = append(p.started, sceneID)
	p.mu.Unlock()
	return <-p.release
}

func (p *scriptedProvider) startedScenes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.started...)
}

// harness bundles an engine with controllable time and recorded outputs
type harness struct {
	eng   *Engine
	mock  *MockTimeProvider
	sink  *recordingSink
	mask  *recordingMask
	prov  *scriptedProvider
	evLog []events.Event
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	h := &harness{
		mock: NewMockTimeProvider(testEpoch),
		sink: &recordingSink{},
		mask: &recordingMask{},
		prov: newScriptedProvider(),
	}

	eng, err := New(cfg, Deps{
		Content: h.prov,
		Mask:    h.mask,
		Sink:    h.sink,
		Time:    h.mock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.eng = eng
	return h
}

// tick advances mock time by step and runs one engine tick
func (h *harness) tick(step time.Duration) {
	h.mock.Advance(step)
	h.eng.Tick()
	h.collect()
}

// tickFor advances in fixed steps until total elapsed
func (h *harness) tickFor(total, step time.Duration) {
	for advanced := time.Duration(0); advanced < total; advanced += step {
		h.tick(step)
	}
}

func (h *harness) collect() {
	h.evLog = append(h.evLog, h.eng.Events().Consume()...)
}

// settle re-ticks at frozen game time until cond holds, allowing loader
// goroutines to deliver their results. Game-time determinism is unaffected:
// extra ticks at the same instant have dt=0.
func (h *harness) settle(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.eng.Tick()
		h.collect()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

// eventsOf filters the collected log by type
func (h *harness) eventsOf(et events.EventType) []events.Event {
	var out []events.Event
	for _, ev := range h.evLog {
		if ev.Type == et {
			out = append(out, ev)
		}
	}
	return out
}

// gameTime converts an event timestamp back to game-elapsed time
func gameTime(ev events.Event) time.Duration {
	return ev.Timestamp.Sub(testEpoch)
}
