package engine

import (
	"testing"
	"time"

	"github.com/lixenwraith/warpcore/events"
	"github.com/lixenwraith/warpcore/parameter"
)

// TestWarpTimelineEvents pins the event timeline of an uncontested warp with
// default timing: 3s cinematic, flash boundary at 65%, 300ms minimum hold
func TestWarpTimelineEvents(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.eng.Request(TransitionRequest{TargetSceneID: "hyperspace"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if h.eng.State() != TopWarping {
		t.Fatalf("state = %v after admit, want warping", h.eng.State())
	}

	h.tickFor(2*time.Second, testStep)
	h.prov.release <- nil
	h.settle(t, func() bool { return h.eng.sync.loaderDone })
	h.tickFor(1500*time.Millisecond, testStep)

	checks := []struct {
		et   events.EventType
		name string
		at   time.Duration
	}{
		{events.EventWarpStart, "warpStart", 0},
		{events.EventSceneLoading, "sceneLoading", 1950 * time.Millisecond},
		{events.EventSceneReady, "sceneReady", 2250 * time.Millisecond},
		{events.EventWarpComplete, "warpComplete", 3000 * time.Millisecond},
	}
	for _, c := range checks {
		evs := h.eventsOf(c.et)
		if len(evs) != 1 {
			t.Fatalf("%s events = %d, want 1", c.name, len(evs))
		}
		if got := gameTime(evs[0]); got != c.at {
			t.Errorf("%s at %v, want %v", c.name, got, c.at)
		}
	}

	done := h.eventsOf(events.EventWarpComplete)[0].Payload.(*events.WarpCompletePayload)
	if done.SceneID != "hyperspace" || done.RemainingQueue != 0 || done.Degraded {
		t.Fatalf("warpComplete payload = %+v", done)
	}
	if h.eng.State() != TopIdle {
		t.Fatalf("state = %v after completion, want idle", h.eng.State())
	}
	if !h.eng.ctrl.CooldownActive() {
		t.Fatal("cooldown not armed after completion")
	}
	if m := h.mask.current(); m != 0 {
		t.Fatalf("mask = %v at completion, want fully cleared", m)
	}
}

// TestProgressMonotonic sweeps the cinematic and requires the batched
// progress parameter to never move backwards frame over frame
func TestProgressMonotonic(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "S"})

	// Loader held back: the sweep runs through every phase and into the
	// readiness clamp without the completion reset
	last := -1.0
	for elapsed := time.Duration(0); elapsed < 4*time.Second; elapsed += testStep {
		h.tick(testStep)
		p := h.sink.value(parameter.RenderTargetBackground, "progress")
		if p < last {
			t.Fatalf("progress regressed %.4f -> %.4f at %v", last, p, elapsed+testStep)
		}
		last = p
	}
	h.prov.release <- nil
}

// TestCancelZerosParameters verifies interrupt hygiene: after Cancel every
// visual parameter is neutral on the very next frame and the cinematic
// never completes
func TestCancelZerosParameters(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "S"})
	h.tickFor(1500*time.Millisecond, testStep) // Mid-Climax

	if v := h.sink.value(parameter.RenderTargetBackground, "shake"); v == 0 {
		t.Fatal("precondition: shake should be nonzero mid-Climax")
	}

	h.eng.Cancel()
	h.tick(testStep)

	for _, name := range []string{"shake", "progress", "tunnel", "fov"} {
		if v := h.sink.value(parameter.RenderTargetBackground, name); v != 0 {
			t.Errorf("%s = %v after cancel, want 0", name, v)
		}
	}

	h.tickFor(3*time.Second, testStep)
	if got := len(h.eventsOf(events.EventWarpCancel)); got != 1 {
		t.Fatalf("warpCancel events = %d, want 1", got)
	}
	if got := len(h.eventsOf(events.EventWarpComplete)); got != 0 {
		t.Fatalf("warpComplete events = %d after cancel, want 0", got)
	}
	if h.eng.State() != TopIdle {
		t.Fatalf("state = %v after cancel, want idle", h.eng.State())
	}
}

// TestCancelDuringFlashAbandonsHold verifies a cancel inside the flash hold
// snaps the mask clear and discards the loader's late resolution
func TestCancelDuringFlashAbandonsHold(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "S"})
	h.tickFor(2050*time.Millisecond, testStep) // Inside the hold, mask rising

	if h.mask.current() == 0 {
		t.Fatal("precondition: mask should be up during the hold")
	}

	h.eng.Cancel()
	if h.mask.current() != 0 {
		t.Fatalf("mask = %v after cancel, want 0", h.mask.current())
	}

	// The abandoned loader resolves into a dropped channel
	h.prov.release <- nil
	h.tickFor(time.Second, testStep)
	if got := len(h.eventsOf(events.EventSceneReady)); got != 0 {
		t.Fatalf("sceneReady events = %d after abandon, want 0", got)
	}
}

// TestCancelKeepsQueuedRequests verifies a cancel drops only the active
// cinematic; the backlog drains afterwards
func TestCancelKeepsQueuedRequests(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "A"})
	h.tick(testStep)
	_ = h.eng.Request(TransitionRequest{TargetSceneID: "B"})

	h.eng.Cancel()
	h.tickFor(time.Second, testStep)
	h.prov.release <- nil
	h.settle(t, func() bool { return h.eng.ctrl.CurrentSceneID() == "B" })
}

// TestRendezvousClampHoldsFlash verifies the cinematic parks at late Flash
// past its nominal end while content is still loading
func TestRendezvousClampHoldsFlash(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "slow"})
	h.tickFor(4*time.Second, testStep) // 1s past nominal end, loader blocked

	if h.eng.State() != TopWarping {
		t.Fatalf("state = %v while content pending, want warping", h.eng.State())
	}
	phase, _ := h.eng.seq.Phase()
	if phase != PhaseFlash {
		t.Fatalf("phase = %v while content pending, want flash", phase)
	}
	if got := len(h.eventsOf(events.EventWarpComplete)); got != 0 {
		t.Fatalf("warpComplete fired %d times before readiness", got)
	}
	if p := h.sink.value(parameter.RenderTargetBackground, "progress"); p >= 0.951 {
		t.Fatalf("progress = %v during clamp, want < cooldown entry", p)
	}

	h.prov.release <- nil
	h.settle(t, func() bool { return len(h.eventsOf(events.EventWarpComplete)) > 0 })

	done := h.eventsOf(events.EventWarpComplete)[0]
	if got := gameTime(done); got != 4*time.Second {
		t.Fatalf("warpComplete at %v, want 4s (the readiness tick)", got)
	}
	if done.Payload.(*events.WarpCompletePayload).Degraded {
		t.Fatal("completion marked degraded on the normal rendezvous path")
	}
}

// TestFlashHoldCeiling verifies the hard cap: content that never arrives
// force-clears the hold and the completion is marked degraded
func TestFlashHoldCeiling(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "stuck"})
	h.tickFor(7*time.Second, testStep) // Flash at 1.95s + 5s ceiling = 6.95s

	timeouts := h.eventsOf(events.EventFlashHoldTimeout)
	if len(timeouts) != 1 {
		t.Fatalf("flashHoldTimeout events = %d, want 1", len(timeouts))
	}
	if got := gameTime(timeouts[0]); got != 6950*time.Millisecond {
		t.Fatalf("flashHoldTimeout at %v, want 6.95s", got)
	}

	done := h.eventsOf(events.EventWarpComplete)
	if len(done) != 1 {
		t.Fatalf("warpComplete events = %d, want 1", len(done))
	}
	if !done[0].Payload.(*events.WarpCompletePayload).Degraded {
		t.Fatal("timed-out completion not marked degraded")
	}
	if got := h.eng.Status().Ints.Get("warp.flash_timeouts").Load(); got != 1 {
		t.Fatalf("warp.flash_timeouts = %d, want 1", got)
	}

	h.prov.release <- nil // Unblock the stranded loader
}

// TestSuspendResumeKeepsGameTime verifies cinematic timing is measured in
// game time: a long suspension mid-warp shifts nothing
func TestSuspendResumeKeepsGameTime(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "S"})
	h.tickFor(time.Second, testStep)

	h.eng.Suspend()
	h.mock.Advance(10 * time.Minute)
	h.eng.Tick() // Ticks while suspended are harmless, dt is zero
	h.collect()
	h.eng.Resume()

	h.tickFor(time.Second, testStep) // Game time 2s, flash at 1.95s passed
	h.prov.release <- nil
	h.settle(t, func() bool { return h.eng.sync.loaderDone })
	h.tickFor(1500*time.Millisecond, testStep)

	loading := h.eventsOf(events.EventSceneLoading)
	if len(loading) != 1 || gameTime(loading[0]) != 1950*time.Millisecond {
		t.Fatalf("sceneLoading = %v, want exactly one at 1.95s game time", loading)
	}
	done := h.eventsOf(events.EventWarpComplete)
	if len(done) != 1 || gameTime(done[0]) != 3*time.Second {
		t.Fatalf("warpComplete = %v, want exactly one at 3s game time", done)
	}
}

// TestStalledTickSkipsToFlash verifies a huge frame gap cannot skip the
// flash hold: the cinematic lands at Flash and still waits for content
func TestStalledTickSkipsToFlash(t *testing.T) {
	h := newHarness(t, nil)

	_ = h.eng.Request(TransitionRequest{TargetSceneID: "S"})
	h.tick(testStep)
	h.tick(10 * time.Second) // One stalled frame jumps past the whole timeline

	if got := len(h.eventsOf(events.EventSceneLoading)); got != 1 {
		t.Fatalf("sceneLoading events = %d, want 1", got)
	}
	if h.eng.State() != TopWarping {
		t.Fatalf("state = %v, want warping until content is ready", h.eng.State())
	}
	phase, _ := h.eng.seq.Phase()
	if phase != PhaseFlash {
		t.Fatalf("phase = %v, want flash", phase)
	}

	h.prov.release <- nil
	h.settle(t, func() bool { return h.eng.sync.loaderDone })
	h.tickFor(400*time.Millisecond, testStep) // Minimum hold from the late start
	if got := len(h.eventsOf(events.EventWarpComplete)); got != 1 {
		t.Fatalf("warpComplete events = %d, want 1", got)
	}
}

// TestAttentionBlendContinuity verifies the secondary animation eases in and
// out without popping, even when toggled mid-blend
func TestAttentionBlendContinuity(t *testing.T) {
	h := newHarness(t, nil)
	attn := func() float64 {
		return h.sink.value(parameter.RenderTargetBackground, "attention")
	}

	h.eng.SetAttention(true)
	if h.eng.State() != TopSecondaryAnimation {
		t.Fatalf("state = %v, want secondary", h.eng.State())
	}

	prev := attn()
	for range 10 { // 500ms of the 750ms blend
		h.tick(testStep)
		cur := attn()
		if cur < prev {
			t.Fatalf("attention regressed %.4f -> %.4f while rising", prev, cur)
		}
		if cur-prev > 0.2 {
			t.Fatalf("attention popped %.4f -> %.4f in one frame", prev, cur)
		}
		prev = cur
	}

	// Toggle off mid-blend: decay starts from the current value
	h.eng.SetAttention(false)
	if h.eng.State() != TopIdle {
		t.Fatalf("state = %v after clearing attention, want idle", h.eng.State())
	}
	for range 20 {
		h.tick(testStep)
		cur := attn()
		if cur > prev {
			t.Fatalf("attention rose %.4f -> %.4f while decaying", prev, cur)
		}
		if prev-cur > 0.2 {
			t.Fatalf("attention popped %.4f -> %.4f in one frame", prev, cur)
		}
		prev = cur
	}
	if prev != 0 {
		t.Fatalf("attention = %v after full decay, want 0", prev)
	}
}

type panicSink struct{}

func (panicSink) ApplyBatchedParameters(string, map[string]float64) { panic("sink exploded") }

// TestTickPanicRecovered verifies a fault inside the tick never propagates
// to the render loop and is counted
func TestTickPanicRecovered(t *testing.T) {
	mock := NewMockTimeProvider(testEpoch)
	eng, err := New(DefaultConfig(), Deps{
		Content: newScriptedProvider(),
		Sink:    panicSink{},
		Time:    mock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = eng.Request(TransitionRequest{TargetSceneID: "S"})
	mock.Advance(testStep)
	eng.Tick() // Must not panic out

	if got := eng.Status().Ints.Get("engine.tick_panics").Load(); got != 1 {
		t.Fatalf("engine.tick_panics = %d, want 1", got)
	}

	mock.Advance(testStep)
	eng.Tick()
	if got := eng.Status().Ints.Get("engine.tick_panics").Load(); got != 2 {
		t.Fatalf("engine.tick_panics = %d after second tick, want 2", got)
	}
}

// TestHotConfigSwapAppliesNextTick verifies SetConfig stages the new values
// until the following frame
func TestHotConfigSwapAppliesNextTick(t *testing.T) {
	h := newHarness(t, nil)

	cfg := DefaultConfig()
	cfg.WarpDurationSec = 6
	if err := h.eng.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if got := h.eng.Config().WarpDurationSec; got != 3 {
		t.Fatalf("config swapped before tick: duration = %v", got)
	}

	h.tick(testStep)
	if got := h.eng.Config().WarpDurationSec; got != 6 {
		t.Fatalf("config not installed on tick: duration = %v", got)
	}

	bad := DefaultConfig()
	bad.PhaseFractions = []float64{0.5, 0.5}
	if err := h.eng.SetConfig(bad); err == nil {
		t.Fatal("invalid staged config accepted")
	}
}
