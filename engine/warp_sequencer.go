package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/warpcore/events"
	"github.com/lixenwraith/warpcore/status"
	"github.com/lixenwraith/warpcore/vmath"
)

// TopState is the sequencer's top-level state. Exactly one is active.
type TopState int

const (
	TopIdle TopState = iota
	TopSecondaryAnimation
	TopWarping
)

// String returns the state name for debug overlays
func (s TopState) String() string {
	switch s {
	case TopIdle:
		return "idle"
	case TopSecondaryAnimation:
		return "secondary"
	case TopWarping:
		return "warping"
	}
	return "unknown"
}

// WarpSequencer drives the warp cinematic: it owns the top-level state,
// advances the phase timeline each tick, hands off to the scene-load
// synchronizer at the Flash boundary, and derives the normalized visual
// parameters (shake, progress, tunnel, fov) the renderer consumes.
type WarpSequencer struct {
	clock      *PausableClock
	sync       *SceneLoadSynchronizer
	queue      *events.Queue
	focus      FocusController
	content    ContentProvider
	controller *TransitionQueueController
	cfg        *Config
	table      *PhaseTable

	state TopState

	// Cinematic accounting, reset on every BeginWarp
	current      *TransitionRequest
	startedAt    time.Duration
	flashInvoked bool
	holdResolved bool
	degraded     bool

	// Derived per-tick outputs, all normalized
	phase         WarpPhase
	phaseProgress float64
	shake         float64
	progress      float64
	tunnel        float64
	fov           float64

	// Secondary-animation blend: target follows the attention trigger,
	// the accumulator rises/decays toward it each tick
	attention       float64
	attentionTarget float64

	statWarps    *atomic.Int64
	statCancels  *atomic.Int64
	statTimeouts *atomic.Int64
}

// NewWarpSequencer wires the sequencer; the controller is bound afterwards
func NewWarpSequencer(clock *PausableClock, sync *SceneLoadSynchronizer, queue *events.Queue, focus FocusController, content ContentProvider, cfg *Config, table *PhaseTable, reg *status.Registry) *WarpSequencer {
	return &WarpSequencer{
		clock:        clock,
		sync:         sync,
		queue:        queue,
		focus:        focus,
		content:      content,
		cfg:          cfg,
		table:        table,
		statWarps:    reg.Ints.Get("warp.completed"),
		statCancels:  reg.Ints.Get("warp.cancelled"),
		statTimeouts: reg.Ints.Get("warp.flash_timeouts"),
	}
}

func (s *WarpSequencer) bindController(c *TransitionQueueController) {
	s.controller = c
}

func (s *WarpSequencer) setConfig(cfg *Config, table *PhaseTable) {
	s.cfg = cfg
	s.table = table
}

// State returns the active top-level state
func (s *WarpSequencer) State() TopState {
	return s.state
}

// Warping reports whether the cinematic is running
func (s *WarpSequencer) Warping() bool {
	return s.state == TopWarping
}

// Phase returns the current warp phase and its local progress
func (s *WarpSequencer) Phase() (WarpPhase, float64) {
	return s.phase, s.phaseProgress
}

// Values returns the derived visual parameters for the current tick
func (s *WarpSequencer) Values() (shake, progress, tunnel, fov, attention float64) {
	return s.shake, s.progress, s.tunnel, s.fov, vmath.EaseInOutCubic(s.attention)
}

// SetAttention drives the Idle <-> SecondaryAnimation transition. The blend
// is eased over the configured transition time, so rapid toggling cannot
// produce visible popping.
func (s *WarpSequencer) SetAttention(on bool) {
	if on {
		s.attentionTarget = 1
		if s.state == TopIdle {
			s.state = TopSecondaryAnimation
		}
	} else {
		s.attentionTarget = 0
		if s.state == TopSecondaryAnimation {
			s.state = TopIdle
		}
	}
}

// BeginWarp enters Warping: clears any look-at focus, resets phase
// accounting, and announces warpStart
func (s *WarpSequencer) BeginWarp(req TransitionRequest) {
	if s.state == TopWarping {
		panic("warp sequencer: BeginWarp while already warping")
	}

	if s.focus != nil {
		s.focus.ClearFocus()
	}

	r := req
	s.current = &r
	s.startedAt = s.clock.Elapsed()
	s.flashInvoked = false
	s.holdResolved = false
	s.degraded = false
	s.phase = PhaseCharging
	s.phaseProgress = 0
	s.state = TopWarping

	s.queue.Push(events.Event{
		Type:      events.EventWarpStart,
		Payload:   &events.WarpStartPayload{SceneID: req.TargetSceneID},
		Timestamp: s.clock.Now(),
	})
}

// Cancel interrupts an in-progress cinematic. The hold is abandoned, every
// derived parameter zeroes before the next frame, and warpCancel (never
// warpComplete) is emitted.
func (s *WarpSequencer) Cancel() {
	if s.state != TopWarping {
		return
	}

	sceneID := ""
	if s.current != nil {
		sceneID = s.current.TargetSceneID
	}

	s.sync.Abandon()
	s.resetDerived()
	s.current = nil
	s.state = TopIdle
	s.statCancels.Add(1)

	s.queue.Push(events.Event{
		Type:      events.EventWarpCancel,
		Payload:   &events.WarpCancelPayload{SceneID: sceneID},
		Timestamp: s.clock.Now(),
	})
}

// Tick advances the sequencer by one frame. holdResolved/holdOutcome carry
// the synchronizer's poll result for this tick.
func (s *WarpSequencer) Tick(dt time.Duration, holdResolved bool, holdOutcome LoadOutcome) {
	s.tickAttention(dt)

	if s.state != TopWarping {
		return
	}

	if holdResolved {
		s.onHoldResolved(holdOutcome)
	}

	elapsed := s.clock.Elapsed() - s.startedAt
	phase, prog, complete := s.table.At(elapsed, s.cfg.WarpDuration())

	if complete {
		if !s.flashInvoked {
			// A clamped-delta stall can still skip straight past Flash;
			// start the hold now and keep the cinematic at late Flash
			s.invokeFlash()
		}
		if s.holdResolved {
			s.finish()
			return
		}
		// Rendezvous: the cinematic must not exit the flash before content
		// is ready, regardless of nominal timing
		phase, prog = PhaseFlash, s.flashHoldProgress()
	} else if phase == PhaseCooldown && !s.holdResolved {
		// Same rendezvous on the Cooldown boundary
		phase, prog = PhaseFlash, s.flashHoldProgress()
	}

	if phase >= PhaseFlash && !s.flashInvoked {
		s.invokeFlash()
	}

	s.phase = phase
	s.phaseProgress = prog
	s.deriveValues(phase, prog)
}

// flashHoldProgress is the clamp value used while waiting on readiness:
// hold at the last progress reached before Cooldown entry
func (s *WarpSequencer) flashHoldProgress() float64 {
	return math.Nextafter(1.0, 0)
}

// invokeFlash starts the flash hold exactly once per transition
func (s *WarpSequencer) invokeFlash() {
	if s.flashInvoked {
		panic("warp sequencer: flash hold invoked twice for one transition")
	}
	s.flashInvoked = true

	req := *s.current
	s.queue.Push(events.Event{
		Type:      events.EventSceneLoading,
		Payload:   &events.SceneLoadingPayload{SceneID: req.TargetSceneID},
		Timestamp: s.clock.Now(),
	})

	loader := func() error {
		return s.content.LoadSceneContent(req.TargetSceneID, req.SceneConfig, req.ContentRefs)
	}
	s.sync.Begin(loader, s.cfg.MinFlashHold(), s.cfg.MaxFlashHold(), !req.BypassFlashMask)
}

// onHoldResolved records readiness and announces the applied scene
func (s *WarpSequencer) onHoldResolved(outcome LoadOutcome) {
	s.holdResolved = true

	req := s.current
	if req == nil {
		return
	}

	switch outcome {
	case LoadCompleted:
		first := s.controller.markApplied(req.TargetSceneID)
		s.queue.Push(events.Event{
			Type:      events.EventSceneReady,
			Payload:   &events.SceneReadyPayload{SceneID: req.TargetSceneID, FirstRender: first},
			Timestamp: s.clock.Now(),
		})
	case LoadTimedOut:
		// Degraded completion: the scene is revealed anyway, possibly with
		// incomplete dressing
		s.degraded = true
		s.controller.markApplied(req.TargetSceneID)
		s.statTimeouts.Add(1)
		s.queue.Push(events.Event{
			Type:      events.EventFlashHoldTimeout,
			Payload:   &events.SceneLoadingPayload{SceneID: req.TargetSceneID},
			Timestamp: s.clock.Now(),
		})
	}
}

// finish completes the cinematic: neutral visuals, warpComplete, cooldown
// handoff, backlog drain
func (s *WarpSequencer) finish() {
	req := *s.current
	s.resetDerived()
	s.current = nil
	s.state = TopIdle
	s.statWarps.Add(1)

	s.queue.Push(events.Event{
		Type: events.EventWarpComplete,
		Payload: &events.WarpCompletePayload{
			SceneID:        req.TargetSceneID,
			RemainingQueue: s.controller.QueueLength(),
			Degraded:       s.degraded,
		},
		Timestamp: s.clock.Now(),
	})

	s.controller.onCinematicComplete(req)
}

// resetDerived zeroes every visual parameter so nothing stale leaks into
// Idle rendering
func (s *WarpSequencer) resetDerived() {
	s.shake = 0
	s.progress = 0
	s.tunnel = 0
	s.fov = 0
	s.phase = PhaseCharging
	s.phaseProgress = 0
	s.flashInvoked = false
	s.holdResolved = false
}

// deriveValues maps (phase, local progress) to the normalized outputs.
// The overall progress scalar is monotonically increasing across phases;
// shake ramps to its Climax peak and eases out through Flash and Cooldown.
func (s *WarpSequencer) deriveValues(phase WarpPhase, p float64) {
	intensity := s.cfg.ShakeIntensity
	strength := s.cfg.TunnelStrength
	boost := s.cfg.FOVBoost

	switch phase {
	case PhaseCharging:
		s.shake = intensity * 0.3 * vmath.EaseInQuad(p)
		s.progress = 0.15 * p
		s.tunnel = 0
		s.fov = 0
	case PhaseBuildup:
		s.shake = intensity * (0.3 + 0.4*p)
		s.progress = 0.15 + 0.30*p
		s.tunnel = strength * 0.2 * p
		s.fov = 0
	case PhaseClimax:
		s.shake = intensity * (0.7 + 0.3*p)
		s.progress = 0.45 + 0.35*p
		s.tunnel = strength * (0.2 + 0.8*vmath.EaseInQuad(p))
		s.fov = boost * p
	case PhaseFlash:
		s.shake = intensity * (1.0 - 0.6*p)
		s.progress = 0.80 + 0.15*p
		s.tunnel = strength
		s.fov = boost
	case PhaseCooldown:
		decay := 1 - vmath.EaseOutCubic(p)
		s.shake = intensity * 0.4 * decay
		s.progress = 0.95 + 0.05*p
		s.tunnel = strength * decay
		s.fov = boost * decay
	}
}

// tickAttention moves the secondary-animation blend toward its target
func (s *WarpSequencer) tickAttention(dt time.Duration) {
	target := s.attentionTarget
	if s.state == TopWarping {
		// The cinematic owns the visuals; attention bleeds out underneath it
		target = 0
	}

	blend := s.cfg.SecondaryBlend()
	if blend <= 0 {
		s.attention = target
		return
	}
	step := float64(dt) / float64(blend)
	s.attention = vmath.MoveToward(s.attention, target, step)
}
