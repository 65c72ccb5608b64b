package engine

import (
	"time"

	"github.com/lixenwraith/warpcore/parameter"
	"github.com/lixenwraith/warpcore/vmath"
)

// LoadOutcome reports how a flash hold ended
type LoadOutcome int

const (
	// LoadCompleted means the provider resolved and minimum hold elapsed
	LoadCompleted LoadOutcome = iota

	// LoadTimedOut means the hold hit its ceiling (or the provider failed)
	// before content was ready; the scene may be visually incomplete
	LoadTimedOut

	// LoadAbandoned means the hold was cancelled; no completion fires
	LoadAbandoned
)

// SceneLoadSynchronizer manages the flash hold: it raises the visual mask,
// runs the content loader off the tick loop, and resolves only when the
// loader finished AND the minimum hold elapsed - or force-resolves at the
// maximum hold. The loader goroutine is the engine's sole asynchronous
// boundary; the tick loop polls its result channel without blocking.
//
// Each hold owns a fresh buffered result channel. Abandoning a hold drops
// the channel reference, so a late resolution from a superseded loader is
// garbage-collected instead of completing a newer hold.
type SceneLoadSynchronizer struct {
	clock *PausableClock
	mask  MaskController

	active    bool
	startedAt time.Duration // Game time at Begin
	minHold   time.Duration
	maxHold   time.Duration
	useMask   bool

	resultCh   chan error // One per hold; nil when no hold ever started
	loaderDone bool
	loaderErr  error

	// Mask fade state, driven every tick
	maskOpacity float64
	fadeFrom    float64
	fadeTo      float64
	fadeStart   time.Duration
	fading      bool
}

// NewSceneLoadSynchronizer wires the synchronizer to the clock and mask sink
func NewSceneLoadSynchronizer(clock *PausableClock, mask MaskController) *SceneLoadSynchronizer {
	return &SceneLoadSynchronizer{
		clock: clock,
		mask:  mask,
	}
}

// Begin starts a hold: records the start anchor, kicks off the loader in its
// own goroutine, and starts the mask fade-in. Calling Begin while a hold is
// active is a programming error.
func (s *SceneLoadSynchronizer) Begin(loader func() error, minHold, maxHold time.Duration, useMask bool) {
	if s.active {
		panic("scene sync: Begin called while a hold is active")
	}

	s.active = true
	s.startedAt = s.clock.Elapsed()
	s.minHold = minHold
	s.maxHold = maxHold
	s.useMask = useMask
	s.loaderDone = false
	s.loaderErr = nil

	if useMask {
		s.startFade(1.0)
	}

	result := make(chan error, 1)
	s.resultCh = result
	go func() {
		result <- loader()
	}()
}

// Active reports whether a hold is in flight
func (s *SceneLoadSynchronizer) Active() bool {
	return s.active
}

// Tick drives the mask fade and polls the hold. It returns resolved=true
// exactly once per hold, with the outcome. Callers keep ticking after
// resolution so the fade-out completes.
func (s *SceneLoadSynchronizer) Tick() (resolved bool, outcome LoadOutcome) {
	s.tickFade()

	if !s.active {
		return false, LoadCompleted
	}

	// Poll the loader without blocking the frame
	if !s.loaderDone {
		select {
		case err := <-s.resultCh:
			s.loaderDone = true
			s.loaderErr = err
		default:
		}
	}

	held := s.clock.Elapsed() - s.startedAt

	// Hard ceiling: force-clear even if content never arrived
	if held >= s.maxHold {
		s.finish()
		return true, LoadTimedOut
	}

	if held < s.minHold {
		return false, LoadCompleted
	}

	if s.loaderDone {
		s.finish()
		if s.loaderErr != nil {
			// Provider failure degrades to the timeout path: the mask still
			// clears so the user is never stuck behind a permanent flash
			return true, LoadTimedOut
		}
		return true, LoadCompleted
	}

	return false, LoadCompleted
}

// Abandon drops the in-flight hold. The loader's eventual resolution goes to
// a channel nothing reads anymore; the mask snaps clear immediately so no
// stale opacity leaks into the next frame.
func (s *SceneLoadSynchronizer) Abandon() {
	if !s.active {
		return
	}
	s.active = false
	s.resultCh = nil
	s.fading = false
	s.maskOpacity = 0
	if s.useMask && s.mask != nil {
		s.mask.SetMaskOpacity(0)
	}
}

// finish ends the hold and starts the mask fade-out
func (s *SceneLoadSynchronizer) finish() {
	s.active = false
	s.resultCh = nil
	if s.useMask {
		s.startFade(0)
	}
}

func (s *SceneLoadSynchronizer) startFade(target float64) {
	s.fadeFrom = s.maskOpacity
	s.fadeTo = target
	s.fadeStart = s.clock.Elapsed()
	s.fading = true
}

// tickFade eases opacity toward the fade target over a fixed short ramp
func (s *SceneLoadSynchronizer) tickFade() {
	if !s.fading || s.mask == nil {
		return
	}

	t := float64(s.clock.Elapsed()-s.fadeStart) / float64(parameter.MaskFadeDuration)
	if t >= 1.0 {
		t = 1.0
		s.fading = false
	}
	s.maskOpacity = vmath.Lerp(s.fadeFrom, s.fadeTo, vmath.EaseInOutCubic(vmath.Clamp01(t)))
	s.mask.SetMaskOpacity(s.maskOpacity)
}

// MaskOpacity returns the current mask opacity, for debug overlays
func (s *SceneLoadSynchronizer) MaskOpacity() float64 {
	return s.maskOpacity
}
