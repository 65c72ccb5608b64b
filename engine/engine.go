package engine

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/warpcore/events"
	"github.com/lixenwraith/warpcore/parameter"
	"github.com/lixenwraith/warpcore/status"
)

// Deps are the external collaborators the engine consumes. Content is
// required; the rest may be nil where noted on the interface types.
type Deps struct {
	Content ContentProvider
	Mask    MaskController
	Sink    ParameterSink
	Focus   FocusController
	Catalog SceneCatalog

	// Time overrides the wall clock, used by tests; nil means monotonic time
	Time TimeProvider
}

// Engine is the warp sequencing and scene-transition core. It is driven by
// a single frame callback (Tick); everything inside a tick is synchronous,
// and the only asynchronous boundary is the content-loading goroutine owned
// by the scene-load synchronizer.
//
// Tick, Request, Cancel, SetConfig and SetAttention must all be called from
// the same goroutine as the render loop. Suspend/Resume may be called from
// host visibility listeners on any goroutine.
type Engine struct {
	clock   *PausableClock
	queue   *events.Queue
	reg     *status.Registry
	sync    *SceneLoadSynchronizer
	seq     *WarpSequencer
	ctrl    *TransitionQueueController
	batcher *FrameParameterBatcher

	cfg   Config
	table *PhaseTable

	// Hot-swapped configuration, staged by SetConfig and installed at the
	// top of the next tick so an in-progress phase is never reinterpreted
	staged atomic.Pointer[stagedConfig]

	lastTick   time.Duration
	hasTicked  bool
	statTicks  *atomic.Int64
	statPanics *atomic.Int64
}

type stagedConfig struct {
	cfg   Config
	table *PhaseTable
}

// New validates the configuration and assembles the engine. Construction
// fails fast on any ConfigurationError.
func New(cfg Config, deps Deps) (*Engine, error) {
	table, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	clock := NewPausableClock(deps.Time)
	queue := events.NewQueue()
	reg := status.NewRegistry()

	e := &Engine{
		clock:      clock,
		queue:      queue,
		reg:        reg,
		cfg:        cfg,
		table:      table,
		batcher:    NewFrameParameterBatcher(deps.Sink),
		statTicks:  reg.Ints.Get("engine.ticks"),
		statPanics: reg.Ints.Get("engine.tick_panics"),
	}

	e.sync = NewSceneLoadSynchronizer(clock, deps.Mask)
	e.ctrl = NewTransitionQueueController(clock, queue, deps.Content, deps.Catalog, &e.cfg, reg)
	e.seq = NewWarpSequencer(clock, e.sync, queue, deps.Focus, deps.Content, &e.cfg, table, reg)
	e.ctrl.bindSequencer(e.seq)
	e.seq.bindController(e.ctrl)

	return e, nil
}

// Request admits a scene transition. Errors (invalid target) surface
// synchronously; admitted requests run the cinematic, queue, or take the
// fast path per the controller contract.
func (e *Engine) Request(req TransitionRequest) error {
	return e.ctrl.Request(req)
}

// Cancel interrupts an in-progress cinematic from outside (a higher
// priority interrupt). Queued requests are kept.
func (e *Engine) Cancel() {
	e.seq.Cancel()
}

// SetAttention drives the idle/attention trigger for the secondary animation
func (e *Engine) SetAttention(on bool) {
	e.seq.SetAttention(on)
}

// Suspend freezes all engine timers; pair with Resume on visibility regain
func (e *Engine) Suspend() {
	e.clock.Pause()
}

// Resume continues engine time after a Suspend, with all anchored timers
// keeping their relative progress
func (e *Engine) Resume() {
	e.clock.Resume()
}

// SetConfig stages a validated configuration for the next tick
func (e *Engine) SetConfig(cfg Config) error {
	table, err := cfg.Validate()
	if err != nil {
		return err
	}
	e.staged.Store(&stagedConfig{cfg: cfg, table: table})
	return nil
}

// Config returns the active configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Events exposes the engine event queue; consume from the host loop or
// attach an events.Router
func (e *Engine) Events() *events.Queue {
	return e.queue
}

// Status exposes the metrics registry
func (e *Engine) Status() *status.Registry {
	return e.reg
}

// Clock exposes the game-time source
func (e *Engine) Clock() *PausableClock {
	return e.clock
}

// State returns the sequencer's top-level state
func (e *Engine) State() TopState {
	return e.seq.State()
}

// QueueState returns the transition controller's coarse state
func (e *Engine) QueueState() QueueState {
	return e.ctrl.State()
}

// Tick advances the engine one frame. A panic inside the tick is recovered,
// counted, and leaves neutral visuals; the render loop must never stall on
// an engine fault.
func (e *Engine) Tick() {
	defer func() {
		if r := recover(); r != nil {
			e.statPanics.Add(1)
			e.seq.resetDerived()
		}
	}()

	// Install a staged config swap before any timing math
	if sc := e.staged.Swap(nil); sc != nil {
		e.cfg = sc.cfg
		e.table = sc.table
		e.ctrl.setConfig(&e.cfg)
		e.seq.setConfig(&e.cfg, sc.table)
	}

	now := e.clock.Elapsed()
	dt := time.Duration(0)
	if e.hasTicked {
		dt = now - e.lastTick
	}
	e.hasTicked = true
	e.lastTick = now
	if dt < 0 {
		dt = 0
	}
	if dt > parameter.MaxTickDelta {
		// A stalled tab or debugger gap is clamped, never fast-forwarded
		dt = parameter.MaxTickDelta
	}

	resolved, outcome := e.sync.Tick()
	e.ctrl.Tick()
	e.seq.Tick(dt, resolved, outcome)

	e.pushFrame(now)
	e.statTicks.Add(1)
}

// pushFrame composes the per-frame parameter map and hands it to the batcher
func (e *Engine) pushFrame(now time.Duration) {
	shake, progress, tunnel, fov, attention := e.seq.Values()

	e.batcher.Push(parameter.RenderTargetBackground, map[string]float64{
		"shake":       shake,
		"shake_speed": e.cfg.ShakeSpeed,
		"progress":    progress,
		"tunnel":      tunnel,
		"fov":         fov,
		"attention":   attention,
		"drift":       now.Seconds() * e.cfg.DriftSpeed,
	})
}

// Destroy abandons any in-flight hold and backlog. In-flight loader
// resolutions after Destroy are discarded; no callback fires.
func (e *Engine) Destroy() {
	e.seq.Cancel()
	e.sync.Abandon()
	e.ctrl.destroy()
}
