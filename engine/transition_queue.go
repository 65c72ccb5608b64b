package engine

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/warpcore/events"
	"github.com/lixenwraith/warpcore/status"
)

// QueueState labels the controller's coarse state for hosts and tests
type QueueState int

const (
	QueueIdle QueueState = iota
	QueueDraining
	QueueCooldownActive
)

// String returns the state name for debug overlays
func (s QueueState) String() string {
	switch s {
	case QueueIdle:
		return "idle"
	case QueueDraining:
		return "draining"
	case QueueCooldownActive:
		return "cooldown"
	}
	return "unknown"
}

// TransitionQueueController serializes transition requests. At most one
// request is in flight at a time; requests arriving while a cinematic plays
// or the queue drains are enqueued in FIFO order and later applied via the
// fast path (scene content without the cinematic). A cooldown window after
// each completed cinematic coerces new cinematics onto the fast path.
type TransitionQueueController struct {
	clock   *PausableClock
	queue   *events.Queue
	content ContentProvider
	catalog SceneCatalog
	seq     *WarpSequencer
	cfg     *Config

	pending []TransitionRequest

	// Fast-path future: one per in-flight application, dropped on destroy
	inFlight   bool
	fastReq    TransitionRequest
	fastResult chan error

	drainNextAt       time.Duration
	cooldownActive    bool
	cooldownExpiresAt time.Duration

	currentSceneID string
	sceneApplied   bool
	attnRaised     bool

	statQueueLen     *atomic.Int64
	statQueueFailed  *atomic.Int64
	statFastApplies  *atomic.Int64
	statNoopRequests *atomic.Int64
}

// NewTransitionQueueController wires the controller to its collaborators.
// The sequencer reference is set separately to break the construction cycle.
func NewTransitionQueueController(clock *PausableClock, queue *events.Queue, content ContentProvider, catalog SceneCatalog, cfg *Config, reg *status.Registry) *TransitionQueueController {
	return &TransitionQueueController{
		clock:            clock,
		queue:            queue,
		content:          content,
		catalog:          catalog,
		cfg:              cfg,
		statQueueLen:     reg.Ints.Get("queue.length"),
		statQueueFailed:  reg.Ints.Get("queue.failures"),
		statFastApplies:  reg.Ints.Get("queue.fast_applies"),
		statNoopRequests: reg.Ints.Get("queue.noop_requests"),
	}
}

// bindSequencer completes the controller/sequencer pair
func (c *TransitionQueueController) bindSequencer(seq *WarpSequencer) {
	c.seq = seq
}

// setConfig installs a hot-swapped configuration
func (c *TransitionQueueController) setConfig(cfg *Config) {
	c.cfg = cfg
}

// State reports the coarse controller state
func (c *TransitionQueueController) State() QueueState {
	if c.inFlight || len(c.pending) > 0 {
		return QueueDraining
	}
	if c.cooldownActive {
		return QueueCooldownActive
	}
	return QueueIdle
}

// QueueLength returns the current backlog (excluding the in-flight item)
func (c *TransitionQueueController) QueueLength() int {
	return len(c.pending)
}

// CurrentSceneID returns the most recently applied scene
func (c *TransitionQueueController) CurrentSceneID() string {
	return c.currentSceneID
}

// Request admits, queues, or fast-paths a transition. Invalid targets are
// rejected synchronously; a request matching the currently loaded scene is a
// no-op success. Must be called from the tick thread.
func (c *TransitionQueueController) Request(req TransitionRequest) error {
	if req.TargetSceneID == "" {
		return &InvalidRequestError{SceneID: req.TargetSceneID, Reason: "empty target scene id"}
	}
	if c.catalog != nil && !c.catalog.HasScene(req.TargetSceneID) {
		return &InvalidRequestError{SceneID: req.TargetSceneID, Reason: "target scene not found"}
	}

	if req.TargetSceneID == c.currentSceneID && c.sceneApplied {
		c.statNoopRequests.Add(1)
		return nil
	}

	if req.BypassCooldown {
		c.cooldownActive = false
	}

	switch {
	case c.seq.Warping() || c.State() == QueueDraining:
		// Busy: preserve submission order, apply later via fast path
		c.enqueue(req)
	case c.cooldownActive:
		// A new cinematic cannot start during cooldown; drain via fast path
		// and raise the attention animation while backlog exists
		c.enqueue(req)
	case req.BypassCinematic:
		// Even from full idle the fast path is served through the queue:
		// the load starts on the next Tick, so at most one application is
		// ever in flight and ordering has a single code path
		c.enqueue(req)
	default:
		c.seq.BeginWarp(req)
	}

	c.updateAttention()
	return nil
}

// StartCooldown (re)arms the cooldown window. A second call within the
// window resets the timer rather than stacking a second expiry.
func (c *TransitionQueueController) StartCooldown() {
	d := c.cfg.WarpCooldown()
	if d <= 0 {
		return
	}
	c.cooldownActive = true
	c.cooldownExpiresAt = c.clock.Elapsed() + d
}

// CooldownActive reports whether the window is open
func (c *TransitionQueueController) CooldownActive() bool {
	return c.cooldownActive
}

// Tick expires the cooldown, polls the in-flight fast-path future, and
// starts the next queued application once the inter-item delay passed.
func (c *TransitionQueueController) Tick() {
	now := c.clock.Elapsed()

	if c.cooldownActive && now >= c.cooldownExpiresAt {
		c.cooldownActive = false
	}

	if c.inFlight {
		select {
		case err := <-c.fastResult:
			c.finishFastApply(err)
		default:
		}
	}

	if !c.inFlight && len(c.pending) > 0 && !c.seq.Warping() && now >= c.drainNextAt {
		c.startFastApply(c.dequeue())
	}

	c.updateAttention()
}

// enqueue appends and reports the new backlog length
func (c *TransitionQueueController) enqueue(req TransitionRequest) {
	c.pending = append(c.pending, req)
	c.notifyQueueChanged()
}

// dequeue pops the head and reports the new backlog length
func (c *TransitionQueueController) dequeue() TransitionRequest {
	req := c.pending[0]
	c.pending = c.pending[1:]
	c.notifyQueueChanged()
	return req
}

func (c *TransitionQueueController) notifyQueueChanged() {
	c.statQueueLen.Store(int64(len(c.pending)))
	c.queue.Push(events.Event{
		Type:      events.EventWarpQueueChanged,
		Payload:   &events.QueueChangedPayload{Length: len(c.pending)},
		Timestamp: c.clock.Now(),
	})
}

// startFastApply launches the content load for one queued item
func (c *TransitionQueueController) startFastApply(req TransitionRequest) {
	c.inFlight = true
	c.fastReq = req

	result := make(chan error, 1)
	c.fastResult = result
	go func() {
		result <- c.content.LoadSceneContent(req.TargetSceneID, req.SceneConfig, req.ContentRefs)
	}()
}

// finishFastApply resolves the in-flight item. A failed application is
// reported and skipped; the rest of the queue keeps draining.
func (c *TransitionQueueController) finishFastApply(err error) {
	req := c.fastReq
	c.inFlight = false
	c.fastResult = nil

	if err != nil {
		c.statQueueFailed.Add(1)
		c.queue.Push(events.Event{
			Type:      events.EventQueueItemFailed,
			Payload:   &events.QueueItemFailedPayload{SceneID: req.TargetSceneID, Err: err},
			Timestamp: c.clock.Now(),
		})
	} else {
		c.statFastApplies.Add(1)
		first := c.markApplied(req.TargetSceneID)
		c.queue.Push(events.Event{
			Type:      events.EventSceneReady,
			Payload:   &events.SceneReadyPayload{SceneID: req.TargetSceneID, FirstRender: first},
			Timestamp: c.clock.Now(),
		})
	}

	// Space out back-to-back scene swaps
	c.drainNextAt = c.clock.Elapsed() + c.cfg.QueueProcessingDelay()
}

// markApplied records the active scene; returns true for the very first
// scene this engine instance applied
func (c *TransitionQueueController) markApplied(sceneID string) (first bool) {
	first = !c.sceneApplied
	c.sceneApplied = true
	c.currentSceneID = sceneID
	return first
}

// onCinematicComplete is signalled by the sequencer after warpComplete so
// the cooldown starts and any backlog resumes draining
func (c *TransitionQueueController) onCinematicComplete(req TransitionRequest) {
	if !req.BypassCooldown {
		c.StartCooldown()
	}
	// Next backlog item starts on the following tick, after the drain delay
	c.drainNextAt = c.clock.Elapsed() + c.cfg.QueueProcessingDelay()
	c.updateAttention()
}

// updateAttention raises the secondary idle animation while queued work
// exists and clears it once drained. attnRaised tracks delivery, not desire:
// while the cinematic runs nothing is delivered, so the raise re-fires on
// the first call after the sequencer leaves Warping. Edge-triggered so it
// cannot stomp a host-driven attention signal while the queue is empty.
func (c *TransitionQueueController) updateAttention() {
	if c.seq == nil {
		return
	}
	busy := len(c.pending) > 0 || c.inFlight
	switch {
	case busy && !c.attnRaised && !c.seq.Warping():
		c.attnRaised = true
		c.seq.SetAttention(true)
	case !busy && c.attnRaised:
		c.attnRaised = false
		c.seq.SetAttention(false)
	}
}

// destroy abandons the in-flight future; its late resolution is discarded
func (c *TransitionQueueController) destroy() {
	c.inFlight = false
	c.fastResult = nil
	c.pending = nil
}
