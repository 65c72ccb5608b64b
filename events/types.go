package events

import (
	"time"
)

// EventType represents the type of engine lifecycle event
type EventType int

const (
	// EventWarpStart signals the warp cinematic has begun
	// Trigger: WarpSequencer entering Warping | Payload: *WarpStartPayload
	EventWarpStart EventType = iota + 1

	// EventWarpComplete signals natural cinematic completion
	// Trigger: Phase timeline complete AND scene readiness satisfied
	// Payload: *WarpCompletePayload (remaining queue length)
	EventWarpComplete

	// EventWarpCancel signals the cinematic was interrupted externally
	// before natural completion. Emitted instead of, never alongside,
	// EventWarpComplete for the same transition | Payload: *WarpCancelPayload
	EventWarpCancel

	// EventWarpQueueChanged reports backlog size after every enqueue/dequeue
	// Consumer: host UI (backlog indicator) | Payload: *QueueChangedPayload
	EventWarpQueueChanged

	// EventSceneLoading signals the flash hold has started and scene content
	// is being requested from the provider | Payload: *SceneLoadingPayload
	EventSceneLoading

	// EventSceneReady signals scene content is applied and safe to reveal
	// Payload: *SceneReadyPayload
	EventSceneReady

	// EventFlashHoldTimeout is the warning-level signal that the flash hold
	// reached its hard ceiling before the content provider resolved; the
	// cinematic completes with possibly incomplete scene dressing
	// Payload: *SceneLoadingPayload
	EventFlashHoldTimeout

	// EventQueueItemFailed is the warning-level signal that a fast-path scene
	// application failed; the queue continues draining past it
	// Payload: *QueueItemFailedPayload
	EventQueueItemFailed
)

// Event is a single engine event with metadata
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time // Game time at emission
}
