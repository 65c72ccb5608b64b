package events

// WarpStartPayload identifies the transition that started the cinematic
type WarpStartPayload struct {
	SceneID string
}

// WarpCompletePayload reports remaining backlog at completion so the host
// can decide whether to keep an activity indicator up
type WarpCompletePayload struct {
	SceneID        string
	RemainingQueue int
	Degraded       bool // True when the flash hold timed out before content was ready
}

// WarpCancelPayload identifies the transition whose cinematic was interrupted
type WarpCancelPayload struct {
	SceneID string
}

// QueueChangedPayload carries the new backlog length
type QueueChangedPayload struct {
	Length int
}

// SceneLoadingPayload identifies the scene whose content is being fetched
type SceneLoadingPayload struct {
	SceneID string
}

// SceneReadyPayload reports an applied scene
type SceneReadyPayload struct {
	SceneID     string
	FirstRender bool // True for the very first scene applied by this engine
}

// QueueItemFailedPayload carries the failed fast-path application
type QueueItemFailedPayload struct {
	SceneID string
	Err     error
}
