package engine

// External collaborators. The engine computes normalized state; everything
// that touches assets, GPU or the host page sits behind these interfaces.

// SceneConfig carries partial scene parameters applied alongside content
type SceneConfig map[string]any

// ContentRef describes one piece of scene content the provider must fetch
type ContentRef struct {
	Kind string // e.g. "texture", "geometry", "skybox"
	URI  string
}

// TransitionRequest describes one scene transition. Immutable once enqueued.
type TransitionRequest struct {
	TargetSceneID   string
	SceneConfig     SceneConfig
	ContentRefs     []ContentRef
	BypassCinematic bool // Apply the scene without playing the cinematic
	BypassFlashMask bool // Play the cinematic but skip the flash mask
	BypassCooldown  bool // Clear any active cooldown and start immediately
}

// ContentProvider loads and applies scene content. LoadSceneContent blocks
// until the new scene's assets and config are fully applied and safe to
// reveal; the engine always calls it from a dedicated goroutine, never from
// the tick loop.
type ContentProvider interface {
	LoadSceneContent(sceneID string, cfg SceneConfig, refs []ContentRef) error
}

// MaskController is the full-screen flash mask sink. The synchronizer drives
// it with eased fades; 0 is fully transparent, 1 fully opaque.
type MaskController interface {
	SetMaskOpacity(value float64)
}

// ParameterSink receives per-frame derived values. The batcher guarantees a
// single call per target per tick containing only changed entries.
type ParameterSink interface {
	ApplyBatchedParameters(targetID string, params map[string]float64)
}

// FocusController clears any object-focus/look-at target when a warp begins.
// Optional; a nil controller is ignored.
type FocusController interface {
	ClearFocus()
}

// SceneCatalog answers whether a target scene id resolves. Optional; when
// nil every non-empty id is accepted.
type SceneCatalog interface {
	HasScene(sceneID string) bool
}
