package parameter

import "time"

// Warp Cinematic Timing
const (
	// DefaultWarpDuration is the total length of the warp cinematic
	DefaultWarpDuration = 3 * time.Second

	// DefaultWarpCooldown is the enforced interval after a cinematic during
	// which a new cinematic cannot start (fast path still allowed)
	DefaultWarpCooldown = 4 * time.Second

	// DefaultQueueProcessingDelay is the pause between queued fast-path scene
	// applications, preventing back-to-back visual swaps
	DefaultQueueProcessingDelay = 600 * time.Millisecond

	// DefaultMinFlashHold is the minimum time the flash mask stays fully opaque
	DefaultMinFlashHold = 300 * time.Millisecond

	// DefaultMaxFlashHold is the hard ceiling on the flash hold; the mask
	// force-clears at this point even if scene content is still loading
	DefaultMaxFlashHold = 5 * time.Second

	// MaskFadeDuration is the eased opacity ramp at hold start and hold end
	MaskFadeDuration = 120 * time.Millisecond
)

// Warp Phase Fractions
// Fractional spans of the total warp duration, in phase order
// (Charging, Buildup, Climax, Flash, Cooldown). Must sum to 1.0
var DefaultPhaseFractions = []float64{0.20, 0.25, 0.20, 0.20, 0.15}

// Secondary Animation & Shake
const (
	// DefaultSecondaryBlend is the eased blend time for the idle attention
	// animation, avoiding hard cuts when the trigger toggles rapidly
	DefaultSecondaryBlend = 750 * time.Millisecond

	// DefaultShakeIntensity scales the peak camera shake during Climax
	DefaultShakeIntensity = 1.0

	// DefaultShakeSpeed is the oscillation rate fed to the renderer, Hz
	DefaultShakeSpeed = 9.0

	// DefaultDriftSpeed scales the clock-derived continuous background drift
	DefaultDriftSpeed = 0.05

	// DefaultTunnelStrength scales the tunnel-warp factor at Climax peak
	DefaultTunnelStrength = 1.0

	// DefaultFOVBoost is the peak field-of-view widening during Flash
	DefaultFOVBoost = 0.35
)

// Frame Timing
const (
	// MaxTickDelta caps a single simulated step; a longer real gap (stalled
	// tab, debugger) is clamped rather than fast-forwarding the cinematic
	MaxTickDelta = 250 * time.Millisecond
)

// Render Targets
const (
	// RenderTargetBackground is the parameter batch target for the 3D backdrop
	RenderTargetBackground = "warp_background"
)

// Event Queue Sizing
const (
	// EventQueueSize is the fixed capacity of the event ring buffer
	EventQueueSize = 256

	// EventBufferMask is the bitmask for fast modulo operations (256 - 1)
	EventBufferMask = 255
)
