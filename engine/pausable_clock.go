package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// PausableClock provides the engine's game-time source with pause
// compensation. All relative timers (warp start, flash-hold start, cooldown
// expiry) are anchored in game time, so a visibility-loss pause freezes them
// and resume leaves their relative progress untouched.
type PausableClock struct {
	mu sync.RWMutex

	// Base time tracking
	realStartTime time.Time // When clock was created (real time)

	// Pause state
	isPaused        atomic.Bool
	pauseStartTime  time.Time     // When current pause started (real time)
	totalPausedTime time.Duration // Cumulative pause duration

	timeProvider TimeProvider
}

// NewPausableClock creates a clock anchored at elapsed 0
func NewPausableClock(provider TimeProvider) *PausableClock {
	if provider == nil {
		provider = NewMonotonicTimeProvider()
	}
	return &PausableClock{
		realStartTime: provider.Now(),
		timeProvider:  provider,
	}
}

// Elapsed returns game time since clock creation. It never regresses and
// does not advance while paused.
func (pc *PausableClock) Elapsed() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if pc.isPaused.Load() {
		// During pause: frozen at the pause point
		return pc.pauseStartTime.Sub(pc.realStartTime) - pc.totalPausedTime
	}

	return pc.timeProvider.Now().Sub(pc.realStartTime) - pc.totalPausedTime
}

// Now returns the game-time instant, convenient for anchoring deadlines
func (pc *PausableClock) Now() time.Time {
	pc.mu.RLock()
	start := pc.realStartTime
	pc.mu.RUnlock()
	return start.Add(pc.Elapsed())
}

// Pause stops game time advancement
func (pc *PausableClock) Pause() {
	if pc.isPaused.CompareAndSwap(false, true) {
		pc.mu.Lock()
		defer pc.mu.Unlock()
		pc.pauseStartTime = pc.timeProvider.Now()
	}
}

// Resume continues game time advancement, folding the pause interval into
// the cumulative offset so anchored timers see no jump
func (pc *PausableClock) Resume() {
	if pc.isPaused.CompareAndSwap(true, false) {
		pc.mu.Lock()
		defer pc.mu.Unlock()

		if !pc.pauseStartTime.IsZero() {
			pc.totalPausedTime += pc.timeProvider.Now().Sub(pc.pauseStartTime)
			pc.pauseStartTime = time.Time{}
		}
	}
}

// IsPaused returns current pause state
func (pc *PausableClock) IsPaused() bool {
	return pc.isPaused.Load()
}

// TotalPauseDuration returns cumulative pause time, including the current
// pause if one is active
func (pc *PausableClock) TotalPauseDuration() time.Duration {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	total := pc.totalPausedTime
	if pc.isPaused.Load() && !pc.pauseStartTime.IsZero() {
		total += pc.timeProvider.Now().Sub(pc.pauseStartTime)
	}
	return total
}
