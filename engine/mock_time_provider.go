package engine

import (
	"sync"
	"time"
)

// MockTimeProvider is the deterministic clock behind the timing tests: warp
// phase boundaries, flash-hold windows and cooldown expiries are all asserted
// at exact game-time instants by stepping this provider instead of sleeping.
// Safe for concurrent reads; tests advance it only from the tick goroutine.
type MockTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMockTimeProvider returns a provider frozen at start
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

// Now returns the mocked instant; it only moves when Advance is called
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the mocked clock forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
