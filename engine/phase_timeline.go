package engine

import (
	"math"
	"time"
)

// WarpPhase identifies a sub-phase of the warp cinematic, in playback order
type WarpPhase int

const (
	PhaseCharging WarpPhase = iota
	PhaseBuildup
	PhaseClimax
	PhaseFlash
	PhaseCooldown

	phaseCount = 5
)

// String returns the phase name for logs and debug overlays
func (p WarpPhase) String() string {
	switch p {
	case PhaseCharging:
		return "charging"
	case PhaseBuildup:
		return "buildup"
	case PhaseClimax:
		return "climax"
	case PhaseFlash:
		return "flash"
	case PhaseCooldown:
		return "cooldown"
	}
	return "unknown"
}

// fractionTolerance absorbs float accumulation error when validating that
// phase fractions cover exactly the full duration
const fractionTolerance = 1e-9

// PhaseTable maps elapsed cinematic time to the active phase. Ranges are
// half-open [start, end): a tick landing exactly on a boundary belongs to
// the later phase. The table is immutable after construction.
type PhaseTable struct {
	// starts[i] is the fractional start of phase i; starts[phaseCount] == 1.0
	starts [phaseCount + 1]float64
}

// NewPhaseTable validates fractions (one per phase, in order, each positive,
// summing to 1.0) and builds the cumulative range table. Invalid fractions
// are a ConfigurationError: the engine fails construction rather than
// silently normalizing.
func NewPhaseTable(fractions []float64) (*PhaseTable, error) {
	if len(fractions) != phaseCount {
		return nil, &ConfigurationError{
			Field:  "phase_fractions",
			Reason: "expected one fraction per phase (charging, buildup, climax, flash, cooldown)",
		}
	}

	t := &PhaseTable{}
	sum := 0.0
	for i, f := range fractions {
		if f <= 0 {
			return nil, &ConfigurationError{
				Field:  "phase_fractions",
				Reason: "fractions must be positive, phase " + WarpPhase(i).String() + " is not",
			}
		}
		t.starts[i] = sum
		sum += f
	}
	t.starts[phaseCount] = sum

	if math.Abs(sum-1.0) > fractionTolerance {
		return nil, &ConfigurationError{
			Field:  "phase_fractions",
			Reason: "fractions must sum to 1.0",
		}
	}
	t.starts[phaseCount] = 1.0

	return t, nil
}

// At maps elapsed time within a cinematic of the given total duration to the
// active phase and its local progress in [0,1). complete reports the terminal
// condition (elapsed >= total), which is distinct from Cooldown-at-progress-1:
// the sequencer interprets it as "finish and reset".
func (t *PhaseTable) At(elapsed, total time.Duration) (phase WarpPhase, progress float64, complete bool) {
	if total <= 0 || elapsed >= total {
		return PhaseCooldown, 1.0, true
	}
	if elapsed < 0 {
		elapsed = 0
	}

	frac := float64(elapsed) / float64(total)

	// Walk from the last phase so a boundary tick resolves to the later
	// phase. The tolerance absorbs accumulation error in the cumulative
	// starts, so a tick landing exactly on a boundary classifies the same
	// way regardless of how the fractions rounded.
	for i := phaseCount - 1; i >= 0; i-- {
		if frac >= t.starts[i]-fractionTolerance {
			span := t.starts[i+1] - t.starts[i]
			progress = (frac - t.starts[i]) / span
			if progress < 0 {
				progress = 0
			}
			if progress >= 1.0 {
				progress = math.Nextafter(1.0, 0)
			}
			return WarpPhase(i), progress, false
		}
	}

	return PhaseCharging, 0, false
}

// Start returns the fractional start of the given phase
func (t *PhaseTable) Start(p WarpPhase) float64 {
	return t.starts[p]
}
