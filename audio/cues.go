package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(48000)
)

// CueManager plays the warp lifecycle cues: a rising rumble while the
// cinematic charges, a burst at the flash, and silence on cancel. Hosts wire
// it to engine events; the engine core stays audio-free.
type CueManager struct {
	mu            sync.Mutex
	chargeCtrl    *beep.Ctrl
	mixer         *beep.Mixer
	initialized   bool
	chargeSeconds float64
}

// NewCueManager creates a cue manager tuned to the warp duration so the
// rumble sweep peaks at the flash
func NewCueManager(warpDuration time.Duration) *CueManager {
	return &CueManager{
		mixer:         &beep.Mixer{},
		chargeSeconds: warpDuration.Seconds(),
	}
}

// Initialize sets up the audio system
func (cm *CueManager) Initialize() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.initialized {
		return nil
	}

	err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100))
	if err != nil {
		return err
	}

	speaker.Play(cm.mixer)
	cm.initialized = true
	return nil
}

// Cleanup stops all cues
func (cm *CueManager) Cleanup() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.initialized {
		return
	}

	if cm.chargeCtrl != nil {
		cm.chargeCtrl.Paused = true
	}
	cm.mixer.Clear()
	cm.initialized = false
}

// StartCharge begins the rising rumble that accompanies Charging through
// Climax. Restarting while playing is a no-op.
func (cm *CueManager) StartCharge() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.initialized {
		return
	}
	if cm.chargeCtrl != nil && !cm.chargeCtrl.Paused {
		return
	}

	gen := NewChargeGenerator(sampleRate, cm.chargeSeconds)
	ctrl := &beep.Ctrl{Streamer: beep.Take(sampleRate.N(time.Duration(cm.chargeSeconds*float64(time.Second))), gen)}
	cm.chargeCtrl = ctrl
	cm.mixer.Add(ctrl)
}

// StopCharge silences the rumble (cancel or completion)
func (cm *CueManager) StopCharge() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.chargeCtrl != nil {
		cm.chargeCtrl.Paused = true
	}
}

// Flash plays the one-shot warp flash burst
func (cm *CueManager) Flash() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.initialized {
		return
	}

	streamer := beep.Take(sampleRate.N(time.Millisecond*400), NewFlashGenerator(sampleRate))
	cm.mixer.Add(streamer)
}

// ChargeGenerator sweeps a low rumble upward over the charge duration
type ChargeGenerator struct {
	sr      beep.SampleRate
	pos     int
	samples int
}

// NewChargeGenerator creates a rumble whose pitch and level rise over
// durationSec seconds
func NewChargeGenerator(sr beep.SampleRate, durationSec float64) *ChargeGenerator {
	return &ChargeGenerator{
		sr:      sr,
		samples: sr.N(time.Duration(durationSec * float64(time.Second))),
	}
}

func (g *ChargeGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// Ramp 0..1 over the full sweep, held at 1 past the end
		ramp := float64(g.pos) / float64(g.samples)
		if ramp > 1 {
			ramp = 1
		}

		// Pitch climbs 45Hz -> 220Hz; a slow wobble keeps it alive
		freq := 45 + 175*ramp*ramp
		wobble := 1 + 0.04*math.Sin(2*math.Pi*3.5*t)

		amplitude := 0.05 + 0.20*ramp
		sample := amplitude * math.Sin(2*math.Pi*freq*wobble*t)
		sample += amplitude * 0.4 * math.Sin(2*math.Pi*freq*2*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ChargeGenerator) Err() error {
	return nil
}

// FlashGenerator produces a short bright burst with exponential decay
type FlashGenerator struct {
	sr    beep.SampleRate
	pos   int
	state uint64
}

// NewFlashGenerator creates the flash burst generator
func NewFlashGenerator(sr beep.SampleRate) *FlashGenerator {
	return &FlashGenerator{
		sr:    sr,
		state: 0x9E3779B97F4A7C15,
	}
}

func (g *FlashGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// Noise via xorshift, mixed with a falling tone
		g.state ^= g.state << 13
		g.state ^= g.state >> 7
		g.state ^= g.state << 17
		noise := float64(int64(g.state)) / float64(math.MaxInt64) * 0.25

		tone := 0.3 * math.Sin(2*math.Pi*(900-1400*t)*t)

		envelope := math.Exp(-t * 9)
		sample := (noise + tone) * envelope * 0.6

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *FlashGenerator) Err() error {
	return nil
}
