package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/warpcore/parameter"
)

// Config is the engine's tuning surface. All values are read at construction
// and may be hot-swapped via Engine.SetConfig; a swap takes effect on the
// next tick and never reinterprets an in-progress phase's elapsed time.
type Config struct {
	WarpDurationSec         float64 `yaml:"warp_duration_sec"`
	WarpCooldownSec         float64 `yaml:"warp_cooldown_sec"`
	QueueProcessingDelaySec float64 `yaml:"queue_processing_delay_sec"`

	// PhaseFractions are the fractional spans of the total warp duration, in
	// phase order (charging, buildup, climax, flash, cooldown). Must sum to 1.
	PhaseFractions []float64 `yaml:"phase_fractions"`

	MinFlashHoldMs int `yaml:"min_flash_hold_ms"`
	MaxFlashHoldMs int `yaml:"max_flash_hold_ms"`

	SecondaryBlendSec float64 `yaml:"secondary_blend_sec"`
	ShakeIntensity    float64 `yaml:"shake_intensity"`
	ShakeSpeed        float64 `yaml:"shake_speed"`
	DriftSpeed        float64 `yaml:"drift_speed"`
	TunnelStrength    float64 `yaml:"tunnel_strength"`
	FOVBoost          float64 `yaml:"fov_boost"`
}

// DefaultConfig returns the tuning defaults from the parameter package
func DefaultConfig() Config {
	return Config{
		WarpDurationSec:         parameter.DefaultWarpDuration.Seconds(),
		WarpCooldownSec:         parameter.DefaultWarpCooldown.Seconds(),
		QueueProcessingDelaySec: parameter.DefaultQueueProcessingDelay.Seconds(),
		PhaseFractions:          append([]float64(nil), parameter.DefaultPhaseFractions...),
		MinFlashHoldMs:          int(parameter.DefaultMinFlashHold / time.Millisecond),
		MaxFlashHoldMs:          int(parameter.DefaultMaxFlashHold / time.Millisecond),
		SecondaryBlendSec:       parameter.DefaultSecondaryBlend.Seconds(),
		ShakeIntensity:          parameter.DefaultShakeIntensity,
		ShakeSpeed:              parameter.DefaultShakeSpeed,
		DriftSpeed:              parameter.DefaultDriftSpeed,
		TunnelStrength:          parameter.DefaultTunnelStrength,
		FOVBoost:                parameter.DefaultFOVBoost,
	}
}

// Validate checks the configuration and builds the phase table.
// All violations are ConfigurationError.
func (c *Config) Validate() (*PhaseTable, error) {
	if c.WarpDurationSec <= 0 {
		return nil, &ConfigurationError{Field: "warp_duration_sec", Reason: "must be positive"}
	}
	if c.WarpCooldownSec < 0 {
		return nil, &ConfigurationError{Field: "warp_cooldown_sec", Reason: "must not be negative"}
	}
	if c.QueueProcessingDelaySec < 0 {
		return nil, &ConfigurationError{Field: "queue_processing_delay_sec", Reason: "must not be negative"}
	}
	if c.MinFlashHoldMs < 0 {
		return nil, &ConfigurationError{Field: "min_flash_hold_ms", Reason: "must not be negative"}
	}
	if c.MaxFlashHoldMs < c.MinFlashHoldMs {
		return nil, &ConfigurationError{Field: "max_flash_hold_ms", Reason: "must be >= min_flash_hold_ms"}
	}
	if c.SecondaryBlendSec < 0 {
		return nil, &ConfigurationError{Field: "secondary_blend_sec", Reason: "must not be negative"}
	}

	table, err := NewPhaseTable(c.PhaseFractions)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Derived duration accessors keep tick code free of unit conversions

func (c *Config) WarpDuration() time.Duration {
	return time.Duration(c.WarpDurationSec * float64(time.Second))
}

func (c *Config) WarpCooldown() time.Duration {
	return time.Duration(c.WarpCooldownSec * float64(time.Second))
}

func (c *Config) QueueProcessingDelay() time.Duration {
	return time.Duration(c.QueueProcessingDelaySec * float64(time.Second))
}

func (c *Config) MinFlashHold() time.Duration {
	return time.Duration(c.MinFlashHoldMs) * time.Millisecond
}

func (c *Config) MaxFlashHold() time.Duration {
	return time.Duration(c.MaxFlashHoldMs) * time.Millisecond
}

func (c *Config) SecondaryBlend() time.Duration {
	return time.Duration(c.SecondaryBlendSec * float64(time.Second))
}

// LoadConfigFile reads a YAML config file over the defaults, so partial
// files only override the keys they name
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
