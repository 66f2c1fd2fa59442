package zone

import (
	"math"
	"testing"
	"time"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{RebalanceThreshold: 0.5, ResizeDebounce: time.Second}.WithDefaults()

	if cfg.RebalanceThreshold != 0.5 || cfg.ResizeDebounce != time.Second {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.Ratios != SafeRatios {
		t.Errorf("Ratios = %+v, want %+v", cfg.Ratios, SafeRatios)
	}
	if cfg.MonitorInterval != DefaultMonitorInterval || cfg.RebalanceRevert != DefaultRebalanceRevert {
		t.Errorf("timer defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfigNegativeDisables(t *testing.T) {
	cfg := Config{MinRegionPixelSize: -1, RebalanceThreshold: -1}.WithDefaults()
	if cfg.MinRegionPixelSize != -1 || cfg.RebalanceThreshold != -1 {
		t.Errorf("negative settings replaced by defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overflowing ratios", func(c *Config) { c.CenterZoneSize = 0.9 }},
		{"edge margin too large", func(c *Config) { c.EdgeMargin = 0.6 }},
		{"threshold above one", func(c *Config) { c.RebalanceThreshold = 1.5 }},
		{"negative debounce", func(c *Config) { c.ResizeDebounce = -time.Second }},
		{"negative density ratio", func(c *Config) { c.MaxDensityRatio = -1 }},
		{"margin at half", func(c *Config) { c.PlacementMargin = 0.5 }},
		{"NaN pixel size", func(c *Config) { c.MinRegionPixelSize = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if errors.GetCode(err) == "" {
				t.Errorf("error %v carries no code", err)
			}
		})
	}
}

func TestRatiosValidate(t *testing.T) {
	if err := SafeRatios.Validate(); err != nil {
		t.Errorf("SafeRatios.Validate() = %v", err)
	}
	err := Ratios{EdgeMargin: 0.2, CenterZoneSize: 0.5, TransitionZoneWidth: 0.1}.Validate()
	if !errors.Is(err, errors.ErrCodeInvalidRatios) {
		t.Errorf("overflow error = %v, want INVALID_RATIOS", err)
	}
	err = Ratios{EdgeMargin: 0, CenterZoneSize: 0.5, TransitionZoneWidth: 0.1}.Validate()
	if !errors.Is(err, errors.ErrCodeInvalidRatios) {
		t.Errorf("zero margin error = %v, want INVALID_RATIOS", err)
	}
}
