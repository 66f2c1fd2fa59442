package policy

import (
	"maps"
	"runtime"
	"strings"
	"time"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

// Limits are the tunables a tier provides.
type Limits struct {
	MaxOccupants    int           `toml:"max_occupants" yaml:"max_occupants"`
	MaxDensity      float64       `toml:"max_density" yaml:"max_density"`
	CenterPlacement bool          `toml:"center_placement" yaml:"center_placement"`
	ComplexPaths    bool          `toml:"complex_paths" yaml:"complex_paths"`
	Strategy        zone.Strategy `toml:"strategy" yaml:"strategy"`
	// MinFrameRate is the sampled frame rate under which limits count as exceeded.
	MinFrameRate float64 `toml:"min_frame_rate" yaml:"min_frame_rate"`
	// KindWeights multiplies each region's base weight. Missing kinds use 1.
	KindWeights map[zone.Kind]float64 `toml:"kind_weights" yaml:"kind_weights"`
	// MonitorInterval is the sampling cadence; zero defers to the allocator.
	MonitorInterval time.Duration `toml:"monitor_interval" yaml:"monitor_interval"`
}

// Override is a partial [Limits]. Nil fields keep the value being
// overridden, so a config file can change one setting of a tier.
type Override struct {
	MaxOccupants    *int                  `toml:"max_occupants,omitempty" yaml:"max_occupants,omitempty"`
	MaxDensity      *float64              `toml:"max_density,omitempty" yaml:"max_density,omitempty"`
	CenterPlacement *bool                 `toml:"center_placement,omitempty" yaml:"center_placement,omitempty"`
	ComplexPaths    *bool                 `toml:"complex_paths,omitempty" yaml:"complex_paths,omitempty"`
	Strategy        *zone.Strategy        `toml:"strategy,omitempty" yaml:"strategy,omitempty"`
	MinFrameRate    *float64              `toml:"min_frame_rate,omitempty" yaml:"min_frame_rate,omitempty"`
	MonitorInterval *time.Duration        `toml:"monitor_interval,omitempty" yaml:"monitor_interval,omitempty"`
	KindWeights     map[zone.Kind]float64 `toml:"kind_weights,omitempty" yaml:"kind_weights,omitempty"`
}

// Apply returns l with every set field of o replaced. KindWeights entries
// are merged per kind.
func (o Override) Apply(l Limits) Limits {
	if o.MaxOccupants != nil {
		l.MaxOccupants = *o.MaxOccupants
	}
	if o.MaxDensity != nil {
		l.MaxDensity = *o.MaxDensity
	}
	if o.CenterPlacement != nil {
		l.CenterPlacement = *o.CenterPlacement
	}
	if o.ComplexPaths != nil {
		l.ComplexPaths = *o.ComplexPaths
	}
	if o.Strategy != nil {
		l.Strategy = *o.Strategy
	}
	if o.MinFrameRate != nil {
		l.MinFrameRate = *o.MinFrameRate
	}
	if o.MonitorInterval != nil {
		l.MonitorInterval = *o.MonitorInterval
	}
	if len(o.KindWeights) > 0 {
		weights := maps.Clone(l.KindWeights)
		if weights == nil {
			weights = make(map[zone.Kind]float64, len(o.KindWeights))
		}
		maps.Copy(weights, o.KindWeights)
		l.KindWeights = weights
	}
	return l
}

// Presets returns the built-in limits for every tier.
func Presets() map[zone.Tier]Limits {
	return map[zone.Tier]Limits{
		zone.TierLow: {
			MaxOccupants:    15,
			MaxDensity:      2e-5,
			CenterPlacement: false,
			ComplexPaths:    false,
			Strategy:        zone.StrategyEdgeOnly,
			MinFrameRate:    24,
			KindWeights:     map[zone.Kind]float64{zone.KindCenter: 0.8, zone.KindEdge: 1.2},
		},
		zone.TierMedium: {
			MaxOccupants:    30,
			MaxDensity:      5e-5,
			CenterPlacement: true,
			ComplexPaths:    false,
			Strategy:        zone.StrategyBalanced,
			MinFrameRate:    30,
		},
		zone.TierHigh: {
			MaxOccupants:    60,
			MaxDensity:      1e-4,
			CenterPlacement: true,
			ComplexPaths:    true,
			Strategy:        zone.StrategyOrganic,
			MinFrameRate:    45,
			KindWeights:     map[zone.Kind]float64{zone.KindCenter: 1.2, zone.KindTransition: 1.1},
		},
	}
}

// tierOrder lists tiers from weakest to strongest.
var tierOrder = []zone.Tier{zone.TierLow, zone.TierMedium, zone.TierHigh}

// ParseTier resolves a tier name.
func ParseTier(name string) (zone.Tier, error) {
	switch t := zone.Tier(strings.ToLower(strings.TrimSpace(name))); t {
	case zone.TierLow, zone.TierMedium, zone.TierHigh:
		return t, nil
	}
	return "", errors.New(errors.ErrCodeInvalidTier, "unknown tier %q (want low, medium or high)", name)
}

func tierIndex(t zone.Tier) int {
	for i, o := range tierOrder {
		if o == t {
			return i
		}
	}
	return 1
}

// Device describes the host's capabilities. Zero fields are unknown and do
// not constrain the classification.
type Device struct {
	CPUCores      int
	MemoryGB      float64
	Pixels        float64
	ReducedMotion bool
	LowPower      bool
}

// DetectDevice returns what the runtime can tell about the host.
func DetectDevice() Device {
	return Device{CPUCores: runtime.NumCPU()}
}

// Classify maps a device profile to a tier.
func Classify(d Device) zone.Tier {
	idx := 2
	if (d.CPUCores > 0 && d.CPUCores < 8) || (d.MemoryGB > 0 && d.MemoryGB < 8) {
		idx = 1
	}
	if (d.CPUCores > 0 && d.CPUCores < 4) || (d.MemoryGB > 0 && d.MemoryGB < 4) {
		idx = 0
	}
	// Very large surfaces cost more per occupant.
	if d.Pixels > 3840*2160 {
		idx--
	}
	if d.ReducedMotion {
		idx = min(idx, 1)
	}
	if d.LowPower {
		idx = 0
	}
	return tierOrder[max(0, idx)]
}
