package zone

import (
	"math"
	"time"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// Ratios are the three fractions that determine partition geometry.
type Ratios struct {
	EdgeMargin          float64 `json:"edge_margin" toml:"edge_margin" yaml:"edge_margin"`
	CenterZoneSize      float64 `json:"center_zone_size" toml:"center_zone_size" yaml:"center_zone_size"`
	TransitionZoneWidth float64 `json:"transition_zone_width" toml:"transition_zone_width" yaml:"transition_zone_width"`
}

// SafeRatios is substituted whenever ratio computation fails. It yields a
// valid partition for every viewport of at least 1x1.
var SafeRatios = Ratios{
	EdgeMargin:          0.1,
	CenterZoneSize:      0.4,
	TransitionZoneWidth: 0.1,
}

// ratioTolerance absorbs rounding when ratios are fitted to fill the surface.
const ratioTolerance = 1e-9

// Validate checks that the ratios fit inside a unit surface:
// both edge strips, the center box and both transition bands.
func (r Ratios) Validate() error {
	if err := errors.ValidateFraction("edge margin", r.EdgeMargin, 0, 0.5); err != nil {
		return err
	}
	if err := errors.ValidateFraction("center zone size", r.CenterZoneSize, 0, 1); err != nil {
		return err
	}
	if err := errors.ValidateFraction("transition zone width", r.TransitionZoneWidth, 0, 0.5); err != nil {
		return err
	}
	if total := 2*r.EdgeMargin + r.CenterZoneSize + 2*r.TransitionZoneWidth; total > 1+ratioTolerance {
		return errors.New(errors.ErrCodeInvalidRatios, "ratios overflow the surface (%.3f > 1)", total)
	}
	return nil
}

// Config holds the allocator's tunables. Zero fields are filled from
// [DefaultConfig] by [Config.WithDefaults], so partial overrides are allowed.
// Because zero means "default", MinRegionPixelSize and RebalanceThreshold are
// switched off with a negative value instead.
type Config struct {
	Ratios `toml:"ratios" yaml:"ratios"`

	MaxDensityRatio float64 `toml:"max_density_ratio" yaml:"max_density_ratio"`
	// RebalanceThreshold is the balance score under which the allocator
	// rebalances. Negative disables automatic rebalancing.
	RebalanceThreshold float64       `toml:"rebalance_threshold" yaml:"rebalance_threshold"`
	ResizeDebounce     time.Duration `toml:"resize_debounce" yaml:"resize_debounce"`
	// MinRegionPixelSize is the smallest edge and band thickness in pixels.
	// Negative disables the floor.
	MinRegionPixelSize         float64       `toml:"min_region_pixel_size" yaml:"min_region_pixel_size"`
	AspectRatioChangeThreshold float64       `toml:"aspect_ratio_change_threshold" yaml:"aspect_ratio_change_threshold"`
	MonitorInterval            time.Duration `toml:"monitor_interval" yaml:"monitor_interval"`
	IdleThreshold              time.Duration `toml:"idle_threshold" yaml:"idle_threshold"`
	RebalanceRevert            time.Duration `toml:"rebalance_revert" yaml:"rebalance_revert"`

	// PlacementMargin shrinks regions before drawing a random placement point.
	PlacementMargin float64 `toml:"placement_margin" yaml:"placement_margin"`
}

// Defaults.
const (
	DefaultMaxDensityRatio            = 2.0
	DefaultRebalanceThreshold         = 0.3
	DefaultResizeDebounce             = 250 * time.Millisecond
	DefaultMinRegionPixelSize         = 40.0
	DefaultAspectRatioChangeThreshold = 0.2
	DefaultMonitorInterval            = 5 * time.Second
	DefaultIdleThreshold              = 3 * time.Second
	DefaultRebalanceRevert            = 10 * time.Second
	DefaultPlacementMargin            = 0.1
	HistoryCapacity                   = 50
)

// DefaultConfig returns the hard-coded configuration.
func DefaultConfig() Config {
	return Config{
		Ratios:                     SafeRatios,
		MaxDensityRatio:            DefaultMaxDensityRatio,
		RebalanceThreshold:         DefaultRebalanceThreshold,
		ResizeDebounce:             DefaultResizeDebounce,
		MinRegionPixelSize:         DefaultMinRegionPixelSize,
		AspectRatioChangeThreshold: DefaultAspectRatioChangeThreshold,
		MonitorInterval:            DefaultMonitorInterval,
		IdleThreshold:              DefaultIdleThreshold,
		RebalanceRevert:            DefaultRebalanceRevert,
		PlacementMargin:            DefaultPlacementMargin,
	}
}

// WithDefaults returns c with every zero field replaced by its default.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.EdgeMargin == 0 {
		c.EdgeMargin = d.EdgeMargin
	}
	if c.CenterZoneSize == 0 {
		c.CenterZoneSize = d.CenterZoneSize
	}
	if c.TransitionZoneWidth == 0 {
		c.TransitionZoneWidth = d.TransitionZoneWidth
	}
	if c.MaxDensityRatio == 0 {
		c.MaxDensityRatio = d.MaxDensityRatio
	}
	if c.RebalanceThreshold == 0 {
		c.RebalanceThreshold = d.RebalanceThreshold
	}
	if c.ResizeDebounce == 0 {
		c.ResizeDebounce = d.ResizeDebounce
	}
	if c.MinRegionPixelSize == 0 {
		c.MinRegionPixelSize = d.MinRegionPixelSize
	}
	if c.AspectRatioChangeThreshold == 0 {
		c.AspectRatioChangeThreshold = d.AspectRatioChangeThreshold
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = d.MonitorInterval
	}
	if c.IdleThreshold == 0 {
		c.IdleThreshold = d.IdleThreshold
	}
	if c.RebalanceRevert == 0 {
		c.RebalanceRevert = d.RebalanceRevert
	}
	if c.PlacementMargin == 0 {
		c.PlacementMargin = d.PlacementMargin
	}
	return c
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Ratios.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "ratios")
	}
	if err := errors.ValidatePositive("max density ratio", c.MaxDensityRatio); err != nil {
		return err
	}
	if math.IsNaN(c.RebalanceThreshold) || c.RebalanceThreshold > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "rebalance threshold must be at most 1, got %v", c.RebalanceThreshold)
	}
	if err := errors.ValidatePositive("aspect ratio change threshold", c.AspectRatioChangeThreshold); err != nil {
		return err
	}
	if math.IsNaN(c.MinRegionPixelSize) {
		return errors.New(errors.ErrCodeInvalidConfig, "min region pixel size must be a number")
	}
	for name, d := range map[string]time.Duration{
		"resize debounce":  c.ResizeDebounce,
		"monitor interval": c.MonitorInterval,
		"idle threshold":   c.IdleThreshold,
		"rebalance revert": c.RebalanceRevert,
	} {
		if d < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative", name)
		}
	}
	if c.PlacementMargin < 0 || c.PlacementMargin >= 0.5 {
		return errors.New(errors.ErrCodeInvalidConfig, "placement margin must be in [0, 0.5), got %v", c.PlacementMargin)
	}
	return nil
}
