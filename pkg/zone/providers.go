package zone

import "time"

// Tier is a device performance class chosen by the policy provider.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Policy supplies tunable limits and the default strategy. It is consumed,
// not owned: the allocator never mutates it beyond calling Monitor.
type Policy interface {
	Tier() Tier
	// MaxOccupants is the soft ceiling on active occupants across all regions.
	MaxOccupants() int
	// MaxDensity is the hard per-region density ceiling in occupants per unit area.
	MaxDensity() float64
	CenterPlacementEnabled() bool
	ComplexPathsEnabled() bool
	Strategy() Strategy
	// ApplyWeights resets each region's Weight to the policy baseline.
	ApplyWeights(regions []*Region)
	// Monitor receives a periodic sample and reports whether limits are exceeded.
	Monitor(frameRate float64, occupants int) bool
	// MonitorInterval is the sampling cadence. Zero defers to Config.MonitorInterval.
	MonitorInterval() time.Duration
}

// Capabilities are the compatibility flags of the host surface.
type Capabilities struct {
	// SimplePositioningOnly restricts placement points to region centers.
	SimplePositioningOnly bool
	// VeryCompactViewport forces small-size-class ratios.
	VeryCompactViewport bool
}

// Compat supplies viewport-change notifications and position fallbacks.
type Compat interface {
	ClampPosition(p Point, v Viewport) Point
	ExtremeAspectFallback(v Viewport) Ratios
	// OnViewportChange subscribes cb and returns an idempotent cancel function.
	OnViewportChange(cb func(Viewport)) (cancel func())
	Capabilities() Capabilities
}
