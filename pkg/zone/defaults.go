package zone

import (
	"fmt"
	"time"
)

// fallbackPolicy is used when New receives a nil policy.
type fallbackPolicy struct{}

func (fallbackPolicy) Tier() Tier                     { return TierMedium }
func (fallbackPolicy) MaxOccupants() int              { return 50 }
func (fallbackPolicy) MaxDensity() float64            { return 1e-4 }
func (fallbackPolicy) CenterPlacementEnabled() bool   { return true }
func (fallbackPolicy) ComplexPathsEnabled() bool      { return false }
func (fallbackPolicy) Strategy() Strategy             { return StrategyBalanced }
func (fallbackPolicy) Monitor(float64, int) bool      { return false }
func (fallbackPolicy) MonitorInterval() time.Duration { return 0 }

func (fallbackPolicy) ApplyWeights(regions []*Region) {
	for _, r := range regions {
		r.Weight = r.BaseWeight
	}
}

// fallbackCompat is used when New receives a nil compatibility provider.
type fallbackCompat struct{}

func (fallbackCompat) ClampPosition(p Point, v Viewport) Point {
	return Point{X: max(0, min(p.X, v.Width)), Y: max(0, min(p.Y, v.Height))}
}

func (fallbackCompat) ExtremeAspectFallback(Viewport) Ratios  { return SafeRatios }
func (fallbackCompat) OnViewportChange(func(Viewport)) func() { return func() {} }
func (fallbackCompat) Capabilities() Capabilities             { return Capabilities{} }

func formatSize(v Viewport) string {
	return fmt.Sprintf("%.0fx%.0f", v.Width, v.Height)
}
