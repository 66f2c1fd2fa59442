package zone

import (
	"time"
)

// Kind classifies a region's role in the partition.
type Kind string

const (
	KindEdge       Kind = "edge"
	KindCenter     Kind = "center"
	KindTransition Kind = "transition"
)

// Kinds lists every region kind in display order.
var Kinds = []Kind{KindCenter, KindTransition, KindEdge}

// Point is a position on the placement surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle. Coordinates grow right and down.
type Rect struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Area returns Width*Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Valid reports whether the rectangle has positive extent on both axes.
func (r Rect) Valid() bool { return r.MaxX > r.MinX && r.MaxY > r.MinY }

// Region is one weighted rectangular subdivision of the surface.
//
// Regions are owned by the [Allocator]; callers receive copies. The usage
// counters only live for one partition generation.
type Region struct {
	ID     string
	Name   string
	Kind   Kind
	Bounds Rect

	// BaseWeight is assigned by the topology and never changes.
	BaseWeight float64
	// Weight is the current selection weight after policy and rebalancing.
	Weight float64

	ActiveOccupants int
	LastUsedAt      time.Time
	TotalUsageCount int
}

// Center returns the midpoint of the region.
func (r *Region) Center() Point { return r.Bounds.Center() }

// Area returns the region's area in square surface units.
func (r *Region) Area() float64 { return r.Bounds.Area() }

// Contains reports whether p lies inside the region.
func (r *Region) Contains(p Point) bool { return r.Bounds.Contains(p) }

// RandomPoint returns a uniformly random point inside the region after
// shrinking each side by margin (a fraction of the region's extent, clamped
// to [0, 0.5)).
func (r *Region) RandomPoint(rng Rand, margin float64) Point {
	margin = max(0, min(margin, 0.49))
	w, h := r.Bounds.Width(), r.Bounds.Height()
	x0 := r.Bounds.MinX + w*margin
	y0 := r.Bounds.MinY + h*margin
	return Point{
		X: x0 + rng.Float64()*w*(1-2*margin),
		Y: y0 + rng.Float64()*h*(1-2*margin),
	}
}

// RecordUsage marks one new occupant placed at now.
func (r *Region) RecordUsage(now time.Time) {
	r.LastUsedAt = now
	r.TotalUsageCount++
	r.ActiveOccupants++
}

// Release removes one occupant. The count never drops below zero.
func (r *Region) Release() {
	if r.ActiveOccupants > 0 {
		r.ActiveOccupants--
	}
}

// Density returns occupants per unit area, or 0 for an empty area.
func (r *Region) Density() float64 {
	area := r.Area()
	if area <= 0 {
		return 0
	}
	return float64(r.ActiveOccupants) / area
}

// IdleFor reports whether the region has not been used within d of now.
// A region that was never used counts as idle.
func (r *Region) IdleFor(now time.Time, d time.Duration) bool {
	return r.LastUsedAt.IsZero() || now.Sub(r.LastUsedAt) > d
}
