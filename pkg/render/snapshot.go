package render

import (
	"github.com/matzehuels/zonealloc/pkg/zone"
)

// Snapshot is an immutable copy of a partition and its occupancy.
type Snapshot struct {
	Viewport     zone.Viewport
	Ratios       zone.Ratios
	Regions      []zone.Region
	Distribution zone.Distribution
	Stats        zone.Stats
	// Points are optional placement positions drawn on top of the regions.
	Points []zone.Point
}

// SnapshotOf copies the allocator's current state.
func SnapshotOf(a *zone.Allocator) Snapshot {
	return Snapshot{
		Viewport:     a.Viewport(),
		Ratios:       a.Ratios(),
		Regions:      a.Regions(),
		Distribution: a.Distribution(),
		Stats:        a.Stats(),
	}
}

// maxDensity returns the largest region density, used to normalise shading.
func (s Snapshot) maxDensity() float64 {
	var m float64
	for _, d := range s.Distribution.Densities {
		m = max(m, d)
	}
	return m
}
