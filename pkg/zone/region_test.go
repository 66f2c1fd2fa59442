package zone

import (
	"testing"
	"time"
)

func TestRect(t *testing.T) {
	r := Rect{MinX: 10, MaxX: 30, MinY: 0, MaxY: 10}
	if got := r.Area(); got != 200 {
		t.Errorf("Area() = %v, want 200", got)
	}
	if got := r.Center(); got != (Point{X: 20, Y: 5}) {
		t.Errorf("Center() = %v, want {20 5}", got)
	}
	if !r.Contains(Point{X: 10, Y: 10}) {
		t.Error("Contains() should include the boundary")
	}
	if r.Contains(Point{X: 31, Y: 5}) {
		t.Error("Contains() accepted a point outside")
	}
	if (Rect{MinX: 5, MaxX: 5, MaxY: 1}).Valid() {
		t.Error("zero-width rect reported valid")
	}
}

func TestRegionRandomPoint(t *testing.T) {
	r := &Region{Bounds: Rect{MinX: 100, MaxX: 200, MinY: 50, MaxY: 150}}
	rng := NewRand(1)

	inner := Rect{MinX: 110, MaxX: 190, MinY: 60, MaxY: 140}
	for i := 0; i < 500; i++ {
		p := r.RandomPoint(rng, 0.1)
		if !inner.Contains(p) {
			t.Fatalf("RandomPoint() = %v, outside margin-shrunk bounds %v", p, inner)
		}
	}

	// Oversized margins collapse toward the center instead of inverting.
	p := r.RandomPoint(&seqRand{vals: []float64{0, 1}}, 5)
	if !r.Contains(p) {
		t.Errorf("RandomPoint() with margin 5 = %v, outside region", p)
	}
}

func TestRegionUsage(t *testing.T) {
	r := &Region{Bounds: Rect{MaxX: 10, MaxY: 10}}
	now := testEpoch

	if !r.IdleFor(now, time.Second) {
		t.Error("never-used region should be idle")
	}

	r.RecordUsage(now)
	r.RecordUsage(now)
	if r.ActiveOccupants != 2 || r.TotalUsageCount != 2 {
		t.Fatalf("after two usages: active=%d total=%d", r.ActiveOccupants, r.TotalUsageCount)
	}
	if got := r.Density(); got != 0.02 {
		t.Errorf("Density() = %v, want 0.02", got)
	}
	if r.IdleFor(now.Add(time.Second), 3*time.Second) {
		t.Error("region used 1s ago reported idle for 3s")
	}
	if !r.IdleFor(now.Add(4*time.Second), 3*time.Second) {
		t.Error("region used 4s ago not idle for 3s")
	}

	for i := 0; i < 5; i++ {
		r.Release()
	}
	if r.ActiveOccupants != 0 {
		t.Errorf("ActiveOccupants = %d after over-release, want 0", r.ActiveOccupants)
	}
	if r.TotalUsageCount != 2 {
		t.Errorf("TotalUsageCount = %d, release must not change it", r.TotalUsageCount)
	}

	if got := (&Region{ActiveOccupants: 3}).Density(); got != 0 {
		t.Errorf("zero-area Density() = %v, want 0", got)
	}
}
