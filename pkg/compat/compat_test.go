package compat

import (
	"slices"
	"testing"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

func TestClampPosition(t *testing.T) {
	v := zone.NewViewport(800, 600)
	tests := []struct {
		name    string
		padding float64
		in      zone.Point
		want    zone.Point
	}{
		{"inside", 0, zone.Point{X: 100, Y: 100}, zone.Point{X: 100, Y: 100}},
		{"negative", 0, zone.Point{X: -5, Y: -1}, zone.Point{X: 0, Y: 0}},
		{"beyond", 0, zone.Point{X: 900, Y: 700}, zone.Point{X: 800, Y: 600}},
		{"padded", 20, zone.Point{X: 5, Y: 590}, zone.Point{X: 20, Y: 580}},
		{"padding exceeds height", 350, zone.Point{X: 5, Y: 5}, zone.Point{X: 350, Y: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithPadding(tt.padding))
			if got := p.ClampPosition(tt.in, v); got != tt.want {
				t.Errorf("ClampPosition(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtremeAspectFallback(t *testing.T) {
	p := New()
	if got := p.ExtremeAspectFallback(zone.NewViewport(300, 1000)); got != TallRatios {
		t.Errorf("tall fallback = %+v, want %+v", got, TallRatios)
	}
	if got := p.ExtremeAspectFallback(zone.NewViewport(3000, 1000)); got != WideRatios {
		t.Errorf("wide fallback = %+v, want %+v", got, WideRatios)
	}
	for _, r := range []zone.Ratios{TallRatios, WideRatios} {
		if err := r.Validate(); err != nil {
			t.Errorf("%+v: %v", r, err)
		}
	}
}

func TestSubscriptions(t *testing.T) {
	p := New()
	var order []string
	cancelA := p.OnViewportChange(func(zone.Viewport) { order = append(order, "a") })
	p.OnViewportChange(func(zone.Viewport) { order = append(order, "b") })
	p.OnViewportChange(func(v zone.Viewport) {
		if v.Width != 1024 {
			t.Errorf("subscriber got width %v", v.Width)
		}
		order = append(order, "c")
	})

	p.Publish(1024, 768)
	if want := []string{"a", "b", "c"}; !slices.Equal(order, want) {
		t.Errorf("notification order = %v, want %v", order, want)
	}

	cancelA()
	cancelA()
	if p.Subscribers() != 2 {
		t.Errorf("Subscribers() = %d, want 2", p.Subscribers())
	}

	order = nil
	p.Publish(1024, 600)
	if want := []string{"b", "c"}; !slices.Equal(order, want) {
		t.Errorf("after cancel order = %v, want %v", order, want)
	}
	if p.Last().Height != 600 {
		t.Errorf("Last() = %+v", p.Last())
	}
}

func TestPublishAllowsUnsubscribeFromCallback(t *testing.T) {
	p := New()
	var cancel func()
	calls := 0
	cancel = p.OnViewportChange(func(zone.Viewport) {
		calls++
		cancel()
	})
	p.Publish(100, 100)
	p.Publish(200, 200)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDrivesAllocator(t *testing.T) {
	p := New(WithCapabilities(zone.Capabilities{SimplePositioningOnly: true}))
	clock := zone.NewManualClock(zone.SystemClock{}.Now())
	a := zone.New(zone.NewViewport(1920, 1080), nil, p, zone.WithClock(clock))
	defer a.Destroy()

	r, pt, ok := a.Place()
	if !ok || pt != r.Center() {
		t.Errorf("simple positioning placed at %v, want center %v", pt, r.Center())
	}

	p.Publish(1080, 1920)
	clock.Advance(zone.DefaultResizeDebounce)
	if a.Viewport().Orientation != zone.Portrait {
		t.Error("published viewport did not reach the allocator")
	}

	a.Destroy()
	if p.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after Destroy", p.Subscribers())
	}
}
