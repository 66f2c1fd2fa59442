package zone

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zonealloc/pkg/observability"
)

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubPolicy struct {
	tier       Tier
	maxOcc     int
	maxDensity float64
	center     bool
	complex    bool
	strategy   Strategy
	factors    map[Kind]float64
	exceeded   bool
	samples    int
	lastFPS    float64
	every      time.Duration
}

func newStubPolicy() *stubPolicy {
	return &stubPolicy{
		tier:       TierHigh,
		maxOcc:     1000,
		maxDensity: 1e-4,
		center:     true,
		complex:    true,
		strategy:   StrategyBalanced,
		factors:    map[Kind]float64{KindCenter: 1.2},
	}
}

func (p *stubPolicy) Tier() Tier                   { return p.tier }
func (p *stubPolicy) MaxOccupants() int            { return p.maxOcc }
func (p *stubPolicy) MaxDensity() float64          { return p.maxDensity }
func (p *stubPolicy) CenterPlacementEnabled() bool { return p.center }
func (p *stubPolicy) ComplexPathsEnabled() bool    { return p.complex }
func (p *stubPolicy) Strategy() Strategy           { return p.strategy }

func (p *stubPolicy) ApplyWeights(regions []*Region) {
	for _, r := range regions {
		f, ok := p.factors[r.Kind]
		if !ok {
			f = 1
		}
		r.Weight = r.BaseWeight * f
	}
}

func (p *stubPolicy) MonitorInterval() time.Duration { return p.every }

func (p *stubPolicy) Monitor(fps float64, _ int) bool {
	p.samples++
	p.lastFPS = fps
	return p.exceeded
}

type stubCompat struct {
	mu       sync.Mutex
	caps     Capabilities
	fallback Ratios
	panics   bool
	subs     map[int]func(Viewport)
	next     int
}

func newStubCompat() *stubCompat {
	return &stubCompat{
		fallback: Ratios{EdgeMargin: 0.05, CenterZoneSize: 0.3, TransitionZoneWidth: 0.08},
		subs:     make(map[int]func(Viewport)),
	}
}

func (c *stubCompat) ClampPosition(p Point, v Viewport) Point {
	return Point{X: max(0, min(p.X, v.Width)), Y: max(0, min(p.Y, v.Height))}
}

func (c *stubCompat) ExtremeAspectFallback(Viewport) Ratios {
	if c.panics {
		panic("fallback table missing")
	}
	return c.fallback
}

func (c *stubCompat) Capabilities() Capabilities { return c.caps }

func (c *stubCompat) OnViewportChange(cb func(Viewport)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.subs[id] = cb
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *stubCompat) publish(w, h float64) {
	c.mu.Lock()
	var cbs []func(Viewport)
	for _, cb := range c.subs {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()
	for _, cb := range cbs {
		cb(NewViewport(w, h))
	}
}

func (c *stubCompat) subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// seqRand replays a fixed sequence of values.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

type fixture struct {
	alloc  *Allocator
	clock  *ManualClock
	policy *stubPolicy
	compat *stubCompat
	events *observability.Recorder
}

func newFixture(t *testing.T, width, height float64, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:  NewManualClock(testEpoch),
		policy: newStubPolicy(),
		compat: newStubCompat(),
		events: &observability.Recorder{},
	}
	base := []Option{
		WithClock(f.clock),
		WithRand(NewRand(7)),
		WithHooks(f.events),
		WithLogger(log.New(io.Discard)),
	}
	f.alloc = New(NewViewport(width, height), f.policy, f.compat, append(base, opts...)...)
	t.Cleanup(f.alloc.Destroy)
	return f
}

func (f *fixture) regionByName(t *testing.T, name string) Region {
	t.Helper()
	for _, r := range f.alloc.Regions() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("region %q not found", name)
	return Region{}
}

func approx(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
