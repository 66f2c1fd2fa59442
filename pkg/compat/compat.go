// Package compat provides the allocator's compatibility layer: viewport
// change notification, position clamping, and fallback ratios for surfaces
// too narrow or too wide for the regular heuristic.
package compat

import (
	"slices"
	"sync"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

// Fallback ratio sets for extreme aspect ratios.
var (
	// TallRatios serve surfaces with aspect ratio under 0.5.
	TallRatios = zone.Ratios{EdgeMargin: 0.05, CenterZoneSize: 0.3, TransitionZoneWidth: 0.08}
	// WideRatios serve surfaces with aspect ratio over 2.5.
	WideRatios = zone.Ratios{EdgeMargin: 0.04, CenterZoneSize: 0.25, TransitionZoneWidth: 0.06}
)

// Provider implements [zone.Compat].
type Provider struct {
	caps    zone.Capabilities
	padding float64

	mu     sync.Mutex
	nextID int
	subs   map[int]func(zone.Viewport)
	last   zone.Viewport
}

var _ zone.Compat = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithCapabilities sets the host capability flags.
func WithCapabilities(c zone.Capabilities) Option {
	return func(p *Provider) { p.caps = c }
}

// WithPadding keeps clamped positions at least padding units from each side.
func WithPadding(padding float64) Option {
	return func(p *Provider) { p.padding = max(0, padding) }
}

// New creates a provider with no subscribers.
func New(opts ...Option) *Provider {
	p := &Provider{subs: make(map[int]func(zone.Viewport))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capabilities returns the host capability flags.
func (p *Provider) Capabilities() zone.Capabilities { return p.caps }

// ClampPosition pulls pt inside v, inset by the configured padding. When the
// padding exceeds half a dimension the position collapses to that axis' midpoint.
func (p *Provider) ClampPosition(pt zone.Point, v zone.Viewport) zone.Point {
	return zone.Point{
		X: clampAxis(pt.X, v.Width, p.padding),
		Y: clampAxis(pt.Y, v.Height, p.padding),
	}
}

func clampAxis(x, extent, pad float64) float64 {
	if 2*pad >= extent {
		return extent / 2
	}
	return max(pad, min(x, extent-pad))
}

// ExtremeAspectFallback returns the specialised ratios for v.
func (p *Provider) ExtremeAspectFallback(v zone.Viewport) zone.Ratios {
	if v.AspectRatio < 1 {
		return TallRatios
	}
	return WideRatios
}

// OnViewportChange registers cb for every Publish. The returned cancel
// function is idempotent.
func (p *Provider) OnViewportChange(cb func(zone.Viewport)) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = cb
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish notifies every subscriber of a new surface size. Subscribers are
// called outside the provider's lock, in registration order.
func (p *Provider) Publish(width, height float64) zone.Viewport {
	v := zone.NewViewport(width, height)

	p.mu.Lock()
	p.last = v
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	cbs := make([]func(zone.Viewport), 0, len(ids))
	for _, id := range ids {
		cbs = append(cbs, p.subs[id])
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(v)
	}
	return v
}

// Last returns the most recently published viewport.
func (p *Provider) Last() zone.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
