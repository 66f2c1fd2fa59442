package policy

import (
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

// DefaultDowngradeAfter is how many consecutive slow samples step the tier down.
const DefaultDowngradeAfter = 3

// Tiered is a [zone.Policy] backed by per-tier [Limits].
type Tiered struct {
	mu             sync.Mutex
	tier           zone.Tier
	limits         map[zone.Tier]Limits
	downgradeAfter int
	slowSamples    int
	logger         *log.Logger
}

// Option configures a Tiered policy.
type Option func(*Tiered)

// WithLimits replaces the limits of one tier.
func WithLimits(t zone.Tier, l Limits) Option {
	return func(p *Tiered) { p.limits[t] = l }
}

// WithOverride changes the set fields of one tier's limits and keeps the rest.
func WithOverride(t zone.Tier, o Override) Option {
	return func(p *Tiered) { p.limits[t] = o.Apply(p.limits[t]) }
}

// WithDowngradeAfter sets the consecutive slow-sample count that triggers a
// downgrade. Zero disables downgrading.
func WithDowngradeAfter(n int) Option {
	return func(p *Tiered) { p.downgradeAfter = n }
}

// WithLogger sets the logger used for tier changes.
func WithLogger(l *log.Logger) Option {
	return func(p *Tiered) { p.logger = l }
}

var _ zone.Policy = (*Tiered)(nil)

// New creates a policy starting at tier.
func New(tier zone.Tier, opts ...Option) *Tiered {
	p := &Tiered{
		tier:           tier,
		limits:         Presets(),
		downgradeAfter: DefaultDowngradeAfter,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if _, ok := p.limits[p.tier]; !ok {
		p.tier = zone.TierMedium
	}
	return p
}

// Auto creates a policy for the detected device.
func Auto(opts ...Option) *Tiered {
	return New(Classify(DetectDevice()), opts...)
}

func (p *Tiered) current() Limits {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limits[p.tier]
}

// Limits returns the active tier's limits.
func (p *Tiered) Limits() Limits {
	l := p.current()
	l.KindWeights = maps.Clone(l.KindWeights)
	return l
}

func (p *Tiered) Tier() zone.Tier {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tier
}

func (p *Tiered) MaxOccupants() int            { return p.current().MaxOccupants }
func (p *Tiered) MaxDensity() float64          { return p.current().MaxDensity }
func (p *Tiered) CenterPlacementEnabled() bool { return p.current().CenterPlacement }
func (p *Tiered) ComplexPathsEnabled() bool    { return p.current().ComplexPaths }

// MonitorInterval returns the active tier's sampling cadence. Zero lets the
// allocator use its configured interval.
func (p *Tiered) MonitorInterval() time.Duration { return p.current().MonitorInterval }

func (p *Tiered) Strategy() zone.Strategy {
	if s := p.current().Strategy; s != "" {
		return s
	}
	return zone.StrategyBalanced
}

// ApplyWeights sets each region's weight to its base weight times the tier's
// factor for the region's kind.
func (p *Tiered) ApplyWeights(regions []*zone.Region) {
	factors := p.current().KindWeights
	for _, r := range regions {
		f, ok := factors[r.Kind]
		if !ok {
			f = 1
		}
		r.Weight = r.BaseWeight * f
	}
}

// Monitor reports whether the sample exceeds the tier's limits. Sustained
// low frame rates step the tier down one level.
func (p *Tiered) Monitor(frameRate float64, occupants int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := p.limits[p.tier]
	slow := frameRate > 0 && frameRate < l.MinFrameRate
	exceeded := occupants > l.MaxOccupants || slow

	if !slow {
		p.slowSamples = 0
		return exceeded
	}
	p.slowSamples++
	if p.downgradeAfter > 0 && p.slowSamples >= p.downgradeAfter {
		if idx := tierIndex(p.tier); idx > 0 {
			from := p.tier
			p.tier = tierOrder[idx-1]
			p.logger.Warn("downgrading performance tier",
				"from", from, "to", p.tier, "fps", frameRate)
		}
		p.slowSamples = 0
	}
	return exceeded
}
