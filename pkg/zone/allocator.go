package zone

import (
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/history"
	"github.com/matzehuels/zonealloc/pkg/observability"
)

// Placement is one entry of the allocator's recent-placement history.
type Placement struct {
	RegionID string    `json:"region_id"`
	Kind     Kind      `json:"kind"`
	At       time.Time `json:"at"`
}

// Stats summarises allocator activity for reporting.
type Stats struct {
	PartitionID string       `json:"partition_id"`
	Generation  int          `json:"generation"`
	Occupants   int          `json:"occupants"`
	Rebalances  int          `json:"rebalances"`
	Fallbacks   int          `json:"fallbacks"`
	RecentKinds map[Kind]int `json:"recent_kinds"`
}

// Allocator owns the region set and answers placement requests.
//
// All methods and all timer callbacks are serialised through one mutex, so
// the allocator behaves as a single logical actor regardless of which
// goroutine calls it. Hooks and the transition callback run while that lock
// is held and must not call back into the allocator.
type Allocator struct {
	mu sync.Mutex

	cfg        Config
	policy     Policy
	compat     Compat
	clock      Clock
	rng        Rand
	logger     *log.Logger
	hooks      observability.AllocatorHooks
	frameRate  func() float64
	transition func(prev []Region, next Viewport)

	viewport    Viewport
	ratios      Ratios
	regions     []*Region
	byID        map[string]*Region
	generation  int
	partitionID string
	dist        Distribution
	history     *history.Ring[Placement]

	belowThreshold bool
	rebalances     int
	fallbacks      int

	pendingViewport Viewport
	debounceTimer   Timer
	debounceSeq     uint64
	revertTimer     Timer
	revertSeq       uint64
	monitorTimer    Timer
	cancels         []func()
	destroyed       bool
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithConfig overrides the configuration. Zero fields keep their defaults.
func WithConfig(cfg Config) Option { return func(a *Allocator) { a.cfg = cfg } }

// WithClock injects the time source and timer scheduler.
func WithClock(c Clock) Option { return func(a *Allocator) { a.clock = c } }

// WithRand injects the random source used for draws and placement points.
func WithRand(r Rand) Option { return func(a *Allocator) { a.rng = r } }

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(a *Allocator) { a.logger = l } }

// WithHooks sets the notification sink. Defaults to observability.Allocator().
func WithHooks(h observability.AllocatorHooks) Option { return func(a *Allocator) { a.hooks = h } }

// WithFrameRate supplies the frame-rate sampler used by the monitor.
func WithFrameRate(f func() float64) Option { return func(a *Allocator) { a.frameRate = f } }

// WithTransitionHook is called with the outgoing regions just before a
// repartition so callers can capture occupant positions.
func WithTransitionHook(f func(prev []Region, next Viewport)) Option {
	return func(a *Allocator) { a.transition = f }
}

// New builds an allocator for viewport v. A nil policy or compat is replaced
// with a conservative built-in implementation. v is re-derived from its width
// and height, so a zero or partially filled Viewport is accepted.
func New(v Viewport, pol Policy, compat Compat, opts ...Option) *Allocator {
	a := &Allocator{
		cfg:       DefaultConfig(),
		policy:    pol,
		compat:    compat,
		clock:     SystemClock{},
		logger:    log.Default(),
		frameRate: func() float64 { return 60 },
		history:   history.New[Placement](HistoryCapacity),
		viewport:  v.normalize(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.policy == nil {
		a.policy = fallbackPolicy{}
	}
	if a.compat == nil {
		a.compat = fallbackCompat{}
	}
	if a.rng == nil {
		a.rng = defaultRand()
	}
	if a.hooks == nil {
		a.hooks = observability.Allocator()
	}

	a.cfg = a.cfg.WithDefaults()
	if err := a.cfg.Validate(); err != nil {
		a.reportFallback(err)
		a.cfg = DefaultConfig()
	}

	a.mu.Lock()
	a.repartitionLocked()
	a.hooks.OnPartitionCreated(a.partitionEventLocked(Viewport{}))
	a.scheduleMonitorLocked()
	a.mu.Unlock()

	a.cancels = append(a.cancels, a.compat.OnViewportChange(a.notifyViewport))
	return a
}

// SelectRegion picks a region using strategy, or the policy's strategy when
// none is given. ok is false only after Destroy.
func (a *Allocator) SelectRegion(strategy ...Strategy) (r Region, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	picked := a.selectLocked(strategy...)
	if picked == nil {
		return Region{}, false
	}
	return *picked, true
}

// Place selects a region, records the usage and returns a placement point.
func (a *Allocator) Place(strategy ...Strategy) (Region, Point, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	picked := a.selectLocked(strategy...)
	if picked == nil {
		return Region{}, Point{}, false
	}
	a.recordLocked(picked)
	return *picked, a.pointLocked(picked), true
}

func (a *Allocator) selectLocked(strategy ...Strategy) *Region {
	if len(a.regions) == 0 {
		a.logger.Debug("select on empty region set", "destroyed", a.destroyed)
		return nil
	}
	s := a.policy.Strategy()
	if len(strategy) > 0 && strategy[0] != "" {
		s = strategy[0]
	}
	sel := selector{
		regions: a.regions,
		dist:    a.dist,
		policy:  a.policy,
		cfg:     a.cfg,
		rng:     a.rng,
		now:     a.clock.Now(),
		recent:  a.history.Last(organicWindow),
	}
	return sel.pick(s)
}

// RecordUsage registers a new occupant in region id. Unknown ids (including
// ids from a superseded partition) are ignored and reported as false.
func (a *Allocator) RecordUsage(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.byID[id]
	if !ok {
		a.logger.Debug("record usage for unknown region", "id", id)
		return false
	}
	a.recordLocked(r)
	return true
}

func (a *Allocator) recordLocked(r *Region) {
	now := a.clock.Now()
	r.RecordUsage(now)
	a.history.Push(Placement{RegionID: r.ID, Kind: r.Kind, At: now})
	a.refreshLocked()

	if limit := a.policy.MaxOccupants(); a.dist.TotalOccupants > limit {
		a.logger.Warn("occupant limit exceeded", "occupants", a.dist.TotalOccupants, "limit", limit)
		a.hooks.OnOccupantLimitExceeded(observability.LimitEvent{
			PartitionID: a.partitionID,
			Occupants:   a.dist.TotalOccupants,
			Limit:       limit,
			Tier:        string(a.policy.Tier()),
		})
	}
}

// Release removes one occupant from region id. Unknown ids are ignored.
func (a *Allocator) Release(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.byID[id]
	if !ok {
		a.logger.Debug("release of unknown region", "id", id)
		return false
	}
	r.Release()
	a.dist = ComputeDistribution(a.regions)
	if a.dist.BalanceScore >= a.cfg.RebalanceThreshold {
		a.belowThreshold = false
	}
	return true
}

// refreshLocked recomputes the distribution and rebalances once per
// downward crossing of the rebalance threshold.
func (a *Allocator) refreshLocked() {
	a.dist = ComputeDistribution(a.regions)
	if a.dist.BalanceScore >= a.cfg.RebalanceThreshold {
		a.belowThreshold = false
		return
	}
	if !a.belowThreshold {
		a.belowThreshold = true
		a.rebalanceLocked("balance")
	}
}

// PlacementPoint returns a position inside r, clamped by the compatibility
// provider. Simple-positioning hosts always get the region center.
func (a *Allocator) PlacementPoint(r Region) Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pointLocked(&r)
}

func (a *Allocator) pointLocked(r *Region) Point {
	p := r.Center()
	if !a.compat.Capabilities().SimplePositioningOnly {
		p = r.RandomPoint(a.rng, a.cfg.PlacementMargin)
	}
	return a.compat.ClampPosition(p, a.viewport)
}

// Regions returns copies of the current regions in topology order.
func (a *Allocator) Regions() []Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Region, len(a.regions))
	for i, r := range a.regions {
		out[i] = *r
	}
	return out
}

// Region returns a copy of the region with id.
func (a *Allocator) Region(id string) (Region, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.byID[id]
	if !ok {
		return Region{}, false
	}
	return *r, true
}

// Distribution returns the current occupancy statistics.
func (a *Allocator) Distribution() Distribution {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.dist
	d.Densities = maps.Clone(a.dist.Densities)
	return d
}

// Viewport returns the snapshot the current partition was built for.
func (a *Allocator) Viewport() Viewport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewport
}

// Ratios returns the ratios the current partition was built with.
func (a *Allocator) Ratios() Ratios {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ratios
}

// Config returns the effective configuration.
func (a *Allocator) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// History returns the recent placements, oldest first.
func (a *Allocator) History() []Placement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.All()
}

// Stats returns activity counters and per-kind counts over the history.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		PartitionID: a.partitionID,
		Generation:  a.generation,
		Occupants:   a.dist.TotalOccupants,
		Rebalances:  a.rebalances,
		Fallbacks:   a.fallbacks,
		RecentKinds: make(map[Kind]int, len(Kinds)),
	}
	for _, p := range a.history.All() {
		s.RecentKinds[p.Kind]++
	}
	return s
}

// Destroy cancels every timer and subscription and discards all region
// state. It is idempotent; no callback touches the allocator afterwards.
func (a *Allocator) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	for _, t := range []Timer{a.debounceTimer, a.revertTimer, a.monitorTimer} {
		if t != nil {
			t.Stop()
		}
	}
	a.debounceTimer, a.revertTimer, a.monitorTimer = nil, nil, nil
	a.regions, a.byID = nil, nil
	a.dist = ComputeDistribution(nil)
	a.history.Reset()
	cancels := a.cancels
	a.cancels = nil
	a.mu.Unlock()

	// Unsubscribe outside the lock: the provider may be mid-notification.
	for _, cancel := range cancels {
		cancel()
	}
	a.logger.Debug("allocator destroyed")
}

// Destroyed reports whether Destroy has been called.
func (a *Allocator) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

// repartitionLocked discards the region set and rebuilds it for a.viewport.
func (a *Allocator) repartitionLocked() {
	ratios, err := AdjustRatios(a.viewport, a.cfg, a.policy, a.compat)
	if err != nil {
		a.reportFallback(err)
		ratios = SafeRatios
	}

	regions, err := BuildPartition(a.viewport, ratios, a.generation+1)
	if err != nil {
		a.reportFallback(err)
		ratios = SafeRatios
		regions, err = BuildPartition(a.viewport, ratios, a.generation+1)
		if err != nil {
			// SafeRatios fit every normalised viewport; failing here is a bug.
			panic(errors.Wrap(errors.ErrCodeInternal, err, "safe partition"))
		}
	}

	a.policy.ApplyWeights(regions)
	a.generation++
	a.partitionID = uuid.NewString()
	a.ratios = ratios
	a.regions = regions
	a.byID = make(map[string]*Region, len(regions))
	for _, r := range regions {
		a.byID[r.ID] = r
	}
	a.dist = ComputeDistribution(regions)
	a.belowThreshold = false
	a.revertSeq++
	if a.revertTimer != nil {
		a.revertTimer.Stop()
		a.revertTimer = nil
	}

	a.logger.Debug("partition built",
		"generation", a.generation,
		"regions", len(regions),
		"width", a.viewport.Width,
		"height", a.viewport.Height,
		"ratios", ratios)
}

func (a *Allocator) partitionEventLocked(prev Viewport) observability.PartitionEvent {
	return observability.PartitionEvent{
		PartitionID:         a.partitionID,
		Generation:          a.generation,
		Regions:             len(a.regions),
		Width:               a.viewport.Width,
		Height:              a.viewport.Height,
		Orientation:         string(a.viewport.Orientation),
		SizeClass:           string(a.viewport.SizeClass),
		Tier:                string(a.policy.Tier()),
		EdgeMargin:          a.ratios.EdgeMargin,
		CenterZoneSize:      a.ratios.CenterZoneSize,
		TransitionZoneWidth: a.ratios.TransitionZoneWidth,
		PrevWidth:           prev.Width,
		PrevHeight:          prev.Height,
	}
}

func (a *Allocator) reportFallback(err error) {
	a.fallbacks++
	a.logger.Warn("using safe partition ratios", "err", err)
	a.hooks.OnConfigFallback(observability.FallbackEvent{
		Width:  a.viewport.Width,
		Height: a.viewport.Height,
		Code:   string(errors.GetCode(err)),
		Reason: errors.UserMessage(err),
	})
}
