package zone

import (
	"time"
)

// Selection weight multipliers.
const (
	crowdedPenalty    = 0.3
	overCeilingFactor = 0.2
	idleBoost         = 1.5
	centerBoost       = 2.0

	// centerUtilizationFloor is the center share under which center regions are boosted.
	centerUtilizationFloor = 0.3
	// centerShare is the probability a center-weighted draw targets center regions.
	centerShare = 0.7
	// organicWindow is how many recent placements the organic strategy inspects.
	organicWindow = 5
)

// selector holds everything one draw needs. It is built under the
// allocator's lock and discarded after the draw.
type selector struct {
	regions []*Region
	dist    Distribution
	policy  Policy
	cfg     Config
	rng     Rand
	now     time.Time
	recent  []Placement
}

func (s *selector) pick(strategy Strategy) *Region {
	switch strategy {
	case StrategyCenterWeighted:
		return s.centerWeighted()
	case StrategyEdgeOnly:
		return s.edgeOnly()
	case StrategyOrganic:
		return s.organic()
	default:
		return s.balanced(s.regions)
	}
}

// adjustedWeight applies density, idle, and center-utilisation modifiers to
// the region's current weight.
func (s *selector) adjustedWeight(r *Region) float64 {
	w := r.Weight
	density := r.Density()
	if density > s.dist.MeanDensity*s.cfg.MaxDensityRatio {
		w *= crowdedPenalty
		if density > s.policy.MaxDensity() {
			w *= overCeilingFactor
		}
	}
	if r.IdleFor(s.now, s.cfg.IdleThreshold) {
		w *= idleBoost
	}
	if r.Kind == KindCenter && s.dist.CenterUtilization < centerUtilizationFloor && s.policy.CenterPlacementEnabled() {
		w *= centerBoost
	}
	return w
}

// balanced draws from candidates proportionally to their adjusted weight.
func (s *selector) balanced(candidates []*Region) *Region {
	if len(candidates) == 0 {
		candidates = s.regions
	}
	if len(candidates) == 0 {
		return nil
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, r := range candidates {
		weights[i] = max(0, s.adjustedWeight(r))
		total += weights[i]
	}
	if total <= 0 {
		return candidates[0]
	}

	draw := s.rng.Float64() * total
	var cum float64
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		last = i
		if cum >= draw {
			return candidates[i]
		}
	}
	// Rounding left the draw past the final cumulative sum; the last
	// positive-weight candidate owns that sliver of the range.
	return candidates[last]
}

func (s *selector) centerWeighted() *Region {
	if !s.policy.CenterPlacementEnabled() {
		return s.edgeOnly()
	}
	centers, rest := partitionByKind(s.regions, KindCenter)
	if s.rng.Float64() < centerShare && len(centers) > 0 {
		return s.balanced(centers)
	}
	return s.balanced(rest)
}

func (s *selector) edgeOnly() *Region {
	edges, _ := partitionByKind(s.regions, KindEdge)
	return s.balanced(edges)
}

func (s *selector) organic() *Region {
	if !s.policy.ComplexPathsEnabled() || len(s.recent) < organicWindow {
		return s.balanced(s.regions)
	}

	allEdge, allCenter := true, true
	for _, p := range s.recent {
		allEdge = allEdge && p.Kind == KindEdge
		allCenter = allCenter && p.Kind == KindCenter
	}

	switch {
	case allEdge && s.policy.CenterPlacementEnabled():
		return s.centerWeighted()
	case allCenter:
		transitions, _ := partitionByKind(s.regions, KindTransition)
		return s.balanced(transitions)
	default:
		return s.balanced(s.regions)
	}
}

func partitionByKind(regions []*Region, kind Kind) (match, rest []*Region) {
	for _, r := range regions {
		if r.Kind == kind {
			match = append(match, r)
		} else {
			rest = append(rest, r)
		}
	}
	return match, rest
}
