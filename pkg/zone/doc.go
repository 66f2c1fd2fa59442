// Package zone implements the zone-based placement allocator.
//
// An [Allocator] partitions a rectangular surface into a fixed topology of 13
// weighted regions and, for each placement request, draws the region that
// best balances occupancy under the current [Policy]. It adapts to surface
// resizes reported by a [Compat] provider and to performance samples from a
// periodic monitor.
//
// # Topology
//
// Every partition has the same shape, rebuilt from scratch on each
// significant viewport change:
//
//	+-------------------------------------------+
//	|                 edge-top                  |
//	+----+--------+-----------------+--------+--+
//	|    | trans. |   center-top    | trans. |  |
//	|edge+--------+-----------------+--------+ e|
//	|left| center |     center      | center | r|
//	|    |  left  |                 | right  |  |
//	|    +--------+-----------------+--------+  |
//	|    | trans. |  center-bottom  | trans. |  |
//	+----+--------+-----------------+--------+--+
//	|                edge-bottom                |
//	+-------------------------------------------+
//
// # Strategies
//
//   - [StrategyBalanced]: weighted draw with density, idle and center modifiers
//   - [StrategyCenterWeighted]: 70% of draws restricted to center regions
//   - [StrategyEdgeOnly]: draws restricted to edge strips
//   - [StrategyOrganic]: reacts to the last five placements
//
// # Concurrency
//
// The allocator is a single logical actor: public methods and timer
// callbacks are serialised. Timers come from a [Clock]; use [ManualClock] to
// drive them deterministically, and [WithRand] to make draws reproducible.
//
// # Example
//
//	a := zone.New(zone.NewViewport(1920, 1080), pol, compat,
//	    zone.WithRand(zone.NewRand(42)))
//	defer a.Destroy()
//
//	region, point, _ := a.Place()
//	// ... later
//	a.Release(region.ID)
package zone
