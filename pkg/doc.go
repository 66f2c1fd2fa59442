// Package pkg provides the core libraries for zonealloc placement allocation.
//
// # Overview
//
// zonealloc divides a resizable 2D surface into 13 weighted regions and picks
// the region for each new occupant so that density stays balanced. The pkg
// directory is organized into these areas:
//
//  1. [zone] - Partitioning, selection strategies, rebalancing and the allocator
//  2. [policy] - Device tiers and the limits each tier imposes
//  3. [compat] - Position clamping and viewport-change notification
//  4. [observability] - Allocator hooks and telemetry publishers
//  5. [render] - SVG and JSON snapshots of a partition
//  6. [history] - The bounded placement history ring
//  7. [errors] - Structured error codes
//
// # Architecture
//
// The typical data flow through zonealloc:
//
//	Viewport (width, height)
//	         ↓
//	    [zone] AdjustRatios + BuildPartition (13 regions)
//	         ↓
//	    [policy] ApplyWeights (tier factors)
//	         ↓
//	    [zone] Allocator.Place (strategy draw, usage, rebalancing)
//	         ↓
//	    [observability] hooks → logs, Redis, MongoDB, OTLP
//
// # Quick Start
//
// Build an allocator and place an occupant:
//
//	import (
//	    "github.com/matzehuels/zonealloc/pkg/compat"
//	    "github.com/matzehuels/zonealloc/pkg/policy"
//	    "github.com/matzehuels/zonealloc/pkg/zone"
//	)
//
//	provider := compat.New(compat.WithPadding(8))
//	a := zone.New(zone.NewViewport(1920, 1080), policy.Auto(), provider)
//	defer a.Destroy()
//
//	region, point, _ := a.Place()
//	fmt.Println(region.Name, point)
//
//	// Later, when the window changes size:
//	provider.Publish(1080, 1920)
//
// # Concurrency
//
// A [zone.Allocator] serializes every operation behind one lock, so it can
// be shared between goroutines. Timers (resize debounce, rebalance revert,
// monitor) run through an injectable [zone.Clock]; tests use
// [zone.ManualClock] to fire them deterministically.
//
// [zone]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/zone
// [policy]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/policy
// [compat]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/compat
// [observability]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/render
// [history]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/history
// [errors]: https://pkg.go.dev/github.com/matzehuels/zonealloc/pkg/errors
package pkg
