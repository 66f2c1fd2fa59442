// Package render turns allocator state into shareable artifacts.
//
// # Overview
//
// A [Snapshot] captures everything needed to draw or export one partition:
// the viewport, the ratios it was built with, every region and the current
// occupancy distribution. Two sinks consume it:
//
//   - [RenderSVG]: an overlay of the 13 regions, optionally shaded by density
//   - [RenderJSON]: a pretty-printed document for external tooling
//
//	snap := render.SnapshotOf(alloc)
//	svg := render.RenderSVG(snap, render.WithHeatmap(), render.WithLabels())
//	doc, err := render.RenderJSON(snap, render.WithJSONSeed(42))
//
// Both sinks are pure: they never touch the allocator and are safe to call
// concurrently.
package render
