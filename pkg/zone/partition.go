package zone

import (
	"fmt"

	"github.com/matzehuels/zonealloc/pkg/errors"
)

// Topology slot names. The partition always contains exactly these 13 regions.
const (
	NameCenter       = "center"
	NameCenterTop    = "center-top"
	NameCenterBottom = "center-bottom"
	NameCenterLeft   = "center-left"
	NameCenterRight  = "center-right"

	NameEdgeTop    = "edge-top"
	NameEdgeBottom = "edge-bottom"
	NameEdgeLeft   = "edge-left"
	NameEdgeRight  = "edge-right"

	NameTransitionTopLeft     = "transition-top-left"
	NameTransitionTopRight    = "transition-top-right"
	NameTransitionBottomLeft  = "transition-bottom-left"
	NameTransitionBottomRight = "transition-bottom-right"
)

// RegionCount is the size of every partition.
const RegionCount = 13

// Topology base weights.
const (
	weightCenterPrimary = 2.0
	weightCenterSub     = 1.5
	weightTransition    = 1.2
	weightEdge          = 1.0
)

// BuildPartition lays out the fixed 13-region topology for v.
//
// Edge strips of EdgeMargin thickness run along each side. A centered box of
// CenterZoneSize is surrounded by a band of TransitionZoneWidth; the band is
// cut into a 3x3 grid whose side cells are the center sub-regions and whose
// corner cells are the diagonal transition regions. The band is clamped so it
// never enters the edge strips. Region IDs are prefixed with the generation.
func BuildPartition(v Viewport, r Ratios, generation int) ([]*Region, error) {
	if err := errors.ValidateDimension("width", v.Width); err != nil {
		return nil, err
	}
	if err := errors.ValidateDimension("height", v.Height); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	w, h := v.Width, v.Height
	ex, ey := r.EdgeMargin*w, r.EdgeMargin*h

	cx0 := (w - r.CenterZoneSize*w) / 2
	cx1 := w - cx0
	cy0 := (h - r.CenterZoneSize*h) / 2
	cy1 := h - cy0

	tw := min(r.TransitionZoneWidth*w, cx0-ex)
	th := min(r.TransitionZoneWidth*h, cy0-ey)
	bx0, bx1 := cx0-tw, cx1+tw
	by0, by1 := cy0-th, cy1+th

	prefix := fmt.Sprintf("p%d/", generation)
	mk := func(name string, kind Kind, weight float64, b Rect) *Region {
		return &Region{
			ID:         prefix + name,
			Name:       name,
			Kind:       kind,
			Bounds:     b,
			BaseWeight: weight,
			Weight:     weight,
		}
	}

	regions := []*Region{
		mk(NameCenter, KindCenter, weightCenterPrimary, Rect{cx0, cx1, cy0, cy1}),
		mk(NameCenterTop, KindCenter, weightCenterSub, Rect{cx0, cx1, by0, cy0}),
		mk(NameCenterBottom, KindCenter, weightCenterSub, Rect{cx0, cx1, cy1, by1}),
		mk(NameCenterLeft, KindCenter, weightCenterSub, Rect{bx0, cx0, cy0, cy1}),
		mk(NameCenterRight, KindCenter, weightCenterSub, Rect{cx1, bx1, cy0, cy1}),

		mk(NameEdgeTop, KindEdge, weightEdge, Rect{0, w, 0, ey}),
		mk(NameEdgeBottom, KindEdge, weightEdge, Rect{0, w, h - ey, h}),
		mk(NameEdgeLeft, KindEdge, weightEdge, Rect{0, ex, ey, h - ey}),
		mk(NameEdgeRight, KindEdge, weightEdge, Rect{w - ex, w, ey, h - ey}),

		mk(NameTransitionTopLeft, KindTransition, weightTransition, Rect{bx0, cx0, by0, cy0}),
		mk(NameTransitionTopRight, KindTransition, weightTransition, Rect{cx1, bx1, by0, cy0}),
		mk(NameTransitionBottomLeft, KindTransition, weightTransition, Rect{bx0, cx0, cy1, by1}),
		mk(NameTransitionBottomRight, KindTransition, weightTransition, Rect{cx1, bx1, cy1, by1}),
	}

	for _, reg := range regions {
		if !reg.Bounds.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidRatios,
				"degenerate region %s (%.2fx%.2f) for %.0fx%.0f viewport",
				reg.Name, reg.Bounds.Width(), reg.Bounds.Height(), w, h)
		}
	}
	return regions, nil
}
