package zone

import "math"

// Orientation of the surface.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// SizeClass buckets a surface by its smaller dimension.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeNormal SizeClass = "normal"
	SizeLarge  SizeClass = "large"
)

// Size class thresholds on the smaller viewport dimension.
const (
	smallMaxDim = 600.0
	largeMinDim = 1080.0
)

// Viewport is an immutable snapshot of the placement surface.
type Viewport struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	AspectRatio float64     `json:"aspect_ratio"`
	Orientation Orientation `json:"orientation"`
	SizeClass   SizeClass   `json:"size_class"`
}

// NewViewport derives a snapshot from raw dimensions. Non-positive or
// non-finite dimensions are normalised to 1 so a partition can always be built.
func NewViewport(width, height float64) Viewport {
	width, height = sanitizeDim(width), sanitizeDim(height)

	v := Viewport{
		Width:       width,
		Height:      height,
		AspectRatio: width / height,
		Orientation: Landscape,
	}
	if height > width {
		v.Orientation = Portrait
	}

	switch short := min(width, height); {
	case short < smallMaxDim:
		v.SizeClass = SizeSmall
	case short >= largeMinDim:
		v.SizeClass = SizeLarge
	default:
		v.SizeClass = SizeNormal
	}
	return v
}

// normalize re-derives v from its dimensions. Snapshots that did not come
// from NewViewport may carry zero sizes or stale derived fields.
func (v Viewport) normalize() Viewport { return NewViewport(v.Width, v.Height) }

func sanitizeDim(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 1 {
		return 1
	}
	return d
}

// Bounds returns the full surface rectangle.
func (v Viewport) Bounds() Rect {
	return Rect{MaxX: v.Width, MaxY: v.Height}
}

// MinDimension returns the smaller of width and height.
func (v Viewport) MinDimension() float64 { return min(v.Width, v.Height) }

// SignificantChange reports whether next differs enough from v to require a
// repartition: the orientation flipped, width or height moved by more than
// 10%, or the aspect ratio moved by more than aspectThreshold.
func (v Viewport) SignificantChange(next Viewport, aspectThreshold float64) bool {
	if v.Orientation != next.Orientation {
		return true
	}
	if relChange(v.Width, next.Width) > 0.1 || relChange(v.Height, next.Height) > 0.1 {
		return true
	}
	return math.Abs(v.AspectRatio-next.AspectRatio) > aspectThreshold
}

func relChange(from, to float64) float64 {
	if from == 0 {
		return math.Inf(1)
	}
	return math.Abs(to-from) / from
}
