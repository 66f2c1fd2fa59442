package zone

import (
	"github.com/matzehuels/zonealloc/pkg/errors"
)

// Aspect ratios outside [extremeTallAspect, extremeWideAspect] use the
// compatibility provider's specialised ratio set.
const (
	extremeTallAspect = 0.5
	extremeWideAspect = 2.5

	// Aspect ratios beyond these (but not extreme) narrow the center and band.
	wideAspect = 1.8
	tallAspect = 1 / wideAspect
)

// AdjustRatios derives partition ratios for v from the configured base
// ratios. Panics raised by the providers are recovered and returned as
// INTERNAL_ERROR so callers can substitute [SafeRatios].
func AdjustRatios(v Viewport, cfg Config, pol Policy, compat Compat) (r Ratios, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = Ratios{}, errors.FromPanic(p, "ratio computation for %.0fx%.0f", v.Width, v.Height)
		}
	}()

	if v.AspectRatio < extremeTallAspect || v.AspectRatio > extremeWideAspect {
		r = compat.ExtremeAspectFallback(v)
		if err := r.Validate(); err != nil {
			return Ratios{}, errors.Wrap(errors.ErrCodeInvalidRatios, err, "extreme-aspect fallback")
		}
		return r, nil
	}

	r = cfg.Ratios
	class := v.SizeClass
	if compat.Capabilities().VeryCompactViewport {
		class = SizeSmall
	}
	switch class {
	case SizeSmall:
		r.EdgeMargin *= 0.6
		r.CenterZoneSize *= 1.2
		r.TransitionZoneWidth *= 1.2
	case SizeLarge:
		r.CenterZoneSize *= 0.9
	}

	if v.AspectRatio > wideAspect || v.AspectRatio < tallAspect {
		r.CenterZoneSize *= 0.9
		r.TransitionZoneWidth *= 0.8
	}

	if v.Orientation == Portrait {
		r.CenterZoneSize *= 1.1
	}
	if !pol.CenterPlacementEnabled() {
		r.CenterZoneSize *= 0.8
	}

	if cfg.MinRegionPixelSize > 0 {
		if r, err = fitPixelFloor(r, v, cfg.MinRegionPixelSize); err != nil {
			return Ratios{}, err
		}
	}

	if err := r.Validate(); err != nil {
		return Ratios{}, err
	}
	return r, nil
}

// fitPixelFloor raises the edge and band ratios to at least px pixels on the
// shorter side and gives the center whatever remains, never less than px.
func fitPixelFloor(r Ratios, v Viewport, px float64) (Ratios, error) {
	floor := px / v.MinDimension()
	if 5*floor > 1 {
		return Ratios{}, errors.New(errors.ErrCodeInvalidViewport,
			"%.0fx%.0f viewport too small for %.0fpx regions", v.Width, v.Height, px)
	}
	r.EdgeMargin = max(r.EdgeMargin, floor)
	r.TransitionZoneWidth = max(r.TransitionZoneWidth, floor)
	if 2*r.EdgeMargin+2*r.TransitionZoneWidth+floor > 1 {
		// Base ratios already too wide for this surface: fall back to the floors.
		r.EdgeMargin, r.TransitionZoneWidth = floor, floor
	}
	r.CenterZoneSize = min(max(r.CenterZoneSize, floor), 1-2*r.EdgeMargin-2*r.TransitionZoneWidth)
	return r, nil
}
