package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

const regionCSS = `
    .region { stroke: #333; stroke-width: 1; transition: fill-opacity 0.2s ease; }
    .region:hover { fill-opacity: 0.9; }
    .region-label { font-family: monospace; font-size: 11px; fill: #222; pointer-events: none; }
    .point { fill: #d62728; }`

// kindFill is the base color per region kind.
var kindFill = map[zone.Kind]string{
	zone.KindCenter:     "#1f77b4",
	zone.KindTransition: "#ff7f0e",
	zone.KindEdge:       "#2ca02c",
}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	heatmap bool
	labels  bool
	title   string
}

func WithHeatmap() SVGOption           { return func(r *svgRenderer) { r.heatmap = true } }
func WithLabels() SVGOption            { return func(r *svgRenderer) { r.labels = true } }
func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

// RenderSVG draws the snapshot's regions at viewport scale. With
// [WithHeatmap] each region's opacity follows its density relative to the
// densest region; otherwise all regions share one opacity.
func RenderSVG(s Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := s.Viewport.Width, s.Viewport.Height
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", regionCSS)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#fafafa"/>`+"\n", w, h)

	peak := s.maxDensity()
	for _, reg := range s.Regions {
		renderRegion(&buf, reg, r.opacity(s.Distribution.Densities[reg.ID], peak))
	}
	if r.labels {
		for _, reg := range s.Regions {
			renderLabel(&buf, reg)
		}
	}
	for _, p := range s.Points {
		fmt.Fprintf(&buf, `  <circle class="point" cx="%.1f" cy="%.1f" r="3"/>`+"\n", p.X, p.Y)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) opacity(density, peak float64) float64 {
	if !r.heatmap {
		return 0.35
	}
	if peak <= 0 {
		return 0.1
	}
	return 0.1 + 0.8*density/peak
}

func renderRegion(buf *bytes.Buffer, reg zone.Region, opacity float64) {
	b := reg.Bounds
	fmt.Fprintf(buf, `  <rect id="region-%s" class="region" data-kind="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="%.2f">`,
		html.EscapeString(reg.Name), reg.Kind, b.MinX, b.MinY, b.Width(), b.Height(), kindFill[reg.Kind], opacity)
	fmt.Fprintf(buf, "<title>%s: %d active, weight %.2f</title></rect>\n",
		html.EscapeString(reg.Name), reg.ActiveOccupants, reg.Weight)
}

func renderLabel(buf *bytes.Buffer, reg zone.Region) {
	c := reg.Center()
	fmt.Fprintf(buf, `  <text class="region-label" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s (%d)</text>`+"\n",
		c.X, c.Y, html.EscapeString(reg.Name), reg.ActiveOccupants)
}
