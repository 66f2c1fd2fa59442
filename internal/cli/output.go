package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/render"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatSVG   = "svg"
)

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatTable: true, formatJSON: true, formatSVG: true}

func validateFormat(f string) error {
	if !validFormats[f] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'table', 'json' or 'svg')", f)
	}
	return nil
}

// snapshotOpts carries the context recorded alongside a rendered snapshot.
type snapshotOpts struct {
	tier     zone.Tier
	strategy zone.Strategy
	seed     uint64
	title    string
}

// writeSnapshot renders s in format to path, or to w when path is empty.
// Table output always goes to w.
func writeSnapshot(w io.Writer, s render.Snapshot, format, path string, o snapshotOpts) error {
	var data []byte
	switch format {
	case formatJSON:
		out, err := render.RenderJSON(s,
			render.WithJSONTier(o.tier),
			render.WithJSONStrategy(o.strategy),
			render.WithJSONSeed(o.seed))
		if err != nil {
			return err
		}
		data = out
	case formatSVG:
		data = render.RenderSVG(s, render.WithHeatmap(), render.WithLabels(), render.WithTitle(o.title))
	default:
		printSnapshotTable(w, s, o)
		return nil
	}

	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess(w, "Wrote %s", strings.ToUpper(format))
	printFile(w, path)
	return nil
}

func printSnapshotTable(w io.Writer, s render.Snapshot, o snapshotOpts) {
	v := s.Viewport
	fmt.Fprintln(w, StyleTitle.Render(o.title))
	printKeyValue(w, "Viewport", fmt.Sprintf("%.0fx%.0f %s %s", v.Width, v.Height, v.Orientation, v.SizeClass))
	printKeyValue(w, "Ratios", fmt.Sprintf("edge %.3f  center %.3f  transition %.3f",
		s.Ratios.EdgeMargin, s.Ratios.CenterZoneSize, s.Ratios.TransitionZoneWidth))
	if o.tier != "" {
		printKeyValue(w, "Tier", string(o.tier))
	}
	printKeyValue(w, "Partition", fmt.Sprintf("%s (generation %d)", s.Stats.PartitionID, s.Stats.Generation))
	printKeyValue(w, "Balance", StyleNumber.Render(fmt.Sprintf("%.3f", s.Distribution.BalanceScore)))
	fmt.Fprintln(w, regionTable(s.Regions, s.Distribution))
}
