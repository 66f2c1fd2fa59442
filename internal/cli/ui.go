package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, edge regions
	colorYellow = lipgloss.Color("220") // Amber - warnings, transition regions
	colorBlue   = lipgloss.Color("75")  // Light blue - center regions
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// kindStyles colors regions by kind in tables and the watch view.
var kindStyles = map[zone.Kind]lipgloss.Style{
	zone.KindCenter:     lipgloss.NewStyle().Foreground(colorBlue),
	zone.KindTransition: lipgloss.NewStyle().Foreground(colorYellow),
	zone.KindEdge:       lipgloss.NewStyle().Foreground(colorGreen),
}

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Tables
// =============================================================================

// regionTable renders one row per region in topology order.
func regionTable(regions []zone.Region, dist zone.Distribution) string {
	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		b := r.Bounds
		rows = append(rows, []string{
			r.Name,
			string(r.Kind),
			fmt.Sprintf("%.0f,%.0f", b.MinX, b.MinY),
			fmt.Sprintf("%.0fx%.0f", b.Width(), b.Height()),
			strconv.FormatFloat(r.Weight, 'f', 2, 64),
			strconv.Itoa(r.ActiveOccupants),
			fmt.Sprintf("%.2e", dist.Densities[r.ID]),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Region", "Kind", "Origin", "Size", "Weight", "Active", "Density").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col <= 1 && row < len(regions) {
				return kindStyles[regions[row].Kind]
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// countTable renders label/count pairs with their share of the total,
// largest first.
func countTable(title string, counts map[string]int) string {
	total := 0
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		keys = append(keys, k)
		total += n
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		share := 0.0
		if total > 0 {
			share = 100 * float64(counts[k]) / float64(total)
		}
		rows = append(rows, []string{k, strconv.Itoa(counts[k]), fmt.Sprintf("%.1f%%", share)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(title, "Count", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col > 0 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
