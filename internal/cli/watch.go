package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zonealloc/pkg/zone"
)

const (
	// cellWidth and cellHeight convert terminal cells to surface units, so a
	// typical terminal maps onto a desktop-sized surface.
	cellWidth  = 12
	cellHeight = 24

	watchChromeLines = 3 // header, status and help lines
	defaultTick      = 100 * time.Millisecond
	defaultMaxActive = 150
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	tick      time.Duration
	maxActive int
	strategy  string
	tier      string
	logFile   string
}

// watchCommand runs an interactive surface that follows the terminal size.
func (c *CLI) watchCommand() *cobra.Command {
	opts := watchOpts{
		tick:      defaultTick,
		maxActive: defaultMaxActive,
	}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch placements live in the terminal",
		Long: `Watch maps the terminal onto a placement surface and keeps placing occupants.
Resizing the terminal resizes the surface; the allocator debounces the change
and rebuilds its regions. Logs go to --log-file since the screen is taken.

Keys: space pause, r rebalance, s next strategy, c clear, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.tick, "tick", opts.tick, "time between placements")
	cmd.Flags().IntVar(&opts.maxActive, "max-active", opts.maxActive, "occupants kept before the oldest is released")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "initial selection strategy (default: the tier's strategy)")
	cmd.Flags().StringVar(&opts.tier, "tier", "", "device tier: low, medium, high or auto (overrides config)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file")

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, opts watchOpts) error {
	ctx := cmd.Context()

	var logOut io.Writer = io.Discard
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, c.Logger.GetLevel())

	strategyIdx := -1
	if opts.strategy != "" {
		s, err := zone.ParseStrategy(opts.strategy)
		if err != nil {
			return err
		}
		strategyIdx = indexOfStrategy(s)
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	tel, err := setupTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.close(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	meter := &fpsMeter{}
	s, err := cfg.newSession(zone.NewViewport(defaultWidth, defaultHeight), opts.tier, logger, tel.hooks,
		zone.WithFrameRate(meter.get))
	if err != nil {
		return err
	}
	defer s.alloc.Destroy()

	m := newWatchModel(s, meter, opts)
	m.strategyIdx = strategyIdx
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func indexOfStrategy(s zone.Strategy) int {
	for i, known := range zone.Strategies {
		if known == s {
			return i
		}
	}
	return -1
}

// fpsMeter publishes the measured tick rate to the allocator's monitor,
// which samples it from a timer goroutine.
type fpsMeter struct {
	bits atomic.Uint64
}

func (f *fpsMeter) set(fps float64) { f.bits.Store(math.Float64bits(fps)) }

func (f *fpsMeter) get() float64 { return math.Float64frombits(f.bits.Load()) }

// =============================================================================
// watchModel - Interactive placement view
// =============================================================================

type tickMsg time.Time

// occupant is one placement shown on screen.
type occupant struct {
	regionID string
	kind     zone.Kind
	point    zone.Point
}

type watchModel struct {
	s     *session
	meter *fpsMeter
	opts  watchOpts

	cols, rows  int // drawable cells
	viewport    zone.Viewport
	generation  int
	active      []occupant
	strategyIdx int // -1 uses the policy's strategy
	paused      bool
	lastTick    time.Time
}

func newWatchModel(s *session, meter *fpsMeter, opts watchOpts) watchModel {
	stats := s.alloc.Stats()
	return watchModel{
		s:           s,
		meter:       meter,
		opts:        opts,
		viewport:    s.alloc.Viewport(),
		generation:  stats.Generation,
		strategyIdx: -1,
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.opts.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case "r":
			m.s.alloc.TriggerRebalancing()
		case "s":
			m.strategyIdx++
			if m.strategyIdx >= len(zone.Strategies) {
				m.strategyIdx = -1
			}
		case "c":
			m.clear()
		}

	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, 1)
		m.rows = max(msg.Height-watchChromeLines, 1)
		m.s.compat.Publish(float64(m.cols*cellWidth), float64(m.rows*cellHeight))

	case tickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
				m.meter.set(1 / dt)
			}
		}
		m.lastTick = now
		m.syncGeneration()
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// syncGeneration follows a repartition. Occupancy does not carry over to the
// new regions, so the active list is rescaled for display and detached from
// the old IDs.
func (m *watchModel) syncGeneration() {
	gen := m.s.alloc.Stats().Generation
	if gen == m.generation {
		return
	}
	next := m.s.alloc.Viewport()
	sx, sy := next.Width/m.viewport.Width, next.Height/m.viewport.Height
	for i := range m.active {
		m.active[i].point.X *= sx
		m.active[i].point.Y *= sy
		m.active[i].regionID = ""
	}
	m.generation, m.viewport = gen, next
}

func (m *watchModel) step() {
	var strategy []zone.Strategy
	if m.strategyIdx >= 0 {
		strategy = append(strategy, zone.Strategies[m.strategyIdx])
	}
	r, p, ok := m.s.alloc.Place(strategy...)
	if !ok {
		return
	}
	m.active = append(m.active, occupant{regionID: r.ID, kind: r.Kind, point: p})
	for len(m.active) > m.opts.maxActive {
		if id := m.active[0].regionID; id != "" {
			m.s.alloc.Release(id)
		}
		m.active = m.active[1:]
	}
}

func (m *watchModel) clear() {
	for _, o := range m.active {
		if o.regionID != "" {
			m.s.alloc.Release(o.regionID)
		}
	}
	m.active = nil
}

func (m watchModel) strategyName() string {
	if m.strategyIdx < 0 {
		return string(m.s.policy.Strategy()) + " (tier)"
	}
	return string(zone.Strategies[m.strategyIdx])
}

func (m watchModel) View() string {
	if m.cols == 0 {
		return StyleDim.Render("waiting for terminal size…")
	}

	var b strings.Builder
	v := m.viewport
	dist := m.s.alloc.Distribution()
	stats := m.s.alloc.Stats()

	b.WriteString(StyleTitle.Render("zonealloc watch"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %.0fx%.0f %s  tier %s  strategy %s",
		v.Width, v.Height, v.SizeClass, m.s.policy.Tier(), m.strategyName())))
	b.WriteString("\n")
	b.WriteString(m.grid())
	b.WriteString("\n")

	status := fmt.Sprintf("occupants %s  balance %s  center %s  rebalances %s  generation %s",
		StyleNumber.Render(fmt.Sprint(dist.TotalOccupants)),
		StyleNumber.Render(fmt.Sprintf("%.2f", dist.BalanceScore)),
		StyleNumber.Render(fmt.Sprintf("%.0f%%", 100*dist.CenterUtilization)),
		StyleNumber.Render(fmt.Sprint(stats.Rebalances)),
		StyleNumber.Render(fmt.Sprint(stats.Generation)))
	if m.paused {
		status += "  " + StyleWarning.Render("paused")
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space pause  r rebalance  s strategy  c clear  q quit"))
	return b.String()
}

// grid draws one character per cell, colored by the region kind under the
// cell center. Cells holding an occupant show a dot.
func (m watchModel) grid() string {
	regions := m.s.alloc.Regions()
	sx := m.viewport.Width / float64(m.cols)
	sy := m.viewport.Height / float64(m.rows)

	occupied := make(map[[2]int]bool, len(m.active))
	for _, o := range m.active {
		col := int(o.point.X / sx)
		row := int(o.point.Y / sy)
		occupied[[2]int{min(col, m.cols-1), min(row, m.rows-1)}] = true
	}

	var b strings.Builder
	for row := 0; row < m.rows; row++ {
		var run strings.Builder
		var runKind zone.Kind
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(styleForKind(runKind).Render(run.String()))
			run.Reset()
		}
		for col := 0; col < m.cols; col++ {
			p := zone.Point{X: (float64(col) + 0.5) * sx, Y: (float64(row) + 0.5) * sy}
			kind := kindAt(regions, p)
			if kind != runKind {
				flush()
				runKind = kind
			}
			if occupied[[2]int{col, row}] {
				run.WriteString("●")
			} else {
				run.WriteString("·")
			}
		}
		flush()
		if row < m.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func kindAt(regions []zone.Region, p zone.Point) zone.Kind {
	for _, r := range regions {
		if r.Contains(p) {
			return r.Kind
		}
	}
	return ""
}

func styleForKind(k zone.Kind) lipgloss.Style {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return StyleDim
}
