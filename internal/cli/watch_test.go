package cli

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/zonealloc/pkg/observability"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

func newTestWatchModel(t *testing.T) (watchModel, *zone.ManualClock) {
	t.Helper()
	cfg := defaultFileConfig()
	clock := zone.NewManualClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s, err := cfg.newSession(zone.NewViewport(defaultWidth, defaultHeight), "medium",
		newLogger(io.Discard, LogInfo), observability.NoopAllocatorHooks{},
		zone.WithClock(clock), zone.WithRand(zone.NewRand(5)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.alloc.Destroy)
	return newWatchModel(s, &fpsMeter{}, watchOpts{tick: defaultTick, maxActive: 3}), clock
}

func update(m watchModel, msg tea.Msg) (watchModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(watchModel), cmd
}

func TestWatchModelPlacesOnTick(t *testing.T) {
	m, _ := newTestWatchModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 48})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		var cmd tea.Cmd
		m, cmd = update(m, tickMsg(start.Add(time.Duration(i)*100*time.Millisecond)))
		if cmd == nil {
			t.Fatal("tick should schedule the next tick")
		}
	}

	if len(m.active) != 3 {
		t.Errorf("active = %d, want max-active 3", len(m.active))
	}
	if got := m.s.alloc.Distribution().TotalOccupants; got != 3 {
		t.Errorf("occupants = %d, want 3 (oldest released)", got)
	}
	if fps := m.meter.get(); fps < 9.9 || fps > 10.1 {
		t.Errorf("fps = %v, want ~10", fps)
	}

	view := m.View()
	if !strings.Contains(view, "●") || !strings.Contains(view, "occupants") {
		t.Errorf("view missing occupants:\n%s", view)
	}
}

func TestWatchModelResize(t *testing.T) {
	m, clock := newTestWatchModel(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 40, Height: 60})
	m, _ = update(m, tickMsg(time.Now()))
	if len(m.active) != 1 {
		t.Fatalf("active = %d, want 1", len(m.active))
	}

	clock.Advance(m.s.alloc.Config().ResizeDebounce)
	m, _ = update(m, tickMsg(time.Now()))

	want := zone.NewViewport(40*cellWidth, (60-watchChromeLines)*cellHeight)
	if m.viewport != want {
		t.Errorf("viewport = %+v, want %+v", m.viewport, want)
	}
	if m.active[0].regionID != "" {
		t.Error("occupants from the old partition should be detached")
	}
	if m.active[1].regionID == "" {
		t.Error("new placement should carry its region")
	}
}

func TestWatchModelKeys(t *testing.T) {
	m, _ := newTestWatchModel(t)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.paused {
		t.Error("space should pause")
	}
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 48})
	m, _ = update(m, tickMsg(time.Now()))
	if len(m.active) != 0 {
		t.Error("paused model should not place")
	}

	for i, want := range append(append([]zone.Strategy{}, zone.Strategies...), "") {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
		got := zone.Strategy("")
		if m.strategyIdx >= 0 {
			got = zone.Strategies[m.strategyIdx]
		}
		if got != want {
			t.Errorf("press %d: strategy = %q, want %q", i+1, got, want)
		}
	}

	before := m.s.alloc.Stats().Rebalances
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.s.alloc.Stats().Rebalances != before+1 {
		t.Error("r should trigger a rebalance")
	}

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
