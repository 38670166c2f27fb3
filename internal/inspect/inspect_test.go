package inspect

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/widget"
)

func testOptions() Options {
	return Options{
		Dataset: &sim.Dataset{
			ActivityUnit: "TJ",
			Pollutants:   []sim.Pollutant{{ID: 5, Name: "PM2.5", Unit: "kt"}},
			Categories: []sim.CategoryRecord{
				{ID: 1, Name: "Road transport"},
				{ID: 2, Name: "Domestic combustion"},
			},
			Values: []sim.Value{
				{Year: 2022, PollutantID: 5, CategoryID: 1, Pollution: 10, Activity: 1000},
				{Year: 2022, PollutantID: 5, CategoryID: 2, Pollution: 40, Activity: 400},
			},
		},
		Selection: widget.Selection{
			Year:        2022,
			PollutantID: 5,
			Categories: []widget.SelectedCategory{
				{ID: 1, Name: "Road transport"},
				{ID: 2, Name: "Domestic combustion"},
			},
		},
	}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	s.Settle(2 * time.Second)
	return s
}

func hasEntry(s *Session, kind, text string) bool {
	for _, e := range s.Entries() {
		if e.Kind == kind && strings.Contains(e.Text, text) {
			return true
		}
	}
	return false
}

func TestNewSession_RequiresDataset(t *testing.T) {
	if _, err := NewSession(context.Background(), Options{}); err == nil {
		t.Fatal("Expected error without a dataset")
	}
}

func TestSession_ReportsReadyAndHeight(t *testing.T) {
	s := newSession(t)

	if !hasEntry(s, "post", "chartReady") {
		t.Error("chartReady was not posted")
	}
	if len(s.Heights()) == 0 {
		t.Fatal("No content height delivered")
	}
	if got := s.Controller.Layout().LastEstimate(); got != 744 {
		t.Errorf("Estimate = %v, want 744", got)
	}
}

func TestSession_ResizeParent(t *testing.T) {
	s := newSession(t)

	s.ResizeParent(-200)
	s.Settle(time.Second)

	if vp, _ := s.Viewport(); vp != 700 {
		t.Errorf("Viewport = %v, want 700", vp)
	}
	if got := s.Controller.Layout().LastEstimate(); got != 544 {
		t.Errorf("Estimate = %v, want 544", got)
	}
	if !hasEntry(s, "parent", "viewport 700") {
		t.Error("Parent metrics not logged")
	}

	s.ResizeParent(-10000)
	if vp, _ := s.Viewport(); vp != 1 {
		t.Errorf("Viewport should not drop below 1, got %v", vp)
	}
}

func TestSession_ToggleComparison(t *testing.T) {
	s := newSession(t)

	if on := s.ToggleComparison(); !on {
		t.Fatal("First toggle should enable the comparison")
	}
	s.Settle(time.Second)
	if !s.Controller.Layout().Visibility().Get() {
		t.Fatal("Comparison not visible")
	}
	if s.View.Markup() == "" {
		t.Error("No comparison markup committed")
	}
	if !hasEntry(s, "suppress", "") {
		t.Error("Showing the comparison should open a suppression window")
	}

	if on := s.ToggleComparison(); on {
		t.Fatal("Second toggle should disable the comparison")
	}
	s.Settle(time.Second)
	if s.Controller.Layout().Visibility().Get() {
		t.Error("Comparison still visible")
	}
}

func TestSession_EntriesAreBounded(t *testing.T) {
	s := newSession(t)
	for i := 0; i < MaxEntries; i++ {
		s.RequestHeight()
	}
	if n := len(s.Entries()); n > MaxEntries {
		t.Errorf("Entries = %d, want at most %d", n, MaxEntries)
	}
}

func TestEntry_String(t *testing.T) {
	e := Entry{At: 150 * time.Millisecond, Kind: "notify", Text: "draw"}
	if got, want := e.String(), "   150ms notify    draw"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Keys(t *testing.T) {
	s := newSession(t)
	m := NewModel(s)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if vp, _ := s.Viewport(); vp != 910 {
		t.Errorf("Viewport after up = %v, want 910", vp)
	}

	next, _ = m.Update(runes("p"))
	m = next.(Model)
	if !m.Paused() {
		t.Error("p should pause")
	}
	before := s.Elapsed()
	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if s.Elapsed() != before {
		t.Error("Paused model advanced the clock")
	}
	if cmd == nil {
		t.Error("Tick should schedule the next tick")
	}

	next, _ = m.Update(runes("s"))
	m = next.(Model)
	if s.Elapsed() != before+Tick {
		t.Errorf("Step advanced %v, want %v", s.Elapsed()-before, Tick)
	}

	_, cmd = m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_View(t *testing.T) {
	s := newSession(t)
	m := NewModel(s)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := next.(Model).View()
	for _, want := range []string{"layout inspector", "parent viewport", "chart height", "744"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}
