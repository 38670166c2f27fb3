package inspect

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naei/bubblechart/pkg/layout"
)

// Tick is the simulated time advanced per step.
const Tick = 50 * time.Millisecond

var (
	primaryColor = lipgloss.Color("#3b82f6")
	mutedColor   = lipgloss.Color("#94a3b8")
	warningColor = lipgloss.Color("#f59e0b")
	successColor = lipgloss.Color("#10b981")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(16)
	valueStyle = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	logStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	kindStyles = map[string]lipgloss.Style{
		string(layout.EventNotify):   lipgloss.NewStyle().Foreground(successColor),
		string(layout.EventSuppress): lipgloss.NewStyle().Foreground(warningColor),
		string(layout.EventIgnore):   lipgloss.NewStyle().Foreground(warningColor),
		"post":                       lipgloss.NewStyle().Foreground(primaryColor),
	}
)

// KeyMap defines the inspector shortcuts.
type KeyMap struct {
	Grow       key.Binding
	Shrink     key.Binding
	Comparison key.Binding
	Request    key.Binding
	Observer   key.Binding
	Step       key.Binding
	Pause      key.Binding
	Quit       key.Binding
}

// DefaultKeyMap is the inspector's key map.
var DefaultKeyMap = KeyMap{
	Grow:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "viewport +10")),
	Shrink:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "viewport -10")),
	Comparison: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle comparison")),
	Request:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "requestHeight")),
	Observer:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "observer tick")),
	Step:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "step")),
	Pause:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grow, k.Shrink, k.Comparison, k.Request, k.Observer, k.Pause, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Grow, k.Shrink, k.Comparison}, {k.Request, k.Observer, k.Step, k.Pause, k.Quit}}
}

type tickMsg time.Time

// Model is the bubbletea model of the inspector.
type Model struct {
	session *Session
	help    help.Model
	paused  bool
	width   int
	height  int
}

// NewModel returns a model driving s.
func NewModel(s *Session) Model {
	return Model{session: s, help: help.New()}
}

// Paused reports whether automatic stepping is off.
func (m Model) Paused() bool { return m.paused }

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if !m.paused {
			m.session.Step(Tick)
		}
		return m, tick()

	case tea.KeyMsg:
		s := m.session
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Grow):
			s.ResizeParent(10)
		case key.Matches(msg, DefaultKeyMap.Shrink):
			s.ResizeParent(-10)
		case key.Matches(msg, DefaultKeyMap.Comparison):
			s.ToggleComparison()
		case key.Matches(msg, DefaultKeyMap.Request):
			s.RequestHeight()
		case key.Matches(msg, DefaultKeyMap.Observer):
			s.WrapperTick()
		case key.Matches(msg, DefaultKeyMap.Step):
			s.Step(Tick)
		case key.Matches(msg, DefaultKeyMap.Pause):
			m.paused = !m.paused
		}
	}
	return m, nil
}

func (m Model) View() string {
	s := m.session
	coord := s.Controller.Layout()
	vp, footer := s.Viewport()

	heights := s.Heights()
	last := "none"
	if len(heights) > 0 {
		last = fmt.Sprintf("%d (%d sent)", heights[len(heights)-1], len(heights))
	}
	state := "running"
	if m.paused {
		state = "paused"
	}

	rows := [][2]string{
		{"time", fmt.Sprintf("%dms (%s)", s.Elapsed().Milliseconds(), state)},
		{"parent viewport", fmt.Sprintf("%.0f / footer %.0f", vp, footer)},
		{"chart height", fmt.Sprintf("%.0f", coord.LastEstimate())},
		{"comparison", fmt.Sprintf("%v (pending %v)", coord.Visibility().Get(), coord.PendingComparison())},
		{"suppressed", fmt.Sprintf("%v %dms", coord.Suppression.ShouldIgnore(), coord.Suppression.Remaining().Milliseconds())},
		{"content height", last},
	}
	var status strings.Builder
	for _, r := range rows {
		status.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}

	logLines := m.height - len(rows) - 8
	if logLines < 5 {
		logLines = 12
	}
	entries := s.Entries()
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	var events strings.Builder
	for _, e := range entries {
		style, ok := kindStyles[e.Kind]
		if !ok {
			style = logStyle
		}
		events.WriteString(style.Render(e.String()) + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("bubblechart layout inspector"),
		boxStyle.Render(strings.TrimSuffix(status.String(), "\n")),
		strings.TrimSuffix(events.String(), "\n"),
		m.help.View(DefaultKeyMap),
	)
}
