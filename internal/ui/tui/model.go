package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kzgceremony/seqdeploy/internal/probe"
)

// historySize is the number of past rounds kept per target.
const historySize = 20

// Model is the Bubble Tea model for the probe dashboard.
type Model struct {
	App      string
	Host     string
	Interval time.Duration

	// Names keeps targets in first-seen order.
	Names   []string
	Latest  map[string]probe.Result
	History map[string][]bool

	Rounds    int
	Probing   bool
	LastRound time.Time
	StartTime time.Time

	SpinnerFrame int

	Width  int
	Height int
	Err    error
	Done   bool
}

// NewWatchModel creates a dashboard for app probed at host.
func NewWatchModel(app, host string, interval time.Duration) Model {
	return Model{
		App:       app,
		Host:      host,
		Interval:  interval,
		Latest:    map[string]probe.Result{},
		History:   map[string][]bool{},
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Done = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case RoundStartMsg:
		m.Probing = true

	case RoundMsg:
		m.applyRound(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyRound(msg RoundMsg) {
	m.Rounds++
	m.Probing = false
	m.LastRound = msg.At
	for _, r := range msg.Results {
		name := r.Target.Name
		if _, seen := m.Latest[name]; !seen {
			m.Names = append(m.Names, name)
		}
		m.Latest[name] = r

		h := append(m.History[name], r.OK())
		if len(h) > historySize {
			h = h[len(h)-historySize:]
		}
		m.History[name] = h
	}
}

// Healthy reports whether every target passed in the latest round.
func (m Model) Healthy() bool {
	if m.Rounds == 0 {
		return false
	}
	for _, r := range m.Latest {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Uptime returns the share of passed checks for name over the kept history.
func (m Model) Uptime(name string) float64 {
	h := m.History[name]
	if len(h) == 0 {
		return 0
	}
	ok := 0
	for _, passed := range h {
		if passed {
			ok++
		}
	}
	return float64(ok) / float64(len(h))
}

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
