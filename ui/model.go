// Package ui runs the scheduler under bubbletea, for terminals that want
// the full-screen program with lipgloss styling.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/ftahirops/ptop/engine"
	"github.com/ftahirops/ptop/util"
)

// tickMsg asks for the next frame. A key that forces a refresh starts a
// new tick chain; ticks from the old chain carry a stale id and are
// dropped.
type tickMsg struct{ id int }

// Model is the bubbletea model around a scheduler. The scheduler does
// all sampling and layout; the model feeds it events.
type Model struct {
	sch     *engine.Scheduler
	tick    int
	started bool
}

// NewModel wraps sch.
func NewModel(sch *engine.Scheduler) Model {
	return Model{sch: sch}
}

// Init waits for the first WindowSizeMsg before sampling.
func (m Model) Init() tea.Cmd { return nil }

func tick(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{id: id} })
}

// frame samples and schedules the next tick, or quits when the
// scheduler is done.
func (m Model) frame() (Model, tea.Cmd) {
	if err := m.sch.Frame(); err != nil || m.sch.Done() {
		return m, tea.Quit
	}
	m.tick++
	return m, tick(m.tick, m.sch.Delay())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.sch.Resize(msg.Width, msg.Height)
		if !m.started {
			m.started = true
			return m.frame()
		}
		m.sch.Render()
	case tickMsg:
		if msg.id != m.tick || !m.started {
			return m, nil
		}
		return m.frame()
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+z" {
			return m, tea.Suspend
		}
		resample := m.sch.HandleKey(key)
		if m.sch.Done() {
			return m, tea.Quit
		}
		if resample && m.started {
			return m.frame()
		}
		m.sch.Render()
	case tea.ResumeMsg:
		m.sch.Invalidate()
		m.sch.Render()
	}
	return m, nil
}

func (m Model) View() string {
	if !m.started {
		return ""
	}
	return m.sch.Screen().String()
}

// Run drives sch under bubbletea until it quits or ctx ends.
func Run(ctx context.Context, sch *engine.Scheduler, altScreen bool) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(NewModel(sch), opts...)
	sch.SetUnmask(func() func() {
		if err := p.ReleaseTerminal(); err != nil {
			util.Log.WithError(err).Debug("release terminal")
		}
		return func() {
			if err := p.RestoreTerminal(); err != nil {
				util.Log.WithError(err).Warn("restore terminal")
			}
		}
	})
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run terminal ui")
	}
	return sch.Err()
}
