// Package ui is the live terminal dashboard for a simulation run: price
// path, regime, return statistics, and the largest agent positions, fed by
// non-blocking channels from the step loop.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Quit  key.Binding
	Focus key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next panel"),
	),
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	layout   *Layout
	channels *Channels

	width  int
	height int
}

// eventMsg wraps a simulation event for the bubbletea loop.
type eventMsg struct {
	event Event
}

// tickMsg drives periodic re-renders.
type tickMsg time.Time

// NewModel builds the dashboard widgets.
func NewModel(channels *Channels) *Model {
	layout := NewLayout()
	layout.AddWidget(NewPriceWidget())
	layout.AddWidget(NewStatisticsWidget())
	layout.AddWidget(NewAgentsWidget())

	return &Model{
		layout:   layout,
		channels: channels,
		width:    80,
		height:   24,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), tick())
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.channels.Steps:
			return eventMsg{event: ev}
		case ev := <-m.channels.Snapshots:
			return eventMsg{event: ev}
		case <-m.channels.Shutdown:
			return tea.Quit()
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			close(m.channels.Shutdown)
			return m, tea.Quit
		case key.Matches(msg, keys.Focus):
			m.layout.NextFocus()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		m.layout.UpdateAll(msg.event)
		return m, m.listen()

	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m *Model) View() string {
	panels := make([]string, 0, len(m.layout.Widgets()))
	for _, w := range m.layout.Widgets() {
		panels = append(panels, w.Render(m.width, m.height))
	}
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).
		Render(fmt.Sprintf("%s quit  %s next panel",
			keys.Quit.Help().Key, keys.Focus.Help().Key))
	return lipgloss.JoinVertical(lipgloss.Left, append(panels, help)...)
}

// Run starts the dashboard and blocks until it exits or the context is
// cancelled.
func Run(ctx context.Context, channels *Channels) error {
	p := tea.NewProgram(NewModel(channels), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
