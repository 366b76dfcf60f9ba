package ui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"

	"github.com/quantfold/jumpsim/internal/agent"
)

// AgentsWidget shows the largest positions in the population.
type AgentsWidget struct {
	BaseWidget

	tbl   table.Model
	snaps []agent.Snapshot
}

// NewAgentsWidget creates the agent table.
func NewAgentsWidget() *AgentsWidget {
	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "TYPE", Width: 12},
			{Title: "BELIEF", Width: 10},
			{Title: "POS", Width: 8},
			{Title: "CASH", Width: 12},
		}),
		table.WithHeight(12),
	)
	return &AgentsWidget{tbl: tbl}
}

func (w *AgentsWidget) Update(event Event) bool {
	ev, ok := event.(SnapshotEvent)
	if !ok {
		return false
	}
	w.snaps = ev.Agents

	// Largest absolute positions first.
	sorted := make([]agent.Snapshot, len(w.snaps))
	copy(sorted, w.snaps)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := sorted[i].Position, sorted[j].Position
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})
	if len(sorted) > 12 {
		sorted = sorted[:12]
	}

	rows := make([]table.Row, len(sorted))
	for i, s := range sorted {
		rows[i] = table.Row{
			fmt.Sprintf("%d", s.ID),
			s.Kind,
			fmt.Sprintf("%.3f", s.Belief),
			fmt.Sprintf("%d", s.Position),
			fmt.Sprintf("%.2f", s.Cash),
		}
	}
	w.tbl.SetRows(rows)
	return true
}

func (w *AgentsWidget) Render(width, height int) string {
	return w.borderStyle().Width(width - 2).Render(w.tbl.View())
}
