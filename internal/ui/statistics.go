package ui

import (
	"fmt"
	"strings"
)

// StatisticsWidget shows the downstream return-stream statistics.
type StatisticsWidget struct {
	BaseWidget

	last    StepEvent
	haveAny bool
}

// NewStatisticsWidget creates an empty statistics widget.
func NewStatisticsWidget() *StatisticsWidget {
	return &StatisticsWidget{}
}

func (w *StatisticsWidget) Update(event Event) bool {
	ev, ok := event.(StepEvent)
	if !ok {
		return false
	}
	w.last = ev
	w.haveAny = true
	return true
}

func (w *StatisticsWidget) Render(width, height int) string {
	var b strings.Builder
	b.WriteString("return statistics\n")
	if w.haveAny {
		fmt.Fprintf(&b, "variance  %.8f\n", w.last.Variance)
		fmt.Fprintf(&b, "kurtosis  %.3f\n", w.last.Kurtosis)
		fmt.Fprintf(&b, "jumps     %d (%.4f/step)", w.last.JumpCount, w.last.JumpFrequency)
	} else {
		b.WriteString("no returns yet")
	}
	return w.borderStyle().Width(width - 2).Render(b.String())
}
