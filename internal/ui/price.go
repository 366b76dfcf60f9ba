package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quantfold/jumpsim/internal/news"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// PriceWidget shows the live price path, the last return, volatility, and
// the regime / circuit-breaker state.
type PriceWidget struct {
	BaseWidget

	prices  []float64
	last    StepEvent
	haveAny bool
}

// NewPriceWidget creates an empty price widget.
func NewPriceWidget() *PriceWidget {
	return &PriceWidget{}
}

func (w *PriceWidget) Update(event Event) bool {
	ev, ok := event.(StepEvent)
	if !ok {
		return false
	}
	w.last = ev
	w.haveAny = true
	w.prices = append(w.prices, ev.Record.Price)
	if len(w.prices) > 240 {
		w.prices = w.prices[len(w.prices)-240:]
	}
	return true
}

func (w *PriceWidget) Render(width, height int) string {
	if !w.haveAny {
		return w.borderStyle().Width(width - 2).Render("waiting for first step...")
	}

	rec := w.last.Record

	changeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	if rec.LogReturn < 0 {
		changeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}

	regime := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(rec.Regime.String())
	if rec.Regime == news.Stressed {
		regime = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true).Render(rec.Regime.String())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "t=%-8d price %s   r %s   vol %.6f\n",
		rec.Time,
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%.4f", rec.Price)),
		changeStyle.Render(fmt.Sprintf("%+.5f", rec.LogReturn)),
		rec.Volatility,
	)
	fmt.Fprintf(&b, "regime %s", regime)
	if rec.Halted {
		fmt.Fprintf(&b, "   %s", lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).Bold(true).Render("HALTED"))
	}
	if rec.Shock != 0 {
		fmt.Fprintf(&b, "   shock %+.3f", rec.Shock)
	}
	b.WriteString("\n")
	b.WriteString(sparkline(w.prices, width-4))

	return w.borderStyle().Width(width - 2).Render(b.String())
}

// sparkline renders the tail of the series as unicode block characters.
func sparkline(xs []float64, width int) string {
	if width <= 0 || len(xs) == 0 {
		return ""
	}
	if len(xs) > width {
		xs = xs[len(xs)-width:]
	}

	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}

	var b strings.Builder
	for _, x := range xs {
		idx := 0
		if hi > lo {
			idx = int((x - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
