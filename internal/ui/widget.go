package ui

import "github.com/charmbracelet/lipgloss"

// Widget is a dashboard component that can be rendered and updated.
type Widget interface {
	// Update consumes an event; returns true if the widget changed.
	Update(event Event) bool
	Render(width, height int) string
	Focused() bool
	SetFocus(focused bool)
}

// BaseWidget provides common widget state.
type BaseWidget struct {
	focused bool
}

func (w *BaseWidget) Focused() bool         { return w.focused }
func (w *BaseWidget) SetFocus(focused bool) { w.focused = focused }

// borderStyle returns the widget frame, highlighted when focused.
func (w *BaseWidget) borderStyle() lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if w.focused {
		return s.BorderForeground(lipgloss.Color("205"))
	}
	return s.BorderForeground(lipgloss.Color("240"))
}

// Layout arranges widgets and cycles focus between them.
type Layout struct {
	widgets    []Widget
	focusIndex int
}

func NewLayout() *Layout {
	return &Layout{}
}

func (l *Layout) AddWidget(w Widget) {
	l.widgets = append(l.widgets, w)
	if len(l.widgets) == 1 {
		w.SetFocus(true)
	}
}

func (l *Layout) Widgets() []Widget { return l.widgets }

func (l *Layout) NextFocus() {
	if len(l.widgets) == 0 {
		return
	}
	l.widgets[l.focusIndex].SetFocus(false)
	l.focusIndex = (l.focusIndex + 1) % len(l.widgets)
	l.widgets[l.focusIndex].SetFocus(true)
}

func (l *Layout) UpdateAll(event Event) bool {
	changed := false
	for _, w := range l.widgets {
		if w.Update(event) {
			changed = true
		}
	}
	return changed
}
