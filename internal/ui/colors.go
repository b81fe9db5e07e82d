package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is the monitor stylesheet built with named [lipgloss.Style] fields.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
	panel lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewBold(w),
		help:  NewEm(h),
		label: NewStyle(h).Width(14),
		panel: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(0, 1),
	}
}

// status colors a health or breaker state: green when fine, orange when degraded, red otherwise.
func (p *Palette) status(s string) string {
	switch s {
	case "operational", "healthy", "closed":
		return p.ok.Render(s)
	case "degraded", "half-open":
		return p.warn.Render(s)
	case "":
		return p.help.Render("unknown")
	}
	return p.err.Render(s)
}

// code colors an HTTP status by class.
func (p *Palette) code(status int) lipgloss.Style {
	switch {
	case status >= 500:
		return p.err
	case status >= 400:
		return p.warn
	}
	return p.ok
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
