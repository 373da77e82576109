// Package report renders suite reports: a colored console tree, markdown and
// a JSON document with its schema.
package report

import "github.com/charmbracelet/lipgloss"

// Outcome glyphs convey the verdict without relying on color alone.
const (
	GlyphPassed = "✓"
	GlyphFailed = "✗"
	GlyphInfo   = "○"
	GlyphWarn   = "!"
	GlyphExpect = "▸"
	GlyphError  = "⚠"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorDim    = lipgloss.Color("240")
	colorCyan   = lipgloss.Color("51")
)

type styles struct {
	passed   lipgloss.Style
	failed   lipgloss.Style
	info     lipgloss.Style
	warn     lipgloss.Style
	title    lipgloss.Style
	location lipgloss.Style
	detail   lipgloss.Style
	summary  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		passed:   r.NewStyle().Foreground(colorGreen),
		failed:   r.NewStyle().Foreground(colorRed).Bold(true),
		info:     r.NewStyle().Foreground(colorCyan),
		warn:     r.NewStyle().Foreground(colorYellow),
		title:    r.NewStyle().Bold(true),
		location: r.NewStyle().Foreground(colorDim),
		detail:   r.NewStyle().Foreground(colorDim),
		summary:  r.NewStyle().Bold(true).Foreground(colorCyan),
	}
}
