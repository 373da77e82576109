package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/suite"
)

// Console writes an indented tree, one line per entry.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	styles styles
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithWidth truncates lines to n columns; zero disables truncation.
func WithWidth(n int) ConsoleOption {
	return func(c *Console) { c.width = n }
}

// WithRenderer sets the lipgloss renderer, which decides the color profile.
func WithRenderer(r *lipgloss.Renderer) ConsoleOption {
	return func(c *Console) { c.styles = newStyles(r) }
}

// NewConsole returns a console sink writing to w. Colors follow what w
// supports.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: w, styles: newStyles(lipgloss.NewRenderer(w))}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Console) Emit(e suite.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	indent := strings.Repeat("  ", e.Depth)
	var glyph, text string
	st := c.styles.passed
	switch e.Kind {
	case suite.EntryTest:
		glyph, text = GlyphPassed, e.Title
		if !e.Result {
			glyph, st = GlyphFailed, c.styles.failed
		}
		text = c.styles.title.Render(c.fit(text, len(indent)+2))
	case suite.EntryExpect:
		glyph, text = GlyphExpect, c.fit(e.Title, len(indent)+2)
		if !e.Result {
			st = c.styles.failed
		}
	case suite.EntryOutcome:
		glyph, st = verdictGlyph(e.Verdict, c.styles)
		text = c.fit(e.Message, len(indent)+2)
	case suite.EntryError:
		glyph, st = GlyphError, c.styles.failed
		text = c.fit("error: "+e.Message, len(indent)+2)
	}

	line := indent + st.Render(glyph) + " " + text
	if loc := e.Location.String(); loc != "" {
		line += " " + c.styles.location.Render("("+loc+")")
	}
	fmt.Fprintln(c.out, line)
	if e.Detail != "" && !e.Result {
		for _, d := range strings.Split(e.Detail, "\n") {
			fmt.Fprintln(c.out, indent+"    "+c.styles.detail.Render(d))
		}
	}
}

// Summary writes the closing tally.
func (c *Console) Summary(s *suite.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.styles.passed.Render("PASS")
	if !s.Result {
		status = c.styles.failed.Render("FAIL")
	}
	fmt.Fprintf(c.out, "\n%s %s  tests %d/%d  expects %d passed, %d failed",
		c.styles.summary.Render("chk"), status, s.TestsPassed, s.Tests, s.Passed, s.Failed)
	if s.Info > 0 || s.Warn > 0 {
		fmt.Fprintf(c.out, ", %d info, %d warn", s.Info, s.Warn)
	}
	if s.Errors > 0 {
		fmt.Fprintf(c.out, ", %d errors", s.Errors)
	}
	fmt.Fprintf(c.out, "  (%s)\n", s.Duration)
}

func (c *Console) fit(s string, used int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if c.width <= 0 || c.width <= used {
		return s
	}
	return runewidth.Truncate(s, c.width-used, "…")
}

func verdictGlyph(v expect.Verdict, st styles) (string, lipgloss.Style) {
	switch v {
	case expect.Pass:
		return GlyphPassed, st.passed
	case expect.Info:
		return GlyphInfo, st.info
	case expect.Warn:
		return GlyphWarn, st.warn
	}
	return GlyphFailed, st.failed
}
