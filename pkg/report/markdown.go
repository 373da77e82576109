package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/suite"
)

// Markdown builds a markdown document: tests become nested list items,
// outcomes carry a checkbox and diffs become code blocks.
type Markdown struct {
	mu sync.Mutex
	b  strings.Builder
}

// NewMarkdown starts a document with a heading.
func NewMarkdown(title string) *Markdown {
	m := &Markdown{}
	if title != "" {
		fmt.Fprintf(&m.b, "# %s\n\n", title)
	}
	return m
}

func (m *Markdown) Emit(e suite.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	indent := strings.Repeat("  ", e.Depth)
	switch e.Kind {
	case suite.EntryTest:
		fmt.Fprintf(&m.b, "%s- %s **%s**", indent, mark(e.Result), escape(e.Title))
	case suite.EntryExpect:
		fmt.Fprintf(&m.b, "%s- %s _%s_", indent, mark(e.Result), escape(e.Title))
	case suite.EntryOutcome:
		fmt.Fprintf(&m.b, "%s- %s `%s`", indent, verdictMark(e.Verdict), strings.ReplaceAll(e.Message, "`", "'"))
	case suite.EntryError:
		fmt.Fprintf(&m.b, "%s- ⚠ error: %s", indent, escape(e.Message))
	}
	if loc := e.Location.String(); loc != "" {
		fmt.Fprintf(&m.b, " (%s)", loc)
	}
	m.b.WriteByte('\n')
	if e.Detail != "" && !e.Result {
		fmt.Fprintf(&m.b, "\n%s  ```diff\n", indent)
		for _, l := range strings.Split(e.Detail, "\n") {
			fmt.Fprintf(&m.b, "%s  %s\n", indent, l)
		}
		fmt.Fprintf(&m.b, "%s  ```\n\n", indent)
	}
}

// Summary appends the tally as a table.
func (m *Markdown) Summary(s *suite.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(&m.b, "\n| result | tests | passed | failed | info | warn | errors | duration |\n")
	fmt.Fprintf(&m.b, "|---|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&m.b, "| %s | %d/%d | %d | %d | %d | %d | %d | %s |\n",
		map[bool]string{true: "PASS", false: "FAIL"}[s.Result],
		s.TestsPassed, s.Tests, s.Passed, s.Failed, s.Info, s.Warn, s.Errors, s.Duration)
}

// String returns the document so far.
func (m *Markdown) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.b.String()
}

// Render styles the document for a terminal. A width of zero disables
// wrapping. The raw markdown is returned when rendering fails.
func (m *Markdown) Render(width int) string {
	md := m.String()
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func verdictMark(v expect.Verdict) string {
	switch v {
	case expect.Info:
		return "ℹ️"
	case expect.Warn:
		return "⚠️"
	}
	return mark(v.OK())
}

var mdEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "'")

func escape(s string) string { return mdEscaper.Replace(s) }
