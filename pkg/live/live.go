// Package live shows a running suite as a tree that fills in as nodes
// finish.
package live

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/chk/pkg/suite"
)

// Feed turns runner events into a channel the view reads from. Pass
// Observe to suite.WithObserver.
type Feed struct {
	ch   chan suite.Event
	once sync.Once
}

// NewFeed returns a feed buffering up to n events.
func NewFeed(n int) *Feed {
	return &Feed{ch: make(chan suite.Event, n)}
}

// Observe forwards e; it blocks while the buffer is full. Watch keeps
// draining the feed after the view stops.
func (f *Feed) Observe(e suite.Event) { f.ch <- e }

// Events is closed by Close.
func (f *Feed) Events() <-chan suite.Event { return f.ch }

// Close ends the feed. Call it once the run has returned.
func (f *Feed) Close() { f.once.Do(func() { close(f.ch) }) }

type status int

const (
	running status = iota
	passed
	failed
)

type row struct {
	title  string
	depth  int
	status status
	runs   int64
}

type eventMsg suite.Event

type closedMsg struct{}

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model is the bubbletea model of a run.
type Model struct {
	events  <-chan suite.Event
	spinner spinner.Model
	rows    []*row
	index   map[*suite.Test]*row
	done    bool
	width   int
}

// NewModel returns a model reading from events.
func NewModel(events <-chan suite.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{events: events, spinner: sp, index: make(map[*suite.Test]*row)}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		m.apply(suite.Event(msg))
		return m, m.listen()
	case closedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(ev suite.Event) {
	r, ok := m.index[ev.Test]
	if !ok {
		r = &row{title: ev.Test.Title(), depth: ev.Test.Depth()}
		m.index[ev.Test] = r
		m.rows = append(m.rows, r)
	}
	switch ev.Kind {
	case suite.EventStart:
		r.status = running
	case suite.EventDone:
		r.status = failed
		if ev.Result {
			r.status = passed
		}
		r.runs = ev.Test.Tested()
	}
}

// Counts returns how many nodes are running, passed and failed.
func (m Model) Counts() (run, pass, fail int) {
	for _, r := range m.rows {
		switch r.status {
		case running:
			run++
		case passed:
			pass++
		default:
			fail++
		}
	}
	return run, pass, fail
}

func (m Model) View() string {
	var b strings.Builder
	for _, r := range m.rows {
		b.WriteString(strings.Repeat("  ", r.depth))
		switch r.status {
		case running:
			b.WriteString(m.spinner.View())
		case passed:
			b.WriteString(passStyle.Render("✓"))
		default:
			b.WriteString(failStyle.Render("✗"))
		}
		b.WriteString(" " + r.title)
		if r.runs > 1 {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" ×%d", r.runs)))
		}
		b.WriteByte('\n')
	}
	run, pass, fail := m.Counts()
	fmt.Fprintf(&b, "\n%d running, %d passed, %d failed\n", run, pass, fail)
	return b.String()
}

// Watch shows the progress of run on out. feed must be the observer of the
// runner that run executes; Watch closes it when run returns.
func Watch(ctx context.Context, feed *Feed, out io.Writer, run func() *suite.Summary) (*suite.Summary, error) {
	p := tea.NewProgram(NewModel(feed.Events()),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)
	var sum *suite.Summary
	done := make(chan struct{})
	go func() {
		defer close(done)
		sum = run()
		feed.Close()
	}()
	_, err := p.Run()
	// The view may stop before the run does; keep the observer from blocking.
	for range feed.Events() {
	}
	<-done
	if err != nil && ctx.Err() == nil {
		return sum, fmt.Errorf("live view: %w", err)
	}
	return sum, nil
}
