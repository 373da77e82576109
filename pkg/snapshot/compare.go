package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/match"
	"github.com/ormasoftchile/chk/pkg/suite"
)

// Outcome keys recorded by the comparator.
const (
	KeyNew            = "newSnapshot"
	KeyMatch          = "match"
	KeyMismatchOutput = "mismatch:output"
	KeyMismatchProps  = "mismatch:props"
	KeyMismatchBoth   = "mismatch:output+props"
)

// Choice is the answer to a mismatch prompt.
type Choice int

const (
	Reject Choice = iota
	Accept
	AcceptAll
	Cancel
)

func (c Choice) String() string {
	switch c {
	case Accept:
		return "accept"
	case AcceptAll:
		return "accept-all"
	case Cancel:
		return "cancel"
	}
	return "reject"
}

// Prompter asks the user what to do about a mismatch. Calls never overlap
// because interactive runs execute nodes one at a time.
type Prompter interface {
	Prompt(ctx context.Context, m *Mismatch) (Choice, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, m *Mismatch) (Choice, error)

func (f PrompterFunc) Prompt(ctx context.Context, m *Mismatch) (Choice, error) { return f(ctx, m) }

// Mismatch describes how a stored snapshot differs from the current state.
// It is the target of failing snapshot outcomes.
type Mismatch struct {
	ID      string
	Output  bool
	Props   bool
	Stored  Record
	Current Record
}

// Key returns the outcome key for the differing parts.
func (m *Mismatch) Key() string {
	switch {
	case m.Output && m.Props:
		return KeyMismatchBoth
	case m.Props:
		return KeyMismatchProps
	}
	return KeyMismatchOutput
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("snapshot %s (%s)", m.ID, strings.TrimPrefix(m.Key(), "mismatch:"))
}

// Detail is the plain diff shown in reports.
func (m *Mismatch) Detail() string {
	var parts []string
	if m.Props {
		parts = append(parts, "props: "+PlainDiff(string(m.Stored.Props), string(m.Current.Props)))
	}
	if m.Output {
		parts = append(parts, "output: "+PlainDiff(m.Stored.HTML, m.Current.HTML))
	}
	return strings.Join(parts, "\n")
}

// ColorDiff is the ANSI diff shown at the prompt.
func (m *Mismatch) ColorDiff() string {
	var parts []string
	if m.Props {
		parts = append(parts, Diff(string(m.Stored.Props), string(m.Current.Props)))
	}
	if m.Output {
		parts = append(parts, Diff(m.Stored.HTML, m.Current.HTML))
	}
	return strings.Join(parts, "\n")
}

// Option configures Compare.
type Option func(*Snapshot)

// WithStore selects the store; the default is a FileStore on ".snapshots".
func WithStore(s Store) Option {
	return func(sn *Snapshot) { sn.store = s }
}

// WithPrompter selects the prompter used for interactive mismatches.
// Without one, interactive mismatches are rejected.
func WithPrompter(p Prompter) Option {
	return func(sn *Snapshot) { sn.prompter = p }
}

// WithLogger sets the logger for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(sn *Snapshot) { sn.logger = l }
}

// DefaultStore is used when Compare is given no store.
var DefaultStore = sync.OnceValue(func() Store { return NewFileStore(".snapshots") })

// Snapshot is one registered comparison.
type Snapshot struct {
	name     string
	id       string
	props    any
	output   string
	store    Store
	prompter Prompter
	logger   *slog.Logger
	node     *suite.Test

	mu          sync.Mutex
	interactive bool
}

// Compare registers a child test of c that checks props and output against
// the snapshot stored for name. The first run stores the snapshot and
// passes. Later runs pass on a structural match and record a failing
// mismatch otherwise; interactive runs then prompt to accept, reject,
// accept all or cancel.
func Compare(c *suite.Context, name string, props any, output string, opts ...Option) *Snapshot {
	s := &Snapshot{
		name:   name,
		id:     NormalizeID(name),
		props:  props,
		output: output,
		logger: c.Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = DefaultStore()
	}
	s.node = c.Test(name, s.body, suite.WithPrefix("snapshot "))
	return s
}

// ID returns the normalized id.
func (s *Snapshot) ID() string { return s.id }

// Node returns the test node running the comparison.
func (s *Snapshot) Node() *suite.Test { return s.node }

func (s *Snapshot) current() (Record, error) {
	props, err := Canonical(s.props)
	if err != nil {
		return Record{}, err
	}
	return Record{Props: props, HTML: NormalizeOutput(s.output)}, nil
}

func (s *Snapshot) body(c *suite.Context) error {
	s.mu.Lock()
	s.interactive = c.Interactive()
	s.mu.Unlock()

	cur, err := s.current()
	if err != nil {
		return err
	}
	for {
		again, err := s.check(c, cur)
		if err != nil || !again {
			return err
		}
		c.Reset()
	}
}

// check runs one comparison. It reports true when the snapshot was just
// accepted and the comparison should run again.
func (s *Snapshot) check(c *suite.Context, cur Record) (bool, error) {
	ctx := c.Ctx()
	e := c.Expect(s.id)

	stored, err := s.store.Load(ctx, s.id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("load snapshot failed, treating as new", "id", s.id, "error", err)
	}
	if stored == nil {
		if err := s.store.Save(ctx, s.id, &cur); err != nil {
			s.logger.Error("save snapshot failed", "id", s.id, "error", err)
			e.Warn("save snapshot: ", err)
		}
		e.Process(KeyNew, expect.Pass, s.id, cur.HTML)
		return false, nil
	}

	m := compareRecords(s.id, *stored, cur)
	if !m.Output && !m.Props {
		e.Process(KeyMatch, expect.Pass, s.id, cur.HTML)
		return false, nil
	}
	e.Process(m.Key(), expect.Fail, s.id, m)
	if !c.Interactive() {
		return false, nil
	}

	switch s.decide(ctx, c.State(), m) {
	case Accept, AcceptAll:
		if err := s.store.Save(ctx, s.id, &cur); err != nil {
			s.logger.Error("save snapshot failed", "id", s.id, "error", err)
			e.Warn("save snapshot: ", err)
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

func (s *Snapshot) decide(ctx context.Context, state *suite.RunState, m *Mismatch) Choice {
	switch {
	case state.AcceptAll():
		return AcceptAll
	case state.Declined():
		return Reject
	case s.prompter == nil:
		s.logger.Warn("no prompter for interactive snapshot mismatch", "id", s.id)
		return Reject
	}
	choice, err := s.prompter.Prompt(ctx, m)
	if err != nil {
		s.logger.Warn("snapshot prompt failed", "id", s.id, "error", err)
		return Reject
	}
	switch choice {
	case AcceptAll:
		state.ArmAcceptAll()
	case Cancel:
		state.Decline()
	}
	return choice
}

func compareRecords(id string, stored, cur Record) *Mismatch {
	m := &Mismatch{ID: id, Stored: stored, Current: cur}
	m.Output = NormalizeOutput(stored.HTML) != cur.HTML
	m.Props = !propsEqual(stored.Props, cur.Props)
	return m
}

func propsEqual(a, b []byte) bool {
	var va, vb any
	if err := json.Unmarshal(orNull(a), &va); err != nil {
		return false
	}
	if err := json.Unmarshal(orNull(b), &vb); err != nil {
		return false
	}
	return match.Equals(va, vb)
}

func orNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}

// Save stores the current props and output and executes the node again so
// its outcome reflects what was just written.
func (s *Snapshot) Save(ctx context.Context) error {
	cur, err := s.current()
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.id, &cur); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.id, err)
	}
	s.mu.Lock()
	interactive := s.interactive
	s.mu.Unlock()
	s.node.Exec(ctx, interactive)
	return nil
}
