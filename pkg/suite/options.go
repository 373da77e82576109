package suite

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/match"
	"github.com/ormasoftchile/chk/pkg/mock"
)

// Option configures a Test node.
type Option func(*Test)

// WithPrefix puts p in front of the generated title.
func WithPrefix(p string) Option {
	return func(t *Test) { t.prefix = p }
}

// WithSuffix appends s to the generated title.
func WithSuffix(s string) Option {
	return func(t *Test) { t.suffix = s }
}

// WithFormatter builds the title from the subject.
func WithFormatter(f func(subject any) string) Option {
	return func(t *Test) { t.format = f }
}

// WithLocation fixes the node's location instead of capturing it.
func WithLocation(loc callsite.Location) Option {
	return func(t *Test) { t.location = loc; t.fixedLoc = true }
}

// WithSubject attaches a subject to a node whose title is given separately.
func WithSubject(subject any) Option {
	return func(t *Test) { t.subject = subject }
}

func defaultFormat(subject any) string {
	switch s := subject.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return match.Format(subject)
}

// env is shared by a root node and all of its descendants.
type env struct {
	state    *RunState
	registry *expect.Registry
	capture  callsite.Capturer
	logger   *slog.Logger
	timeout  time.Duration
	observe  func(Event)
	mocks    *mock.Registry
}

func defaultEnv() *env {
	return &env{
		state:    &RunState{},
		registry: expect.DefaultRegistry(),
		capture:  callsite.Runtime{},
		logger:   slog.Default(),
		mocks:    mock.NewRegistry(),
	}
}

func (e *env) notify(ev Event) {
	if e.observe != nil {
		e.observe(ev)
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger body failures are reported to.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.env.logger = l }
}

// WithRegistry selects the matcher registry for every expectation.
func WithRegistry(reg *expect.Registry) RunnerOption {
	return func(r *Runner) { r.env.registry = reg }
}

// WithMocks shares reg as the module mock registry of every body.
func WithMocks(reg *mock.Registry) RunnerOption {
	return func(r *Runner) { r.env.mocks = reg }
}

// WithCapturer sets how node and outcome locations are captured.
func WithCapturer(c callsite.Capturer) RunnerOption {
	return func(r *Runner) { r.env.capture = c }
}

// WithObserver receives an Event whenever a node starts or finishes.
// It is called from the executing goroutines and must be safe for
// concurrent use.
func WithObserver(fn func(Event)) RunnerOption {
	return func(r *Runner) { r.env.observe = fn }
}

// WithTimeout bounds every body run by Exec; zero means no bound.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.env.timeout = d }
}
