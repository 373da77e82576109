// Package expect implements expectation nodes: a subject, the outcomes of
// the matchers applied to it and the negation toggle, with matchers looked
// up by name in a Registry.
package expect

import (
	"context"
	"fmt"
	"sync"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/future"
	"github.com/ormasoftchile/chk/pkg/match"
)

// UsageError reports a matcher applied to a value it cannot handle, such as
// a mock-only matcher on a plain function. It is raised with panic and
// recovered by the owning test node.
type UsageError struct {
	Matcher string
	Msg     string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Matcher, e.Msg)
}

func usage(matcher, format string, args ...any) {
	panic(&UsageError{Matcher: matcher, Msg: fmt.Sprintf(format, args...)})
}

// Expectation wraps one subject and accumulates matcher outcomes.
type Expectation struct {
	mu       sync.Mutex
	subject  any
	title    string
	negate   bool
	outcomes []Outcome
	resolved bool
	rejected bool

	ctx      context.Context
	registry *Registry
	capture  callsite.Capturer
}

// Option configures an Expectation.
type Option func(*Expectation)

// WithTitle sets the expectation title.
func WithTitle(title string) Option {
	return func(e *Expectation) { e.title = title }
}

// WithRegistry selects the matcher registry used by Match.
func WithRegistry(r *Registry) Option {
	return func(e *Expectation) { e.registry = r }
}

// WithCapturer sets how outcome locations are captured.
func WithCapturer(c callsite.Capturer) Option {
	return func(e *Expectation) { e.capture = c }
}

// WithContext bounds the awaits done by async matchers.
func WithContext(ctx context.Context) Option {
	return func(e *Expectation) { e.ctx = ctx }
}

// New returns an Expectation on subject using the default registry.
func New(subject any, opts ...Option) *Expectation {
	e := &Expectation{
		subject:  subject,
		ctx:      context.Background(),
		registry: DefaultRegistry(),
		capture:  callsite.Runtime{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Subject returns the current subject.
func (e *Expectation) Subject() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subject
}

func (e *Expectation) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

// SetTitle renames the expectation. Registered as the "setTitle" and "$"
// matchers.
func (e *Expectation) SetTitle(title string) *Expectation {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.title = title
	return e
}

// Context returns the context async matchers await under.
func (e *Expectation) Context() context.Context { return e.ctx }

// Registry returns the registry Match dispatches through.
func (e *Expectation) Registry() *Registry { return e.registry }

// Outcomes returns a copy of the recorded outcomes.
func (e *Expectation) Outcomes() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Outcome(nil), e.outcomes...)
}

// Result reports whether no outcome failed. Info and Warn do not count.
func (e *Expectation) Result() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range e.outcomes {
		if !o.Verdict.OK() {
			return false
		}
	}
	return true
}

// Not toggles negation for every later outcome until toggled again.
func (e *Expectation) Not() *Expectation {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.negate = !e.negate
	return e
}

// Negated reports the current state of the negation toggle.
func (e *Expectation) Negated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.negate
}

// Process records an outcome. Every matcher ends here, so negation applies
// to all of them: under Not the key gets a "!" prefix and Pass/Fail is
// inverted. A target holding the Anything marker inverts as well, negated
// or not.
func (e *Expectation) Process(key string, v Verdict, subject, target any) *Expectation {
	e.mu.Lock()
	negate := e.negate
	e.mu.Unlock()
	if negate {
		key = "!" + key
	}
	if negate || match.IsAnything(target) {
		v = v.Invert()
	}
	return e.record(key, v, subject, target)
}

// record appends an outcome as is. Info and warn notes use it directly so
// they are never negated.
func (e *Expectation) record(key string, v Verdict, subject, target any) *Expectation {
	loc := e.capture.Capture()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes = append(e.outcomes, Outcome{
		Key:      key,
		Verdict:  v,
		Subject:  subject,
		Target:   target,
		Location: loc,
	})
	return e
}

// Match applies the matcher registered under name. An unknown name is a
// usage error.
func (e *Expectation) Match(name string, args ...any) *Expectation {
	m, ok := e.registry.Lookup(name)
	if !ok {
		usage(name, "no such matcher")
	}
	return m(e, args...)
}

// Resolves awaits a future subject and replaces the subject with its value.
// A rejected future leaves the subject unchanged. Non-future subjects count
// as already resolved. No outcome is recorded.
func (e *Expectation) Resolves(ctx context.Context) *Expectation {
	f, ok := e.Subject().(*future.Future)
	if !ok {
		e.mu.Lock()
		e.resolved = true
		e.mu.Unlock()
		return e
	}
	v, err := f.Await(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolved = err == nil
	if err == nil {
		e.subject = v
	}
	return e
}

// Rejects awaits a future subject and replaces the subject with the
// rejection error, or with the value when it resolves.
func (e *Expectation) Rejects(ctx context.Context) *Expectation {
	f, ok := e.Subject().(*future.Future)
	if !ok {
		return e
	}
	v, err := f.Await(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.rejected = true
		e.subject = err
	} else {
		e.subject = v
	}
	return e
}

// Resolved reports whether the last Resolves call saw a resolution.
func (e *Expectation) Resolved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolved
}

// Rejected reports whether Rejects observed a rejection.
func (e *Expectation) Rejected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rejected
}

// Message renders an outcome with the messenger registered for its key.
func (e *Expectation) Message(o Outcome) string {
	return e.registry.Message(o)
}
