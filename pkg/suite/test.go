// Package suite implements the test tree: Test nodes whose bodies register
// expectations and nested tests, their execution with fan-out or strictly
// sequential scheduling, and the Runner that aggregates root nodes.
package suite

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/expect"
)

// ErrTimeout is recorded on a node whose body outlived the run timeout.
var ErrTimeout = errors.New("test body timed out")

// Body is a test body. Blocking work simply blocks; a returned error is
// recorded on the node.
type Body func(c *Context) error

// Module is a child of a Test: a *Test or an *expect.Expectation.
type Module interface {
	Result() bool
}

// Test is a node of the test tree.
type Test struct {
	subject  any
	title    string
	prefix   string
	suffix   string
	format   func(any) string
	body     Body
	parent   *Test
	location callsite.Location
	fixedLoc bool
	env      *env

	mu       sync.Mutex
	children []Module
	err      error
	tested   atomic.Int64
}

// New returns a standalone root node. subject doubles as the title when it
// is a string; otherwise the title is formatted from it.
func New(subject any, body Body, opts ...Option) *Test {
	return newTest(nil, defaultEnv(), subject, body, opts)
}

func newTest(parent *Test, e *env, subject any, body Body, opts []Option) *Test {
	t := &Test{subject: subject, body: body, parent: parent, env: e}
	for _, o := range opts {
		o(t)
	}
	f := t.format
	if f == nil {
		f = defaultFormat
	}
	t.title = t.prefix + f(subject) + t.suffix
	if !t.fixedLoc {
		t.location = e.capture.Capture()
	}
	return t
}

func (t *Test) Title() string               { return t.title }
func (t *Test) Subject() any                { return t.subject }
func (t *Test) Parent() *Test               { return t.parent }
func (t *Test) Location() callsite.Location { return t.location }

// Depth is 0 for a root node.
func (t *Test) Depth() int {
	d := 0
	for p := t.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path lists the titles from the root down to t.
func (t *Test) Path() []string {
	var path []string
	for n := t; n != nil; n = n.parent {
		path = append([]string{n.title}, path...)
	}
	return path
}

// Children returns a snapshot of the node's children in registration order.
func (t *Test) Children() []Module {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Module(nil), t.children...)
}

// Tests returns the child Test nodes.
func (t *Test) Tests() []*Test {
	var out []*Test
	for _, c := range t.Children() {
		if ct, ok := c.(*Test); ok {
			out = append(out, ct)
		}
	}
	return out
}

// Expectations returns the child expectations.
func (t *Test) Expectations() []*expect.Expectation {
	var out []*expect.Expectation
	for _, c := range t.Children() {
		if e, ok := c.(*expect.Expectation); ok {
			out = append(out, e)
		}
	}
	return out
}

// Err returns the error or panic the body ended with, if any.
func (t *Test) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Result is true when every child passes. It is computed on each call; a
// node without children passes.
func (t *Test) Result() bool {
	for _, c := range t.Children() {
		if !c.Result() {
			return false
		}
	}
	return true
}

// Tested counts completed executions of this node.
func (t *Test) Tested() int64 { return t.tested.Load() }

func (t *Test) add(m Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children = append(t.children, m)
}

// reset drops the children registered so far.
func (t *Test) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children = nil
	t.err = nil
}

// Exec runs the body, then every child Test: all at once when not
// interactive, one after another when interactive so that prompts never
// interleave. A failing or panicking body is logged and recorded on the
// node; siblings and the parent carry on.
func (t *Test) Exec(ctx context.Context, interactive bool) {
	t.reset()
	t.env.notify(Event{Kind: EventStart, Test: t})

	if t.body != nil {
		c := &Context{node: t, interactive: interactive}
		err := t.runBody(ctx, c)
		c.close()
		if err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			t.env.logger.Error("test body failed",
				"test", t.title,
				"location", t.location.String(),
				"error", err)
		}
	}

	children := t.Tests()
	if interactive {
		for _, c := range children {
			c.Exec(ctx, true)
		}
	} else {
		var wg sync.WaitGroup
		for _, c := range children {
			wg.Add(1)
			go func(c *Test) {
				defer wg.Done()
				c.Exec(ctx, false)
			}(c)
		}
		wg.Wait()
	}

	t.tested.Add(1)
	t.env.notify(Event{Kind: EventDone, Test: t, Result: t.Result()})
}

func (t *Test) runBody(ctx context.Context, c *Context) error {
	if t.env.timeout <= 0 {
		c.ctx = ctx
		return callBody(t.body, c)
	}

	ctx, cancel := context.WithTimeout(ctx, t.env.timeout)
	defer cancel()
	c.ctx = ctx

	done := make(chan error, 1)
	go func() { done <- callBody(t.body, c) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, t.env.timeout)
		}
		return ctx.Err()
	}
}

// PanicError wraps a value recovered from a panicking body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func callBody(body Body, c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ue, ok := r.(*expect.UsageError); ok {
				err = ue
				return
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return body(c)
}

// EventKind tells observers whether a node started or finished.
type EventKind int

const (
	EventStart EventKind = iota
	EventDone
)

// Event is delivered to observers registered with WithObserver.
type Event struct {
	Kind   EventKind
	Test   *Test
	Result bool
}
