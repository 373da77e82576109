package suite

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/mock"
)

// Context is handed to every body. Expectations and tests it creates become
// children of the node whose body is running.
type Context struct {
	node        *Test
	ctx         context.Context
	interactive bool

	mu     sync.Mutex
	closed bool
}

// close detaches c from its node. Whatever a body that outlived its timeout
// registers afterwards is dropped.
func (c *Context) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Context) register(m Module, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.node.env.logger.Warn("registration after body returned dropped",
			"test", c.node.title,
			"child", title)
		return
	}
	c.node.add(m)
}

// Expect registers an expectation on subject.
func (c *Context) Expect(subject any, title ...string) *expect.Expectation {
	return c.expect(c.node.env.capture, subject, title)
}

// ExpectAt is Expect with every outcome located at loc instead of the
// calling line. Suites loaded from files use it to point at their source.
func (c *Context) ExpectAt(loc callsite.Location, subject any, title ...string) *expect.Expectation {
	return c.expect(callsite.Fixed(loc), subject, title)
}

func (c *Context) expect(capture callsite.Capturer, subject any, title []string) *expect.Expectation {
	opts := []expect.Option{
		expect.WithRegistry(c.node.env.registry),
		expect.WithCapturer(capture),
		expect.WithContext(c.ctx),
	}
	if len(title) > 0 {
		opts = append(opts, expect.WithTitle(title[0]))
	}
	e := expect.New(subject, opts...)
	c.register(e, "expect")
	return e
}

// Test registers a nested test. It runs after the current body returns.
func (c *Context) Test(subject any, body Body, opts ...Option) *Test {
	t := newTest(c.node, c.node.env, subject, body, opts)
	c.register(t, t.title)
	return t
}

// Subject returns the running node's subject.
func (c *Context) Subject() any { return c.node.subject }

// Parent returns the node whose body is running, which is the parent of
// everything registered through c.
func (c *Context) Parent() *Test { return c.node }

// Ctx is cancelled when the run timeout expires.
func (c *Context) Ctx() context.Context { return c.ctx }

// Interactive reports whether the run may prompt the user.
func (c *Context) Interactive() bool { return c.interactive }

// State returns the run-wide state.
func (c *Context) State() *RunState { return c.node.env.state }

// Logger returns the run logger.
func (c *Context) Logger() *slog.Logger { return c.node.env.logger }

// Reset drops every child registered so far by the running body, so it can
// evaluate again from scratch.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.node.reset()
	}
}

// Mocks returns the module mock registry of the run.
func (c *Context) Mocks() *mock.Registry { return c.node.env.mocks }

// Mock registers the value factory builds as the stand-in for the module
// name and returns it. Later lookups through Import or Require see it.
func (c *Context) Mock(name string, factory func(c *Context) any) any {
	v := factory(c)
	c.node.env.mocks.Mock(name, v)
	return v
}

// Import returns the stand-in registered for name, or nil.
func (c *Context) Import(name string) any {
	v, _ := c.node.env.mocks.Lookup(name)
	return v
}

// Require returns the stand-in registered for name when it is a T, and
// actual otherwise.
func Require[T any](c *Context, name string, actual T) T {
	return mock.Require(c.node.env.mocks, name, actual)
}
