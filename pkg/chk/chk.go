// Package chk is a process-wide entry point for programs that register
// tests from many places, such as init functions. Everything here forwards
// to one shared suite.Runner; code that can pass a runner around should use
// package suite directly.
package chk

import (
	"context"
	"sync"

	"github.com/ormasoftchile/chk/pkg/match"
	"github.com/ormasoftchile/chk/pkg/mock"
	"github.com/ormasoftchile/chk/pkg/suite"
)

var (
	mu     sync.Mutex
	global *suite.Runner
)

// Runner returns the shared runner, creating it on first use.
func Runner() *suite.Runner {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = suite.NewRunner()
	}
	return global
}

// Use replaces the shared runner, for example with one configured with a
// logger or an observer. It returns the previous one.
func Use(r *suite.Runner) *suite.Runner {
	mu.Lock()
	defer mu.Unlock()
	prev := global
	global = r
	return prev
}

// Test registers a root test on the shared runner.
func Test(subject any, body suite.Body, opts ...suite.Option) *suite.Test {
	return Runner().Add(subject, body, opts...)
}

// Run executes the shared runner.
func Run(ctx context.Context, sink suite.Sink, opts suite.RunOptions) *suite.Summary {
	return Runner().Run(ctx, sink, opts)
}

// Fn returns a new mock function.
func Fn(impl ...mock.Impl) *mock.Fn { return mock.New(impl...) }

// Anything matches every value, and through negation none.
func Anything() any { return match.Anything() }

// Any matches values of the kind of v.
func Any(v any) *match.AnyMarker { return match.Any(v) }
