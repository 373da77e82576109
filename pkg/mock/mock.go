// Package mock provides call-recording mock functions with queued one-shot
// behaviours, persistent implementations and spies on function variables.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/ormasoftchile/chk/pkg/future"
)

// Impl is the dynamic signature every mock implementation is reduced to.
type Impl func(args ...any) (any, error)

// ResultType classifies a recorded invocation.
type ResultType string

const (
	ResultReturn    ResultType = "return"
	ResultThrow     ResultType = "throw"
	ResultConstruct ResultType = "construct"
)

// Result is the recorded outcome of one invocation. A ResultThrow value is
// the error or the recovered panic value.
type Result struct {
	Type  ResultType `json:"type"`
	Value any        `json:"value"`
}

// Fn is a mock function. The zero value is not usable; call New.
type Fn struct {
	mu         sync.Mutex
	name       string
	calls      [][]any
	instances  []any
	results    []Result
	onceImpls  []Impl
	onceValues []any
	impl       Impl
	returnThis bool
	restore    func()
	// gen is bumped by Clear so results of calls made before it are dropped.
	gen uint64
}

// New returns a mock with an optional base implementation.
func New(impl ...Impl) *Fn {
	f := &Fn{name: "fn"}
	if len(impl) > 0 {
		f.impl = impl[0]
	}
	return f
}

// IsMock marks Fn for kind checks.
func (f *Fn) IsMock() bool { return true }

// IsMock reports whether v is a mock function.
func IsMock(v any) bool {
	_, ok := v.(*Fn)
	return ok
}

// Call invokes the mock with no receiver.
func (f *Fn) Call(args ...any) (any, error) {
	return f.Apply(nil, args...)
}

// Apply invokes the mock with an explicit receiver, used by ReturnThis.
//
// The call is recorded first, then the result is resolved from the one-shot
// implementation queue, the one-shot value queue, the base implementation,
// in that order. Errors and panics are recorded as ResultThrow; panics are
// re-raised after recording.
func (f *Fn) Apply(this any, args ...any) (val any, err error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]any(nil), args...))
	f.results = append(f.results, Result{Type: ResultReturn})
	idx, gen := len(f.results)-1, f.gen

	var impl Impl
	switch {
	case len(f.onceImpls) > 0:
		impl = f.onceImpls[0]
		f.onceImpls = f.onceImpls[1:]
	case len(f.onceValues) > 0:
		v := f.onceValues[0]
		f.onceValues = f.onceValues[1:]
		f.results[idx].Value = v
		f.mu.Unlock()
		return v, nil
	case f.returnThis:
		f.results[idx].Value = this
		f.mu.Unlock()
		return this, nil
	default:
		impl = f.impl
	}
	f.mu.Unlock()

	if impl == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			f.record(gen, idx, Result{Type: ResultThrow, Value: r})
			panic(r)
		}
	}()
	val, err = impl(args...)
	if err != nil {
		f.record(gen, idx, Result{Type: ResultThrow, Value: err})
		return nil, err
	}
	f.record(gen, idx, Result{Type: ResultReturn, Value: val})
	return val, nil
}

func (f *Fn) record(gen uint64, idx int, r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen == f.gen && idx < len(f.results) {
		f.results[idx] = r
	}
}

// Construct records a constructor-style call: the call and the instance are
// tracked, the base implementation runs for its side effects, no queued
// behaviour is consumed and a Construct result is recorded.
func (f *Fn) Construct(this any, args ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]any(nil), args...))
	f.instances = append(f.instances, this)
	f.results = append(f.results, Result{Type: ResultConstruct, Value: this})
	idx, gen := len(f.results)-1, f.gen
	impl := f.impl
	f.mu.Unlock()

	if impl == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			f.record(gen, idx, Result{Type: ResultThrow, Value: r})
			panic(r)
		}
	}()
	if _, err := impl(args...); err != nil {
		f.record(gen, idx, Result{Type: ResultThrow, Value: err})
		return err
	}
	return nil
}

// ImplementOnce queues an implementation used by exactly one call.
func (f *Fn) ImplementOnce(impl Impl) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onceImpls = append(f.onceImpls, impl)
	return f
}

// ReturnOnce queues a value returned by exactly one call.
func (f *Fn) ReturnOnce(v any) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onceValues = append(f.onceValues, v)
	return f
}

// ResolveOnce queues a call returning a future resolved with v.
func (f *Fn) ResolveOnce(v any) *Fn {
	return f.ImplementOnce(func(...any) (any, error) { return future.Resolved(v), nil })
}

// RejectOnce queues a call returning a future rejected with err.
func (f *Fn) RejectOnce(err error) *Fn {
	return f.ImplementOnce(func(...any) (any, error) { return future.Rejected(err), nil })
}

// Implement replaces the base implementation.
func (f *Fn) Implement(impl Impl) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impl = impl
	f.returnThis = false
	return f
}

// Return makes every unqueued call return v.
func (f *Fn) Return(v any) *Fn {
	return f.Implement(func(...any) (any, error) { return v, nil })
}

// Resolve makes every unqueued call return a future resolved with v.
func (f *Fn) Resolve(v any) *Fn {
	return f.Implement(func(...any) (any, error) { return future.Resolved(v), nil })
}

// Reject makes every unqueued call return a future rejected with err.
func (f *Fn) Reject(err error) *Fn {
	return f.Implement(func(...any) (any, error) { return future.Rejected(err), nil })
}

// ReturnThis makes every unqueued call return the receiver passed to Apply.
func (f *Fn) ReturnThis() *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impl = nil
	f.returnThis = true
	return f
}

// Implementation returns the current base implementation.
func (f *Fn) Implementation() Impl {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.impl
}

// Clear drops recorded calls, instances, results and both one-shot queues.
// The base implementation is kept.
func (f *Fn) Clear() *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.calls = nil
	f.instances = nil
	f.results = nil
	f.onceImpls = nil
	f.onceValues = nil
	return f
}

// Reset is Clear plus removal of the base implementation.
func (f *Fn) Reset() *Fn {
	f.Clear()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impl = nil
	f.returnThis = false
	return f
}

// Restore resets the mock and, for spies, puts the original function back.
func (f *Fn) Restore() {
	f.Reset()
	f.mu.Lock()
	restore := f.restore
	f.restore = nil
	f.mu.Unlock()
	if restore != nil {
		restore()
	}
}

// WithImplementation runs cb with impl as the base implementation and puts
// the previous one back afterwards, also when cb fails or panics.
func (f *Fn) WithImplementation(impl Impl, cb func() error) error {
	prev := f.swap(impl)
	defer f.swap(prev)
	return cb()
}

// WithImplementationAsync is WithImplementation for callbacks that return a
// future. The previous implementation is restored once the future settles.
func (f *Fn) WithImplementationAsync(impl Impl, cb func() *future.Future) *future.Future {
	prev := f.swap(impl)
	var fut *future.Future
	func() {
		defer func() {
			if r := recover(); r != nil {
				f.swap(prev)
				fut = future.Rejected(fmt.Errorf("withImplementation callback panicked: %v", r))
			}
		}()
		fut = cb()
	}()
	if fut == nil {
		f.swap(prev)
		return future.Resolved(nil)
	}
	return future.Go(func() (any, error) {
		v, err := fut.Await(context.Background())
		f.swap(prev)
		return v, err
	})
}

func (f *Fn) swap(impl Impl) Impl {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.impl
	f.impl = impl
	return prev
}

// SetName names the mock in messages.
func (f *Fn) SetName(name string) *Fn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	return f
}

// Name returns the mock's name.
func (f *Fn) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Calls returns a copy of the recorded argument lists.
func (f *Fn) Calls() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]any, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the arguments of the most recent call.
func (f *Fn) LastCall() ([]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil, false
	}
	return f.calls[len(f.calls)-1], true
}

// Instances returns the receivers recorded by Construct.
func (f *Fn) Instances() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.instances...)
}

// Results returns a copy of the recorded results.
func (f *Fn) Results() []Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Result(nil), f.results...)
}

func (f *Fn) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("[mock %s (%d calls)]", f.name, len(f.calls))
}
