// Package future provides settle-once values: the engine's rendition of a
// promise. Mock functions return futures from Resolve/Reject behaviours and
// expectations await them through Resolves/Rejects and the resolved-value
// matchers.
package future

import (
	"context"
	"fmt"
	"sync"
)

// Future is a value that is settled exactly once, either with a value
// (resolved) or with an error (rejected).
type Future struct {
	once sync.Once
	done chan struct{}
	val  any
	err  error
}

// New returns a pending future together with its settle functions. Only the
// first call to either function has an effect.
func New() (f *Future, resolve func(any), reject func(error)) {
	f = &Future{done: make(chan struct{})}
	resolve = func(v any) { f.settle(v, nil) }
	reject = func(err error) {
		if err == nil {
			err = fmt.Errorf("future rejected with nil error")
		}
		f.settle(nil, err)
	}
	return f, resolve, reject
}

// Resolved returns a future already resolved with v.
func Resolved(v any) *Future {
	f, resolve, _ := New()
	resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected(err error) *Future {
	f, _, reject := New()
	reject(err)
	return f
}

// Go runs fn in a new goroutine and settles the returned future with its
// result. A panic inside fn rejects the future.
func Go(fn func() (any, error)) *Future {
	f, resolve, reject := New()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("panic: %v", r))
			}
		}()
		v, err := fn()
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return f
}

func (f *Future) settle(v any, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Settled reports whether the future has been resolved or rejected.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then returns a future settled with fn applied to f's value. Rejections
// pass through untouched.
func (f *Future) Then(fn func(any) (any, error)) *Future {
	return Go(func() (any, error) {
		<-f.done
		if f.err != nil {
			return nil, f.err
		}
		return fn(f.val)
	})
}

func (f *Future) String() string {
	if !f.Settled() {
		return "Future{pending}"
	}
	if f.err != nil {
		return fmt.Sprintf("Future{rejected: %v}", f.err)
	}
	return fmt.Sprintf("Future{resolved: %v}", f.val)
}
