package expect

import (
	"github.com/ormasoftchile/chk/pkg/future"
	"github.com/ormasoftchile/chk/pkg/match"
	"github.com/ormasoftchile/chk/pkg/mock"
)

func mockOf(name string, subject any) *mock.Fn {
	fn, ok := subject.(*mock.Fn)
	if !ok {
		usage(name, "can only be used on a mock function, got %T", subject)
	}
	return fn
}

func returned(fn *mock.Fn) []any {
	var out []any
	for _, r := range fn.Results() {
		if r.Type == mock.ResultReturn {
			out = append(out, r.Value)
		}
	}
	return out
}

// resolved awaits every returned value; futures that reject are skipped and
// plain values count as resolved with themselves.
func resolved(e *Expectation, fn *mock.Fn) []any {
	var out []any
	for _, v := range returned(fn) {
		f, ok := v.(*future.Future)
		if !ok {
			out = append(out, v)
			continue
		}
		val, err := f.Await(e.Context())
		if err == nil {
			out = append(out, val)
		}
	}
	return out
}

// nth returns the 1-indexed element of values.
func nth(values []any, n int) (any, bool) {
	if n <= 0 || n > len(values) {
		return nil, false
	}
	return values[n-1], true
}

func last(values []any) (any, bool) {
	return nth(values, len(values))
}

func registerMock(r *Registry) {
	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveBeenCalled", e.Subject())
		return e.Process("toHaveBeenCalled", Bool(len(fn.Calls()) > 0), fn, nil)
	}, Unary("toHaveBeenCalled"), "toHaveBeenCalled")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveBeenCalledTimes", e.Subject())
		want := intArg("toHaveBeenCalledTimes", args, 0)
		return e.Process("toHaveBeenCalledTimes", Bool(len(fn.Calls()) == want), fn, want)
	}, Binary("toHaveBeenCalledTimes"), "toHaveBeenCalledTimes")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveBeenCalledWith", e.Subject())
		pass := false
		for _, call := range fn.Calls() {
			if match.Equals(call, args) {
				pass = true
				break
			}
		}
		return e.Process("toHaveBeenCalledWith", Bool(pass), fn, args)
	}, Binary("toHaveBeenCalledWith"), "toHaveBeenCalledWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveBeenLastCalledWith", e.Subject())
		call, ok := fn.LastCall()
		return e.Process("toHaveBeenLastCalledWith", Bool(ok && match.Equals(call, args)), fn, args)
	}, Binary("toHaveBeenLastCalledWith"), "toHaveBeenLastCalledWith", "toHaveBeenCalledLastCalledWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveBeenNthCalledWith", e.Subject())
		n := intArg("toHaveBeenNthCalledWith", args, 0)
		want := args[1:]
		calls := fn.Calls()
		pass := n > 0 && n <= len(calls) && match.Equals(calls[n-1], want)
		return e.Process("toHaveBeenNthCalledWith", Bool(pass), fn, want)
	}, Binary("toHaveBeenNthCalledWith"), "toHaveBeenNthCalledWith", "toHaveBeenCalledNthCalledWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveReturned", e.Subject())
		return e.Process("toHaveReturned", Bool(len(returned(fn)) > 0), fn, nil)
	}, Unary("toHaveReturned"), "toHaveReturned")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveReturnedTimes", e.Subject())
		want := intArg("toHaveReturnedTimes", args, 0)
		return e.Process("toHaveReturnedTimes", Bool(len(returned(fn)) == want), fn, want)
	}, Binary("toHaveReturnedTimes"), "toHaveReturnedTimes")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveReturnedWith", e.Subject())
		pass := false
		for _, v := range returned(fn) {
			if match.Equals([]any{v}, args) {
				pass = true
				break
			}
		}
		return e.Process("toHaveReturnedWith", Bool(pass), fn, unwrap(args))
	}, Binary("toHaveReturnedWith"), "toHaveReturnedWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveLastReturnedWith", e.Subject())
		want := arg("toHaveLastReturnedWith", args, 0)
		v, ok := last(returned(fn))
		return e.Process("toHaveLastReturnedWith", Bool(ok && match.Equals(v, want)), fn, want)
	}, Binary("toHaveLastReturnedWith"), "toHaveLastReturnedWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveNthReturnedWith", e.Subject())
		n := intArg("toHaveNthReturnedWith", args, 0)
		want := arg("toHaveNthReturnedWith", args, 1)
		v, ok := nth(returned(fn), n)
		return e.Process("toHaveNthReturnedWith", Bool(ok && match.Equals(v, want)), fn, want)
	}, Binary("toHaveNthReturnedWith"), "toHaveNthReturnedWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveResolved", e.Subject())
		return e.Process("toHaveResolved", Bool(len(resolved(e, fn)) > 0), fn, nil)
	}, Unary("toHaveResolved"), "toHaveResolved")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveResolvedTimes", e.Subject())
		want := intArg("toHaveResolvedTimes", args, 0)
		return e.Process("toHaveResolvedTimes", Bool(len(resolved(e, fn)) == want), fn, want)
	}, Binary("toHaveResolvedTimes"), "toHaveResolvedTimes")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveResolvedWith", e.Subject())
		want := arg("toHaveResolvedWith", args, 0)
		pass := false
		for _, v := range resolved(e, fn) {
			if match.Equals(v, want) {
				pass = true
				break
			}
		}
		return e.Process("toHaveResolvedWith", Bool(pass), fn, want)
	}, Binary("toHaveResolvedWith"), "toHaveResolvedWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveLastResolvedWith", e.Subject())
		want := arg("toHaveLastResolvedWith", args, 0)
		v, ok := last(resolved(e, fn))
		return e.Process("toHaveLastResolvedWith", Bool(ok && match.Equals(v, want)), fn, want)
	}, Binary("toHaveLastResolvedWith"), "toHaveLastResolvedWith")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		fn := mockOf("toHaveNthResolvedWith", e.Subject())
		n := intArg("toHaveNthResolvedWith", args, 0)
		want := arg("toHaveNthResolvedWith", args, 1)
		v, ok := nth(resolved(e, fn), n)
		return e.Process("toHaveNthResolvedWith", Bool(ok && match.Equals(v, want)), fn, want)
	}, Binary("toHaveNthResolvedWith"), "toHaveNthResolvedWith")
}

// unwrap shows a single variadic argument as itself in reports.
func unwrap(args []any) any {
	if len(args) == 1 {
		return args[0]
	}
	return args
}
