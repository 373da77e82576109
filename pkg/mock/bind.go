package mock

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// FromFunc adapts an ordinary Go function into an Impl. Arguments are
// converted to the parameter types (nil becomes the zero value). A trailing
// error result becomes the Impl error; several remaining results are
// returned as []any.
func FromFunc(fn any) Impl {
	if impl, ok := fn.(Impl); ok {
		return impl
	}
	if impl, ok := fn.(func(...any) (any, error)); ok {
		return impl
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		panic(fmt.Sprintf("mock.FromFunc: %T is not a function", fn))
	}
	if rv.IsNil() {
		return nil
	}
	ft := rv.Type()
	return func(args ...any) (any, error) {
		in, err := convertArgs(ft, args)
		if err != nil {
			return nil, err
		}
		return splitResults(ft, rv.Call(in))
	}
}

func convertArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("want at least %d arguments, got %d", n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		v, err := convert(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convert(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", a, t)
}

func splitResults(ft reflect.Type, out []reflect.Value) (any, error) {
	var err error
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	}
	vals := make([]any, len(out))
	for i, o := range out {
		vals[i] = o.Interface()
	}
	return vals, err
}

// Typed returns a function of type F that forwards every call to f. The
// mock's value is converted to F's results; a []any value feeds several
// results. If F has no trailing error result, a mock error panics.
func Typed[F any](f *Fn) F {
	var zero F
	ft := reflect.TypeOf(zero)
	if ft == nil || ft.Kind() != reflect.Func {
		panic(fmt.Sprintf("mock.Typed: %T is not a function type", zero))
	}
	return forwarder(ft, f).Interface().(F)
}

// forwarder builds a function of type ft that calls f.
func forwarder(ft reflect.Type, f *Fn) reflect.Value {
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, 0, len(in))
		for i, v := range in {
			if ft.IsVariadic() && i == len(in)-1 {
				for j := 0; j < v.Len(); j++ {
					args = append(args, v.Index(j).Interface())
				}
				continue
			}
			args = append(args, v.Interface())
		}
		val, err := f.Call(args...)
		return buildResults(ft, val, err)
	})
}

func buildResults(ft reflect.Type, val any, err error) []reflect.Value {
	n := ft.NumOut()
	hasErr := n > 0 && ft.Out(n-1) == errorType
	if err != nil && !hasErr {
		panic(err)
	}
	vals := n
	if hasErr {
		vals--
	}
	out := make([]reflect.Value, 0, n)
	var parts []any
	switch {
	case vals == 1:
		parts = []any{val}
	case vals > 1:
		parts, _ = val.([]any)
	}
	for i := 0; i < vals; i++ {
		var p any
		if i < len(parts) {
			p = parts[i]
		}
		v, cerr := convert(p, ft.Out(i))
		if cerr != nil {
			panic(fmt.Errorf("mock result %d: %w", i, cerr))
		}
		out = append(out, v)
	}
	if hasErr {
		if err != nil {
			out = append(out, reflect.ValueOf(&err).Elem())
		} else {
			out = append(out, reflect.Zero(errorType))
		}
	}
	return out
}

// Bind points target at a typed forwarder to f. Restore on f puts the
// previous value of target back.
func Bind[F any](f *Fn, target *F) *Fn {
	orig := *target
	*target = Typed[F](f)
	f.mu.Lock()
	f.restore = func() { *target = orig }
	f.mu.Unlock()
	return f
}

// SpyOn replaces the function variable at target with a mock that records
// calls and delegates to the original until another behaviour is set.
func SpyOn[F any](target *F) *Fn {
	f := New(FromFunc(*target))
	f.SetName("spy")
	return Bind(f, target)
}
