package expect

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ormasoftchile/chk/pkg/match"
)

func arg(name string, args []any, i int) any {
	if i >= len(args) {
		usage(name, "missing argument %d", i+1)
	}
	return args[i]
}

func optArg(args []any, i int) (any, bool) {
	if i >= len(args) {
		return nil, false
	}
	return args[i], true
}

func intArg(name string, args []any, i int) int {
	f, ok := match.ToNumber(arg(name, args, i))
	if !ok {
		usage(name, "argument %d must be a number, got %T", i+1, args[i])
	}
	return int(f)
}

// binary registers a matcher comparing the subject with one target.
func binary(r *Registry, pred func(subject, target any) bool, op string, names ...string) {
	key := names[0]
	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg(key, args, 0)
		subject := e.Subject()
		return e.Process(key, Bool(pred(subject, target)), subject, target)
	}, Binary(op), names...)
}

// unary registers a target-less matcher.
func unary(r *Registry, pred func(subject any) bool, target any, op string, names ...string) {
	key := names[0]
	r.Register(func(e *Expectation, args ...any) *Expectation {
		subject := e.Subject()
		return e.Process(key, Bool(pred(subject)), subject, target)
	}, Unary(op), names...)
}

func registerEquality(r *Registry) {
	binary(r, match.Equals, "==", "==", "eq")
	binary(r, match.Equals, "toEqual", "toEqual")
	binary(r, match.StrictEquals, "===", "===", "deq", "toBe")
	binary(r, match.StrictDeepEquals, "toStrictEqual", "toStrictEqual")
	binary(r, func(a, b any) bool { return !match.Equals(a, b) }, "!=", "!=", "neq")
	binary(r, func(a, b any) bool { return !match.StrictEquals(a, b) }, "!==", "!==", "ndeq")

	ordered := func(ok func(int) bool) func(a, b any) bool {
		return func(a, b any) bool {
			c, comparable := match.Compare(a, b)
			return comparable && ok(c)
		}
	}
	binary(r, ordered(func(c int) bool { return c > 0 }), ">", ">", "greaterThan", "toBeGreaterThan")
	binary(r, ordered(func(c int) bool { return c >= 0 }), ">=", ">=", "toBeGreaterThanOrEqual")
	binary(r, ordered(func(c int) bool { return c < 0 }), "<", "<", "lessThan", "toBeLessThan")
	binary(r, ordered(func(c int) bool { return c <= 0 }), "<=", "<=", "toBeLessThanOrEqual")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		expected, ok := match.ToNumber(arg("toBeCloseTo", args, 0))
		if !ok {
			usage("toBeCloseTo", "expected value must be a number, got %T", args[0])
		}
		precision := 2
		if _, ok := optArg(args, 1); ok {
			precision = intArg("toBeCloseTo", args, 1)
		}
		subject := e.Subject()
		received, ok := match.ToNumber(subject)
		if !ok {
			if s, isStr := subject.(string); isStr {
				if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					received, ok = f, true
				}
			}
		}
		mult := math.Pow(10, float64(precision))
		pass := ok && !math.IsNaN(received) && !math.IsNaN(expected) &&
			math.Round(received*mult) == math.Round(expected*mult)
		return e.Process("toBeCloseTo", Bool(pass), subject, expected)
	}, Binary("toBeCloseTo"), "toBeCloseTo")
}

func registerValues(r *Registry) {
	unary(r, func(s any) bool { return s != nil }, nil, "toBeDefined", "toBeDefined")
	unary(r, func(s any) bool { return s == nil }, nil, "toBeUndefined", "toBeUndefined")
	unary(r, match.IsNil, nil, "toBeNull", "toBeNull")
	unary(r, isNaN, math.NaN(), "toBeNaN", "toBeNaN")
	unary(r, match.Truthy, nil, "toBeTruthy", "toBeTruthy")
	unary(r, func(s any) bool { return !match.Truthy(s) }, nil, "toBeFalsy", "toBeFalsy")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("toBeTypeOf", args, 0)
		var kind match.Kind
		switch k := target.(type) {
		case match.Kind:
			kind = k
		case string:
			kind = match.Kind(k)
		default:
			usage("toBeTypeOf", "type must be a string, got %T", target)
		}
		subject := e.Subject()
		return e.Process("toBeTypeOf", Bool(match.IsKind(subject, kind)), subject, string(kind))
	}, Binary("toBeTypeOf"), "toBeTypeOf")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("toBeInstanceOf", args, 0)
		subject := e.Subject()
		return e.Process("toBeInstanceOf", Bool(instanceOf(subject, target)), subject, target)
	}, Binary("toBeInstanceOf"), "toBeInstanceOf")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		title, ok := arg("setTitle", args, 0).(string)
		if !ok {
			usage("setTitle", "title must be a string, got %T", args[0])
		}
		return e.SetTitle(title)
	}, nil, "setTitle", "$")

	note := func(key string, v Verdict) Matcher {
		return func(e *Expectation, args ...any) *Expectation {
			return e.record(key, v, e.Subject(), fmt.Sprint(args...))
		}
	}
	r.Register(note("info", Info), Note, "info")
	r.Register(note("warn", Warn), Note, "warn")
}

func isNaN(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return false
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err != nil && strings.TrimSpace(x) != ""
	}
	if _, ok := match.ToNumber(v); ok {
		return match.IsNaN(v)
	}
	return true
}

// instanceOf accepts a reflect.Type, a nil pointer to an interface
// ((*io.Reader)(nil)) or a sample value of the wanted type.
func instanceOf(subject, target any) bool {
	if subject == nil || target == nil {
		return false
	}
	var want reflect.Type
	switch t := target.(type) {
	case reflect.Type:
		want = t
	default:
		want = reflect.TypeOf(target)
		if want.Kind() == reflect.Pointer && want.Elem().Kind() == reflect.Interface {
			want = want.Elem()
		}
	}
	got := reflect.TypeOf(subject)
	if want.Kind() == reflect.Interface {
		return got.Implements(want)
	}
	return got == want
}

func registerCollections(r *Registry) {
	r.Register(func(e *Expectation, args ...any) *Expectation {
		item := arg("toContain", args, 0)
		subject := e.Subject()
		ok, _ := match.Contains(subject, item)
		return e.Process("toContain", Bool(ok), subject, item)
	}, Binary("toContain"), "toContain")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		item := arg("toContainEqual", args, 0)
		subject := e.Subject()
		ok, _ := match.ContainsEqual(subject, item)
		return e.Process("toContainEqual", Bool(ok), subject, item)
	}, Binary("toContainEqual"), "toContainEqual")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("array.contains", args, 0)
		items, ok := match.Elements(target)
		if !ok {
			usage("array.contains", "target must be a slice, got %T", target)
		}
		subject := e.Subject()
		pass := true
		for _, it := range items {
			if found, _ := match.Contains(subject, it); !found {
				pass = false
				break
			}
		}
		return e.Process("array.contains", Bool(pass), subject, target)
	}, Binary("contains all of"), "array.contains")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		values := args
		if len(args) == 1 {
			if els, ok := match.Elements(args[0]); ok {
				values = els
			}
		}
		subject := e.Subject()
		pass := false
		for _, v := range values {
			if match.StrictEquals(subject, v) {
				pass = true
				break
			}
		}
		return e.Process("toBeOneOf", Bool(pass), subject, values)
	}, Binary("toBeOneOf"), "toBeOneOf")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		want := intArg("toHaveLength", args, 0)
		subject := e.Subject()
		n, ok := match.Length(subject)
		return e.Process("toHaveLength", Bool(ok && n == want), subject, want)
	}, Binary("toHaveLength"), "toHaveLength")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		path, ok := arg("toHaveProperty", args, 0).(string)
		if !ok {
			usage("toHaveProperty", "property must be a string, got %T", args[0])
		}
		subject := e.Subject()
		got, found := match.Property(subject, path)
		if want, has := optArg(args, 1); has && found {
			found = match.StrictEquals(got, want)
		}
		return e.Process("toHaveProperty", Bool(found), subject, path)
	}, Binary("toHaveProperty"), "toHaveProperty")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("toMatch", args, 0)
		var re *regexp.Regexp
		switch p := target.(type) {
		case *regexp.Regexp:
			re = p
		case string:
			var err error
			if re, err = regexp.Compile(p); err != nil {
				usage("toMatch", "invalid pattern %q: %v", p, err)
			}
		default:
			usage("toMatch", "pattern must be a string or *regexp.Regexp, got %T", target)
		}
		subject := e.Subject()
		text, ok := subject.(string)
		if !ok {
			text = fmt.Sprint(subject)
		}
		return e.Process("toMatch", Bool(re.MatchString(text)), subject, target)
	}, Binary("toMatch"), "toMatch")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("toMatchObject", args, 0)
		subject := e.Subject()
		return e.Process("toMatchObject", Bool(match.MatchObject(subject, target)), subject, target)
	}, Binary("toMatchObject"), "toMatchObject")
}

func registerErrors(r *Registry) {
	r.Register(func(e *Expectation, args ...any) *Expectation {
		subject := e.Subject()
		err := thrown(subject)
		target, has := optArg(args, 0)
		var pass bool
		switch {
		case err == nil:
			pass = false
		case !has || target == nil:
			pass = true
		default:
			pass = errorMatches(err, target)
		}
		return e.Process("toThrow", Bool(pass), subject, target)
	}, Binary("toThrow"), "toThrow")

	r.Register(func(e *Expectation, args ...any) *Expectation {
		want, ok := arg("toThrowErrorContains", args, 0).(string)
		if !ok {
			usage("toThrowErrorContains", "target must be a string, got %T", args[0])
		}
		subject := e.Subject()
		err := thrown(subject)
		pass := err != nil && strings.Contains(err.Error(), want)
		return e.Process("toThrowErrorContains", Bool(pass), subject, want)
	}, Binary("toThrowErrorContains"), "toThrowErrorContains")
}

// thrown extracts the failure carried by subject: an error value, or the
// error returned or panic raised when subject is a func() or func() error.
func thrown(subject any) (err error) {
	switch s := subject.(type) {
	case error:
		return s
	case func() error:
		defer recoverAsError(&err)
		return s()
	case func():
		defer recoverAsError(&err)
		s()
		return nil
	}
	return nil
}

func recoverAsError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = e
		return
	}
	*err = fmt.Errorf("%v", r)
}

// errorMatches compares err with a message string, a *regexp.Regexp or a
// sentinel error (errors.Is).
func errorMatches(err error, target any) bool {
	switch t := target.(type) {
	case string:
		return err.Error() == t
	case *regexp.Regexp:
		return t.MatchString(err.Error())
	case error:
		return errors.Is(err, t)
	}
	return false
}
