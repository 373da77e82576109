package expect

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// toSatisfy accepts a Go predicate (func(T) bool, with T assignable from
// the subject) or an expr-lang expression over "value", e.g. "value > 3 &&
// value < 10".
func registerSatisfy(r *Registry) {
	r.Register(func(e *Expectation, args ...any) *Expectation {
		target := arg("toSatisfy", args, 0)
		subject := e.Subject()
		var pass bool
		switch p := target.(type) {
		case string:
			program := compileSatisfy(p)
			out, err := expr.Run(program, satisfyEnv(subject))
			pass = err == nil && out == true
		case func(any) bool:
			pass = p(subject)
		default:
			pass = callPredicate(target, subject)
		}
		return e.Process("toSatisfy", Bool(pass), subject, target)
	}, Binary("toSatisfy"), "toSatisfy")
}

var programs sync.Map

func compileSatisfy(src string) *vm.Program {
	if p, ok := programs.Load(src); ok {
		return p.(*vm.Program)
	}
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		usage("toSatisfy", "compile expression %q: %v", src, err)
	}
	programs.Store(src, program)
	return program
}

func satisfyEnv(subject any) map[string]any {
	return map[string]any{"value": subject, "subject": subject}
}

func callPredicate(pred, subject any) bool {
	fv := reflect.ValueOf(pred)
	if !fv.IsValid() {
		usage("toSatisfy", "predicate is nil")
	}
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 1 || ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Bool {
		usage("toSatisfy", "predicate must be func(T) bool or an expression, got %s", ft)
	}
	var in reflect.Value
	if subject == nil {
		in = reflect.Zero(ft.In(0))
	} else {
		in = reflect.ValueOf(subject)
		if !in.Type().AssignableTo(ft.In(0)) {
			if !in.Type().ConvertibleTo(ft.In(0)) {
				return false
			}
			in = in.Convert(ft.In(0))
		}
	}
	return fv.Call([]reflect.Value{in})[0].Bool()
}

// Satisfy is the expression form of toSatisfy for callers outside a
// matcher, such as declarative suites.
func Satisfy(src string, subject any) (bool, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return false, fmt.Errorf("compile expression: %w", err)
	}
	out, err := expr.Run(program, satisfyEnv(subject))
	if err != nil {
		return false, fmt.Errorf("run expression: %w", err)
	}
	b, _ := out.(bool)
	return b, nil
}
