package match

import (
	"cmp"
	"math"
	"reflect"
	"time"
)

// Compare orders two numbers, two strings or two times. ok is false when
// the values are not mutually ordered.
func Compare(a, b any) (c int, ok bool) {
	if fa, okA := ToNumber(a); okA {
		fb, okB := ToNumber(b)
		if !okB || math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, false
		}
		return cmp.Compare(fa, fb), true
	}
	if ta, okA := a.(time.Time); okA {
		tb, okB := b.(time.Time)
		if !okB {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsValid() && vb.IsValid() && va.Kind() == reflect.String && vb.Kind() == reflect.String {
		return cmp.Compare(va.String(), vb.String()), true
	}
	return 0, false
}

// Truthy mirrors loose truthiness: nil, false, zero numbers, NaN and the
// empty string are falsy; everything else is truthy.
func Truthy(v any) bool {
	rv := reflect.ValueOf(v)
	if isNil(rv) {
		return false
	}
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	}
	if f, ok := ToNumber(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// IsNaN reports whether v is a floating point NaN.
func IsNaN(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(rv.Float())
	}
	return false
}
