package match

import (
	"fmt"
	"reflect"
)

// Kind names a loose value category understood by Any.
type Kind string

const (
	String    Kind = "string"
	Number    Kind = "number"
	Boolean   Kind = "boolean"
	Function  Kind = "function"
	Object    Kind = "object"
	Array     Kind = "array"
	Undefined Kind = "undefined"
	Null      Kind = "null"
)

// AnyMarker stands in for "any value of this kind or type" when used as an
// expected value in Equals and in mock-call matchers.
type AnyMarker struct {
	kind Kind
	typ  reflect.Type
}

// Any builds a marker from a Kind, a reflect.Type, or a sample value whose
// dynamic type is used (a typed nil pointer works as a sample).
func Any(v any) *AnyMarker {
	switch x := v.(type) {
	case Kind:
		return &AnyMarker{kind: x}
	case reflect.Type:
		return &AnyMarker{typ: x}
	case nil:
		return &AnyMarker{kind: Undefined}
	default:
		return &AnyMarker{typ: reflect.TypeOf(v)}
	}
}

// AnyType is the generic form of Any for a static type.
func AnyType[T any]() *AnyMarker {
	return &AnyMarker{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// Matches reports whether received satisfies the marker.
func (m *AnyMarker) Matches(received any) bool {
	if m.typ != nil {
		if received == nil {
			return false
		}
		rt := reflect.TypeOf(received)
		if m.typ.Kind() == reflect.Interface {
			return rt.Implements(m.typ)
		}
		return rt == m.typ
	}
	return IsKind(received, m.kind)
}

func (m *AnyMarker) String() string {
	if m.typ != nil {
		return fmt.Sprintf("any(%s)", m.typ)
	}
	return fmt.Sprintf("any(%s)", m.kind)
}

// IsKind reports whether v belongs to the loose category k.
func IsKind(v any, k Kind) bool {
	rv := reflect.ValueOf(v)
	switch k {
	case Undefined, Null:
		return isNil(rv)
	case String:
		return rv.IsValid() && rv.Kind() == reflect.String
	case Number:
		return isNumber(rv)
	case Boolean:
		return rv.IsValid() && rv.Kind() == reflect.Bool
	case Function:
		if _, ok := v.(interface{ IsMock() bool }); ok {
			return true
		}
		return rv.IsValid() && rv.Kind() == reflect.Func
	case Array:
		return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
	case Object:
		if isNil(rv) {
			return false
		}
		switch rv.Kind() {
		case reflect.Map, reflect.Struct, reflect.Pointer, reflect.Slice, reflect.Array, reflect.Interface:
			return true
		}
	}
	return false
}

// KindOf returns the loose category of v.
func KindOf(v any) Kind {
	for _, k := range []Kind{Undefined, String, Number, Boolean, Function, Array, Object} {
		if IsKind(v, k) {
			return k
		}
	}
	return Object
}

type anythingMarker struct{}

func (*anythingMarker) String() string { return "anything" }

var anything = &anythingMarker{}

// Anything returns the "anything" marker. Used as a target it inverts the
// recorded outcome of any matcher (see expect.Expectation.Process).
func Anything() any { return anything }

// IsAnything reports whether v is the anything marker or a slice holding it
// as one of its direct elements.
func IsAnything(v any) bool {
	if v == anything {
		return true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i)
		if el.CanInterface() && el.Interface() == any(anything) {
			return true
		}
	}
	return false
}
