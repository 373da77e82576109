// Package match implements the value comparisons behind the matchers: deep
// structural equality, identity, subset matching, ordering and truthiness,
// together with the Any/Anything markers.
package match

import (
	"math"
	"reflect"
)

// Equals reports whether a and b are structurally equal.
//
// Numbers compare by value across Go numeric kinds, slices and arrays compare
// element-wise after their lengths, maps compare by key set and then per key,
// structs of the same type compare field by field, and pointers compare the
// values they point to. An Any marker in b short-circuits to a type check.
// Types with an Equal(T) bool method (time.Time) use it.
func Equals(a, b any) bool {
	return deepEqual(reflect.ValueOf(a), reflect.ValueOf(b), false, make(map[visit]bool))
}

// StrictDeepEquals is Equals without numeric kind coercion: every pair of
// values must have identical dynamic types.
func StrictDeepEquals(a, b any) bool {
	return deepEqual(reflect.ValueOf(a), reflect.ValueOf(b), true, make(map[visit]bool))
}

// StrictEquals reports identity: comparable values compare with ==, numbers
// compare by value, and reference kinds (maps, slices, funcs, chans,
// pointers) must share the same underlying pointer. There is no recursion.
func StrictEquals(a, b any) bool {
	if a == nil || b == nil {
		return isNil(reflect.ValueOf(a)) && isNil(reflect.ValueOf(b))
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isNumber(va) && isNumber(vb) {
		return numberEqual(va, vb)
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Type().Comparable() {
		return safeCompare(a, b)
	}
	return false
}

type visit struct {
	a, b uintptr
	typ  reflect.Type
}

func deepEqual(a, b reflect.Value, strict bool, seen map[visit]bool) bool {
	if b.IsValid() && b.CanInterface() {
		if m, ok := b.Interface().(*AnyMarker); ok {
			var recv any
			if a.IsValid() && a.CanInterface() {
				recv = a.Interface()
			}
			return m.Matches(recv)
		}
	}

	if !a.IsValid() || !b.IsValid() {
		return isNil(a) && isNil(b)
	}

	// Unwrap interfaces so []any{1} and []int{1} compare element-wise.
	if a.Kind() == reflect.Interface {
		return deepEqual(a.Elem(), b, strict, seen)
	}
	if b.Kind() == reflect.Interface {
		return deepEqual(a, b.Elem(), strict, seen)
	}

	if strict && a.Type() != b.Type() {
		return false
	}

	if !strict && isNumber(a) && isNumber(b) {
		return numberEqual(a, b)
	}

	if ok, eq := callEqual(a, b); ok {
		return eq
	}

	switch a.Kind() {
	case reflect.Slice, reflect.Array:
		if b.Kind() != reflect.Slice && b.Kind() != reflect.Array {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !deepEqual(a.Index(i), b.Index(i), strict, seen) {
				return false
			}
		}
		return true

	case reflect.Map:
		if b.Kind() != reflect.Map {
			return false
		}
		if a.IsNil() && b.IsNil() {
			return true
		}
		if a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		for _, k := range a.MapKeys() {
			bv, ok := lookupKey(b, k, strict, seen)
			if !ok {
				return false
			}
			if !deepEqual(a.MapIndex(k), bv, strict, seen) {
				return false
			}
		}
		return true

	case reflect.Struct:
		if a.Type() != b.Type() {
			return false
		}
		for i := 0; i < a.NumField(); i++ {
			if !deepEqual(a.Field(i), b.Field(i), strict, seen) {
				return false
			}
		}
		return true

	case reflect.Pointer:
		if b.Kind() != reflect.Pointer {
			return false
		}
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		v := visit{a.Pointer(), b.Pointer(), a.Type()}
		if seen[v] {
			return true
		}
		seen[v] = true
		return deepEqual(a.Elem(), b.Elem(), strict, seen)

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if a.Kind() != b.Kind() {
			return false
		}
		return a.Pointer() == b.Pointer()
	}

	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return numberEqual(a, b)
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	}
	return false
}

// callEqual uses an Equal(T) bool method when a defines one for b's type.
func callEqual(a, b reflect.Value) (bool, bool) {
	if a.Type() != b.Type() || !a.CanInterface() || !b.CanInterface() {
		return false, false
	}
	m, ok := a.Type().MethodByName("Equal")
	if !ok {
		return false, false
	}
	mt := m.Type
	if mt.NumIn() != 2 || mt.NumOut() != 1 || mt.In(1) != a.Type() || mt.Out(0).Kind() != reflect.Bool {
		return false, false
	}
	out := a.MethodByName("Equal").Call([]reflect.Value{b})
	return true, out[0].Bool()
}

// lookupKey finds the value stored in m under a key equal to k. Keys of the
// map's own type are looked up directly; anything else is compared with
// deepEqual against every key of m, so 97 never matches "a".
func lookupKey(m, k reflect.Value, strict bool, seen map[visit]bool) (reflect.Value, bool) {
	kt := m.Type().Key()
	if k.Type() == kt {
		if v := m.MapIndex(k); v.IsValid() {
			return v, true
		}
		if kt.Kind() != reflect.Interface {
			return reflect.Value{}, false
		}
	}
	iter := m.MapRange()
	for iter.Next() {
		if deepEqual(k, iter.Key(), strict, seen) {
			return iter.Value(), true
		}
	}
	return reflect.Value{}, false
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// IsNil reports whether v is nil or a typed nil reference.
func IsNil(v any) bool { return isNil(reflect.ValueOf(v)) }

func isNumber(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numberEqual(a, b reflect.Value) bool {
	switch {
	case isInt(a) && isInt(b):
		return a.Int() == b.Int()
	case isUint(a) && isUint(b):
		return a.Uint() == b.Uint()
	}
	fa, fb := toFloat(a), toFloat(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return false
	}
	return fa == fb
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// ToNumber converts any Go numeric value to float64.
func ToNumber(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !isNumber(rv) {
		return 0, false
	}
	return toFloat(rv), true
}

func safeCompare(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
