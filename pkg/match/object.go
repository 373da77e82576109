package match

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

// MatchObject reports whether received contains every key of expected with
// a matching value, recursively. Keys are map keys or exported struct field
// names; slices in expected match index by index.
func MatchObject(received, expected any) bool {
	return subset(reflect.ValueOf(received), reflect.ValueOf(expected))
}

func subset(r, e reflect.Value) bool {
	if e.IsValid() && e.CanInterface() {
		if m, ok := e.Interface().(*AnyMarker); ok {
			var recv any
			if r.IsValid() && r.CanInterface() {
				recv = r.Interface()
			}
			return m.Matches(recv)
		}
	}
	r, e = indirect(r), indirect(e)
	if !e.IsValid() {
		return !r.IsValid() || isNil(r)
	}
	if !r.IsValid() {
		return false
	}
	switch e.Kind() {
	case reflect.Map:
		for _, k := range e.MapKeys() {
			rv, ok := field(r, keyString(k))
			if !ok || !subset(rv, e.MapIndex(k)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		if ok, _ := callEqual(r, e); ok {
			return deepEqual(r, e, false, make(map[visit]bool))
		}
		t := e.Type()
		for i := 0; i < e.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			rv, ok := field(r, t.Field(i).Name)
			if !ok || !subset(rv, e.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if r.Kind() != reflect.Slice && r.Kind() != reflect.Array {
			return false
		}
		if r.Len() != e.Len() {
			return false
		}
		for i := 0; i < e.Len(); i++ {
			if !subset(r.Index(i), e.Index(i)) {
				return false
			}
		}
		return true
	}
	return deepEqual(r, e, false, make(map[visit]bool))
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return Format(k.Interface())
}

// field looks up name on a map with string-convertible keys or a struct.
func field(v reflect.Value, name string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Map:
		kt := v.Type().Key()
		var key reflect.Value
		switch {
		case kt.Kind() == reflect.String:
			key = reflect.ValueOf(name).Convert(kt)
		case kt.Kind() == reflect.Interface:
			key = reflect.ValueOf(name)
		default:
			for _, k := range v.MapKeys() {
				if keyString(k) == name {
					return v.MapIndex(k), true
				}
			}
			return reflect.Value{}, false
		}
		mv := v.MapIndex(key)
		return mv, mv.IsValid()
	case reflect.Struct:
		sf, ok := v.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return reflect.Value{}, false
		}
		return v.FieldByIndex(sf.Index), true
	}
	return reflect.Value{}, false
}

// Property resolves a dotted path ("a.b.c") on nested maps and structs.
func Property(subject any, path string) (any, bool) {
	v := reflect.ValueOf(subject)
	for _, part := range strings.Split(path, ".") {
		var ok bool
		v, ok = field(v, part)
		if !ok {
			return nil, false
		}
	}
	if !v.IsValid() {
		return nil, true
	}
	if !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

// Length returns the length of strings (in runes), slices, arrays, maps,
// channels, and values with a Len() int method.
func Length(v any) (int, bool) {
	if l, ok := v.(interface{ Len() int }); ok {
		return l.Len(), true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

// Contains reports whether subject holds item: a substring for strings, an
// identical element (StrictEquals) for slices and arrays, a key for maps.
// The second result is false when subject is not a container.
func Contains(subject, item any) (bool, bool) {
	return contains(subject, item, StrictEquals)
}

// ContainsEqual is Contains with structural element equality.
func ContainsEqual(subject, item any) (bool, bool) {
	return contains(subject, item, Equals)
}

func contains(subject, item any, eq func(a, b any) bool) (bool, bool) {
	if s, ok := subject.(string); ok {
		sub, ok := item.(string)
		if !ok {
			return false, true
		}
		return strings.Contains(s, sub), true
	}
	rv := reflect.ValueOf(subject)
	if !rv.IsValid() {
		return false, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			el := rv.Index(i)
			if el.CanInterface() && eq(el.Interface(), item) {
				return true, true
			}
		}
		return false, true
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if k.CanInterface() && eq(k.Interface(), item) {
				return true, true
			}
		}
		return false, true
	}
	return false, false
}

// Elements returns the elements of a slice or array as []any.
func Elements(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
