package mock

import (
	"fmt"
	"reflect"
	"sort"
)

// Set holds the mocks installed by FromStruct, keyed by field path
// ("Save", "Store.Get").
type Set map[string]*Fn

// Names returns the field paths in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clear clears every mock of the set.
func (s Set) Clear() {
	for _, f := range s {
		f.Clear()
	}
}

// Restore puts every original field value back.
func (s Set) Restore() {
	for _, f := range s {
		f.Restore()
	}
}

// FromStruct replaces every exported func field of the struct ptr points to
// with a forwarder to a fresh mock named after the field. Nested structs,
// by value or through a non-nil pointer, are mocked the same way under a
// dotted path. Other fields keep their values. An untouched mock returns
// the zero values of the field's results.
func FromStruct(ptr any) Set {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("mock.FromStruct: %T is not a pointer to a struct", ptr))
	}
	set := make(Set)
	mockFields(rv.Elem(), "", set, map[uintptr]bool{rv.Pointer(): true})
	return set
}

func mockFields(sv reflect.Value, prefix string, set Set, seen map[uintptr]bool) {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		fv := sv.Field(i)
		if !sf.IsExported() || !fv.CanSet() {
			continue
		}
		name := prefix + sf.Name
		switch fv.Kind() {
		case reflect.Func:
			set[name] = install(fv, name)
		case reflect.Struct:
			mockFields(fv, name+".", set, seen)
		case reflect.Pointer:
			if fv.IsNil() || fv.Elem().Kind() != reflect.Struct || seen[fv.Pointer()] {
				continue
			}
			seen[fv.Pointer()] = true
			mockFields(fv.Elem(), name+".", set, seen)
		}
	}
}

func install(fv reflect.Value, name string) *Fn {
	f := New().SetName(name)
	orig := reflect.New(fv.Type()).Elem()
	orig.Set(fv)
	fv.Set(forwarder(fv.Type(), f))
	f.mu.Lock()
	f.restore = func() { fv.Set(orig) }
	f.mu.Unlock()
	return f
}

// Auto returns a zero T whose func fields are all mocks. T must be a struct
// type.
func Auto[T any]() (*T, Set) {
	v := new(T)
	return v, FromStruct(v)
}
