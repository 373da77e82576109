package match

import (
	"errors"
	"math"
	"testing"
	"time"
)

type point struct {
	X, Y int
}

func TestEquals(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", 1, 1, true},
		{"int vs float", 1, 1.0, true},
		{"int vs int64", int64(3), 3, true},
		{"different numbers", 1, 2, false},
		{"strings", "a", "a", true},
		{"string vs number", "1", 1, false},
		{"nil", nil, nil, true},
		{"nil vs typed nil", nil, []int(nil), true},
		{"slices", []int{1, 2}, []any{1, 2}, true},
		{"slice length", []int{1, 2}, []int{1}, false},
		{"maps", map[string]any{"a": 1}, map[string]int{"a": 1}, true},
		{"map missing key", map[string]int{"a": 1}, map[string]int{"b": 1}, false},
		{"structs", point{1, 2}, point{1, 2}, true},
		{"struct field", point{1, 2}, point{1, 3}, false},
		{"pointers", &point{1, 2}, &point{1, 2}, true},
		{"time", t1, t1.In(time.FixedZone("x", 3600)), true},
		{"any number", 42, Any(Number), true},
		{"any string mismatch", 42, Any(String), false},
		{"any type", point{}, AnyType[point](), true},
		{"nested any", map[string]any{"id": 7}, map[string]any{"id": Any(Number)}, true},
		{"nan", math.NaN(), math.NaN(), false},
		{"int keys vs string keys", map[int]int{97: 1}, map[string]int{"a": 1}, false},
		{"string keys vs int keys", map[string]int{"a": 1}, map[int]int{97: 1}, false},
		{"any keys vs string keys", map[any]int{97: 1}, map[string]int{"a": 1}, false},
		{"int keys vs float keys", map[int]int{97: 1}, map[float64]int{97: 1}, true},
		{"any keys by value", map[any]int{int64(1): 1}, map[any]int{1: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equals(tt.a, tt.b); got != tt.want {
				t.Errorf("Equals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqualsSymmetricAndReflexive(t *testing.T) {
	values := []any{
		1, 2.5, "x", []int{1}, point{1, 2}, &point{3, 4}, nil, true,
		map[string]int{"a": 1},
		map[int]int{97: 1},
		map[any]int{97: 1},
		map[any]int{"a": 1},
		map[float64]int{97: 1},
	}
	for _, a := range values {
		if !Equals(a, a) {
			t.Errorf("Equals(%v, %v) = false, want true", a, a)
		}
		for _, b := range values {
			if Equals(a, b) != Equals(b, a) {
				t.Errorf("Equals not symmetric for %v, %v", a, b)
			}
		}
	}
}

func TestEqualsCycle(t *testing.T) {
	type node struct {
		Next *node
	}
	a := &node{}
	a.Next = a
	b := &node{}
	b.Next = b
	if !Equals(a, b) {
		t.Error("cyclic structures should compare equal")
	}
}

func TestStrictDeepEquals(t *testing.T) {
	if StrictDeepEquals(1, 1.0) {
		t.Error("StrictDeepEquals(1, 1.0) = true, want false")
	}
	if !StrictDeepEquals([]int{1, 2}, []int{1, 2}) {
		t.Error("StrictDeepEquals on equal slices = false")
	}
	if StrictDeepEquals([]int{1}, []any{1}) {
		t.Error("StrictDeepEquals([]int, []any) = true, want false")
	}
}

func TestStrictEquals(t *testing.T) {
	p := &point{1, 2}
	s := []int{1}
	m := map[string]int{}
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same pointer", p, p, true},
		{"equal pointees", p, &point{1, 2}, false},
		{"same slice", s, s, true},
		{"copied slice", s, []int{1}, false},
		{"same map", m, m, true},
		{"numbers across kinds", 2, 2.0, true},
		{"strings", "a", "a", true},
		{"structs", point{1, 2}, point{1, 2}, true},
		{"nil", nil, nil, true},
		{"nil vs value", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("StrictEquals = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnything(t *testing.T) {
	if !IsAnything(Anything()) {
		t.Error("IsAnything(Anything()) = false")
	}
	if !IsAnything([]any{1, Anything()}) {
		t.Error("slice holding Anything should count")
	}
	if IsAnything([]any{[]any{Anything()}}) {
		t.Error("only direct elements count")
	}
	if IsAnything([]int{1}) || IsAnything(nil) {
		t.Error("plain values are not Anything")
	}
	if Equals(1, Anything()) {
		t.Error("Anything is opaque to Equals")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		v    any
		want Kind
	}{
		{"s", String},
		{3, Number},
		{true, Boolean},
		{func() {}, Function},
		{[]int{}, Array},
		{map[string]int{}, Object},
		{nil, Undefined},
	}
	for _, tt := range tests {
		if got := KindOf(tt.v); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestMatchObject(t *testing.T) {
	received := map[string]any{
		"name": "chk",
		"tags": []any{"a", "b"},
		"meta": map[string]any{"version": 2, "extra": true},
	}
	if !MatchObject(received, map[string]any{"name": "chk"}) {
		t.Error("subset of keys should match")
	}
	if !MatchObject(received, map[string]any{"meta": map[string]any{"version": 2}}) {
		t.Error("nested subset should match")
	}
	if MatchObject(received, map[string]any{"meta": map[string]any{"version": 3}}) {
		t.Error("nested mismatch should fail")
	}
	if MatchObject(received, map[string]any{"missing": 1}) {
		t.Error("missing key should fail")
	}
	if !MatchObject(point{1, 2}, map[string]any{"X": 1}) {
		t.Error("struct fields should be addressable by name")
	}
	if !MatchObject(received, map[string]any{"name": Any(String)}) {
		t.Error("Any marker should match within subsets")
	}
}

func TestProperty(t *testing.T) {
	v := map[string]any{"a": map[string]any{"b": point{X: 5}}}
	got, ok := Property(v, "a.b.X")
	if !ok || got != 5 {
		t.Errorf("Property(a.b.X) = %v, %v; want 5, true", got, ok)
	}
	if _, ok := Property(v, "a.c"); ok {
		t.Error("Property(a.c) should be missing")
	}
}

func TestLengthAndContains(t *testing.T) {
	if n, ok := Length("héllo"); !ok || n != 5 {
		t.Errorf("Length(héllo) = %d, %v", n, ok)
	}
	if n, ok := Length([]int{1, 2, 3}); !ok || n != 3 {
		t.Errorf("Length(slice) = %d, %v", n, ok)
	}
	if _, ok := Length(42); ok {
		t.Error("Length(42) should not be ok")
	}

	if got, ok := Contains("hello world", "lo w"); !ok || !got {
		t.Error("substring should be contained")
	}
	if got, _ := Contains([]int{1, 2, 3}, 2.0); !got {
		t.Error("numeric element should be contained across kinds")
	}
	if got, _ := Contains([]point{{1, 2}}, point{1, 2}); !got {
		t.Error("comparable struct element should be contained")
	}
	if got, _ := Contains([][]int{{1}}, []int{1}); got {
		t.Error("Contains uses identity for slices")
	}
	if got, _ := ContainsEqual([][]int{{1}}, []int{1}); !got {
		t.Error("ContainsEqual uses structural equality")
	}
	if _, ok := Contains(42, 4); ok {
		t.Error("Contains on a number should not be ok")
	}
}

func TestCompareAndTruthy(t *testing.T) {
	if c, ok := Compare(1, 2.5); !ok || c >= 0 {
		t.Errorf("Compare(1, 2.5) = %d, %v", c, ok)
	}
	if c, ok := Compare("b", "a"); !ok || c <= 0 {
		t.Errorf("Compare(b, a) = %d, %v", c, ok)
	}
	if _, ok := Compare(1, "a"); ok {
		t.Error("Compare(1, a) should not be ok")
	}
	for _, v := range []any{nil, false, 0, "", 0.0, math.NaN(), []int(nil)} {
		if Truthy(v) {
			t.Errorf("Truthy(%v) = true", v)
		}
	}
	for _, v := range []any{true, 1, "x", []int{}, point{}} {
		if !Truthy(v) {
			t.Errorf("Truthy(%v) = false", v)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{"a", `"a"`},
		{nil, "undefined"},
		{3, "3"},
		{func() {}, "function"},
		{errors.New("boom"), `error("boom")`},
		{Anything(), "anything"},
		{Any(Number), "any(number)"},
	}
	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
	if _, ok := Portable(func() {}).(string); !ok {
		t.Error("Portable(func) should fall back to a string")
	}
	for _, v := range []any{math.NaN(), math.Inf(1), float32(math.Inf(-1)), []float64{1, math.NaN()}} {
		if _, ok := Portable(v).(string); !ok {
			t.Errorf("Portable(%v) should fall back to a string", v)
		}
	}
	if got := Portable(2.5); got != 2.5 {
		t.Errorf("Portable(2.5) = %v", got)
	}
}
