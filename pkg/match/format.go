package match

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Format renders a value for assertion messages: strings are quoted, nil is
// "undefined", functions print as "function", everything else uses %v
// (fmt.Stringer included).
func Format(v any) string {
	if v == nil {
		return "undefined"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case error:
		return fmt.Sprintf("error(%q)", x.Error())
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		if rv.IsNil() {
			return "nil"
		}
		return "function"
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
	}
	return fmt.Sprintf("%v", v)
}

// Portable returns v when it marshals to JSON, and its Format rendering
// otherwise. Used to embed subjects and targets in JSON reports.
func Portable(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Format(v)
		}
		return v
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return Format(v)
		}
		return v
	case nil, bool, string, int, int64, int32, uint, uint64:
		return v
	case error:
		return Format(v)
	}
	if _, ok := v.(json.Marshaler); !ok {
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
	}
	if _, err := json.Marshal(v); err != nil {
		return Format(v)
	}
	return v
}
