package expect

import (
	"encoding/json"
	"fmt"

	"github.com/ormasoftchile/chk/pkg/callsite"
)

// Verdict is the ternary-plus result of one matcher application.
type Verdict int

const (
	Fail Verdict = iota
	Pass
	Info
	Warn
)

// Bool converts a predicate result to Pass or Fail.
func Bool(ok bool) Verdict {
	if ok {
		return Pass
	}
	return Fail
}

// OK reports whether v does not disqualify its expectation.
func (v Verdict) OK() bool { return v != Fail }

// Invert swaps Pass and Fail; Info and Warn are unchanged.
func (v Verdict) Invert() Verdict {
	switch v {
	case Pass:
		return Fail
	case Fail:
		return Pass
	}
	return v
}

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Info:
		return "info"
	case Warn:
		return "warn"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// MarshalJSON encodes Pass and Fail as booleans and Info/Warn as strings.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case Pass:
		return []byte("true"), nil
	case Fail:
		return []byte("false"), nil
	case Info, Warn:
		return json.Marshal(v.String())
	}
	return nil, fmt.Errorf("marshal verdict: unknown value %d", int(v))
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = Pass
	case "false":
		*v = Fail
	case `"info"`:
		*v = Info
	case `"warn"`:
		*v = Warn
	default:
		return fmt.Errorf("unmarshal verdict: unexpected %s", data)
	}
	return nil
}

// Outcome is one recorded matcher application.
type Outcome struct {
	Key      string
	Verdict  Verdict
	Subject  any
	Target   any
	Location callsite.Location
}

// Negated reports whether the outcome was recorded under Not.
func (o Outcome) Negated() bool {
	return len(o.Key) > 0 && o.Key[0] == '!'
}

// BaseKey is the matcher key without the negation prefix.
func (o Outcome) BaseKey() string {
	if o.Negated() {
		return o.Key[1:]
	}
	return o.Key
}
