package suite

import (
	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/match"
)

// ReportJSON is the machine-readable report of one root node.
type ReportJSON struct {
	Result   bool         `json:"result"`
	Title    string       `json:"title"`
	Location string       `json:"location"`
	Error    string       `json:"error,omitempty"`
	Modules  []ModuleJSON `json:"modules"`
}

// ModuleJSON is a child: an expectation (Expects set) or a nested test
// (Tests set, possibly empty).
type ModuleJSON struct {
	Title    string       `json:"title"`
	Result   bool         `json:"result"`
	Location string       `json:"location,omitempty"`
	Error    string       `json:"error,omitempty"`
	Expects  []ExpectJSON `json:"expects,omitempty"`
	Tests    []ModuleJSON `json:"tests,omitempty"`
}

// ExpectJSON is one recorded outcome.
type ExpectJSON struct {
	Key      string         `json:"key"`
	Result   expect.Verdict `json:"result"`
	Subject  any            `json:"subject"`
	Target   any            `json:"target"`
	Location string         `json:"location"`
	Title    string         `json:"title,omitempty"`
}

// JSON describes the node without waiting for anything; call it after Exec
// has returned.
func (t *Test) JSON() ReportJSON {
	r := ReportJSON{
		Result:   t.Result(),
		Title:    t.title,
		Location: t.location.String(),
		Modules:  modules(t),
	}
	if err := t.Err(); err != nil {
		r.Error = err.Error()
	}
	return r
}

func modules(t *Test) []ModuleJSON {
	out := []ModuleJSON{}
	for _, c := range t.Children() {
		switch m := c.(type) {
		case *Test:
			mod := ModuleJSON{
				Title:    m.title,
				Result:   m.Result(),
				Location: m.location.String(),
				Tests:    modules(m),
			}
			if err := m.Err(); err != nil {
				mod.Error = err.Error()
			}
			out = append(out, mod)
		case *expect.Expectation:
			out = append(out, expectationJSON(m))
		}
	}
	return out
}

func expectationJSON(e *expect.Expectation) ModuleJSON {
	mod := ModuleJSON{Title: e.Title(), Result: e.Result()}
	for _, o := range e.Outcomes() {
		mod.Expects = append(mod.Expects, ExpectJSON{
			Key:      o.Key,
			Result:   o.Verdict,
			Subject:  match.Portable(o.Subject),
			Target:   match.Portable(o.Target),
			Location: o.Location.String(),
			Title:    e.Title(),
		})
	}
	return mod
}
