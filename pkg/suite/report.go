package suite

import (
	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/expect"
)

// EntryKind identifies what a report Entry describes.
type EntryKind int

const (
	EntryTest EntryKind = iota
	EntryExpect
	EntryOutcome
	EntryError
)

func (k EntryKind) String() string {
	switch k {
	case EntryTest:
		return "test"
	case EntryExpect:
		return "expect"
	case EntryOutcome:
		return "outcome"
	case EntryError:
		return "error"
	}
	return "unknown"
}

// Entry is one line of a hierarchical report.
type Entry struct {
	Kind     EntryKind
	Depth    int
	Title    string
	Result   bool
	Verdict  expect.Verdict
	Key      string
	Message  string
	Detail   string
	Location callsite.Location
	Err      error
}

// Sink receives report entries in tree order.
type Sink interface {
	Emit(Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Entry)

func (f SinkFunc) Emit(e Entry) { f(e) }

// Detailer is implemented by outcome targets that carry extra text for the
// report, such as a snapshot diff.
type Detailer interface {
	Detail() string
}

// ReportOptions control the report walk.
type ReportOptions struct {
	// Head reports test nodes only.
	Head bool
	// NoLocation hides locations of passing entries. Failures always
	// carry theirs.
	NoLocation bool
}

func (o ReportOptions) loc(pass bool, l callsite.Location) callsite.Location {
	if o.NoLocation && pass {
		return callsite.Location{}
	}
	return l
}

// Report walks the tree depth first and emits one entry per test, and
// unless Head is set, per expectation and per outcome.
func (t *Test) Report(sink Sink, opts ReportOptions) {
	t.report(sink, opts, 0)
}

func (t *Test) report(sink Sink, opts ReportOptions, depth int) {
	result := t.Result()
	sink.Emit(Entry{
		Kind:     EntryTest,
		Depth:    depth,
		Title:    t.title,
		Result:   result,
		Location: opts.loc(result, t.location),
	})
	if err := t.Err(); err != nil {
		sink.Emit(Entry{
			Kind:     EntryError,
			Depth:    depth + 1,
			Title:    t.title,
			Message:  err.Error(),
			Location: t.location,
			Err:      err,
		})
	}
	for _, c := range t.Children() {
		switch m := c.(type) {
		case *Test:
			m.report(sink, opts, depth+1)
		case *expect.Expectation:
			if !opts.Head {
				reportExpectation(sink, opts, m, depth+1)
			}
		}
	}
}

func reportExpectation(sink Sink, opts ReportOptions, e *expect.Expectation, depth int) {
	outcomes := e.Outcomes()
	if title := e.Title(); title != "" {
		sink.Emit(Entry{Kind: EntryExpect, Depth: depth, Title: title, Result: e.Result()})
		depth++
	}
	for _, o := range outcomes {
		ent := Entry{
			Kind:     EntryOutcome,
			Depth:    depth,
			Title:    e.Title(),
			Result:   o.Verdict.OK(),
			Verdict:  o.Verdict,
			Key:      o.Key,
			Message:  e.Message(o),
			Location: opts.loc(o.Verdict.OK(), o.Location),
		}
		if d, ok := o.Target.(Detailer); ok {
			ent.Detail = d.Detail()
		}
		sink.Emit(ent)
	}
}
