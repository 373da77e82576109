package report

import (
	"sync"

	"github.com/ormasoftchile/chk/pkg/suite"
)

// Collector keeps every entry in memory.
type Collector struct {
	mu      sync.Mutex
	entries []suite.Entry
}

func (c *Collector) Emit(e suite.Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Entries returns a copy of what was collected.
func (c *Collector) Entries() []suite.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]suite.Entry(nil), c.entries...)
}

// Failures returns the failing outcomes and errors.
func (c *Collector) Failures() []suite.Entry {
	var out []suite.Entry
	for _, e := range c.Entries() {
		if (e.Kind == suite.EntryOutcome && !e.Result) || e.Kind == suite.EntryError {
			out = append(out, e)
		}
	}
	return out
}

// Tee forwards every entry to each sink in order.
func Tee(sinks ...suite.Sink) suite.Sink {
	return suite.SinkFunc(func(e suite.Entry) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}
