package suite

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ormasoftchile/chk/pkg/expect"
)

// Runner holds the root nodes of a run and the state they share.
type Runner struct {
	env *env

	mu    sync.Mutex
	tests []*Test
}

// NewRunner returns an empty runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{env: defaultEnv()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Add registers a root node.
func (r *Runner) Add(subject any, body Body, opts ...Option) *Test {
	t := newTest(nil, r.env, subject, body, opts)
	r.mu.Lock()
	r.tests = append(r.tests, t)
	r.mu.Unlock()
	return t
}

// Tests returns the root nodes in registration order.
func (r *Runner) Tests() []*Test {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Test(nil), r.tests...)
}

// State returns the run state shared by every node.
func (r *Runner) State() *RunState { return r.env.state }

// Exec resets the run state and executes every root node, concurrently or,
// when interactive, one at a time.
func (r *Runner) Exec(ctx context.Context, interactive bool) {
	r.env.state.Reset()
	roots := r.Tests()
	if interactive {
		for _, t := range roots {
			t.Exec(ctx, true)
		}
		return
	}
	var wg sync.WaitGroup
	for _, t := range roots {
		wg.Add(1)
		go func(t *Test) {
			defer wg.Done()
			t.Exec(ctx, false)
		}(t)
	}
	wg.Wait()
}

// Report walks every root node in registration order.
func (r *Runner) Report(sink Sink, opts ReportOptions) {
	for _, t := range r.Tests() {
		t.Report(sink, opts)
	}
}

// Result is true when every root node passes.
func (r *Runner) Result() bool {
	for _, t := range r.Tests() {
		if !t.Result() {
			return false
		}
	}
	return true
}

// JSON returns the report of every root node.
func (r *Runner) JSON() []ReportJSON {
	roots := r.Tests()
	out := make([]ReportJSON, 0, len(roots))
	for _, t := range roots {
		out = append(out, t.JSON())
	}
	return out
}

// RunOptions configure Run.
type RunOptions struct {
	Head        bool
	NoLocation  bool
	Interactive bool
	// Timeout bounds each body; zero keeps the runner's WithTimeout
	// setting, which is unbounded by default.
	Timeout time.Duration
}

// Summary tallies a run. Passed and Failed count outcomes; Info and Warn
// notes are counted separately and never fail a run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Tests       int           `json:"tests"`
	TestsPassed int           `json:"tests_passed"`
	TestsFailed int           `json:"tests_failed"`
	Errors      int           `json:"errors"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Info        int           `json:"info"`
	Warn        int           `json:"warn"`
	Result      bool          `json:"result"`
}

// Run executes every root node, reports to sink when it is not nil and
// returns the tally. Failing tests never make Run fail; they show up in
// the summary and the report.
func (r *Runner) Run(ctx context.Context, sink Sink, opts RunOptions) *Summary {
	s := &Summary{RunID: uuid.NewString(), Started: time.Now()}
	if opts.Timeout > 0 {
		r.env.timeout = opts.Timeout
	}

	r.Exec(ctx, opts.Interactive)
	s.Duration = time.Since(s.Started).Round(time.Millisecond)

	if sink != nil {
		r.Report(sink, ReportOptions{Head: opts.Head, NoLocation: opts.NoLocation})
	}
	for _, t := range r.Tests() {
		s.tally(t)
	}
	s.Result = r.Result()
	r.env.logger.Debug("run finished",
		"run_id", s.RunID,
		"tests", s.Tests,
		"failed", s.Failed,
		"duration", s.Duration)
	return s
}

func (s *Summary) tally(t *Test) {
	s.Tests++
	if t.Result() {
		s.TestsPassed++
	} else {
		s.TestsFailed++
	}
	if t.Err() != nil {
		s.Errors++
	}
	for _, c := range t.Children() {
		switch m := c.(type) {
		case *Test:
			s.tally(m)
		case *expect.Expectation:
			for _, o := range m.Outcomes() {
				switch o.Verdict {
				case expect.Pass:
					s.Passed++
				case expect.Fail:
					s.Failed++
				case expect.Info:
					s.Info++
				case expect.Warn:
					s.Warn++
				}
			}
		}
	}
}
