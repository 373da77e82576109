package suite

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/mock"
)

func quietRunner(opts ...RunnerOption) *Runner {
	opts = append([]RunnerOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRunner(opts...)
}

type collector struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *collector) Emit(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func TestEmptyTestPasses(t *testing.T) {
	node := New("empty", nil)
	node.Exec(context.Background(), false)
	if !node.Result() {
		t.Error("node without children should pass")
	}
	if node.Tested() != 1 {
		t.Errorf("tested = %d, want 1", node.Tested())
	}
}

func TestSuiteScenario(t *testing.T) {
	r := quietRunner()
	var t1, t2 *Test
	root := r.Add("suite", func(c *Context) error {
		t1 = c.Test("t1", func(c *Context) error {
			c.Expect(1 + 1).Eq(2)
			return nil
		})
		t2 = c.Test("t2", func(c *Context) error {
			c.Expect(1 + 1).Eq(3)
			return nil
		})
		return nil
	})

	sum := r.Run(context.Background(), nil, RunOptions{})

	if root.Result() || sum.Result {
		t.Error("suite should fail")
	}
	if !t1.Result() {
		t.Error("t1 should pass")
	}
	if t2.Result() {
		t.Error("t2 should fail")
	}
	if sum.Tests != 3 || sum.TestsFailed != 2 || sum.Passed != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("summary missing run id")
	}
}

func TestFailurePropagatesThroughDepth(t *testing.T) {
	root := New("root", func(c *Context) error {
		c.Test("a", func(c *Context) error {
			c.Test("b", func(c *Context) error {
				c.Test("c", func(c *Context) error {
					c.Expect("x").ToBe("y")
					return nil
				})
				return nil
			})
			return nil
		})
		c.Test("sibling", func(c *Context) error {
			c.Expect(true).ToBeTruthy()
			return nil
		})
		return nil
	})
	root.Exec(context.Background(), false)

	if root.Result() {
		t.Fatal("root should fail")
	}
	a := root.Tests()[0]
	if a.Result() || a.Tests()[0].Result() {
		t.Error("every ancestor of the failure should fail")
	}
	if !root.Tests()[1].Result() {
		t.Error("sibling should pass")
	}
	if got := a.Tests()[0].Tests()[0].Depth(); got != 3 {
		t.Errorf("depth = %d, want 3", got)
	}
}

func TestBodyErrorIsContained(t *testing.T) {
	r := quietRunner()
	boom := errors.New("boom")
	var sibling *Test
	r.Add("root", func(c *Context) error {
		c.Test("bad", func(c *Context) error {
			c.Expect(1).Eq(1)
			return boom
		})
		c.Test("panics", func(c *Context) error {
			panic("kaboom")
		})
		c.Test("usage", func(c *Context) error {
			c.Expect(42).ToHaveBeenCalled()
			c.Expect(1).Eq(2)
			return nil
		})
		sibling = c.Test("ok", func(c *Context) error {
			c.Expect(1).Eq(1)
			return nil
		})
		return nil
	})

	sum := r.Run(context.Background(), nil, RunOptions{})
	kids := r.Tests()[0].Tests()

	if !errors.Is(kids[0].Err(), boom) {
		t.Errorf("bad err = %v", kids[0].Err())
	}
	if !kids[0].Result() {
		t.Error("outcomes recorded before the error still count")
	}
	var pe *PanicError
	if !errors.As(kids[1].Err(), &pe) || pe.Value != "kaboom" {
		t.Errorf("panics err = %v", kids[1].Err())
	}
	if kids[2].Err() == nil || len(kids[2].Expectations()) != 1 {
		t.Error("usage error should abort the body at the matcher")
	}
	if !sibling.Result() || sibling.Err() != nil {
		t.Error("sibling affected by failing bodies")
	}
	if sum.Errors != 3 {
		t.Errorf("errors = %d, want 3", sum.Errors)
	}
}

func TestReExecReplacesChildren(t *testing.T) {
	n := 0
	node := New("counter", func(c *Context) error {
		n++
		c.Expect(n).Eq(n)
		return nil
	})
	node.Exec(context.Background(), false)
	node.Exec(context.Background(), false)
	if got := len(node.Children()); got != 1 {
		t.Errorf("children after two runs = %d, want 1", got)
	}
}

func TestInteractiveRunsSequentially(t *testing.T) {
	var running, maxRunning atomic.Int32
	body := func(c *Context) error {
		now := running.Add(1)
		for {
			old := maxRunning.Load()
			if now <= old || maxRunning.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}
	r := quietRunner()
	r.Add("root", func(c *Context) error {
		for i := 0; i < 4; i++ {
			c.Test(i, body)
		}
		return nil
	})
	r.Run(context.Background(), nil, RunOptions{Interactive: true})
	if maxRunning.Load() != 1 {
		t.Errorf("max concurrent bodies = %d, want 1", maxRunning.Load())
	}
}

func TestNonInteractiveFansOut(t *testing.T) {
	const n = 3
	var wg sync.WaitGroup
	wg.Add(n)
	release := make(chan struct{})
	r := quietRunner()
	r.Add("root", func(c *Context) error {
		for i := 0; i < n; i++ {
			c.Test(i, func(c *Context) error {
				wg.Done()
				<-release
				return nil
			})
		}
		return nil
	})
	go func() {
		wg.Wait()
		close(release)
	}()

	done := make(chan struct{})
	go func() {
		r.Exec(context.Background(), false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("siblings did not run concurrently")
	}
}

func TestTimeout(t *testing.T) {
	r := quietRunner()
	r.Add("slow", func(c *Context) error {
		<-c.Ctx().Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	r.Run(context.Background(), nil, RunOptions{Timeout: 20 * time.Millisecond})
	if err := r.Tests()[0].Err(); !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestTimedOutBodyCannotGrowTree(t *testing.T) {
	r := quietRunner()
	late := make(chan struct{})
	root := r.Add("slow", func(c *Context) error {
		<-c.Ctx().Done()
		time.Sleep(20 * time.Millisecond)
		c.Expect(1).Eq(2)
		c.Test("late", func(c *Context) error { return nil })
		close(late)
		return nil
	})
	sum := r.Run(context.Background(), nil, RunOptions{Timeout: 10 * time.Millisecond})
	if !sum.Result {
		t.Fatal("summary should pass: the body registered nothing in time")
	}
	select {
	case <-late:
	case <-time.After(5 * time.Second):
		t.Fatal("body never resumed")
	}
	if n := len(root.Children()); n != 0 {
		t.Errorf("children = %d, want 0", n)
	}
	if !root.Result() {
		t.Error("result changed after the run settled")
	}
}

func TestRunnerTimeoutOption(t *testing.T) {
	r := quietRunner(WithTimeout(10 * time.Millisecond))
	root := r.Add("slow", func(c *Context) error {
		<-c.Ctx().Done()
		return nil
	})
	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), nil, RunOptions{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner timeout was ignored")
	}
	if err := root.Err(); !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestModuleMocks(t *testing.T) {
	reg := mock.NewRegistry()
	r := quietRunner(WithMocks(reg))
	clock := func() string { return "real" }
	var seen, resolved string
	r.Add("mocks", func(c *Context) error {
		c.Mock("clock", func(c *Context) any {
			seen = c.Parent().Title()
			return func() string { return "frozen" }
		})
		resolved = Require(c, "clock", clock)()
		c.Expect(c.Import("missing")).ToBeUndefined()
		return nil
	})
	sum := r.Run(context.Background(), nil, RunOptions{})
	if !sum.Result {
		t.Error("run should pass")
	}
	if seen != "mocks" || resolved != "frozen" {
		t.Errorf("factory saw %q, resolved %q", seen, resolved)
	}
	if _, ok := reg.Lookup("clock"); !ok {
		t.Error("registry shared through WithMocks should hold the module")
	}
}

func TestRunResetsState(t *testing.T) {
	r := quietRunner()
	r.State().ArmAcceptAll()
	r.State().Decline()
	r.Run(context.Background(), nil, RunOptions{})
	if r.State().AcceptAll() || r.State().Declined() {
		t.Error("run state should be reset at the start of a run")
	}
}

func TestTitleOptions(t *testing.T) {
	node := New(42, nil, WithPrefix("answer="), WithSuffix("!"))
	if node.Title() != "answer=42!" {
		t.Errorf("title = %q", node.Title())
	}
	node = New(struct{ N int }{7}, nil, WithFormatter(func(s any) string { return "custom" }))
	if node.Title() != "custom" {
		t.Errorf("title = %q", node.Title())
	}
	if got := New("x", nil).Location(); !strings.HasSuffix(got.File, "suite_test.go") {
		t.Errorf("location = %s", got)
	}
}

func TestObserver(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	r := quietRunner(WithObserver(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))
	r.Add("root", func(c *Context) error {
		c.Test("child", nil)
		return nil
	})
	r.Exec(context.Background(), false)
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	if last := events[3]; last.Kind != EventDone || last.Test.Title() != "root" || !last.Result {
		t.Errorf("last event = %+v", last)
	}
}

func TestReport(t *testing.T) {
	r := quietRunner(WithCapturer(callsite.Fixed{File: "suite.go", Line: 1}))
	r.Add("root", func(c *Context) error {
		c.Expect(1, "one").Eq(1)
		c.Test("inner", func(c *Context) error {
			c.Expect(2).Eq(3)
			return nil
		})
		return nil
	})
	r.Exec(context.Background(), false)

	var c collector
	r.Report(&c, ReportOptions{NoLocation: true})
	kinds := make([]EntryKind, len(c.entries))
	for i, e := range c.entries {
		kinds[i] = e.Kind
	}
	want := []EntryKind{EntryTest, EntryExpect, EntryOutcome, EntryTest, EntryOutcome}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
	if c.entries[2].Location.File != "" {
		t.Error("passing outcome location should be hidden")
	}
	failing := c.entries[4]
	if failing.Result || failing.Location.File != "suite.go" || failing.Message != "2 == 3" {
		t.Errorf("failing entry = %+v", failing)
	}
	if failing.Depth != 2 {
		t.Errorf("depth = %d, want 2", failing.Depth)
	}

	var head collector
	r.Report(&head, ReportOptions{Head: true})
	if len(head.entries) != 2 {
		t.Errorf("head entries = %d, want 2", len(head.entries))
	}
}

func TestJSON(t *testing.T) {
	m := mock.New()
	m.Call()
	r := quietRunner(WithCapturer(callsite.Fixed{File: "x.go", Line: 9}))
	r.Add("root", func(c *Context) error {
		c.Expect(m).ToHaveBeenCalled()
		c.Test("child", func(c *Context) error {
			c.Expect("a").Not().Eq("a")
			return nil
		})
		return nil
	})
	r.Exec(context.Background(), false)

	b, err := json.Marshal(r.JSON())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	root := decoded[0]
	if root["result"] != false || root["location"] != "x.go:9" {
		t.Errorf("root = %v", root)
	}
	mods := root["modules"].([]any)
	first := mods[0].(map[string]any)
	exp := first["expects"].([]any)[0].(map[string]any)
	if exp["key"] != "toHaveBeenCalled" || exp["result"] != true {
		t.Errorf("expect = %v", exp)
	}
	child := mods[1].(map[string]any)
	inner := child["tests"].([]any)[0].(map[string]any)["expects"].([]any)[0].(map[string]any)
	if inner["key"] != "!==" || inner["result"] != false {
		t.Errorf("inner = %v", inner)
	}
}

func TestJSONNonFiniteNumbers(t *testing.T) {
	r := quietRunner()
	r.Add("floats", func(c *Context) error {
		c.Expect(math.NaN()).ToBeNaN()
		c.Expect(math.Inf(1)).Eq(math.Inf(1))
		return nil
	})
	sum := r.Run(context.Background(), nil, RunOptions{})
	if !sum.Result {
		t.Fatal("run should pass")
	}
	b, err := json.Marshal(r.JSON())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"NaN"`) || !strings.Contains(string(b), `"+Inf"`) {
		t.Errorf("report = %s", b)
	}
}

func TestExpectAtFixesLocation(t *testing.T) {
	r := quietRunner()
	loc := callsite.Location{File: "suite.yaml", Line: 12}
	root := r.Add("fixed", func(c *Context) error {
		c.ExpectAt(loc, 1).Eq(2)
		return nil
	})
	r.Run(context.Background(), nil, RunOptions{})
	outs := root.Expectations()[0].Outcomes()
	if len(outs) != 1 || outs[0].Location != loc {
		t.Errorf("outcomes = %+v, want location %v", outs, loc)
	}
}
