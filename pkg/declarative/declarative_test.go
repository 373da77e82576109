package declarative

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/report"
	"github.com/ormasoftchile/chk/pkg/snapshot"
	"github.com/ormasoftchile/chk/pkg/suite"
)

const cart = `name: cart
vars:
  items: [1, 2, 3]
  user: {name: ada, admin: true}
tests:
  - name: totals
    expects:
      - subject: len(items)
        title: item count
        matchers:
          - "==": 3
          - match: toBeGreaterThan
            args: [2]
          - match: "=="
            args: [4]
            not: true
      - subject: user.name
        matchers:
          - toBeTruthy
          - toMatch: "^a"
      - value: [a, b]
        not: true
        matchers:
          - toContain: c
    tests:
      - name: nested
        expects:
          - subject: user
            matchers:
              - toMatchObject: {admin: true}
              - match: toHaveProperty
                args: [name, ada]
    snapshots:
      - name: cart/summary
        props_expr: "{count: len(items)}"
        output: <p>3 items</p>
  - name: failing
    expects:
      - subject: items[0]
        matchers:
          - "==": 9
`

func quietRunner() *suite.Runner {
	return suite.NewRunner(suite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestParseShapes(t *testing.T) {
	s, err := Parse([]byte(cart), "cart.yaml", expect.DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "cart" || len(s.Tests) != 2 {
		t.Fatalf("suite = %+v", s)
	}
	ms := s.Tests[0].Expects[0].Matchers
	if len(ms) != 3 {
		t.Fatalf("matchers = %+v", ms)
	}
	if ms[0].Name != "==" || len(ms[0].Args) != 1 || ms[0].Args[0] != 3 {
		t.Errorf("short form = %+v", ms[0])
	}
	if ms[2].Name != "==" || !ms[2].Not || ms[2].Args[0] != 4 {
		t.Errorf("long form = %+v", ms[2])
	}
	if m := s.Tests[0].Expects[1].Matchers[0]; m.Name != "toBeTruthy" || m.Args != nil {
		t.Errorf("bare form = %+v", m)
	}
	if s.Tests[0].Line != 6 {
		t.Errorf("test line = %d, want 6", s.Tests[0].Line)
	}
}

func TestRun(t *testing.T) {
	s, err := Parse([]byte(cart), "cart.yaml", expect.DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	store := snapshot.NewMemoryStore()
	r := quietRunner()
	s.Register(r, WithSnapshotOptions(snapshot.WithStore(store)))

	var col report.Collector
	sum := r.Run(context.Background(), &col, suite.RunOptions{})
	if sum.Result {
		t.Fatal("the failing test should fail the run")
	}
	fails := col.Failures()
	if len(fails) != 1 {
		t.Fatalf("failures = %+v", fails)
	}
	if fails[0].Message != "1 == 9" {
		t.Errorf("failure message = %q", fails[0].Message)
	}
	if got := fails[0].Location.String(); got != "cart.yaml:38" {
		t.Errorf("failure location = %q, want cart.yaml:38", got)
	}
	totals := r.Tests()[0].Tests()[0]
	if !totals.Result() {
		t.Errorf("totals should pass")
	}
	rec, err := store.Load(context.Background(), "cart/summary")
	if err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
	if string(rec.Props) != `{"count":3}` {
		t.Errorf("props = %s", rec.Props)
	}
}

func TestParseErrors(t *testing.T) {
	src := `name: bad
tests:
  - name: t
    expects:
      - subject: nope +
        matchers: [toBeTruthy]
      - subject: "1"
        matchers:
          - toBeShiny
      - subject: "2"
  - expects: []
`
	_, err := Parse([]byte(src), "bad.yaml", expect.DefaultRegistry())
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"line 5: subject", `unknown matcher "toBeShiny"`, "line 10: expectation has no matchers", "test name is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "s.yaml")
	if err := os.WriteFile(p, []byte("tests:\n  - name: one\n    expects:\n      - value: 1\n        matchers: [toBeDefined]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != p {
		t.Errorf("unnamed suite should take its path, got %q", s.Name)
	}
	r := quietRunner()
	s.Register(r)
	if sum := r.Run(context.Background(), nil, suite.RunOptions{}); !sum.Result {
		t.Error("suite should pass")
	}
}
