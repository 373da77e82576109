// Package declarative loads test suites written in YAML. Subjects are expr
// expressions evaluated against the suite's vars; matchers are the names
// registered in the expect registry.
//
//	name: cart
//	vars:
//	  items: [1, 2, 3]
//	tests:
//	  - name: totals
//	    expects:
//	      - subject: sum(items)
//	        matchers:
//	          - "==": 6
//	          - match: toBeGreaterThan
//	            args: [5]
//	    snapshots:
//	      - name: cart/summary
//	        props: {count: 3}
//	        output: <p>3 items</p>
package declarative

import (
	"errors"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/chk/pkg/callsite"
	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/snapshot"
	"github.com/ormasoftchile/chk/pkg/suite"
)

// Suite is one YAML file.
type Suite struct {
	Name  string         `yaml:"name"`
	Vars  map[string]any `yaml:"vars,omitempty"`
	Tests []*TestSpec    `yaml:"tests"`

	// Path is the file the suite was loaded from.
	Path string `yaml:"-"`
	Line int    `yaml:"-"`
}

// TestSpec is a test node.
type TestSpec struct {
	Name      string          `yaml:"name"`
	Expects   []*ExpectSpec   `yaml:"expects,omitempty"`
	Snapshots []*SnapshotSpec `yaml:"snapshots,omitempty"`
	Tests     []*TestSpec     `yaml:"tests,omitempty"`

	Line int `yaml:"-"`
}

// ExpectSpec is one expectation. Subject is an expression; Value is a
// literal used when Subject is empty.
type ExpectSpec struct {
	Subject  string        `yaml:"subject,omitempty"`
	Value    any           `yaml:"value,omitempty"`
	Title    string        `yaml:"title,omitempty"`
	Not      bool          `yaml:"not,omitempty"`
	Matchers []MatcherSpec `yaml:"matchers"`

	Line    int `yaml:"-"`
	program *vm.Program
}

// SnapshotSpec compares props and output with a stored snapshot. Props is
// a literal; PropsExpr, when set, is evaluated instead.
type SnapshotSpec struct {
	Name      string `yaml:"name"`
	Props     any    `yaml:"props,omitempty"`
	PropsExpr string `yaml:"props_expr,omitempty"`
	Output    string `yaml:"output,omitempty"`

	Line    int `yaml:"-"`
	program *vm.Program
}

// MatcherSpec applies one matcher. In YAML it is either a bare name
// ("toBeTruthy"), a single-key map whose value is the one argument
// ("==": 2), or the long form {match, args, not}.
type MatcherSpec struct {
	Name string
	Args []any
	Not  bool
	Line int
}

func (s *Suite) UnmarshalYAML(n *yaml.Node) error {
	type plain Suite
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line = n.Line
	return nil
}

func (t *TestSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain TestSpec
	if err := n.Decode((*plain)(t)); err != nil {
		return err
	}
	t.Line = n.Line
	return nil
}

func (e *ExpectSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain ExpectSpec
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.Line = n.Line
	return nil
}

func (sn *SnapshotSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain SnapshotSpec
	if err := n.Decode((*plain)(sn)); err != nil {
		return err
	}
	sn.Line = n.Line
	return nil
}

func (m *MatcherSpec) UnmarshalYAML(n *yaml.Node) error {
	m.Line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&m.Name)
	case yaml.MappingNode:
		if hasKey(n, "match") {
			var long struct {
				Match string `yaml:"match"`
				Args  []any  `yaml:"args"`
				Not   bool   `yaml:"not"`
			}
			if err := n.Decode(&long); err != nil {
				return err
			}
			m.Name, m.Args, m.Not = long.Match, long.Args, long.Not
			return nil
		}
		if len(n.Content) != 2 {
			return fmt.Errorf("line %d: matcher map must have exactly one key", n.Line)
		}
		m.Name = n.Content[0].Value
		val := n.Content[1]
		if val.Tag == "!!null" {
			return nil
		}
		var arg any
		if err := val.Decode(&arg); err != nil {
			return err
		}
		m.Args = []any{arg}
		return nil
	}
	return fmt.Errorf("line %d: matcher must be a name or a map", n.Line)
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Load reads, parses and checks a suite file against the default registry.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	return Parse(data, path, expect.DefaultRegistry())
}

// Parse decodes a suite and compiles its expressions. path is only used in
// locations and messages.
func Parse(data []byte, path string, reg *expect.Registry) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = path
	}
	if err := s.check(reg); err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}
	return &s, nil
}

func (s *Suite) env() map[string]any {
	env := make(map[string]any, len(s.Vars))
	for k, v := range s.Vars {
		env[k] = v
	}
	return env
}

func (s *Suite) check(reg *expect.Registry) error {
	var errs []error
	env := s.env()
	var walk func(ts []*TestSpec)
	walk = func(ts []*TestSpec) {
		for _, t := range ts {
			if t.Name == "" {
				errs = append(errs, fmt.Errorf("line %d: test name is required", t.Line))
			}
			for _, e := range t.Expects {
				if e.Subject != "" {
					p, err := expr.Compile(e.Subject, expr.Env(env))
					if err != nil {
						errs = append(errs, fmt.Errorf("line %d: subject: %w", e.Line, err))
					}
					e.program = p
				}
				if len(e.Matchers) == 0 {
					errs = append(errs, fmt.Errorf("line %d: expectation has no matchers", e.Line))
				}
				for _, m := range e.Matchers {
					if _, ok := reg.Lookup(m.Name); !ok {
						errs = append(errs, fmt.Errorf("line %d: unknown matcher %q", m.Line, m.Name))
					}
				}
			}
			for _, sn := range t.Snapshots {
				if sn.Name == "" {
					errs = append(errs, fmt.Errorf("line %d: snapshot name is required", sn.Line))
				}
				if sn.PropsExpr != "" {
					p, err := expr.Compile(sn.PropsExpr, expr.Env(env))
					if err != nil {
						errs = append(errs, fmt.Errorf("line %d: props_expr: %w", sn.Line, err))
					}
					sn.program = p
				}
			}
			walk(t.Tests)
		}
	}
	walk(s.Tests)
	return errors.Join(errs...)
}

// Option configures Register.
type Option func(*options)

type options struct {
	snapshot []snapshot.Option
}

// WithSnapshotOptions passes store, prompter and logger options to every
// snapshot comparison.
func WithSnapshotOptions(opts ...snapshot.Option) Option {
	return func(o *options) { o.snapshot = append(o.snapshot, opts...) }
}

// Register adds the suite to r as one root test.
func (s *Suite) Register(r *suite.Runner, opts ...Option) *suite.Test {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	root := &TestSpec{Name: s.Name, Tests: s.Tests, Line: s.Line}
	return r.Add(s.Name, s.body(root, &o), suite.WithLocation(s.loc(s.Line)))
}

func (s *Suite) loc(line int) callsite.Location {
	return callsite.Location{File: s.Path, Line: line}
}

func (s *Suite) body(spec *TestSpec, o *options) suite.Body {
	return func(c *suite.Context) error {
		env := s.env()
		for _, e := range spec.Expects {
			subject := e.Value
			if e.program != nil {
				v, err := expr.Run(e.program, env)
				if err != nil {
					return fmt.Errorf("%s:%d: evaluate %q: %w", s.Path, e.Line, e.Subject, err)
				}
				subject = v
			}
			var x *expect.Expectation
			if e.Title != "" {
				x = c.ExpectAt(s.loc(e.Line), subject, e.Title)
			} else {
				x = c.ExpectAt(s.loc(e.Line), subject)
			}
			if e.Not {
				x.Not()
			}
			for _, m := range e.Matchers {
				if m.Not {
					x.Not()
				}
				x.Match(m.Name, m.Args...)
				if m.Not {
					x.Not()
				}
			}
		}
		for _, sn := range spec.Snapshots {
			props := sn.Props
			if sn.program != nil {
				v, err := expr.Run(sn.program, env)
				if err != nil {
					return fmt.Errorf("%s:%d: evaluate %q: %w", s.Path, sn.Line, sn.PropsExpr, err)
				}
				props = v
			}
			snapshot.Compare(c, sn.Name, props, sn.Output, o.snapshot...)
		}
		for _, t := range spec.Tests {
			c.Test(t.Name, s.body(t, o), suite.WithLocation(s.loc(t.Line)))
		}
		return nil
	}
}
