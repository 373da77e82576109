package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ormasoftchile/chk/pkg/suite"
)

func runSample(t *testing.T, sink suite.Sink) (*suite.Runner, *suite.Summary) {
	t.Helper()
	r := suite.NewRunner(suite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Add("math", func(c *suite.Context) error {
		c.Test("adds", func(c *suite.Context) error {
			c.Expect(1+1, "sum").Eq(2)
			return nil
		})
		c.Test("subtracts", func(c *suite.Context) error {
			c.Expect(3 - 1).Eq(1)
			c.Expect("x").Info("just a note")
			return nil
		})
		return nil
	})
	r.Add("broken", func(c *suite.Context) error {
		return errors.New("fixture missing")
	})
	return r, r.Run(context.Background(), sink, suite.RunOptions{NoLocation: true})
}

func TestCollector(t *testing.T) {
	var c Collector
	_, sum := runSample(t, &c)
	if sum.Result {
		t.Fatal("sample run should fail")
	}
	fails := c.Failures()
	if len(fails) != 2 {
		t.Fatalf("failures = %d, want 2: %+v", len(fails), fails)
	}
	if fails[0].Message != "2 == 1" {
		t.Errorf("first failure = %q", fails[0].Message)
	}
	if fails[1].Kind != suite.EntryError || fails[1].Message != "fixture missing" {
		t.Errorf("second failure = %+v", fails[1])
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	con := NewConsole(&buf)
	_, sum := runSample(t, con)
	con.Summary(sum)

	out := buf.String()
	for _, want := range []string{"math", "adds", "sum", "2 == 2", "2 == 1", "just a note", "error: fixture missing", GlyphFailed, GlyphInfo, "tests 2/4", "1 info"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	// a failing outcome carries its location even with NoLocation
	if !strings.Contains(out, "report_test.go:") {
		t.Errorf("failing outcome lost its location:\n%s", out)
	}
}

func TestConsoleTruncates(t *testing.T) {
	var buf bytes.Buffer
	con := NewConsole(&buf, WithWidth(12))
	con.Emit(suite.Entry{Kind: suite.EntryTest, Title: "a rather long test title", Result: true})
	if !strings.Contains(buf.String(), "…") {
		t.Errorf("expected truncation: %q", buf.String())
	}
	if strings.Contains(buf.String(), "title") {
		t.Errorf("title not truncated: %q", buf.String())
	}
}

func TestTee(t *testing.T) {
	var a, b Collector
	runSample(t, Tee(&a, &b))
	if len(a.Entries()) == 0 || len(a.Entries()) != len(b.Entries()) {
		t.Errorf("tee: %d vs %d entries", len(a.Entries()), len(b.Entries()))
	}
}

func TestMarkdown(t *testing.T) {
	md := NewMarkdown("Run")
	_, sum := runSample(t, md)
	md.Summary(sum)
	s := md.String()
	for _, want := range []string{"# Run", "- ❌ **math**", "  - ✅ **adds**", "`2 == 1`", "| FAIL | 2/4 |"} {
		if !strings.Contains(s, want) {
			t.Errorf("markdown missing %q:\n%s", want, s)
		}
	}
	if md.Render(80) == "" {
		t.Error("rendered markdown is empty")
	}
}

func TestSchemaValidatesRun(t *testing.T) {
	r, sum := runSample(t, nil)
	data, err := json.Marshal(NewDocument(r, sum))
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("report should validate: %v", err)
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["$id"] != SchemaID {
		t.Errorf("$id = %v", doc["$id"])
	}
	if !strings.Contains(string(data), `"info"`) {
		t.Error("verdict enum missing from schema")
	}
}

func TestValidateRejects(t *testing.T) {
	err := Validate([]byte(`{"reports": "nope"}`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Violations) == 0 {
		t.Error("no violations reported")
	}
	if err := Validate([]byte(`{`)); err == nil {
		t.Error("malformed json should fail")
	}
}
