package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/chk/pkg/expect"
	"github.com/ormasoftchile/chk/pkg/suite"
)

// SchemaID identifies the report schema.
const SchemaID = "https://github.com/ormasoftchile/chk/schemas/report-v1.json"

// Document is the JSON written by `chk run --json`.
type Document struct {
	Summary *suite.Summary     `json:"summary"`
	Reports []suite.ReportJSON `json:"reports"`
}

// NewDocument collects the summary and reports of a finished run.
func NewDocument(r *suite.Runner, s *suite.Summary) *Document {
	return &Document{Summary: s, Reports: r.JSON()}
}

var verdictType = reflect.TypeOf(expect.Verdict(0))

// Schema produces the JSON Schema (Draft 2020-12) of Document.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.Mapper = func(t reflect.Type) *jsonschema.Schema {
		if t != verdictType {
			return nil
		}
		return &jsonschema.Schema{
			Description: "true or false for pass and fail, \"info\" or \"warn\" for notes",
			OneOf: []*jsonschema.Schema{
				{Type: "boolean"},
				{Type: "string", Enum: []any{"info", "warn"}},
			},
		}
	}

	s := r.Reflect(&Document{})
	s.ID = SchemaID
	s.Title = "chk report v1"
	s.Description = "Result tree and tally of a chk run"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// Violation is one schema failure at a JSON pointer-like path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every violation of a document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, "/"+v.Path+": "+v.Message)
	}
	return "invalid report: " + strings.Join(msgs, "; ")
}

var compiled = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	data, err := Schema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("report-v1.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("report-v1.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
})

// Validate checks a JSON report against Schema. Violations come back as a
// *ValidationError.
func Validate(data []byte) error {
	sch, err := compiled()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal report: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		var ve *sjsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("validate report: %w", err)
		}
		out := &ValidationError{}
		for _, cause := range flatten(ve) {
			out.Violations = append(out.Violations, Violation{
				Path:    strings.Join(cause.InstanceLocation, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return out
	}
	return nil
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, c := range ve.Causes {
		flat = append(flat, flatten(c)...)
	}
	return flat
}
