// Package callsite captures the source location where a test node or an
// assertion was created.
package callsite

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Location is a resolved source position.
type Location struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function,omitempty"`
}

// String renders the location as file:line, or "" when unknown.
func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Short renders the location with the file's base name only.
func (l Location) Short() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(l.File), l.Line)
}

// Capturer resolves the location of user code calling into the engine.
type Capturer interface {
	Capture() Location
}

// internalPrefixes are package paths whose frames are skipped when looking
// for the user's call site.
var internalPrefixes = []string{
	"github.com/ormasoftchile/chk/pkg/",
	"runtime.",
	"testing.",
	"reflect.",
}

// Runtime walks the goroutine stack and returns the first frame outside the
// engine's own packages. Test files inside the engine are still reported so
// that self-tests get useful locations.
type Runtime struct{}

// Capture implements Capturer.
func (Runtime) Capture() Location {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var last Location
	for {
		fr, more := frames.Next()
		loc := Location{File: fr.File, Line: fr.Line, Function: fr.Function}
		if !internal(fr) {
			return loc
		}
		if last.File == "" {
			last = loc
		}
		if !more {
			break
		}
	}
	return last
}

func internal(fr runtime.Frame) bool {
	if strings.HasSuffix(fr.File, "_test.go") {
		return false
	}
	for _, p := range internalPrefixes {
		if strings.HasPrefix(fr.Function, p) {
			return true
		}
	}
	return false
}

// Fixed always reports the same location. Useful for declarative suites
// whose location is a document position, and for deterministic tests.
type Fixed Location

// Capture implements Capturer.
func (f Fixed) Capture() Location { return Location(f) }

// None never captures a location.
type None struct{}

// Capture implements Capturer.
func (None) Capture() Location { return Location{} }
