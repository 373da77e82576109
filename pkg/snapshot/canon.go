package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Canonical serializes props to RFC 8785 canonical JSON so equal props
// always produce identical bytes. Values that do not marshal to JSON fall
// back to their formatted string.
func Canonical(props any) ([]byte, error) {
	if raw, ok := props.(json.RawMessage); ok {
		return canonicalize(raw)
	}
	data, err := json.Marshal(props)
	if err != nil {
		data, err = json.Marshal(fmt.Sprintf("%v", props))
		if err != nil {
			return nil, fmt.Errorf("marshal props: %w", err)
		}
	}
	return canonicalize(data)
}

func canonicalize(data []byte) ([]byte, error) {
	out, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize props: %w", err)
	}
	return out, nil
}

// NormalizeOutput trims every line and drops blank lines, so indentation
// and trailing whitespace changes do not count as differences.
func NormalizeOutput(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// Diff renders a character-level diff of want → got with ANSI colors:
// deletions in red, insertions in green.
func Diff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}

// PlainDiff renders the diff with [-deleted-] and {+inserted+} markers,
// for sinks that cannot show colors.
func PlainDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))
	var b bytes.Buffer
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
