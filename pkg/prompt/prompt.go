// Package prompt asks on the terminal whether a mismatching snapshot should
// be accepted.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/chk/pkg/snapshot"
)

// LineReader is the part of *readline.Instance the prompter uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Prompter is a snapshot.Prompter backed by readline.
type Prompter struct {
	mu     sync.Mutex
	out    io.Writer
	reader LineReader
	color  bool
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithOutput sets where the diff and the help are written.
func WithOutput(w io.Writer) Option {
	return func(p *Prompter) { p.out = w }
}

// WithReader replaces the readline instance.
func WithReader(r LineReader) Option {
	return func(p *Prompter) { p.reader = r }
}

// WithColor selects the ANSI diff instead of the bracketed one.
func WithColor(on bool) Option {
	return func(p *Prompter) { p.color = on }
}

// New returns a prompter. The readline instance is created on first use.
func New(opts ...Option) *Prompter {
	p := &Prompter{out: os.Stdout, color: true}
	for _, o := range opts {
		o(p)
	}
	return p
}

const promptLine = "[a]ccept [r]eject accept a[l]l [c]ancel > "

func (p *Prompter) open() (LineReader, error) {
	if p.reader != nil {
		return p.reader, nil
	}
	completer := readline.NewPrefixCompleter(
		readline.PcItem("accept"),
		readline.PcItem("reject"),
		readline.PcItem("all"),
		readline.PcItem("cancel"),
	)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptLine,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "cancel",
		Stdout:          p.out,
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	p.reader = rl
	return rl, nil
}

// Prompt shows the mismatch and reads an answer until it is valid.
// Interrupt and end of input mean cancel.
func (p *Prompter) Prompt(ctx context.Context, m *snapshot.Mismatch) (snapshot.Choice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rl, err := p.open()
	if err != nil {
		return snapshot.Reject, err
	}

	fmt.Fprintf(p.out, "\nSnapshot %q differs (%s):\n", m.ID, strings.TrimPrefix(m.Key(), "mismatch:"))
	if p.color {
		fmt.Fprintln(p.out, m.ColorDiff())
	} else {
		fmt.Fprintln(p.out, m.Detail())
	}

	for {
		if err := ctx.Err(); err != nil {
			return snapshot.Cancel, err
		}
		rl.SetPrompt(promptLine)
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return snapshot.Cancel, nil
			}
			return snapshot.Reject, fmt.Errorf("read answer: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c, ok := ParseChoice(line); ok {
			return c, nil
		}
		fmt.Fprintf(p.out, "Unknown answer %q. Type a, r, l or c.\n", line)
	}
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	return err
}

// ParseChoice maps an answer to a choice. Single letters and the full
// words are accepted, case-insensitively.
func ParseChoice(s string) (snapshot.Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "y", "yes", "accept":
		return snapshot.Accept, true
	case "r", "n", "no", "reject":
		return snapshot.Reject, true
	case "l", "all", "accept-all", "acceptall":
		return snapshot.AcceptAll, true
	case "c", "q", "cancel", "quit":
		return snapshot.Cancel, true
	}
	return snapshot.Reject, false
}
