package expect

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ormasoftchile/chk/pkg/match"
)

// Matcher applies a check to e and records it with e.Process.
type Matcher func(e *Expectation, args ...any) *Expectation

// Messenger renders an outcome as a one-line message.
type Messenger func(o Outcome) string

// Binary renders "subject op target"; negated outcomes get "not" before op.
func Binary(op string) Messenger {
	return func(o Outcome) string {
		shown := op
		if o.Negated() {
			shown = "not " + op
		}
		return fmt.Sprintf("%s %s %s", match.Format(o.Subject), shown, match.Format(o.Target))
	}
}

// Unary renders "subject op" for matchers without a target.
func Unary(op string) Messenger {
	return func(o Outcome) string {
		if o.Negated() {
			return fmt.Sprintf("%s not %s", match.Format(o.Subject), op)
		}
		return fmt.Sprintf("%s %s", match.Format(o.Subject), op)
	}
}

// Note renders the target as a free-form message. Used by info and warn.
func Note(o Outcome) string {
	if s, ok := o.Target.(string); ok {
		return s
	}
	return match.Format(o.Target)
}

type entry struct {
	key string
	m   Matcher
	msg Messenger
}

// Registry maps matcher names and aliases to implementations. Messengers
// are looked up by the canonical key an outcome records.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*entry
	byKey   map[string]*entry
	ordered []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*entry),
		byKey:  make(map[string]*entry),
	}
}

// DefaultRegistry returns the shared registry holding the built-in matchers.
var DefaultRegistry = sync.OnceValue(Builtins)

// Builtins returns a new registry holding the built-in matchers.
func Builtins() *Registry {
	r := NewRegistry()
	registerEquality(r)
	registerValues(r)
	registerCollections(r)
	registerErrors(r)
	registerMock(r)
	registerSatisfy(r)
	return r
}

// Register adds m under every name; the first name is the canonical key
// outcomes are recorded with.
func (r *Registry) Register(m Matcher, msg Messenger, names ...string) {
	if len(names) == 0 {
		panic("expect: Register needs at least one name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &entry{key: names[0], m: m, msg: msg}
	r.byKey[e.key] = e
	for _, n := range names {
		if _, dup := r.byName[n]; !dup {
			r.ordered = append(r.ordered, n)
		}
		r.byName[n] = e
	}
}

// Lookup finds a matcher by name or alias.
func (r *Registry) Lookup(name string) (Matcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.m, true
}

// Canonical returns the key recorded for name.
func (r *Registry) Canonical(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return "", false
	}
	return e.key, true
}

// Names lists every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.ordered...)
	sort.Strings(out)
	return out
}

// Message renders o with the messenger registered for its key, falling
// back to Binary(key).
func (r *Registry) Message(o Outcome) string {
	r.mu.RLock()
	e, ok := r.byKey[o.BaseKey()]
	if !ok {
		e, ok = r.byName[o.BaseKey()]
	}
	r.mu.RUnlock()
	if !ok || e.msg == nil {
		return Binary(o.BaseKey())(o)
	}
	return e.msg(o)
}
