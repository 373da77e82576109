package expect

// Typed shorthands for the built-in matchers. Each dispatches through the
// expectation's registry, so a registry that overrides a built-in name
// changes these too.

func (e *Expectation) Eq(v any) *Expectation            { return e.Match("==", v) }
func (e *Expectation) ToEqual(v any) *Expectation       { return e.Match("toEqual", v) }
func (e *Expectation) ToBe(v any) *Expectation          { return e.Match("toBe", v) }
func (e *Expectation) Deq(v any) *Expectation           { return e.Match("===", v) }
func (e *Expectation) ToStrictEqual(v any) *Expectation { return e.Match("toStrictEqual", v) }
func (e *Expectation) Neq(v any) *Expectation           { return e.Match("!=", v) }
func (e *Expectation) Ndeq(v any) *Expectation          { return e.Match("!==", v) }

func (e *Expectation) ToBeGreaterThan(v any) *Expectation        { return e.Match(">", v) }
func (e *Expectation) ToBeGreaterThanOrEqual(v any) *Expectation { return e.Match(">=", v) }
func (e *Expectation) ToBeLessThan(v any) *Expectation           { return e.Match("<", v) }
func (e *Expectation) ToBeLessThanOrEqual(v any) *Expectation    { return e.Match("<=", v) }

// ToBeCloseTo compares numbers rounded to precision decimal digits
// (default 2).
func (e *Expectation) ToBeCloseTo(v float64, precision ...int) *Expectation {
	if len(precision) > 0 {
		return e.Match("toBeCloseTo", v, precision[0])
	}
	return e.Match("toBeCloseTo", v)
}

func (e *Expectation) ToBeDefined() *Expectation   { return e.Match("toBeDefined") }
func (e *Expectation) ToBeUndefined() *Expectation { return e.Match("toBeUndefined") }
func (e *Expectation) ToBeNull() *Expectation      { return e.Match("toBeNull") }
func (e *Expectation) ToBeNaN() *Expectation       { return e.Match("toBeNaN") }
func (e *Expectation) ToBeTruthy() *Expectation    { return e.Match("toBeTruthy") }
func (e *Expectation) ToBeFalsy() *Expectation     { return e.Match("toBeFalsy") }

// ToBeTypeOf checks a loose kind: "string", "number", "boolean",
// "function", "object", "array", "undefined".
func (e *Expectation) ToBeTypeOf(kind string) *Expectation { return e.Match("toBeTypeOf", kind) }

// ToBeInstanceOf accepts a reflect.Type, a sample value, or a nil pointer
// to an interface type.
func (e *Expectation) ToBeInstanceOf(t any) *Expectation { return e.Match("toBeInstanceOf", t) }

func (e *Expectation) ToBeOneOf(values ...any) *Expectation { return e.Match("toBeOneOf", values...) }
func (e *Expectation) ToContain(item any) *Expectation      { return e.Match("toContain", item) }
func (e *Expectation) ToContainEqual(item any) *Expectation { return e.Match("toContainEqual", item) }

// ContainsAll checks that every element of items is in the subject.
func (e *Expectation) ContainsAll(items ...any) *Expectation {
	return e.Match("array.contains", items)
}

func (e *Expectation) ToHaveLength(n int) *Expectation { return e.Match("toHaveLength", n) }

// ToHaveProperty checks a dotted property path, and its value when given.
func (e *Expectation) ToHaveProperty(path string, value ...any) *Expectation {
	return e.Match("toHaveProperty", append([]any{path}, value...)...)
}

// ToMatch takes a pattern string or a *regexp.Regexp.
func (e *Expectation) ToMatch(pattern any) *Expectation   { return e.Match("toMatch", pattern) }
func (e *Expectation) ToMatchObject(obj any) *Expectation { return e.Match("toMatchObject", obj) }
func (e *Expectation) ToSatisfy(pred any) *Expectation    { return e.Match("toSatisfy", pred) }

// ToThrow checks the subject error, or calls a func() / func() error
// subject. The optional target is a message, a *regexp.Regexp or a
// sentinel error.
func (e *Expectation) ToThrow(target ...any) *Expectation {
	return e.Match("toThrow", target...)
}

func (e *Expectation) ToThrowErrorContains(s string) *Expectation {
	return e.Match("toThrowErrorContains", s)
}

// Info records a non-disqualifying informational note.
func (e *Expectation) Info(msg ...any) *Expectation { return e.Match("info", msg...) }

// Warn records a non-disqualifying warning.
func (e *Expectation) Warn(msg ...any) *Expectation { return e.Match("warn", msg...) }

func (e *Expectation) ToHaveBeenCalled() *Expectation { return e.Match("toHaveBeenCalled") }

func (e *Expectation) ToHaveBeenCalledTimes(n int) *Expectation {
	return e.Match("toHaveBeenCalledTimes", n)
}

func (e *Expectation) ToHaveBeenCalledWith(args ...any) *Expectation {
	return e.Match("toHaveBeenCalledWith", args...)
}

func (e *Expectation) ToHaveBeenLastCalledWith(args ...any) *Expectation {
	return e.Match("toHaveBeenLastCalledWith", args...)
}

func (e *Expectation) ToHaveBeenNthCalledWith(n int, args ...any) *Expectation {
	return e.Match("toHaveBeenNthCalledWith", append([]any{n}, args...)...)
}

func (e *Expectation) ToHaveReturned() *Expectation { return e.Match("toHaveReturned") }

func (e *Expectation) ToHaveReturnedTimes(n int) *Expectation {
	return e.Match("toHaveReturnedTimes", n)
}

func (e *Expectation) ToHaveReturnedWith(v any) *Expectation {
	return e.Match("toHaveReturnedWith", v)
}

func (e *Expectation) ToHaveLastReturnedWith(v any) *Expectation {
	return e.Match("toHaveLastReturnedWith", v)
}

func (e *Expectation) ToHaveNthReturnedWith(n int, v any) *Expectation {
	return e.Match("toHaveNthReturnedWith", n, v)
}

func (e *Expectation) ToHaveResolved() *Expectation { return e.Match("toHaveResolved") }

func (e *Expectation) ToHaveResolvedTimes(n int) *Expectation {
	return e.Match("toHaveResolvedTimes", n)
}

func (e *Expectation) ToHaveResolvedWith(v any) *Expectation {
	return e.Match("toHaveResolvedWith", v)
}

func (e *Expectation) ToHaveLastResolvedWith(v any) *Expectation {
	return e.Match("toHaveLastResolvedWith", v)
}

func (e *Expectation) ToHaveNthResolvedWith(n int, v any) *Expectation {
	return e.Match("toHaveNthResolvedWith", n, v)
}

// ResolvesCtx awaits under the expectation's own context.
func (e *Expectation) ResolvesCtx() *Expectation { return e.Resolves(e.ctx) }

// RejectsCtx awaits under the expectation's own context.
func (e *Expectation) RejectsCtx() *Expectation { return e.Rejects(e.ctx) }
