package mock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ormasoftchile/chk/pkg/future"
)

func TestUntouchedMock(t *testing.T) {
	m := New()
	m.Call()
	m.Call("x")

	if got := len(m.Calls()); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
	for i, r := range m.Results() {
		if r.Type != ResultReturn || r.Value != nil {
			t.Errorf("result %d = %+v, want return nil", i, r)
		}
	}
}

func TestReturnOnceQueue(t *testing.T) {
	m := New().ReturnOnce(1).ReturnOnce(2)
	var got []any
	for i := 0; i < 3; i++ {
		v, err := m.Call()
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		got = append(got, v)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != nil {
		t.Errorf("values = %v, want [1 2 <nil>]", got)
	}
}

func TestImplementationThenReturnOnce(t *testing.T) {
	m := New(func(...any) (any, error) { return "a", nil })
	m.Call()
	m.ReturnOnce("b")
	v, _ := m.Call()

	if len(m.Calls()) != 2 {
		t.Fatalf("calls = %d, want 2", len(m.Calls()))
	}
	if v != "b" {
		t.Errorf("second call = %v, want b", v)
	}
	if r := m.Results()[0]; r.Value != "a" {
		t.Errorf("first result = %v, want a", r.Value)
	}
}

func TestImplementOnceBeforeReturnOnce(t *testing.T) {
	m := New().
		ReturnOnce("value").
		ImplementOnce(func(...any) (any, error) { return "impl", nil })

	first, _ := m.Call()
	second, _ := m.Call()
	if first != "impl" || second != "value" {
		t.Errorf("got %v, %v; want impl, value", first, second)
	}
}

func TestThrowIsRecorded(t *testing.T) {
	boom := errors.New("boom")
	m := New(func(...any) (any, error) { return nil, boom })
	if _, err := m.Call(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	r := m.Results()[0]
	if r.Type != ResultThrow || r.Value != boom {
		t.Errorf("result = %+v, want throw boom", r)
	}
}

func TestPanicIsRecordedAndReraised(t *testing.T) {
	m := New(func(...any) (any, error) { panic("kaboom") })
	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("recovered %v, want kaboom", r)
			}
		}()
		m.Call()
	}()
	if r := m.Results()[0]; r.Type != ResultThrow || r.Value != "kaboom" {
		t.Errorf("result = %+v", r)
	}
	if len(m.Calls()) != len(m.Results()) {
		t.Error("calls and results out of step")
	}
}

func TestConstruct(t *testing.T) {
	ran := 0
	m := New(func(...any) (any, error) { ran++; return "ignored", nil }).ReturnOnce("queued")
	this := &struct{ N int }{}
	if err := m.Construct(this, 1); err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if ran != 1 {
		t.Errorf("implementation ran %d times, want 1", ran)
	}
	if got := m.Instances(); len(got) != 1 || got[0] != this {
		t.Errorf("instances = %v", got)
	}
	if r := m.Results()[0]; r.Type != ResultConstruct {
		t.Errorf("result type = %s, want construct", r.Type)
	}
	if v, _ := m.Call(); v != "queued" {
		t.Errorf("queue consumed by Construct, got %v", v)
	}
}

func TestClearResetRestore(t *testing.T) {
	m := New().Return(7).ReturnOnce(1)
	m.Call()
	m.ReturnOnce(2)
	m.Clear()
	if len(m.Calls()) != 0 || len(m.Results()) != 0 {
		t.Error("Clear kept tracking state")
	}
	if v, _ := m.Call(); v != 7 {
		t.Errorf("after Clear = %v, want base value 7", v)
	}

	m.Reset()
	if v, _ := m.Call(); v != nil {
		t.Errorf("after Reset = %v, want nil", v)
	}
}

func TestResolveAndReject(t *testing.T) {
	boom := errors.New("boom")
	m := New().ResolveOnce(1).RejectOnce(boom).Resolve(3)
	ctx := context.Background()

	v, _ := m.Call()
	if got, err := v.(*future.Future).Await(ctx); err != nil || got != 1 {
		t.Errorf("first = %v, %v", got, err)
	}
	v, _ = m.Call()
	if _, err := v.(*future.Future).Await(ctx); !errors.Is(err, boom) {
		t.Errorf("second err = %v, want boom", err)
	}
	v, _ = m.Call()
	if got, _ := v.(*future.Future).Await(ctx); got != 3 {
		t.Errorf("third = %v, want 3", got)
	}
}

func TestReturnThis(t *testing.T) {
	m := New().ReturnThis()
	recv := "receiver"
	if v, _ := m.Apply(recv); v != recv {
		t.Errorf("Apply = %v, want receiver", v)
	}
}

func TestWithImplementation(t *testing.T) {
	m := New().Return("base")
	boom := errors.New("boom")
	err := m.WithImplementation(func(...any) (any, error) { return "temp", nil }, func() error {
		if v, _ := m.Call(); v != "temp" {
			t.Errorf("inside = %v, want temp", v)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if v, _ := m.Call(); v != "base" {
		t.Errorf("after = %v, want base", v)
	}
}

func TestWithImplementationAsync(t *testing.T) {
	m := New().Return("base")
	boom := errors.New("boom")
	f := m.WithImplementationAsync(func(...any) (any, error) { return "temp", nil }, func() *future.Future {
		return future.Go(func() (any, error) {
			v, _ := m.Call()
			if v != "temp" {
				t.Errorf("inside = %v, want temp", v)
			}
			return nil, boom
		})
	})
	if _, err := f.Await(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if v, _ := m.Call(); v != "base" {
		t.Errorf("after = %v, want base", v)
	}
}

func TestSpyOn(t *testing.T) {
	greet := func(name string) string { return "hello " + name }
	spy := SpyOn(&greet)

	if got := greet("bob"); got != "hello bob" {
		t.Errorf("spy passthrough = %q", got)
	}
	spy.ReturnOnce("mocked")
	if got := greet("x"); got != "mocked" {
		t.Errorf("spy once = %q", got)
	}
	if calls := spy.Calls(); len(calls) != 2 || calls[0][0] != "bob" {
		t.Errorf("calls = %v", calls)
	}

	spy.Restore()
	if got := greet("amy"); got != "hello amy" {
		t.Errorf("after restore = %q", got)
	}
	if len(spy.Calls()) != 0 {
		t.Error("restored spy still records")
	}
}

func TestTypedErrorAndVariadic(t *testing.T) {
	boom := errors.New("boom")
	m := New(func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, boom
		}
		return len(args), nil
	})
	count := Typed[func(parts ...string) (int, error)](m)

	if n, err := count("a", "b"); err != nil || n != 2 {
		t.Errorf("count = %d, %v", n, err)
	}
	if _, err := count(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if last, _ := m.LastCall(); len(last) != 0 {
		t.Errorf("last call = %v", last)
	}
}

func TestFromFunc(t *testing.T) {
	impl := FromFunc(func(a, b int) (int, string) { return a + b, "ok" })
	v, err := impl(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	vals := v.([]any)
	if vals[0] != 3 || vals[1] != "ok" {
		t.Errorf("vals = %v", vals)
	}
	if _, err := impl(1); err == nil {
		t.Error("expected arity error")
	}
}

func TestString(t *testing.T) {
	m := New().SetName("fetch")
	m.Call()
	if s := m.String(); !strings.Contains(s, "fetch") || !strings.Contains(s, "1 calls") {
		t.Errorf("String() = %q", s)
	}
	if !IsMock(m) || IsMock(func() {}) {
		t.Error("IsMock mismatch")
	}
}

func TestClearDropsResultOfEarlierCall(t *testing.T) {
	m := New().Return(7)
	started, release := make(chan struct{}), make(chan struct{})
	m.ImplementOnce(func(...any) (any, error) {
		close(started)
		<-release
		return "stale", nil
	})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		m.Call()
	}()
	<-started
	m.Clear()
	if v, _ := m.Call(); v != 7 {
		t.Fatalf("call after Clear = %v, want 7", v)
	}
	close(release)
	<-finished

	results := m.Results()
	if len(results) != 1 || results[0].Value != 7 {
		t.Errorf("results = %+v, want the one call made after Clear", results)
	}
}

type store struct {
	Get  func(key string) (string, error)
	Put  func(key, value string) error
	Name string
}

type service struct {
	Store   store
	Cache   *store
	Notify  func(msg string)
	Retries int
	hidden  func()
}

func TestFromStruct(t *testing.T) {
	realGet := func(key string) (string, error) { return "real " + key, nil }
	svc := &service{
		Store:   store{Get: realGet, Name: "primary"},
		Cache:   &store{},
		Retries: 3,
	}
	mocks := FromStruct(svc)

	want := []string{"Cache.Get", "Cache.Put", "Notify", "Store.Get", "Store.Put"}
	if got := mocks.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", got, want)
	}
	if svc.Retries != 3 || svc.Store.Name != "primary" || svc.hidden != nil {
		t.Error("non-func fields should keep their values")
	}

	if v, err := svc.Store.Get("k"); v != "" || err != nil {
		t.Errorf("untouched mock = %q, %v", v, err)
	}
	mocks["Store.Get"].ReturnOnce("mocked")
	if v, _ := svc.Store.Get("a"); v != "mocked" {
		t.Errorf("Get = %q", v)
	}
	svc.Notify("hi")
	if last, _ := mocks["Notify"].LastCall(); len(last) != 1 || last[0] != "hi" {
		t.Errorf("notify call = %v", last)
	}
	if n := len(mocks["Store.Get"].Calls()); n != 2 {
		t.Errorf("Get calls = %d, want 2", n)
	}
	if mocks["Store.Get"].Name() != "Store.Get" {
		t.Errorf("name = %q", mocks["Store.Get"].Name())
	}

	mocks.Restore()
	if v, _ := svc.Store.Get("k"); v != "real k" {
		t.Errorf("after Restore = %q", v)
	}
	if svc.Notify != nil {
		t.Error("Notify should be nil again after Restore")
	}
}

func TestAuto(t *testing.T) {
	s, mocks := Auto[store]()
	mocks["Put"].Implement(func(args ...any) (any, error) {
		return nil, errors.New("read-only")
	})
	if err := s.Put("k", "v"); err == nil || err.Error() != "read-only" {
		t.Errorf("Put err = %v", err)
	}
	mocks.Clear()
	if len(mocks["Put"].Calls()) != 0 {
		t.Error("Clear kept calls")
	}
}

func TestFromStructRejectsNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a non-struct")
		}
	}()
	FromStruct(&[]int{})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	greet := func() string { return "real" }
	if got := Require(reg, "greeter", greet)(); got != "real" {
		t.Errorf("unregistered = %q", got)
	}

	reg.Mock("greeter", func() string { return "fake" })
	if got := Require(reg, "greeter", greet)(); got != "fake" {
		t.Errorf("registered = %q", got)
	}
	if got := Require(reg, "greeter", 42); got != 42 {
		t.Errorf("mismatched type = %v, want actual", got)
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "greeter" {
		t.Errorf("names = %v", names)
	}

	reg.Unmock("greeter")
	if _, ok := reg.Lookup("greeter"); ok {
		t.Error("Unmock kept the module")
	}
	reg.Mock("a", 1)
	reg.Reset()
	if len(reg.Names()) != 0 {
		t.Error("Reset kept modules")
	}
}
