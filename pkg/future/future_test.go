package future

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResolved(t *testing.T) {
	f := Resolved(42)
	if !f.Settled() {
		t.Fatal("expected settled future")
	}
	v, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("value = %v, want 42", v)
	}
}

func TestRejected(t *testing.T) {
	boom := errors.New("boom")
	_, err := Rejected(boom).Await(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestSettleOnce(t *testing.T) {
	f, resolve, reject := New()
	resolve("first")
	resolve("second")
	reject(errors.New("late"))
	v, err := f.Await(context.Background())
	if err != nil || v != "first" {
		t.Errorf("got (%v, %v), want (first, nil)", v, err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	f := Go(func() (any, error) { panic("kaboom") })
	_, err := f.Await(context.Background())
	if err == nil {
		t.Fatal("expected rejection from panic")
	}
}

func TestAwaitContextCancel(t *testing.T) {
	f, _, _ := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if f.Settled() {
		t.Error("pending future reported settled")
	}
}

func TestThen(t *testing.T) {
	f := Resolved(2).Then(func(v any) (any, error) { return v.(int) * 10, nil })
	v, err := f.Await(context.Background())
	if err != nil || v != 20 {
		t.Errorf("got (%v, %v), want (20, nil)", v, err)
	}
}
