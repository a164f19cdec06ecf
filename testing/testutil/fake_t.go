package testutil

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
)

// FakeT is a testing.TB that records failures instead of reporting them.
// Fatal and FailNow end the calling goroutine, so run code under test
// through RunWithFakeT.
type FakeT struct {
	testing.TB

	mu       sync.Mutex
	failed   bool
	fatal    bool
	messages []string
}

// Helper does nothing.
func (t *FakeT) Helper() {}

func (t *FakeT) Error(args ...any) {
	t.fail(false, fmt.Sprint(args...))
}

func (t *FakeT) Errorf(format string, args ...any) {
	t.fail(false, fmt.Sprintf(format, args...))
}

func (t *FakeT) Fatal(args ...any) {
	t.fail(true, fmt.Sprint(args...))
	runtime.Goexit()
}

func (t *FakeT) Fatalf(format string, args ...any) {
	t.fail(true, fmt.Sprintf(format, args...))
	runtime.Goexit()
}

func (t *FakeT) Fail() { t.fail(false, "") }

func (t *FakeT) FailNow() {
	t.fail(true, "")
	runtime.Goexit()
}

func (t *FakeT) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Fataled reports whether Fatal, Fatalf or FailNow was called.
func (t *FakeT) Fataled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fatal
}

// Messages returns every failure message in order.
func (t *FakeT) Messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}

func (t *FakeT) fail(fatal bool, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.fatal = t.fatal || fatal
	if msg != "" {
		t.messages = append(t.messages, msg)
	}
}

// RunWithFakeT runs fn on its own goroutine and waits for it, so a Fatal
// inside fn does not end the caller.
func RunWithFakeT(fn func(t *FakeT)) *FakeT {
	ft := &FakeT{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ft)
	}()
	<-done
	return ft
}
