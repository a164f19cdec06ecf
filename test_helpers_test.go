package menuplan

// test_helpers_test.go contains shared test doubles for menuplan package tests.

import (
	"context"
	"fmt"
	"sync"
)

// =============================================================================
// Shared Test Logger
// =============================================================================

type logEntry struct {
	level string
	msg   string
	args  []interface{}
}

// testLogger records every call so tests can assert on messages and keys.
type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func newTestLogger() *testLogger {
	return &testLogger{}
}

func (l *testLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }

func (l *testLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

// field returns the value logged under key for the first entry with msg.
func (l *testLogger) field(msg, key string) (interface{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg != msg {
			continue
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == key {
				return e.args[i+1], true
			}
		}
	}
	return nil, false
}

// =============================================================================
// Test Messages
// =============================================================================

type testCommand struct {
	CommandBase
	ID string `json:"id"`
}

func (c testCommand) CommandType() string { return "TestCommand" }
func (c testCommand) Validate() error {
	if c.ID == "" {
		return NewValidationError("TestCommand", "ID", "required")
	}
	return nil
}

type otherCommand struct {
	Name string
}

func (c otherCommand) CommandType() string { return "OtherCommand" }
func (c otherCommand) Validate() error     { return nil }

type testEvent struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (e testEvent) EventType() string   { return "TestEvent" }
func (e testEvent) AggregateID() string { return e.ID }

type otherEvent struct {
	ID string `json:"id"`
}

func (e otherEvent) EventType() string { return "OtherEvent" }

// mergedEvent collapses notes of pending events into one.
type mergedEvent struct {
	ID    string
	Notes []string
}

func (e mergedEvent) EventType() string { return "MergedEvent" }
func (e mergedEvent) Merge(pending Event) Event {
	p := pending.(mergedEvent)
	return mergedEvent{ID: p.ID, Notes: append(append([]string{}, p.Notes...), e.Notes...)}
}

// =============================================================================
// Test Aggregate
// =============================================================================

type testAggregate struct {
	AggregateBase
	Name string
}

func newTestAggregate(id string) *testAggregate {
	return &testAggregate{AggregateBase: NewAggregateBase(id, "Test")}
}

func (a *testAggregate) Rename(name string) error {
	if err := a.CheckNotDiscarded(); err != nil {
		return err
	}
	a.Name = name
	a.IncrementVersion()
	a.Raise(testEvent{ID: a.AggregateID(), Note: name})
	return nil
}

// =============================================================================
// Test Unit of Work
// =============================================================================

// fakeUoW is an in-memory unit of work whose pending events are preset.
type fakeUoW struct {
	mu        sync.Mutex
	events    []Event
	begins    int
	commits   int
	rollbacks int
	closes    int
	committed bool
	beginErr  error
	commitErr error
	closeErr  error
}

func (u *fakeUoW) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.begins++
	return u.beginErr
}

func (u *fakeUoW) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.commitErr != nil {
		return u.commitErr
	}
	u.commits++
	u.committed = true
	return nil
}

func (u *fakeUoW) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rollbacks++
	return nil
}

func (u *fakeUoW) Close(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closes++
	if !u.committed {
		u.rollbacks++
	}
	return u.closeErr
}

func (u *fakeUoW) Committed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.committed
}

func (u *fakeUoW) CollectEvents() []Event {
	u.mu.Lock()
	defer u.mu.Unlock()
	events := u.events
	u.events = nil
	return events
}

func (u *fakeUoW) raise(events ...Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, events...)
}

// uowFactory hands out fresh fakeUoWs and remembers them.
type uowFactory struct {
	mu      sync.Mutex
	created []*fakeUoW
}

func (f *uowFactory) New() *fakeUoW {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUoW{}
	f.created = append(f.created, u)
	return u
}

func (f *uowFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// =============================================================================
// Helpers
// =============================================================================

// callLog records labels from concurrent handlers in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// raisingHandler commits and raises events on the command's unit of work.
func raisingHandler(events ...Event) func(ctx context.Context, cmd testCommand, uow *fakeUoW) error {
	return func(ctx context.Context, cmd testCommand, uow *fakeUoW) error {
		return Run(ctx, uow, func(uow *fakeUoW) error {
			uow.raise(events...)
			return uow.Commit(ctx)
		})
	}
}
