// Package testutil provides test doubles and fixtures for code built on the
// menuplan message bus.
package testutil

import (
	"context"
	"sync"

	"github.com/menu-planning/go-menuplan"
)

// =============================================================================
// Messages
// =============================================================================

// TestCommand is a minimal command. Validate fails when ID is empty.
type TestCommand struct {
	menuplan.CommandBase
	ID string `json:"id"`
}

// CommandType returns "TestCommand".
func (TestCommand) CommandType() string { return "TestCommand" }

// Validate requires an ID.
func (c TestCommand) Validate() error {
	if c.ID == "" {
		return menuplan.NewValidationError(c.CommandType(), "ID", "required")
	}
	return nil
}

// TestEvent is a minimal event.
type TestEvent struct {
	ID    string `json:"id" msgpack:"id"`
	Value string `json:"value,omitempty" msgpack:"value,omitempty"`
}

// EventType returns "TestEvent".
func (TestEvent) EventType() string { return "TestEvent" }

// AggregateID returns the event ID.
func (e TestEvent) AggregateID() string { return e.ID }

// =============================================================================
// Unit of Work
// =============================================================================

// FakeUnitOfWork records lifecycle calls and hands out preset events.
type FakeUnitOfWork struct {
	mu        sync.Mutex
	events    []menuplan.Event
	committed bool

	Begins    int
	Commits   int
	Rollbacks int
	Closes    int

	// CommitErr is returned by Commit when set.
	CommitErr error
}

var _ menuplan.UnitOfWork = (*FakeUnitOfWork)(nil)

// NewFakeUnitOfWork creates a unit of work whose CollectEvents returns events once.
func NewFakeUnitOfWork(events ...menuplan.Event) *FakeUnitOfWork {
	return &FakeUnitOfWork{events: events}
}

// Raise queues events for the next CollectEvents call.
func (u *FakeUnitOfWork) Raise(events ...menuplan.Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, events...)
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Begins++
	return nil
}

func (u *FakeUnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Commits++
	if u.CommitErr != nil {
		return u.CommitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.committed = true
	return nil
}

func (u *FakeUnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Rollbacks++
	return nil
}

func (u *FakeUnitOfWork) Close(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Closes++
	if !u.committed {
		u.Rollbacks++
	}
	return nil
}

func (u *FakeUnitOfWork) Committed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.committed
}

func (u *FakeUnitOfWork) CollectEvents() []menuplan.Event {
	u.mu.Lock()
	defer u.mu.Unlock()
	events := u.events
	u.events = nil
	return events
}

// FakeFactory hands out FakeUnitOfWork instances and remembers them.
type FakeFactory struct {
	mu      sync.Mutex
	created []*FakeUnitOfWork

	// Events are raised on the first unit of work created.
	Events []menuplan.Event
}

// New returns a fresh unit of work. It is a
// menuplan.UnitOfWorkFactory[*FakeUnitOfWork].
func (f *FakeFactory) New() *FakeUnitOfWork {
	f.mu.Lock()
	defer f.mu.Unlock()
	var uow *FakeUnitOfWork
	if len(f.created) == 0 {
		uow = NewFakeUnitOfWork(f.Events...)
	} else {
		uow = NewFakeUnitOfWork()
	}
	f.created = append(f.created, uow)
	return uow
}

// Created returns every unit of work handed out so far.
func (f *FakeFactory) Created() []*FakeUnitOfWork {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeUnitOfWork(nil), f.created...)
}

// =============================================================================
// Logger
// =============================================================================

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// RecordingLogger captures log calls.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ menuplan.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.record("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...interface{})  { l.record("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...interface{})  { l.record("warn", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.record("error", msg, args) }

// Entries returns the captured entries at level, or all of them when level is "".
func (l *RecordingLogger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *RecordingLogger) record(level, msg string, args []interface{}) {
	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}
