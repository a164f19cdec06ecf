// Package bdd provides Given-When-Then fixtures for aggregates and for
// commands sent through a message bus.
package bdd

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/menu-planning/go-menuplan"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// TestFixture provides BDD-style testing for aggregates.
type TestFixture struct {
	t         TB
	aggregate menuplan.Aggregate
	setup     []func() error
	startVer  int64
	result    error
	events    []menuplan.Event
	executed  bool
}

// Given sets up the aggregate under test. Setup steps run before the
// command and the events they raise are discarded.
func Given(t TB, aggregate menuplan.Aggregate, setup ...func() error) *TestFixture {
	t.Helper()
	return &TestFixture{
		t:         t,
		aggregate: aggregate,
		setup:     setup,
	}
}

// And adds another setup step.
func (f *TestFixture) And(step func() error) *TestFixture {
	f.setup = append(f.setup, step)
	return f
}

// When runs the setup steps, drops their events, then runs the command.
func (f *TestFixture) When(commandFunc func() error) *TestFixture {
	f.t.Helper()

	for i, step := range f.setup {
		if err := step(); err != nil {
			f.t.Fatalf("Given step %d failed: %v", i, err)
		}
	}
	f.aggregate.PopEvents()
	f.startVer = f.aggregate.Version()

	f.result = commandFunc()
	f.events = f.aggregate.PopEvents()
	f.executed = true

	return f
}

// Then asserts that the aggregate raised exactly the expected events, in order.
func (f *TestFixture) Then(expectedEvents ...menuplan.Event) *TestFixture {
	f.t.Helper()
	f.mustSucceed("Then")

	if len(f.events) != len(expectedEvents) {
		f.t.Fatalf("Expected %d events, got %d.\nExpected: %+v\nActual: %+v",
			len(expectedEvents), len(f.events), expectedEvents, f.events)
	}

	for i, expected := range expectedEvents {
		if !reflect.DeepEqual(f.events[i], expected) {
			f.t.Errorf("Event %d mismatch:\nExpected: %+v\nActual: %+v",
				i, expected, f.events[i])
		}
	}
	return f
}

// ThenNoEvents asserts that no events were raised.
func (f *TestFixture) ThenNoEvents() *TestFixture {
	f.t.Helper()
	f.mustSucceed("ThenNoEvents")

	if len(f.events) > 0 {
		f.t.Errorf("Expected no events, got %d: %+v", len(f.events), f.events)
	}
	return f
}

// ThenVersionBumpedBy asserts how many versions the command added.
func (f *TestFixture) ThenVersionBumpedBy(n int64) *TestFixture {
	f.t.Helper()
	f.mustExecute("ThenVersionBumpedBy")

	if got := f.aggregate.Version() - f.startVer; got != n {
		f.t.Errorf("Expected version to grow by %d, grew by %d", n, got)
	}
	return f
}

// ThenError asserts that the command produced the expected error.
func (f *TestFixture) ThenError(expectedErr error) {
	f.t.Helper()
	f.mustExecute("ThenError")

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !errors.Is(f.result, expectedErr) {
		f.t.Errorf("Expected error %v, got %v", expectedErr, f.result)
	}
}

// ThenErrorContains asserts that the error message contains a substring.
func (f *TestFixture) ThenErrorContains(substring string) {
	f.t.Helper()
	f.mustExecute("ThenErrorContains")

	if f.result == nil {
		f.t.Fatal("Expected error but got success")
	}

	if !strings.Contains(f.result.Error(), substring) {
		f.t.Errorf("Expected error containing %q, got %q", substring, f.result.Error())
	}
}

func (f *TestFixture) mustExecute(step string) {
	f.t.Helper()
	if !f.executed {
		f.t.Fatalf("bdd: %s() must be called after When() - no command was executed", step)
	}
}

func (f *TestFixture) mustSucceed(step string) {
	f.t.Helper()
	f.mustExecute(step)
	if f.result != nil {
		f.t.Fatalf("Expected success but got error: %v", f.result)
	}
}

// BusFixture provides BDD-style testing of commands sent through a bus.
type BusFixture[U menuplan.UnitOfWork] struct {
	t        TB
	ctx      context.Context
	bus      *menuplan.MessageBus[U]
	given    []menuplan.Command
	err      error
	executed bool
}

// GivenBus creates a fixture over bus.
func GivenBus[U menuplan.UnitOfWork](t TB, bus *menuplan.MessageBus[U]) *BusFixture[U] {
	t.Helper()
	return &BusFixture[U]{
		t:   t,
		ctx: context.Background(),
		bus: bus,
	}
}

// WithContext sets a custom context for the command execution.
func (f *BusFixture[U]) WithContext(ctx context.Context) *BusFixture[U] {
	f.ctx = ctx
	return f
}

// WithCommands queues commands that must succeed before the one under test.
func (f *BusFixture[U]) WithCommands(cmds ...menuplan.Command) *BusFixture[U] {
	f.given = append(f.given, cmds...)
	return f
}

// When handles the given commands, then cmd.
func (f *BusFixture[U]) When(cmd menuplan.Command, opts ...menuplan.HandleOption) *BusFixture[U] {
	f.t.Helper()

	for _, given := range f.given {
		if err := f.bus.Handle(f.ctx, given); err != nil {
			f.t.Fatalf("Given command %s failed: %v", given.CommandType(), err)
		}
	}

	f.err = f.bus.Handle(f.ctx, cmd, opts...)
	f.executed = true
	return f
}

// ThenSucceeds asserts the command succeeded.
func (f *BusFixture[U]) ThenSucceeds() *BusFixture[U] {
	f.t.Helper()
	f.mustExecute("ThenSucceeds")

	if f.err != nil {
		f.t.Fatalf("Expected success but got error: %v", f.err)
	}
	return f
}

// ThenFails asserts the command failed with the expected error.
func (f *BusFixture[U]) ThenFails(expectedErr error) *BusFixture[U] {
	f.t.Helper()
	f.mustExecute("ThenFails")

	if f.err == nil {
		f.t.Fatal("Expected failure but got success")
	}

	if !errors.Is(f.err, expectedErr) {
		f.t.Errorf("Expected error %v, got %v", expectedErr, f.err)
	}
	return f
}

// ThenTimesOut asserts the command ran past its deadline.
func (f *BusFixture[U]) ThenTimesOut() *BusFixture[U] {
	f.t.Helper()
	return f.ThenFails(menuplan.ErrTimeout)
}

// Err returns the error from When.
func (f *BusFixture[U]) Err() error {
	return f.err
}

func (f *BusFixture[U]) mustExecute(step string) {
	f.t.Helper()
	if !f.executed {
		f.t.Fatalf("bdd: %s() must be called after When() - no command was dispatched", step)
	}
}
