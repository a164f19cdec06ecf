// Package assertions provides helpers for checking the events an aggregate
// raised or an event handler received.
package assertions

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/menu-planning/go-menuplan"
)

// TB is an alias for testing.TB interface to allow mocking in tests
type TB = testing.TB

// AssertEventTypes checks that the events have the expected types in order.
func AssertEventTypes(t TB, events []menuplan.Event, types ...string) {
	t.Helper()

	if len(events) != len(types) {
		t.Fatalf("Expected %d events, got %d", len(types), len(events))
	}

	for i, expectedType := range types {
		if actual := eventType(events[i]); actual != expectedType {
			t.Errorf("Event %d: expected type %s, got %s", i, expectedType, actual)
		}
	}
}

// AssertEventData checks that event is a T equal to expected.
func AssertEventData[T menuplan.Event](t TB, event menuplan.Event, expected T) {
	t.Helper()

	actual, ok := event.(T)
	if !ok {
		t.Fatalf("Event is not of expected type %T, got %T", expected, event)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("Event data mismatch:\nExpected: %+v\nActual: %+v", expected, actual)
	}
}

// AssertContainsEvent checks that the events contain expected.
func AssertContainsEvent[T menuplan.Event](t TB, events []menuplan.Event, expected T) {
	t.Helper()

	if CountMatches(events, MatchEvent(expected)) == 0 {
		t.Errorf("Events do not contain expected event: %+v", expected)
	}
}

// AssertContainsEventType checks that at least one event has the given type.
func AssertContainsEventType(t TB, events []menuplan.Event, typeName string) {
	t.Helper()

	if CountMatches(events, MatchEventType(typeName)) == 0 {
		t.Errorf("Events do not contain event of type %s", typeName)
	}
}

// EventDiff represents a difference between expected and actual events.
type EventDiff struct {
	Index    int
	Expected menuplan.Event
	Actual   menuplan.Event
	Type     DiffType
}

// DiffType represents the type of difference.
type DiffType int

const (
	// DiffMissing indicates an expected event was not present.
	DiffMissing DiffType = iota
	// DiffExtra indicates an unexpected event was present.
	DiffExtra
	// DiffMismatch indicates event data did not match.
	DiffMismatch
)

// String returns a human-readable representation of the diff type.
func (d DiffType) String() string {
	switch d {
	case DiffMissing:
		return "missing"
	case DiffExtra:
		return "extra"
	case DiffMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// DiffEvents compares two event slices position by position.
func DiffEvents(expected, actual []menuplan.Event) []EventDiff {
	var diffs []EventDiff

	n := len(expected)
	if len(actual) > n {
		n = len(actual)
	}

	for i := 0; i < n; i++ {
		switch {
		case i >= len(expected):
			diffs = append(diffs, EventDiff{Index: i, Actual: actual[i], Type: DiffExtra})
		case i >= len(actual):
			diffs = append(diffs, EventDiff{Index: i, Expected: expected[i], Type: DiffMissing})
		case !reflect.DeepEqual(expected[i], actual[i]):
			diffs = append(diffs, EventDiff{Index: i, Expected: expected[i], Actual: actual[i], Type: DiffMismatch})
		}
	}

	return diffs
}

// FormatDiffs formats event diffs as a human-readable string.
func FormatDiffs(diffs []EventDiff) string {
	if len(diffs) == 0 {
		return "no differences"
	}

	var buf strings.Builder
	buf.WriteString("Event differences:\n")
	for _, d := range diffs {
		fmt.Fprintf(&buf, "  Event %d (%s):\n", d.Index, d.Type)
		switch d.Type {
		case DiffExtra:
			fmt.Fprintf(&buf, "    + %s %+v (unexpected)\n", eventType(d.Actual), d.Actual)
		case DiffMissing:
			fmt.Fprintf(&buf, "    - %s %+v (missing)\n", eventType(d.Expected), d.Expected)
		case DiffMismatch:
			fmt.Fprintf(&buf, "    - %s %+v\n", eventType(d.Expected), d.Expected)
			fmt.Fprintf(&buf, "    + %s %+v\n", eventType(d.Actual), d.Actual)
		}
	}
	return buf.String()
}

// AssertEventsEqual compares two event slices and fails if they differ.
func AssertEventsEqual(t TB, expected, actual []menuplan.Event) {
	t.Helper()

	if diffs := DiffEvents(expected, actual); len(diffs) > 0 {
		t.Error(FormatDiffs(diffs))
	}
}

// EventMatcher reports whether an event matches some criteria.
type EventMatcher func(event menuplan.Event) bool

// MatchEventType matches events of one type.
func MatchEventType(typeName string) EventMatcher {
	return func(event menuplan.Event) bool {
		return eventType(event) == typeName
	}
}

// MatchAggregate matches events that name aggregateID.
func MatchAggregate(aggregateID string) EventMatcher {
	return func(event menuplan.Event) bool {
		e, ok := event.(interface{ AggregateID() string })
		return ok && e.AggregateID() == aggregateID
	}
}

// MatchEvent matches events equal to expected.
func MatchEvent[T menuplan.Event](expected T) EventMatcher {
	return func(event menuplan.Event) bool {
		actual, ok := event.(T)
		return ok && reflect.DeepEqual(actual, expected)
	}
}

// AssertNoneMatch checks that no event matches.
func AssertNoneMatch(t TB, events []menuplan.Event, matcher EventMatcher) {
	t.Helper()

	for i, event := range events {
		if matcher(event) {
			t.Errorf("Event %d unexpectedly matched: %+v", i, event)
		}
	}
}

// CountMatches returns the number of events that match.
func CountMatches(events []menuplan.Event, matcher EventMatcher) int {
	count := 0
	for _, event := range events {
		if matcher(event) {
			count++
		}
	}
	return count
}

// FilterEvents returns the events that match.
func FilterEvents(events []menuplan.Event, matcher EventMatcher) []menuplan.Event {
	var result []menuplan.Event
	for _, event := range events {
		if matcher(event) {
			result = append(result, event)
		}
	}
	return result
}

func eventType(e menuplan.Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.EventType()
}
