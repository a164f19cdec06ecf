package menuplan

import (
	"reflect"
)

// Event is a fact that state changed.
// Events are raised by aggregates while a command runs and dispatched by the
// MessageBus only after the command succeeded.
type Event interface {
	// EventType returns the type identifier for this event (e.g., "MenuDeleted").
	EventType() string
}

// Mergeable is implemented by events that collapse into an already pending
// event of the same type instead of being queued twice.
type Mergeable interface {
	Event

	// Merge folds this event into the pending one and returns the result.
	Merge(pending Event) Event
}

// AggregateEvent is an event that names the aggregate it was raised by.
type AggregateEvent interface {
	Event

	// AggregateID returns the ID of the aggregate that raised the event.
	AggregateID() string
}

// TypeName returns the type name of a value using reflection.
// It is used for messages that do not implement CommandType or EventType.
func TypeName(v interface{}) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
