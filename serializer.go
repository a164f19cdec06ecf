package menuplan

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Serializer encodes events for publication outside the process.
type Serializer interface {
	// Serialize converts an event to bytes.
	Serialize(event Event) ([]byte, error)

	// Deserialize converts bytes back to an event of the registered type.
	Deserialize(data []byte, eventType string) (Event, error)

	// ContentType returns the MIME type of the encoded payload.
	ContentType() string
}

// EventRegistry maps event type names to Go types.
// Serializers use it to decode payloads into concrete events.
type EventRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventRegistry creates a new empty EventRegistry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{
		types: make(map[string]reflect.Type),
	}
}

// Register adds events keyed by their EventType.
// Examples should be values, since decoding produces values.
func (r *EventRegistry) Register(examples ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, example := range examples {
		t := reflect.TypeOf(example)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		r.types[example.EventType()] = t
	}
}

// Lookup returns the Go type for the given event type name.
func (r *EventRegistry) Lookup(eventType string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[eventType]
	return t, ok
}

// New returns a pointer to a fresh zero value of the registered type.
func (r *EventRegistry) New(eventType string) (interface{}, error) {
	t, ok := r.Lookup(eventType)
	if !ok {
		return nil, NewSerializationError(eventType, "deserialize", ErrEventTypeNotRegistered)
	}
	return reflect.New(t).Interface(), nil
}

// RegisteredTypes returns all registered event type names, sorted.
func (r *EventRegistry) RegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the number of registered event types.
func (r *EventRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// EventFromPointer turns the pointer returned by EventRegistry.New, after
// decoding, back into an Event value.
func EventFromPointer(eventType string, ptr interface{}) (Event, error) {
	v := reflect.ValueOf(ptr)
	if ev, ok := v.Elem().Interface().(Event); ok {
		return ev, nil
	}
	if ev, ok := ptr.(Event); ok {
		return ev, nil
	}
	return nil, NewSerializationError(eventType, "deserialize",
		fmt.Errorf("registered type %s does not implement Event", v.Elem().Type()))
}

// JSONSerializer is the default Serializer implementation using JSON encoding.
type JSONSerializer struct {
	registry *EventRegistry
}

// NewJSONSerializer creates a JSONSerializer over registry.
// A nil registry is replaced by an empty one.
func NewJSONSerializer(registry *EventRegistry) *JSONSerializer {
	if registry == nil {
		registry = NewEventRegistry()
	}
	return &JSONSerializer{registry: registry}
}

// Registry returns the underlying EventRegistry.
func (s *JSONSerializer) Registry() *EventRegistry {
	return s.registry
}

// ContentType returns "application/json".
func (s *JSONSerializer) ContentType() string {
	return "application/json"
}

// Serialize converts an event to JSON bytes.
func (s *JSONSerializer) Serialize(event Event) ([]byte, error) {
	if event == nil {
		return nil, NewSerializationError("nil", "serialize", fmt.Errorf("event cannot be nil"))
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, NewSerializationError(event.EventType(), "serialize", err)
	}
	return data, nil
}

// Deserialize converts JSON bytes back to an event.
func (s *JSONSerializer) Deserialize(data []byte, eventType string) (Event, error) {
	if len(data) == 0 {
		return nil, NewSerializationError(eventType, "deserialize", fmt.Errorf("data cannot be empty"))
	}

	ptr, err := s.registry.New(eventType)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, NewSerializationError(eventType, "deserialize", err)
	}
	return EventFromPointer(eventType, ptr)
}
