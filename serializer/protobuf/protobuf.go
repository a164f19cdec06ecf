// Package protobuf provides a Protocol Buffers event serializer.
//
// Events are plain Go structs, so they are carried as a
// google.protobuf.Struct built from their JSON field names. Consumers
// without the Go types can decode payloads with the well-known Struct type.
//
// Usage:
//
//	s := protobuf.NewSerializer(registry)
//	data, err := s.Serialize(menu.MenuDeleted{MenuID: "m1"})
//	event, err := s.Deserialize(data, "MenuDeleted")
package protobuf

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/menu-planning/go-menuplan"
)

// ContentType is the MIME type of protobuf payloads.
const ContentType = "application/x-protobuf"

var (
	// ErrEmptyData indicates an attempt to deserialize empty data.
	ErrEmptyData = errors.New("menuplan/protobuf: cannot deserialize empty data")

	// ErrNotObject indicates an event that does not encode to a JSON object.
	ErrNotObject = errors.New("menuplan/protobuf: event must encode to an object")
)

// Serializer implements menuplan.Serializer over google.protobuf.Struct.
type Serializer struct {
	registry *menuplan.EventRegistry
	marshal  proto.MarshalOptions
}

var _ menuplan.Serializer = (*Serializer)(nil)

// NewSerializer creates a Serializer over registry.
// A nil registry is replaced by an empty one.
func NewSerializer(registry *menuplan.EventRegistry) *Serializer {
	if registry == nil {
		registry = menuplan.NewEventRegistry()
	}
	return &Serializer{
		registry: registry,
		marshal:  proto.MarshalOptions{Deterministic: true},
	}
}

// Registry returns the underlying EventRegistry.
func (s *Serializer) Registry() *menuplan.EventRegistry {
	return s.registry
}

// ContentType returns "application/x-protobuf".
func (s *Serializer) ContentType() string {
	return ContentType
}

// Serialize encodes event as a binary google.protobuf.Struct.
func (s *Serializer) Serialize(event menuplan.Event) ([]byte, error) {
	if event == nil {
		return nil, menuplan.NewSerializationError("nil", "serialize", fmt.Errorf("event cannot be nil"))
	}

	st, err := ToStruct(event)
	if err != nil {
		return nil, menuplan.NewSerializationError(event.EventType(), "serialize", err)
	}

	data, err := s.marshal.Marshal(st)
	if err != nil {
		return nil, menuplan.NewSerializationError(event.EventType(), "serialize", err)
	}
	return data, nil
}

// Deserialize decodes a binary google.protobuf.Struct into the registered type.
func (s *Serializer) Deserialize(data []byte, eventType string) (menuplan.Event, error) {
	if len(data) == 0 {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", ErrEmptyData)
	}

	ptr, err := s.registry.New(eventType)
	if err != nil {
		return nil, err
	}

	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", err)
	}

	raw, err := protojson.Marshal(&st)
	if err != nil {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", err)
	}
	if err := json.Unmarshal(raw, ptr); err != nil {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", err)
	}
	return menuplan.EventFromPointer(eventType, ptr)
}

// ToStruct converts an event to a google.protobuf.Struct using its JSON field names.
func ToStruct(event menuplan.Event) (*structpb.Struct, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ErrNotObject
	}
	if fields == nil {
		return nil, ErrNotObject
	}

	return structpb.NewStruct(fields)
}
