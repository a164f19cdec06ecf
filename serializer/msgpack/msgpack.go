// Package msgpack provides a MessagePack event serializer.
//
// MessagePack produces smaller payloads than JSON while keeping the same
// field names, so notifications can switch formats without changing
// consumers' schemas.
//
// Basic usage:
//
//	registry := menuplan.NewEventRegistry()
//	registry.Register(menu.Events()...)
//
//	s := msgpack.NewSerializer(registry)
//	data, err := s.Serialize(menu.MenuDeleted{MenuID: "m1"})
//	event, err := s.Deserialize(data, "MenuDeleted")
package msgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/menu-planning/go-menuplan"
)

// ContentType is the MIME type of MessagePack payloads.
const ContentType = "application/msgpack"

// Serializer is a MessagePack implementation of menuplan.Serializer.
type Serializer struct {
	registry *menuplan.EventRegistry
}

var _ menuplan.Serializer = (*Serializer)(nil)

// NewSerializer creates a Serializer over registry.
// A nil registry is replaced by an empty one.
func NewSerializer(registry *menuplan.EventRegistry) *Serializer {
	if registry == nil {
		registry = menuplan.NewEventRegistry()
	}
	return &Serializer{registry: registry}
}

// Registry returns the underlying EventRegistry.
func (s *Serializer) Registry() *menuplan.EventRegistry {
	return s.registry
}

// ContentType returns "application/msgpack".
func (s *Serializer) ContentType() string {
	return ContentType
}

// Serialize converts an event to MessagePack bytes.
func (s *Serializer) Serialize(event menuplan.Event) ([]byte, error) {
	if event == nil {
		return nil, menuplan.NewSerializationError("nil", "serialize", fmt.Errorf("event cannot be nil"))
	}

	data, err := msgpack.Marshal(event)
	if err != nil {
		return nil, menuplan.NewSerializationError(event.EventType(), "serialize", err)
	}
	return data, nil
}

// Deserialize converts MessagePack bytes back to a value of the registered type.
func (s *Serializer) Deserialize(data []byte, eventType string) (menuplan.Event, error) {
	if len(data) == 0 {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", fmt.Errorf("data cannot be empty"))
	}

	ptr, err := s.registry.New(eventType)
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(data, ptr); err != nil {
		return nil, menuplan.NewSerializationError(eventType, "deserialize", err)
	}
	return menuplan.EventFromPointer(eventType, ptr)
}
