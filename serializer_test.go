package menuplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistry(t *testing.T) {
	t.Run("registers by event type", func(t *testing.T) {
		r := NewEventRegistry()
		r.Register(testEvent{}, &otherEvent{})

		assert.Equal(t, 2, r.Count())
		assert.Equal(t, []string{"OtherEvent", "TestEvent"}, r.RegisteredTypes())

		typ, ok := r.Lookup("OtherEvent")
		require.True(t, ok)
		assert.Equal(t, "otherEvent", typ.Name())
	})

	t.Run("New returns a pointer to a zero value", func(t *testing.T) {
		r := NewEventRegistry()
		r.Register(testEvent{})

		ptr, err := r.New("TestEvent")

		require.NoError(t, err)
		assert.IsType(t, &testEvent{}, ptr)
	})

	t.Run("New fails for unknown types", func(t *testing.T) {
		_, err := NewEventRegistry().New("Nope")

		assert.ErrorIs(t, err, ErrEventTypeNotRegistered)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestEventFromPointer(t *testing.T) {
	ev, err := EventFromPointer("TestEvent", &testEvent{ID: "1"})

	require.NoError(t, err)
	assert.Equal(t, testEvent{ID: "1"}, ev)

	_, err = EventFromPointer("Bad", &struct{ A int }{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestJSONSerializer(t *testing.T) {
	registry := NewEventRegistry()
	registry.Register(testEvent{})
	s := NewJSONSerializer(registry)

	t.Run("content type", func(t *testing.T) {
		assert.Equal(t, "application/json", s.ContentType())
		assert.Same(t, registry, s.Registry())
	})

	t.Run("round trip to a value", func(t *testing.T) {
		data, err := s.Serialize(testEvent{ID: "m1", Note: "lunch"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"m1","note":"lunch"}`, string(data))

		ev, err := s.Deserialize(data, "TestEvent")
		require.NoError(t, err)
		assert.Equal(t, testEvent{ID: "m1", Note: "lunch"}, ev)
	})

	t.Run("nil event", func(t *testing.T) {
		_, err := s.Serialize(nil)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := s.Deserialize(nil, "TestEvent")
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("unregistered type", func(t *testing.T) {
		_, err := s.Deserialize([]byte(`{}`), "OtherEvent")
		assert.ErrorIs(t, err, ErrEventTypeNotRegistered)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := s.Deserialize([]byte(`{"id":`), "TestEvent")
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("nil registry", func(t *testing.T) {
		assert.NotNil(t, NewJSONSerializer(nil).Registry())
	})
}
