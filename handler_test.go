package menuplan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericHandler(t *testing.T) {
	var got string
	h := NewGenericHandler(func(ctx context.Context, cmd testCommand, uow *fakeUoW) error {
		got = cmd.ID
		return nil
	})

	assert.Equal(t, "TestCommand", h.CommandType())

	t.Run("typed command", func(t *testing.T) {
		require.NoError(t, h.Handle(context.Background(), testCommand{ID: "1"}, &fakeUoW{}))
		assert.Equal(t, "1", got)
	})

	t.Run("wrong command type", func(t *testing.T) {
		err := h.Handle(context.Background(), otherCommand{}, &fakeUoW{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected command type")
	})
}

func TestGenericEventHandler(t *testing.T) {
	h := NewGenericEventHandler("on_test", func(ctx context.Context, e testEvent, uow *fakeUoW) error {
		return nil
	})

	assert.Equal(t, "on_test", h.Name())
	assert.Equal(t, "TestEvent", h.EventType())
	assert.NoError(t, h.Handle(context.Background(), testEvent{}, &fakeUoW{}))
	assert.Error(t, h.Handle(context.Background(), otherEvent{}, &fakeUoW{}))
}

// pointerCommand reads its receiver, so a nil *pointerCommand would panic.
type pointerCommand struct{ kind string }

func (c *pointerCommand) CommandType() string {
	if c.kind == "" {
		return "PointerCommand"
	}
	return c.kind
}
func (c *pointerCommand) Validate() error { return nil }

type pointerEvent struct{ kind string }

func (e *pointerEvent) EventType() string {
	if e.kind == "" {
		return "PointerEvent"
	}
	return e.kind
}

func TestGenericHandler_PointerTypes(t *testing.T) {
	t.Run("command", func(t *testing.T) {
		var h *GenericHandler[*pointerCommand, *fakeUoW]
		require.NotPanics(t, func() {
			h = NewGenericHandler(func(ctx context.Context, cmd *pointerCommand, uow *fakeUoW) error {
				return nil
			})
		})
		assert.Equal(t, "PointerCommand", h.CommandType())
		assert.NoError(t, h.Handle(context.Background(), &pointerCommand{}, &fakeUoW{}))
		assert.Error(t, h.Handle(context.Background(), testCommand{}, &fakeUoW{}))
	})

	t.Run("event", func(t *testing.T) {
		var h *GenericEventHandler[*pointerEvent, *fakeUoW]
		require.NotPanics(t, func() {
			h = NewGenericEventHandler("on_pointer", func(ctx context.Context, e *pointerEvent, uow *fakeUoW) error {
				return nil
			})
		})
		assert.Equal(t, "PointerEvent", h.EventType())
		assert.NoError(t, h.Handle(context.Background(), &pointerEvent{}, &fakeUoW{}))
	})
}

func TestHandlerFuncs(t *testing.T) {
	ch := NewCommandHandlerFunc("Raw", func(ctx context.Context, cmd Command, uow *fakeUoW) error {
		return nil
	})
	eh := NewEventHandlerFunc("raw", "RawEvent", func(ctx context.Context, e Event, uow *fakeUoW) error {
		return nil
	})

	assert.Equal(t, "Raw", ch.CommandType())
	assert.NoError(t, ch.Handle(context.Background(), otherCommand{}, &fakeUoW{}))
	assert.Equal(t, "raw", eh.Name())
	assert.Equal(t, "RawEvent", eh.EventType())
	assert.NoError(t, eh.Handle(context.Background(), otherEvent{}, &fakeUoW{}))
}

func TestHandlerRegistry(t *testing.T) {
	noopCmd := func(ctx context.Context, cmd testCommand, uow *fakeUoW) error { return nil }
	noopEvent := func(ctx context.Context, e testEvent, uow *fakeUoW) error { return nil }

	t.Run("one handler per command type", func(t *testing.T) {
		r := NewHandlerRegistry[*fakeUoW]()
		RegisterCommandFunc(r, noopCmd)
		RegisterCommandFunc(r, noopCmd)

		assert.True(t, r.HasCommandHandler("TestCommand"))
		assert.False(t, r.HasCommandHandler("OtherCommand"))
		assert.Equal(t, 1, r.CommandCount())
		assert.NotNil(t, r.CommandHandler("TestCommand"))
		assert.Nil(t, r.CommandHandler("OtherCommand"))
	})

	t.Run("event handlers accumulate in registration order", func(t *testing.T) {
		r := NewHandlerRegistry[*fakeUoW]()
		RegisterEventFunc(r, "first", noopEvent)
		RegisterEventFunc(r, "second", noopEvent)

		handlers := r.EventHandlers("TestEvent")

		require.Len(t, handlers, 2)
		assert.Equal(t, "first", handlers[0].Name())
		assert.Equal(t, "second", handlers[1].Name())
		assert.Equal(t, 2, r.EventHandlerCount("TestEvent"))
		assert.Empty(t, r.EventHandlers("OtherEvent"))
	})

	t.Run("EventHandlers returns a copy", func(t *testing.T) {
		r := NewHandlerRegistry[*fakeUoW]()
		RegisterEventFunc(r, "first", noopEvent)

		handlers := r.EventHandlers("TestEvent")
		handlers[0] = nil

		assert.NotNil(t, r.EventHandlers("TestEvent")[0])
	})

	t.Run("types are sorted", func(t *testing.T) {
		r := NewHandlerRegistry[*fakeUoW]()
		r.RegisterCommand(NewCommandHandlerFunc("Zeta", func(ctx context.Context, cmd Command, uow *fakeUoW) error { return nil }))
		RegisterCommandFunc(r, noopCmd)
		RegisterEventFunc(r, "test", noopEvent)
		RegisterEventFunc(r, "other", func(ctx context.Context, e otherEvent, uow *fakeUoW) error { return nil })

		assert.Equal(t, []string{"TestCommand", "Zeta"}, r.CommandTypes())
		assert.Equal(t, []string{"OtherEvent", "TestEvent"}, r.EventTypes())
	})
}
