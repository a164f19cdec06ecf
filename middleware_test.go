package menuplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passThrough(ctx context.Context, cmd Command) error { return nil }

func TestValidationMiddleware(t *testing.T) {
	t.Run("rejects invalid commands before the handler", func(t *testing.T) {
		called := false
		handler := ValidationMiddleware()(func(ctx context.Context, cmd Command) error {
			called = true
			return nil
		})

		err := handler(context.Background(), testCommand{})

		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.False(t, called)
	})

	t.Run("passes valid commands", func(t *testing.T) {
		called := false
		handler := ValidationMiddleware()(func(ctx context.Context, cmd Command) error {
			called = true
			return nil
		})

		require.NoError(t, handler(context.Background(), testCommand{ID: "1"}))
		assert.True(t, called)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("turns panics into PanicError", func(t *testing.T) {
		handler := RecoveryMiddleware()(func(ctx context.Context, cmd Command) error {
			panic("boom")
		})

		err := handler(context.Background(), testCommand{ID: "9"})

		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "TestCommand", pe.MessageType)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.Contains(t, pe.MessageData, `"id":"9"`)
	})

	t.Run("passes errors through", func(t *testing.T) {
		boom := errors.New("boom")
		handler := RecoveryMiddleware()(func(ctx context.Context, cmd Command) error {
			return boom
		})

		assert.ErrorIs(t, handler(context.Background(), testCommand{ID: "1"}), boom)
	})
}

func TestEventRecoveryMiddleware(t *testing.T) {
	handler := EventRecoveryMiddleware()(func(ctx context.Context, handler string, event Event) error {
		panic("event boom")
	})

	err := handler(context.Background(), "h", testEvent{ID: "1"})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "TestEvent", pe.MessageType)
}

func TestLoggingMiddleware(t *testing.T) {
	t.Run("logs dispatch and completion", func(t *testing.T) {
		logger := newTestLogger()
		handler := NewLoggingMiddleware(logger).Middleware()(passThrough)

		require.NoError(t, handler(context.Background(), testCommand{ID: "1"}))

		assert.Equal(t, []string{"Dispatching command", "Command completed"}, logger.messages("info"))
		typ, _ := logger.field("Command completed", "type")
		assert.Equal(t, "TestCommand", typ)
	})

	t.Run("logs failures", func(t *testing.T) {
		logger := newTestLogger()
		boom := errors.New("boom")
		handler := NewLoggingMiddleware(logger).Middleware()(func(ctx context.Context, cmd Command) error {
			return boom
		})

		assert.ErrorIs(t, handler(context.Background(), testCommand{ID: "1"}), boom)
		assert.Equal(t, []string{"Command failed"}, logger.messages("error"))
		logged, _ := logger.field("Command failed", "error")
		assert.Equal(t, boom, logged)
	})

	t.Run("logs handled events at debug", func(t *testing.T) {
		logger := newTestLogger()
		handler := NewLoggingMiddleware(logger).EventMiddleware()(func(ctx context.Context, handler string, event Event) error {
			return nil
		})

		require.NoError(t, handler(context.Background(), "refresh", testEvent{ID: "1"}))

		assert.Equal(t, []string{"Event handled"}, logger.messages("debug"))
		name, _ := logger.field("Event handled", "handler")
		assert.Equal(t, "refresh", name)
	})

	t.Run("leaves event failures to the bus", func(t *testing.T) {
		logger := newTestLogger()
		handler := NewLoggingMiddleware(logger).EventMiddleware()(func(ctx context.Context, handler string, event Event) error {
			return errors.New("boom")
		})

		assert.Error(t, handler(context.Background(), "refresh", testEvent{ID: "1"}))
		assert.Empty(t, logger.entries)
	})
}

func TestCorrelationIDMiddleware(t *testing.T) {
	capture := func(got *string) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			*got = CorrelationIDFromContext(ctx)
			return nil
		}
	}

	t.Run("keeps the context ID", func(t *testing.T) {
		var got string
		handler := CorrelationIDMiddleware(func() string { return "generated" })(capture(&got))

		ctx := WithCorrelationID(context.Background(), "from-ctx")
		require.NoError(t, handler(ctx, testCommand{ID: "1", CommandBase: CommandBase{CorrelationID: "from-cmd"}}))

		assert.Equal(t, "from-ctx", got)
	})

	t.Run("falls back to the command ID", func(t *testing.T) {
		var got string
		handler := CorrelationIDMiddleware(func() string { return "generated" })(capture(&got))

		cmd := testCommand{ID: "1", CommandBase: CommandBase{}.WithCorrelationID("from-cmd")}
		require.NoError(t, handler(context.Background(), cmd))

		assert.Equal(t, "from-cmd", got)
	})

	t.Run("generates one otherwise", func(t *testing.T) {
		var got string
		handler := CorrelationIDMiddleware(func() string { return "generated" })(capture(&got))

		require.NoError(t, handler(context.Background(), otherCommand{}))

		assert.Equal(t, "generated", got)
	})

	t.Run("nil generator uses NewID", func(t *testing.T) {
		var got string
		handler := CorrelationIDMiddleware(nil)(capture(&got))

		require.NoError(t, handler(context.Background(), otherCommand{}))

		assert.Len(t, got, 36)
	})

	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, CorrelationIDFromContext(context.Background()))
	})
}

func TestCommandTypeMiddleware(t *testing.T) {
	applied := 0
	counting := func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			applied++
			return next(ctx, cmd)
		}
	}
	handler := CommandTypeMiddleware([]string{"TestCommand"}, counting)(passThrough)

	require.NoError(t, handler(context.Background(), testCommand{ID: "1"}))
	require.NoError(t, handler(context.Background(), otherCommand{}))

	assert.Equal(t, 1, applied)
}
