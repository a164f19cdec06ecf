package menuplan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NewNotFoundError("Meal", "m1"), ErrNotFound},
		{"discarded", NewDiscardedError("Meal", "m1"), ErrDiscarded},
		{"business rule", NewBusinessRuleError("tag-author-mismatch", "wrong author"), ErrBusinessRule},
		{"invalid property", NewInvalidPropertyError("Meal", "color", "unknown"), ErrInvalidProperty},
		{"handler not found", NewHandlerNotFoundError("CreateMeal"), ErrHandlerNotFound},
		{"command timeout", NewCommandTimeoutError("CreateMeal", time.Second, nil), ErrTimeout},
		{"panic", NewPanicError("CreateMeal", "boom", ""), ErrHandlerPanicked},
		{"serialization", NewSerializationError("MenuDeleted", "serialize", errors.New("bad")), ErrSerializationFailed},
		{"validation", NewValidationError("CreateMeal", "Name", "required"), ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `menuplan: Meal "m1" not found`, NewNotFoundError("Meal", "m1").Error())
	assert.Equal(t, `menuplan: Tag "t1" is discarded`, NewDiscardedError("Tag", "t1").Error())
	assert.Equal(t, `menuplan: no handler registered for command type "X"`, NewHandlerNotFoundError("X").Error())
	assert.Equal(t,
		`menuplan: command "CreateMeal" timed out after 1s`,
		NewCommandTimeoutError("CreateMeal", time.Second, nil).Error())
	assert.Equal(t,
		`menuplan: event "MenuDeleted" handler "notify" timed out after 2s`,
		NewEventTimeoutError("MenuDeleted", "notify", 2*time.Second, nil).Error())
}

func TestTimeoutError_Unwrap(t *testing.T) {
	t.Run("cause", func(t *testing.T) {
		err := NewCommandTimeoutError("CreateMeal", time.Second, context.DeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("no cause", func(t *testing.T) {
		err := NewCommandTimeoutError("CreateMeal", time.Second, nil)
		assert.Equal(t, ErrTimeout, errors.Unwrap(err))
	})
}

func TestEventHandlerError(t *testing.T) {
	cause := NewNotFoundError("Menu", "menu-1")
	err := &EventHandlerError{EventType: "MealDeleted", Handler: "remove_meal_from_menu", Cause: cause}

	assert.Contains(t, err.Error(), "remove_meal_from_menu")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSerializationError_Unwrap(t *testing.T) {
	err := NewSerializationError("MenuDeleted", "deserialize", ErrEventTypeNotRegistered)

	assert.ErrorIs(t, err, ErrEventTypeNotRegistered)
	assert.Equal(t, `menuplan: failed to deserialize event "MenuDeleted": menuplan: event type not registered`, err.Error())
}
