package menuplan

import (
	"fmt"
	"strings"
)

// Command represents an intent to change state.
// A command is handled by exactly one handler and never outlives one Handle call.
type Command interface {
	// CommandType returns the type identifier for this command (e.g., "CreateMeal").
	CommandType() string

	// Validate checks if the command is valid.
	// Returns nil if valid, or an error describing validation failures.
	Validate() error
}

// AggregateCommand is a command that targets an existing aggregate.
type AggregateCommand interface {
	Command

	// AggregateID returns the ID of the aggregate this command targets.
	AggregateID() string
}

// CommandBase carries tracing identifiers shared by every command.
// Embed this struct in command types.
type CommandBase struct {
	// CommandID is an optional unique identifier for this command instance.
	CommandID string `json:"commandId,omitempty"`

	// CorrelationID links the command with the events it causes in logs and spans.
	CorrelationID string `json:"correlationId,omitempty"`
}

// WithCommandID returns a copy of CommandBase with the command ID set.
func (c CommandBase) WithCommandID(id string) CommandBase {
	c.CommandID = id
	return c
}

// WithCorrelationID returns a copy of CommandBase with the correlation ID set.
func (c CommandBase) WithCorrelationID(id string) CommandBase {
	c.CorrelationID = id
	return c
}

// GetCommandID returns the command ID.
func (c CommandBase) GetCommandID() string {
	return c.CommandID
}

// GetCorrelationID returns the correlation ID.
func (c CommandBase) GetCorrelationID() string {
	return c.CorrelationID
}

// ValidationError represents a command validation failure.
type ValidationError struct {
	// CommandType is the type of command that failed validation.
	CommandType string

	// Field is the field that failed validation (optional).
	Field string

	// Message describes the validation failure.
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("menuplan: validation failed for command %q field %q: %s",
			e.CommandType, e.Field, e.Message)
	}
	return fmt.Sprintf("menuplan: validation failed for command %q: %s",
		e.CommandType, e.Message)
}

// Is reports whether this error matches the target error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(cmdType, field, message string) *ValidationError {
	return &ValidationError{
		CommandType: cmdType,
		Field:       field,
		Message:     message,
	}
}

// MultiValidationError collects every field failure of one command.
type MultiValidationError struct {
	CommandType string
	Errors      []*ValidationError
}

// NewMultiValidationError creates a new MultiValidationError.
func NewMultiValidationError(cmdType string) *MultiValidationError {
	return &MultiValidationError{CommandType: cmdType}
}

// Error returns the error message.
func (e *MultiValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fmt.Sprintf("menuplan: validation failed for command %q: %d error(s) [%s]",
		e.CommandType, len(e.Errors), strings.Join(fields, ", "))
}

// Is reports whether this error matches the target error.
func (e *MultiValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// AddField records a failure for one field.
func (e *MultiValidationError) AddField(field, message string) {
	e.Errors = append(e.Errors, NewValidationError(e.CommandType, field, message))
}

// Require records a "required" failure when value is blank.
func (e *MultiValidationError) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.AddField(field, "required")
	}
}

// ErrOrNil returns the error when at least one field failed, nil otherwise.
func (e *MultiValidationError) ErrOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
