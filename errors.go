package menuplan

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
var (
	// ErrNotFound indicates the requested aggregate does not exist.
	ErrNotFound = errors.New("menuplan: not found")

	// ErrAlreadyExists indicates an aggregate with the same ID was already added.
	ErrAlreadyExists = errors.New("menuplan: already exists")

	// ErrInvalidQuery indicates the query is invalid.
	ErrInvalidQuery = errors.New("menuplan: invalid query")

	// ErrNilAggregate indicates a nil aggregate was passed.
	ErrNilAggregate = errors.New("menuplan: nil aggregate")

	// ErrDiscarded indicates an operation on a discarded entity.
	ErrDiscarded = errors.New("menuplan: entity is discarded")

	// ErrBusinessRule indicates a domain rule was broken.
	ErrBusinessRule = errors.New("menuplan: business rule violated")

	// ErrInvalidProperty indicates an update referenced an unknown or mistyped property.
	ErrInvalidProperty = errors.New("menuplan: invalid property")

	// Command and handler related errors

	// ErrHandlerNotFound indicates no handler is registered for a command type.
	ErrHandlerNotFound = errors.New("menuplan: handler not found")

	// ErrValidationFailed indicates command validation failed.
	ErrValidationFailed = errors.New("menuplan: validation failed")

	// ErrNilCommand indicates a nil command was passed.
	ErrNilCommand = errors.New("menuplan: nil command")

	// ErrHandlerPanicked indicates a handler panicked during execution.
	ErrHandlerPanicked = errors.New("menuplan: handler panicked")

	// ErrTimeout indicates a handler did not finish before its deadline.
	ErrTimeout = errors.New("menuplan: timeout")

	// ErrBusClosed indicates the message bus has been closed.
	ErrBusClosed = errors.New("menuplan: message bus closed")

	// ErrUnitOfWorkClosed indicates the unit of work was used outside Begin/Close.
	ErrUnitOfWorkClosed = errors.New("menuplan: unit of work is not active")

	// Serialization and notification related errors

	// ErrSerializationFailed indicates event serialization/deserialization failed.
	ErrSerializationFailed = errors.New("menuplan: serialization failed")

	// ErrEventTypeNotRegistered indicates an unknown event type was decoded.
	ErrEventTypeNotRegistered = errors.New("menuplan: event type not registered")

	// ErrNoPublisher indicates no publisher handles a notification destination.
	ErrNoPublisher = errors.New("menuplan: no publisher for destination")
)

// NotFoundError provides detailed information about a missing aggregate.
type NotFoundError struct {
	AggregateType string
	ID            string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("menuplan: %s %q not found", e.AggregateType, e.ID)
}

// Is reports whether this error matches the target error.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(aggregateType, id string) *NotFoundError {
	return &NotFoundError{AggregateType: aggregateType, ID: id}
}

// DiscardedError is returned by accessors and mutators of a discarded entity.
type DiscardedError struct {
	EntityType string
	ID         string
}

// Error returns the error message.
func (e *DiscardedError) Error() string {
	return fmt.Sprintf("menuplan: %s %q is discarded", e.EntityType, e.ID)
}

// Is reports whether this error matches the target error.
func (e *DiscardedError) Is(target error) bool {
	return target == ErrDiscarded
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DiscardedError) Unwrap() error {
	return ErrDiscarded
}

// NewDiscardedError creates a new DiscardedError.
func NewDiscardedError(entityType, id string) *DiscardedError {
	return &DiscardedError{EntityType: entityType, ID: id}
}

// BusinessRuleError reports a rejected mutation.
type BusinessRuleError struct {
	// Rule names the broken rule (e.g., "TagAuthorMustMatch").
	Rule string

	// Message describes the violation.
	Message string
}

// Error returns the error message.
func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("menuplan: business rule %q violated: %s", e.Rule, e.Message)
}

// Is reports whether this error matches the target error.
func (e *BusinessRuleError) Is(target error) bool {
	return target == ErrBusinessRule
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *BusinessRuleError) Unwrap() error {
	return ErrBusinessRule
}

// NewBusinessRuleError creates a new BusinessRuleError.
func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

// InvalidPropertyError is returned by UpdateProperties style mutators.
type InvalidPropertyError struct {
	EntityType string
	Property   string
	Reason     string
}

// Error returns the error message.
func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("menuplan: invalid property %q on %s: %s", e.Property, e.EntityType, e.Reason)
}

// Is reports whether this error matches the target error.
func (e *InvalidPropertyError) Is(target error) bool {
	return target == ErrInvalidProperty
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *InvalidPropertyError) Unwrap() error {
	return ErrInvalidProperty
}

// NewInvalidPropertyError creates a new InvalidPropertyError.
func NewInvalidPropertyError(entityType, property, reason string) *InvalidPropertyError {
	return &InvalidPropertyError{EntityType: entityType, Property: property, Reason: reason}
}

// HandlerNotFoundError provides detailed information about a missing handler.
type HandlerNotFoundError struct {
	CommandType string
}

// Error returns the error message.
func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("menuplan: no handler registered for command type %q", e.CommandType)
}

// Is reports whether this error matches the target error.
func (e *HandlerNotFoundError) Is(target error) bool {
	return target == ErrHandlerNotFound
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *HandlerNotFoundError) Unwrap() error {
	return ErrHandlerNotFound
}

// NewHandlerNotFoundError creates a new HandlerNotFoundError.
func NewHandlerNotFoundError(cmdType string) *HandlerNotFoundError {
	return &HandlerNotFoundError{CommandType: cmdType}
}

// TimeoutError is returned when a command handler, or logged when an event
// handler group, exceeds its deadline.
type TimeoutError struct {
	// MessageKind is "command" or "event".
	MessageKind string

	// MessageType is the command or event type.
	MessageType string

	// Handler is set for event handler timeouts.
	Handler string

	// Timeout is the deadline that was exceeded.
	Timeout time.Duration

	// Cause is what the handler returned after cancellation, if anything.
	Cause error
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	if e.Handler != "" {
		return fmt.Sprintf("menuplan: %s %q handler %q timed out after %s",
			e.MessageKind, e.MessageType, e.Handler, e.Timeout)
	}
	return fmt.Sprintf("menuplan: %s %q timed out after %s", e.MessageKind, e.MessageType, e.Timeout)
}

// Is reports whether this error matches the target error.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Unwrap returns the handler's own error when present, the deadline error otherwise.
func (e *TimeoutError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrTimeout
}

// NewCommandTimeoutError creates a TimeoutError for a command.
func NewCommandTimeoutError(cmdType string, timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{
		MessageKind: "command",
		MessageType: cmdType,
		Timeout:     timeout,
		Cause:       cause,
	}
}

// NewEventTimeoutError creates a TimeoutError for one event handler.
func NewEventTimeoutError(eventType, handler string, timeout time.Duration, cause error) *TimeoutError {
	return &TimeoutError{
		MessageKind: "event",
		MessageType: eventType,
		Handler:     handler,
		Timeout:     timeout,
		Cause:       cause,
	}
}

// EventHandlerError wraps a failure of a single event handler.
// The bus logs these and never returns them to the caller.
type EventHandlerError struct {
	EventType string
	Handler   string
	Cause     error
}

// Error returns the error message.
func (e *EventHandlerError) Error() string {
	return fmt.Sprintf("menuplan: handler %q failed for event %q: %v", e.Handler, e.EventType, e.Cause)
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *EventHandlerError) Unwrap() error {
	return e.Cause
}

// PanicError provides detailed information about a handler panic.
type PanicError struct {
	MessageType string
	Value       interface{}
	Stack       string
	// MessageData contains a JSON representation of the command or event for debugging.
	MessageData string
}

// Error returns the error message.
func (e *PanicError) Error() string {
	return fmt.Sprintf("menuplan: handler panicked while processing %q: %v", e.MessageType, e.Value)
}

// Is reports whether this error matches the target error.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanicked
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *PanicError) Unwrap() error {
	return ErrHandlerPanicked
}

// NewPanicError creates a new PanicError.
func NewPanicError(msgType string, value interface{}, stack string) *PanicError {
	return &PanicError{
		MessageType: msgType,
		Value:       value,
		Stack:       stack,
	}
}

// NewPanicErrorWithMessage creates a new PanicError with message data for debugging.
func NewPanicErrorWithMessage(msgType string, value interface{}, stack string, data string) *PanicError {
	return &PanicError{
		MessageType: msgType,
		Value:       value,
		Stack:       stack,
		MessageData: data,
	}
}

// SerializationError provides detailed information about serialization failures.
type SerializationError struct {
	EventType string
	Operation string // "serialize" or "deserialize"
	Cause     error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("menuplan: failed to %s event %q: %v", e.Operation, e.EventType, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerializationFailed
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new SerializationError.
func NewSerializationError(eventType, operation string, cause error) *SerializationError {
	return &SerializationError{
		EventType: eventType,
		Operation: operation,
		Cause:     cause,
	}
}
