package menuplan

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// CommandHandler handles one command type inside a unit of work.
type CommandHandler[U UnitOfWork] interface {
	// CommandType returns the type of command this handler processes.
	CommandType() string

	// Handle processes the command. Handlers open, commit and close uow themselves.
	Handle(ctx context.Context, cmd Command, uow U) error
}

// EventHandler reacts to one event type.
type EventHandler[U UnitOfWork] interface {
	// Name identifies the handler in logs, metrics and spans.
	Name() string

	// EventType returns the type of event this handler processes.
	EventType() string

	// Handle processes the event in its own unit of work.
	Handle(ctx context.Context, event Event, uow U) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc[U UnitOfWork] struct {
	cmdType string
	fn      func(ctx context.Context, cmd Command, uow U) error
}

// NewCommandHandlerFunc creates a new CommandHandlerFunc.
func NewCommandHandlerFunc[U UnitOfWork](cmdType string, fn func(ctx context.Context, cmd Command, uow U) error) *CommandHandlerFunc[U] {
	return &CommandHandlerFunc[U]{cmdType: cmdType, fn: fn}
}

// CommandType returns the command type this handler processes.
func (h *CommandHandlerFunc[U]) CommandType() string {
	return h.cmdType
}

// Handle processes the command.
func (h *CommandHandlerFunc[U]) Handle(ctx context.Context, cmd Command, uow U) error {
	return h.fn(ctx, cmd, uow)
}

// GenericHandler is a type-safe command handler for a specific command type.
type GenericHandler[C Command, U UnitOfWork] struct {
	handler func(ctx context.Context, cmd C, uow U) error
	cmdType string
}

// NewGenericHandler creates a new GenericHandler for the specified command type.
// C may be a value or a pointer type; for pointer types the type name is read
// from a freshly allocated value.
func NewGenericHandler[C Command, U UnitOfWork](handler func(ctx context.Context, cmd C, uow U) error) *GenericHandler[C, U] {
	return &GenericHandler[C, U]{
		handler: handler,
		cmdType: prototype[C]().CommandType(),
	}
}

// CommandType returns the command type this handler processes.
func (h *GenericHandler[C, U]) CommandType() string {
	return h.cmdType
}

// Handle processes the command with type checking.
func (h *GenericHandler[C, U]) Handle(ctx context.Context, cmd Command, uow U) error {
	typedCmd, ok := cmd.(C)
	if !ok {
		return fmt.Errorf("menuplan: expected command type %T, got %T", *new(C), cmd)
	}
	return h.handler(ctx, typedCmd, uow)
}

// GenericEventHandler is a type-safe event handler for a specific event type.
type GenericEventHandler[E Event, U UnitOfWork] struct {
	name      string
	eventType string
	handler   func(ctx context.Context, event E, uow U) error
}

// NewGenericEventHandler creates a new GenericEventHandler.
func NewGenericEventHandler[E Event, U UnitOfWork](name string, handler func(ctx context.Context, event E, uow U) error) *GenericEventHandler[E, U] {
	return &GenericEventHandler[E, U]{
		name:      name,
		eventType: prototype[E]().EventType(),
		handler:   handler,
	}
}

// prototype returns a usable T to read type names from. The zero value of a
// pointer type is nil, so pointer types get a new element instead.
func prototype[T any]() T {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(T)
	}
	return zero
}

// Name returns the handler name.
func (h *GenericEventHandler[E, U]) Name() string {
	return h.name
}

// EventType returns the event type this handler processes.
func (h *GenericEventHandler[E, U]) EventType() string {
	return h.eventType
}

// Handle processes the event with type checking.
func (h *GenericEventHandler[E, U]) Handle(ctx context.Context, event Event, uow U) error {
	typed, ok := event.(E)
	if !ok {
		return fmt.Errorf("menuplan: expected event type %T, got %T", *new(E), event)
	}
	return h.handler(ctx, typed, uow)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc[U UnitOfWork] struct {
	name      string
	eventType string
	fn        func(ctx context.Context, event Event, uow U) error
}

// NewEventHandlerFunc creates a new EventHandlerFunc.
func NewEventHandlerFunc[U UnitOfWork](name, eventType string, fn func(ctx context.Context, event Event, uow U) error) *EventHandlerFunc[U] {
	return &EventHandlerFunc[U]{name: name, eventType: eventType, fn: fn}
}

// Name returns the handler name.
func (h *EventHandlerFunc[U]) Name() string {
	return h.name
}

// EventType returns the event type this handler processes.
func (h *EventHandlerFunc[U]) EventType() string {
	return h.eventType
}

// Handle processes the event.
func (h *EventHandlerFunc[U]) Handle(ctx context.Context, event Event, uow U) error {
	return h.fn(ctx, event, uow)
}

// HandlerRegistry holds the command and event handler maps.
// Build it once at process start and pass it to NewMessageBus.
type HandlerRegistry[U UnitOfWork] struct {
	mu       sync.RWMutex
	commands map[string]CommandHandler[U]
	events   map[string][]EventHandler[U]
}

// NewHandlerRegistry creates a new HandlerRegistry.
func NewHandlerRegistry[U UnitOfWork]() *HandlerRegistry[U] {
	return &HandlerRegistry[U]{
		commands: make(map[string]CommandHandler[U]),
		events:   make(map[string][]EventHandler[U]),
	}
}

// RegisterCommand adds a handler for a command type.
// If a handler is already registered for this type, it will be replaced.
func (r *HandlerRegistry[U]) RegisterCommand(handler CommandHandler[U]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[handler.CommandType()] = handler
}

// RegisterEvent appends a handler to the list for its event type.
func (r *HandlerRegistry[U]) RegisterEvent(handler EventHandler[U]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[handler.EventType()] = append(r.events[handler.EventType()], handler)
}

// CommandHandler returns the handler for a command type, or nil.
func (r *HandlerRegistry[U]) CommandHandler(cmdType string) CommandHandler[U] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[cmdType]
}

// EventHandlers returns a copy of the handlers registered for an event type.
func (r *HandlerRegistry[U]) EventHandlers(eventType string) []EventHandler[U] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handlers := r.events[eventType]
	out := make([]EventHandler[U], len(handlers))
	copy(out, handlers)
	return out
}

// HasCommandHandler returns true if a handler is registered for the command type.
func (r *HandlerRegistry[U]) HasCommandHandler(cmdType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.commands[cmdType]
	return ok
}

// CommandCount returns the number of registered command handlers.
func (r *HandlerRegistry[U]) CommandCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// EventHandlerCount returns the number of handlers registered for an event type.
func (r *HandlerRegistry[U]) EventHandlerCount(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events[eventType])
}

// CommandTypes returns all registered command types, sorted.
func (r *HandlerRegistry[U]) CommandTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.commands))
	for t := range r.commands {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// EventTypes returns all event types with at least one handler, sorted.
func (r *HandlerRegistry[U]) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.events))
	for t, hs := range r.events {
		if len(hs) > 0 {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

// RegisterCommandFunc is a convenience function to register a typed command handler.
func RegisterCommandFunc[C Command, U UnitOfWork](r *HandlerRegistry[U], fn func(ctx context.Context, cmd C, uow U) error) {
	r.RegisterCommand(NewGenericHandler(fn))
}

// RegisterEventFunc is a convenience function to register a typed event handler.
func RegisterEventFunc[E Event, U UnitOfWork](r *HandlerRegistry[U], name string, fn func(ctx context.Context, event E, uow U) error) {
	r.RegisterEvent(NewGenericEventHandler(name, fn))
}
