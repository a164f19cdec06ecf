package menuplan

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default handler deadlines.
const (
	DefaultCommandTimeout = 10 * time.Second
	DefaultEventTimeout   = 10 * time.Second
)

// MiddlewareFunc is the function signature for command middleware.
type MiddlewareFunc func(ctx context.Context, cmd Command) error

// Middleware wraps the command path with additional functionality.
type Middleware func(next MiddlewareFunc) MiddlewareFunc

// EventMiddlewareFunc is the function signature for event handler middleware.
// handler is the name of the event handler being invoked.
type EventMiddlewareFunc func(ctx context.Context, handler string, event Event) error

// EventMiddleware wraps every event handler invocation.
type EventMiddleware func(next EventMiddlewareFunc) EventMiddlewareFunc

// ChainMiddleware creates a single middleware from multiple middleware.
func ChainMiddleware(middleware ...Middleware) Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		for i := len(middleware) - 1; i >= 0; i-- {
			next = middleware[i](next)
		}
		return next
	}
}

type busConfig struct {
	commandTimeout  time.Duration
	eventTimeout    time.Duration
	logger          Logger
	middleware      []Middleware
	eventMiddleware []EventMiddleware
}

// BusOption configures a MessageBus.
type BusOption func(*busConfig)

// WithCommandTimeout sets the default command deadline. Zero disables it.
func WithCommandTimeout(d time.Duration) BusOption {
	return func(c *busConfig) {
		c.commandTimeout = d
	}
}

// WithEventTimeout sets the default per-event deadline. Zero disables it.
func WithEventTimeout(d time.Duration) BusOption {
	return func(c *busConfig) {
		c.eventTimeout = d
	}
}

// WithLogger sets the logger used for event handler failures.
func WithLogger(l Logger) BusOption {
	return func(c *busConfig) {
		c.logger = l
	}
}

// WithMiddleware adds command middleware.
func WithMiddleware(middleware ...Middleware) BusOption {
	return func(c *busConfig) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithEventMiddleware adds event handler middleware.
func WithEventMiddleware(middleware ...EventMiddleware) BusOption {
	return func(c *busConfig) {
		c.eventMiddleware = append(c.eventMiddleware, middleware...)
	}
}

type handleConfig struct {
	commandTimeout time.Duration
	eventTimeout   time.Duration
}

// HandleOption overrides bus defaults for a single Handle call.
type HandleOption func(*handleConfig)

// CommandTimeout overrides the command deadline for one call.
func CommandTimeout(d time.Duration) HandleOption {
	return func(c *handleConfig) {
		c.commandTimeout = d
	}
}

// EventTimeout overrides the per-event deadline for one call.
func EventTimeout(d time.Duration) HandleOption {
	return func(c *handleConfig) {
		c.eventTimeout = d
	}
}

// MessageBus routes a command to its single handler and then fans the
// events raised during the command out to every registered event handler.
//
// Events are dispatched only after the command handler returned without
// error. Each event gets its own deadline and its own errgroup; handlers of
// the same event run concurrently and never cancel each other. Event
// handler failures are logged and swallowed. Events raised by event
// handlers are not collected.
type MessageBus[U UnitOfWork] struct {
	newUoW   UnitOfWorkFactory[U]
	registry *HandlerRegistry[U]
	cfg      busConfig
	closed   atomic.Bool
	mu       sync.RWMutex
}

// NewMessageBus creates a bus over a handler registry.
// newUoW is called once per command and once per event handler invocation.
func NewMessageBus[U UnitOfWork](newUoW UnitOfWorkFactory[U], registry *HandlerRegistry[U], opts ...BusOption) *MessageBus[U] {
	cfg := busConfig{
		commandTimeout: DefaultCommandTimeout,
		eventTimeout:   DefaultEventTimeout,
		logger:         &noopLogger{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if registry == nil {
		registry = NewHandlerRegistry[U]()
	}
	return &MessageBus[U]{
		newUoW:   newUoW,
		registry: registry,
		cfg:      cfg,
	}
}

// Registry returns the handler registry.
func (b *MessageBus[U]) Registry() *HandlerRegistry[U] {
	return b.registry
}

// Use adds command middleware.
// Middleware is executed in the order it was added.
func (b *MessageBus[U]) Use(middleware ...Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.middleware = append(b.cfg.middleware, middleware...)
}

// UseEvent adds event handler middleware.
func (b *MessageBus[U]) UseEvent(middleware ...EventMiddleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.eventMiddleware = append(b.cfg.eventMiddleware, middleware...)
}

// MiddlewareCount returns the number of registered command middleware.
func (b *MessageBus[U]) MiddlewareCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cfg.middleware)
}

// Handle runs cmd and then dispatches the events it produced.
//
// The returned error is nil when the command succeeded, whatever happened
// to the event handlers. Otherwise it is the handler's error, a
// *TimeoutError, a *PanicError or a *HandlerNotFoundError.
func (b *MessageBus[U]) Handle(ctx context.Context, cmd Command, opts ...HandleOption) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if cmd == nil {
		return ErrNilCommand
	}

	handler := b.registry.CommandHandler(cmd.CommandType())
	if handler == nil {
		return NewHandlerNotFoundError(cmd.CommandType())
	}

	hc := handleConfig{
		commandTimeout: b.cfg.commandTimeout,
		eventTimeout:   b.cfg.eventTimeout,
	}
	for _, opt := range opts {
		opt(&hc)
	}

	uow := b.newUoW()
	if err := b.runCommand(ctx, cmd, handler, uow, hc.commandTimeout); err != nil {
		return err
	}

	b.DispatchEvents(ctx, uow.CollectEvents(), EventTimeout(hc.eventTimeout))
	return nil
}

// DispatchEvents fans each event out to its handlers, one event at a time.
// It never returns handler errors; they are logged.
func (b *MessageBus[U]) DispatchEvents(ctx context.Context, events []Event, opts ...HandleOption) {
	hc := handleConfig{eventTimeout: b.cfg.eventTimeout}
	for _, opt := range opts {
		opt(&hc)
	}
	for _, event := range events {
		if ctx.Err() != nil {
			b.cfg.logger.Warn("Event dispatch abandoned",
				"event_type", event.EventType(),
				"error", ctx.Err(),
			)
			continue
		}
		b.dispatchEvent(ctx, event, hc.eventTimeout)
	}
}

// Close closes the bus, preventing further Handle calls.
func (b *MessageBus[U]) Close() error {
	b.closed.Store(true)
	return nil
}

// IsClosed returns true if the bus has been closed.
func (b *MessageBus[U]) IsClosed() bool {
	return b.closed.Load()
}

func (b *MessageBus[U]) runCommand(ctx context.Context, cmd Command, handler CommandHandler[U], uow U, timeout time.Duration) error {
	b.mu.RLock()
	middleware := make([]Middleware, len(b.cfg.middleware))
	copy(middleware, b.cfg.middleware)
	b.mu.RUnlock()

	chain := ChainMiddleware(middleware...)(func(ctx context.Context, cmd Command) error {
		return handler.Handle(ctx, cmd, uow)
	})

	scope, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(scope)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = newPanicError(cmd.CommandType(), r, cmd)
			}
		}()
		return chain(gctx, cmd)
	})

	err := g.Wait()
	if err != nil && deadlineHit(ctx, scope) {
		return NewCommandTimeoutError(cmd.CommandType(), timeout, err)
	}
	return err
}

func (b *MessageBus[U]) dispatchEvent(ctx context.Context, event Event, timeout time.Duration) {
	handlers := b.registry.EventHandlers(event.EventType())
	if len(handlers) == 0 {
		b.cfg.logger.Debug("No handlers registered for event", "event_type", event.EventType())
		return
	}

	b.mu.RLock()
	middleware := make([]EventMiddleware, len(b.cfg.eventMiddleware))
	copy(middleware, b.cfg.eventMiddleware)
	b.mu.RUnlock()

	scope, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	// A plain Group: a failing handler must not cancel its siblings.
	var g errgroup.Group
	for _, h := range handlers {
		h := h
		g.Go(func() error {
			err := b.runEventHandler(scope, event, h, middleware)
			if err == nil {
				return nil
			}
			if deadlineHit(ctx, scope) {
				err = NewEventTimeoutError(event.EventType(), h.Name(), timeout, err)
				b.cfg.logger.Error("Event handler timed out",
					"event_type", event.EventType(),
					"handler", h.Name(),
					"timeout", timeout,
					"error", err,
				)
				return nil
			}
			b.cfg.logger.Error("Event handler failed",
				"event_type", event.EventType(),
				"handler", h.Name(),
				"error", &EventHandlerError{EventType: event.EventType(), Handler: h.Name(), Cause: err},
			)
			return nil
		})
	}
	_ = g.Wait()
}

func (b *MessageBus[U]) runEventHandler(ctx context.Context, event Event, h EventHandler[U], middleware []EventMiddleware) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(event.EventType(), r, event)
		}
	}()

	uow := b.newUoW()
	next := EventMiddlewareFunc(func(ctx context.Context, _ string, event Event) error {
		return h.Handle(ctx, event, uow)
	})
	for i := len(middleware) - 1; i >= 0; i-- {
		next = middleware[i](next)
	}
	return next(ctx, h.Name(), event)
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// deadlineHit reports whether scope expired on its own deadline rather than
// through cancellation of the caller's context.
func deadlineHit(parent, scope context.Context) bool {
	return parent.Err() == nil && errors.Is(scope.Err(), context.DeadlineExceeded)
}

func newPanicError(msgType string, value interface{}, msg interface{}) *PanicError {
	var data string
	if raw, err := json.Marshal(msg); err == nil {
		data = string(raw)
	}
	return NewPanicErrorWithMessage(msgType, value, string(debug.Stack()), data)
}
