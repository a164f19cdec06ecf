package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/menu-planning/go-menuplan"
)

// RecordingEventHandler records every event it handles.
type RecordingEventHandler[U menuplan.UnitOfWork] struct {
	name      string
	eventType string

	mu       sync.Mutex
	received []menuplan.Event
	order    *CallOrder

	// Err is returned from Handle when set.
	Err error
}

// NewRecordingEventHandler creates a handler for eventType.
func NewRecordingEventHandler[U menuplan.UnitOfWork](name, eventType string) *RecordingEventHandler[U] {
	return &RecordingEventHandler[U]{name: name, eventType: eventType}
}

// WithOrder appends the handler's name to order on every call.
func (h *RecordingEventHandler[U]) WithOrder(order *CallOrder) *RecordingEventHandler[U] {
	h.order = order
	return h
}

func (h *RecordingEventHandler[U]) Name() string      { return h.name }
func (h *RecordingEventHandler[U]) EventType() string { return h.eventType }

func (h *RecordingEventHandler[U]) Handle(ctx context.Context, event menuplan.Event, uow U) error {
	h.mu.Lock()
	h.received = append(h.received, event)
	h.mu.Unlock()
	if h.order != nil {
		h.order.Add(h.name + ":" + event.EventType())
	}
	return h.Err
}

// Received returns the events handled so far.
func (h *RecordingEventHandler[U]) Received() []menuplan.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]menuplan.Event(nil), h.received...)
}

// Calls returns how many events were handled.
func (h *RecordingEventHandler[U]) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

// BlockingEventHandler blocks until its context is done, or until Release
// is called, and then reports how it ended.
type BlockingEventHandler[U menuplan.UnitOfWork] struct {
	name      string
	eventType string
	release   chan struct{}
	once      sync.Once

	mu       sync.Mutex
	ctxErr   error
	finished bool
}

// NewBlockingEventHandler creates a handler for eventType.
func NewBlockingEventHandler[U menuplan.UnitOfWork](name, eventType string) *BlockingEventHandler[U] {
	return &BlockingEventHandler[U]{name: name, eventType: eventType, release: make(chan struct{})}
}

func (h *BlockingEventHandler[U]) Name() string      { return h.name }
func (h *BlockingEventHandler[U]) EventType() string { return h.eventType }

func (h *BlockingEventHandler[U]) Handle(ctx context.Context, event menuplan.Event, uow U) error {
	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-h.release:
	}
	h.mu.Lock()
	h.ctxErr = err
	h.finished = true
	h.mu.Unlock()
	return err
}

// Release unblocks pending and future calls.
func (h *BlockingEventHandler[U]) Release() {
	h.once.Do(func() { close(h.release) })
}

// Result reports whether Handle returned and the context error it saw.
func (h *BlockingEventHandler[U]) Result() (finished bool, ctxErr error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished, h.ctxErr
}

// SlowCommandHandler waits for Delay, or for its context, and returns the
// context error in the latter case.
type SlowCommandHandler[U menuplan.UnitOfWork] struct {
	Type  string
	Delay time.Duration
}

func (h SlowCommandHandler[U]) CommandType() string { return h.Type }

func (h SlowCommandHandler[U]) Handle(ctx context.Context, cmd menuplan.Command, uow U) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.Delay):
		return nil
	}
}

// CallOrder is a goroutine-safe list of call labels.
type CallOrder struct {
	mu    sync.Mutex
	calls []string
}

// Add appends a label.
func (o *CallOrder) Add(label string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, label)
}

// Calls returns the labels in call order.
func (o *CallOrder) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}
