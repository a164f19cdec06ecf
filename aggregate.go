package menuplan

// Aggregate defines the interface for aggregate roots.
// An aggregate is a consistency boundary that queues the events raised by
// its mutations until a unit of work drains them.
type Aggregate interface {
	// AggregateID returns the unique identifier for this aggregate instance.
	AggregateID() string

	// AggregateType returns the type/category of this aggregate (e.g., "Meal", "Menu").
	AggregateType() string

	// Version returns the current version of the aggregate.
	// It grows by one on every externally observable mutation.
	Version() int64

	// IsDiscarded reports whether the aggregate was soft-deleted.
	IsDiscarded() bool

	// PendingEvents returns the queued events without removing them.
	PendingEvents() []Event

	// PopEvents removes and returns the queued events, oldest first.
	PopEvents() []Event
}

// AggregateBase provides a default partial implementation of the Aggregate interface.
// Embed this struct in aggregate types to get default behavior.
type AggregateBase struct {
	id            string
	aggregateType string
	version       int64
	discarded     bool
	events        []Event
}

// NewAggregateBase creates a new AggregateBase with the given ID and type.
// New aggregates start at version 1.
func NewAggregateBase(id, aggregateType string) AggregateBase {
	return AggregateBase{
		id:            id,
		aggregateType: aggregateType,
		version:       1,
	}
}

// AggregateID returns the aggregate's unique identifier.
func (a *AggregateBase) AggregateID() string {
	return a.id
}

// AggregateType returns the aggregate type.
func (a *AggregateBase) AggregateType() string {
	return a.aggregateType
}

// Version returns the current version of the aggregate.
func (a *AggregateBase) Version() int64 {
	return a.version
}

// SetVersion sets the aggregate version.
func (a *AggregateBase) SetVersion(v int64) {
	a.version = v
}

// IncrementVersion increments the aggregate version by 1.
func (a *AggregateBase) IncrementVersion() {
	a.version++
}

// IsDiscarded reports whether the aggregate was soft-deleted.
func (a *AggregateBase) IsDiscarded() bool {
	return a.discarded
}

// Discard marks the aggregate as discarded. Discarding is terminal.
func (a *AggregateBase) Discard() {
	a.discarded = true
}

// CheckNotDiscarded returns a DiscardedError once the aggregate was discarded.
func (a *AggregateBase) CheckNotDiscarded() error {
	if a.discarded {
		return NewDiscardedError(a.aggregateType, a.id)
	}
	return nil
}

// Raise queues an event.
func (a *AggregateBase) Raise(event Event) {
	a.events = append(a.events, event)
}

// RaiseMerged queues an event, folding it into a pending event of the same
// type when there is one. The merged event keeps the pending event's slot.
func (a *AggregateBase) RaiseMerged(event Mergeable) {
	for i, pending := range a.events {
		if pending.EventType() == event.EventType() {
			a.events[i] = event.Merge(pending)
			return
		}
	}
	a.events = append(a.events, event)
}

// PendingEvents returns a copy of the queued events.
func (a *AggregateBase) PendingEvents() []Event {
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// PopEvents removes and returns the queued events in FIFO order.
func (a *AggregateBase) PopEvents() []Event {
	events := a.events
	a.events = nil
	return events
}

// HasPendingEvents returns true if events are waiting to be drained.
func (a *AggregateBase) HasPendingEvents() bool {
	return len(a.events) > 0
}

// CloneBase returns a copy of the base with an empty event queue.
// Aggregates use it when a repository hands out isolated copies.
func (a *AggregateBase) CloneBase() AggregateBase {
	return AggregateBase{
		id:            a.id,
		aggregateType: a.aggregateType,
		version:       a.version,
		discarded:     a.discarded,
	}
}
