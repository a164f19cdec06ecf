package menuplan

import (
	"context"
)

// UnitOfWork is the transactional scope of one command or one event handler.
// A unit of work is created per message and never reused.
type UnitOfWork interface {
	// Begin opens the transaction and attaches repositories.
	Begin(ctx context.Context) error

	// Commit makes staged changes durable.
	Commit(ctx context.Context) error

	// Rollback discards staged changes.
	Rollback(ctx context.Context) error

	// Close ends the scope, rolling back if Commit was not called.
	Close(ctx context.Context) error

	// Committed reports whether Commit succeeded.
	Committed() bool

	// CollectEvents pops every pending event of every aggregate seen during
	// the scope. Aggregates are visited in first-seen order, events oldest
	// first. Draining is destructive: a second call returns nothing new.
	CollectEvents() []Event
}

// UnitOfWorkFactory creates a fresh unit of work.
type UnitOfWorkFactory[U UnitOfWork] func() U

// DrainEvents pops the pending events of each aggregate in order.
func DrainEvents(aggregates ...Aggregate) []Event {
	var events []Event
	for _, agg := range aggregates {
		events = append(events, agg.PopEvents()...)
	}
	return events
}

// Run begins uow, calls fn and closes uow. fn is expected to call Commit;
// when it does not, or when it fails, Close rolls the transaction back.
func Run[U UnitOfWork](ctx context.Context, uow U, fn func(uow U) error) (err error) {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		closeErr := uow.Close(context.WithoutCancel(ctx))
		if err == nil {
			err = closeErr
		}
	}()
	return fn(uow)
}
