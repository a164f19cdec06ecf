package memory

import (
	"context"
	"fmt"
	"reflect"

	"github.com/menu-planning/go-menuplan"
)

// Repository is the session-scoped view of a Store.
//
// Aggregates are tracked in an identity map: loading the same ID twice in
// one session returns the same instance. Add and Persist stage writes that
// Session.Commit applies; a conflicting concurrent commit is reported as a
// *ConcurrencyError.
type Repository[A Entity[A]] struct {
	store   *Store[A]
	session *Session

	identity map[string]A
	loaded   map[string]int64
	added    map[string]bool
	staged   []string
	isStaged map[string]bool
	seen     []A
	seenIDs  map[string]bool
}

// NewRepository attaches a repository for store to session.
func NewRepository[A Entity[A]](session *Session, store *Store[A]) *Repository[A] {
	r := &Repository[A]{
		store:    store,
		session:  session,
		identity: make(map[string]A),
		loaded:   make(map[string]int64),
		added:    make(map[string]bool),
		isStaged: make(map[string]bool),
		seenIDs:  make(map[string]bool),
	}
	session.register(r)
	return r
}

// Get returns the aggregate with the given ID.
// Discarded aggregates are reported as not found unless already tracked.
func (r *Repository[A]) Get(ctx context.Context, id string) (A, error) {
	var zero A
	if err := r.ready(ctx); err != nil {
		return zero, err
	}
	if a, ok := r.identity[id]; ok {
		r.markSeen(a)
		return a, nil
	}

	a, ok := r.store.Find(id)
	if !ok || a.IsDiscarded() {
		return zero, menuplan.NewNotFoundError(r.store.aggregateType, id)
	}
	r.track(a)
	return a, nil
}

// Query returns the aggregates matching q, staged state included.
func (r *Repository[A]) Query(ctx context.Context, q menuplan.Query) ([]A, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	r.store.db.mu.RLock()
	committed := r.store.all()
	r.store.db.mu.RUnlock()

	candidates := make([]A, 0, len(committed)+len(r.added))
	for _, a := range committed {
		if tracked, ok := r.identity[a.AggregateID()]; ok {
			candidates = append(candidates, tracked)
			continue
		}
		candidates = append(candidates, a)
	}
	for _, id := range r.staged {
		if r.added[id] {
			candidates = append(candidates, r.identity[id])
		}
	}

	result, err := applyQuery(r.store.fields, candidates, q)
	if err != nil {
		return nil, err
	}
	for i, a := range result {
		if tracked, ok := r.identity[a.AggregateID()]; ok {
			result[i] = tracked
			r.markSeen(tracked)
			continue
		}
		r.track(a)
	}
	return result, nil
}

// Add stages a new aggregate.
func (r *Repository[A]) Add(ctx context.Context, a A) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	if isNil(a) {
		return menuplan.ErrNilAggregate
	}
	id := a.AggregateID()
	if _, ok := r.identity[id]; ok {
		return fmt.Errorf("%w: %s %s", menuplan.ErrAlreadyExists, r.store.aggregateType, id)
	}
	if _, ok := r.store.Find(id); ok {
		return fmt.Errorf("%w: %s %s", menuplan.ErrAlreadyExists, r.store.aggregateType, id)
	}
	r.identity[id] = a
	r.added[id] = true
	r.stage(id)
	r.markSeen(a)
	return nil
}

// Persist stages the current state of an aggregate.
func (r *Repository[A]) Persist(ctx context.Context, a A) error {
	if err := r.ready(ctx); err != nil {
		return err
	}
	if isNil(a) {
		return menuplan.ErrNilAggregate
	}
	id := a.AggregateID()
	if tracked, ok := r.identity[id]; ok {
		if any(tracked) != any(a) {
			r.identity[id] = a
			r.replaceSeen(tracked, a)
		}
	} else {
		r.store.db.mu.RLock()
		v, ok := r.store.version(id)
		r.store.db.mu.RUnlock()
		if !ok {
			return menuplan.NewNotFoundError(r.store.aggregateType, id)
		}
		r.identity[id] = a
		r.loaded[id] = v
	}
	r.stage(id)
	r.markSeen(a)
	return nil
}

// PersistAll stages a batch of aggregates, stopping at the first error.
func (r *Repository[A]) PersistAll(ctx context.Context, aggregates []A) error {
	for _, a := range aggregates {
		if err := r.Persist(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Seen returns the aggregates touched through this repository, in first-seen order.
func (r *Repository[A]) Seen() []A {
	return append([]A(nil), r.seen...)
}

func (r *Repository[A]) check() error {
	for _, id := range r.staged {
		current, exists := r.store.version(id)
		if r.added[id] {
			if exists {
				return fmt.Errorf("%w: %s %s", menuplan.ErrAlreadyExists, r.store.aggregateType, id)
			}
			continue
		}
		if expected := r.loaded[id]; !exists || current != expected {
			return NewConcurrencyError(r.store.aggregateType, id, expected, current)
		}
	}
	return nil
}

func (r *Repository[A]) apply() {
	for _, id := range r.staged {
		a := r.identity[id]
		r.store.put(a)
		r.loaded[id] = a.Version()
		delete(r.added, id)
	}
	r.staged = nil
	r.isStaged = make(map[string]bool)
}

func (r *Repository[A]) reset() {
	for _, id := range r.staged {
		if r.added[id] {
			delete(r.identity, id)
			delete(r.added, id)
		}
	}
	r.staged = nil
	r.isStaged = make(map[string]bool)
}

func (r *Repository[A]) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.session.active()
}

func (r *Repository[A]) track(a A) {
	id := a.AggregateID()
	r.identity[id] = a
	r.loaded[id] = a.Version()
	r.markSeen(a)
}

func (r *Repository[A]) stage(id string) {
	if !r.isStaged[id] {
		r.isStaged[id] = true
		r.staged = append(r.staged, id)
	}
}

func (r *Repository[A]) markSeen(a A) {
	if r.seenIDs[a.AggregateID()] {
		return
	}
	r.seenIDs[a.AggregateID()] = true
	r.seen = append(r.seen, a)
	r.session.markSeen(a)
}

// replaceSeen swaps a tracked instance for the one handed to Persist.
// The session keeps draining the old instance too, so events raised on
// either copy are collected.
func (r *Repository[A]) replaceSeen(old, a A) {
	if !r.seenIDs[a.AggregateID()] {
		r.markSeen(a)
		return
	}
	for i, s := range r.seen {
		if any(s) == any(old) {
			r.seen[i] = a
		}
	}
	r.session.replaceSeen(old, a)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
