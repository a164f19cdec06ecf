// Package memory provides an in-memory persistence collaborator: stores
// holding committed aggregates, per-session repositories staging writes,
// and a Session implementing menuplan.UnitOfWork.
//
// It is intended for tests, the demo CLI and development. Aggregates are
// cloned on every read from and write to a store, so a session never
// shares mutable state with another.
package memory

import (
	"sync"

	"github.com/menu-planning/go-menuplan"
)

// Entity is an aggregate that can deep-copy itself.
type Entity[A any] interface {
	menuplan.Aggregate
	Clone() A
}

// FieldFunc extracts a queryable field value from an aggregate.
// It returns a string, a number, a bool, a []string, or nil.
type FieldFunc[A any] func(A) interface{}

// DB is the lock shared by every store of one in-memory database.
// Commits take it once for all stores touched by a session.
type DB struct {
	mu sync.RWMutex
}

// NewDB creates a new database.
func NewDB() *DB {
	return &DB{}
}

// Store holds the committed state of one aggregate type.
type Store[A Entity[A]] struct {
	db            *DB
	aggregateType string
	rows          map[string]A
	order         []string
	fields        map[string]FieldFunc[A]
}

// StoreOption configures a Store.
type StoreOption[A Entity[A]] func(*Store[A])

// WithField makes a field available to queries.
// "id", "version" and "discarded" are always available.
func WithField[A Entity[A]](name string, fn FieldFunc[A]) StoreOption[A] {
	return func(s *Store[A]) {
		s.fields[name] = fn
	}
}

// NewStore creates a store for one aggregate type.
func NewStore[A Entity[A]](db *DB, aggregateType string, opts ...StoreOption[A]) *Store[A] {
	s := &Store[A]{
		db:            db,
		aggregateType: aggregateType,
		rows:          make(map[string]A),
		fields: map[string]FieldFunc[A]{
			"id":        func(a A) interface{} { return a.AggregateID() },
			"version":   func(a A) interface{} { return a.Version() },
			"discarded": func(a A) interface{} { return a.IsDiscarded() },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AggregateType returns the type of aggregate held by the store.
func (s *Store[A]) AggregateType() string {
	return s.aggregateType
}

// Seed writes aggregates directly, bypassing sessions.
func (s *Store[A]) Seed(aggregates ...A) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range aggregates {
		s.put(a)
	}
}

// Find returns a copy of a committed aggregate, discarded ones included.
func (s *Store[A]) Find(id string) (A, bool) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.find(id)
}

// All returns copies of every committed aggregate in insertion order.
func (s *Store[A]) All() []A {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.all()
}

// Count returns the number of committed aggregates, discarded ones included.
func (s *Store[A]) Count() int {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return len(s.rows)
}

// find, all, put and version expect the caller to hold the db lock.

func (s *Store[A]) find(id string) (A, bool) {
	row, ok := s.rows[id]
	if !ok {
		var zero A
		return zero, false
	}
	return row.Clone(), true
}

func (s *Store[A]) all() []A {
	out := make([]A, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id].Clone())
	}
	return out
}

func (s *Store[A]) put(a A) {
	id := a.AggregateID()
	if _, ok := s.rows[id]; !ok {
		s.order = append(s.order, id)
	}
	s.rows[id] = a.Clone()
}

func (s *Store[A]) version(id string) (int64, bool) {
	row, ok := s.rows[id]
	if !ok {
		return 0, false
	}
	return row.Version(), true
}
