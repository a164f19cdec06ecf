package menuplan

import (
	"context"
)

// Repository provides persistence for one aggregate type inside a unit of work.
// Every aggregate returned by Get or Query, or passed to Add or Persist, is
// recorded as seen so the unit of work can drain its events.
type Repository[A Aggregate] interface {
	// Get retrieves an aggregate by ID.
	// Returns an error matching ErrNotFound if the aggregate does not exist.
	Get(ctx context.Context, id string) (A, error)

	// Query returns every aggregate matching the query.
	Query(ctx context.Context, query Query) ([]A, error)

	// Add stages a new aggregate.
	// Returns an error matching ErrAlreadyExists if the ID is taken.
	Add(ctx context.Context, aggregate A) error

	// Persist stages the current state of an aggregate.
	Persist(ctx context.Context, aggregate A) error

	// PersistAll stages a batch of aggregates.
	PersistAll(ctx context.Context, aggregates []A) error

	// Seen returns the aggregates touched through this repository, in first-seen order.
	Seen() []A
}

// Query represents a repository query.
type Query struct {
	// Filters to apply; all must match.
	Filters []Filter

	// Ordering criteria.
	OrderBy []OrderBy

	// Maximum number of results to return.
	// 0 means no limit.
	Limit int

	// Number of results to skip.
	Offset int

	// IncludeDiscarded returns soft-deleted aggregates as well.
	IncludeDiscarded bool
}

// NewQuery creates a new empty Query.
func NewQuery() *Query {
	return &Query{}
}

// Where adds a filter condition.
func (q *Query) Where(field string, op FilterOp, value interface{}) *Query {
	q.Filters = append(q.Filters, Filter{
		Field: field,
		Op:    op,
		Value: value,
	})
	return q
}

// And is an alias for Where for readability.
func (q *Query) And(field string, op FilterOp, value interface{}) *Query {
	return q.Where(field, op, value)
}

// OrderByAsc adds ascending order.
func (q *Query) OrderByAsc(field string) *Query {
	q.OrderBy = append(q.OrderBy, OrderBy{Field: field})
	return q
}

// OrderByDesc adds descending order.
func (q *Query) OrderByDesc(field string) *Query {
	q.OrderBy = append(q.OrderBy, OrderBy{Field: field, Desc: true})
	return q
}

// WithLimit sets the maximum number of results.
func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

// WithOffset sets the number of results to skip.
func (q *Query) WithOffset(offset int) *Query {
	q.Offset = offset
	return q
}

// WithDiscarded includes soft-deleted aggregates.
func (q *Query) WithDiscarded() *Query {
	q.IncludeDiscarded = true
	return q
}

// Build returns a copy of the query (useful for chaining).
func (q *Query) Build() Query {
	return *q
}

// Filter represents a query filter condition.
type Filter struct {
	// Field is the field name to filter on (e.g., "menu_id").
	Field string

	// Op is the comparison operator.
	Op FilterOp

	// Value is the value to compare against.
	// IN and NOT IN expect a []string.
	Value interface{}
}

// FilterOp represents a filter operation.
type FilterOp string

const (
	// FilterOpEq matches equal values.
	FilterOpEq FilterOp = "="

	// FilterOpNe matches not equal values.
	FilterOpNe FilterOp = "!="

	// FilterOpIn matches any value in a list.
	FilterOpIn FilterOp = "IN"

	// FilterOpNotIn matches no value in a list.
	FilterOpNotIn FilterOp = "NOT IN"

	// FilterOpIsNull matches empty values.
	FilterOpIsNull FilterOp = "IS NULL"

	// FilterOpIsNotNull matches non-empty values.
	FilterOpIsNotNull FilterOp = "IS NOT NULL"

	// FilterOpContains matches list fields containing a value.
	FilterOpContains FilterOp = "CONTAINS"
)

// OrderBy represents a sort order.
type OrderBy struct {
	// Field is the field name to sort by.
	Field string

	// Desc specifies descending order.
	Desc bool
}
