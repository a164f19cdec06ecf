package menuplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateBase(t *testing.T) {
	t.Run("starts at version one without events", func(t *testing.T) {
		agg := newTestAggregate("a1")

		assert.Equal(t, "a1", agg.AggregateID())
		assert.Equal(t, "Test", agg.AggregateType())
		assert.Equal(t, int64(1), agg.Version())
		assert.False(t, agg.IsDiscarded())
		assert.False(t, agg.HasPendingEvents())
	})

	t.Run("mutations bump the version and queue events", func(t *testing.T) {
		agg := newTestAggregate("a1")

		require.NoError(t, agg.Rename("one"))
		require.NoError(t, agg.Rename("two"))

		assert.Equal(t, int64(3), agg.Version())
		assert.Equal(t, []Event{
			testEvent{ID: "a1", Note: "one"},
			testEvent{ID: "a1", Note: "two"},
		}, agg.PendingEvents())
	})

	t.Run("PopEvents drains in order", func(t *testing.T) {
		agg := newTestAggregate("a1")
		require.NoError(t, agg.Rename("one"))
		require.NoError(t, agg.Rename("two"))

		events := agg.PopEvents()

		require.Len(t, events, 2)
		assert.Equal(t, "one", events[0].(testEvent).Note)
		assert.Empty(t, agg.PopEvents())
		assert.False(t, agg.HasPendingEvents())
	})

	t.Run("PendingEvents is a copy", func(t *testing.T) {
		agg := newTestAggregate("a1")
		require.NoError(t, agg.Rename("one"))

		pending := agg.PendingEvents()
		pending[0] = otherEvent{}

		assert.Equal(t, testEvent{ID: "a1", Note: "one"}, agg.PendingEvents()[0])
	})

	t.Run("discarded aggregates reject mutations", func(t *testing.T) {
		agg := newTestAggregate("a1")
		agg.Discard()

		err := agg.Rename("late")

		assert.ErrorIs(t, err, ErrDiscarded)
		assert.True(t, agg.IsDiscarded())
		assert.Equal(t, int64(1), agg.Version())
	})

	t.Run("SetVersion", func(t *testing.T) {
		agg := newTestAggregate("a1")
		agg.SetVersion(7)
		assert.Equal(t, int64(7), agg.Version())
	})
}

func TestAggregateBase_RaiseMerged(t *testing.T) {
	t.Run("folds into the pending event of the same type", func(t *testing.T) {
		agg := newTestAggregate("a1")
		agg.RaiseMerged(mergedEvent{ID: "a1", Notes: []string{"name"}})
		agg.Raise(testEvent{ID: "a1"})
		agg.RaiseMerged(mergedEvent{ID: "a1", Notes: []string{"recipes"}})

		events := agg.PopEvents()

		require.Len(t, events, 2)
		assert.Equal(t, mergedEvent{ID: "a1", Notes: []string{"name", "recipes"}}, events[0])
		assert.Equal(t, testEvent{ID: "a1"}, events[1])
	})

	t.Run("queues when nothing is pending", func(t *testing.T) {
		agg := newTestAggregate("a1")
		agg.RaiseMerged(mergedEvent{ID: "a1", Notes: []string{"name"}})

		assert.Len(t, agg.PendingEvents(), 1)
	})
}

func TestAggregateBase_CloneBase(t *testing.T) {
	agg := newTestAggregate("a1")
	require.NoError(t, agg.Rename("one"))
	agg.Discard()

	clone := agg.CloneBase()

	assert.Equal(t, agg.AggregateID(), clone.AggregateID())
	assert.Equal(t, agg.Version(), clone.Version())
	assert.True(t, clone.IsDiscarded())
	assert.Empty(t, clone.PendingEvents())
	assert.Len(t, agg.PendingEvents(), 1)
}

func TestDrainEvents(t *testing.T) {
	a := newTestAggregate("a")
	b := newTestAggregate("b")
	require.NoError(t, b.Rename("b1"))
	require.NoError(t, a.Rename("a1"))
	require.NoError(t, a.Rename("a2"))

	events := DrainEvents(a, b)

	assert.Equal(t, []Event{
		testEvent{ID: "a", Note: "a1"},
		testEvent{ID: "a", Note: "a2"},
		testEvent{ID: "b", Note: "b1"},
	}, events)
	assert.Empty(t, DrainEvents(a, b))
}
