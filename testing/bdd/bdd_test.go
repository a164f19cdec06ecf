package bdd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/testing/testutil"
)

func mealOnMenu() *meal.Meal {
	return testutil.Meal("meal-1", "Soup", "menu-1",
		testutil.Recipe("r1", "Broth", "meal-1", testutil.AuthorID, 120))
}

// =============================================================================
// Aggregate fixture
// =============================================================================

func TestTestFixture_Then(t *testing.T) {
	t.Run("passes on matching events", func(t *testing.T) {
		m := mealOnMenu()

		Given(t, m).
			When(func() error { return m.SetName("Stew") }).
			Then(meal.MealAttributesChanged{MealID: "meal-1", MenuID: "menu-1", Message: "name changed"}).
			ThenVersionBumpedBy(1)
	})

	t.Run("setup events are dropped", func(t *testing.T) {
		m := mealOnMenu()

		Given(t, m, func() error { return m.SetName("Broth") }).
			When(func() error { return m.SetDescription("thick") }).
			ThenNoEvents().
			ThenVersionBumpedBy(1)
	})

	t.Run("fails on event mismatch", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return m.SetName("Stew") }).
				Then(meal.MealAttributesChanged{MealID: "meal-1", MenuID: "menu-1", Message: "other"})
		})

		assert.True(t, ft.Failed())
		assert.False(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Event 0 mismatch")
	})

	t.Run("fails on event count", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return m.SetDescription("x") }).
				Then(meal.MealAttributesChanged{MealID: "meal-1"})
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Expected 1 events, got 0")
	})

	t.Run("fails when command errored", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return m.SetName("") }).
				ThenNoEvents()
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Expected success but got error")
	})

	t.Run("fails when called before When", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			Given(ft, mealOnMenu()).Then()
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "must be called after When()")
	})

	t.Run("failing setup step is fatal", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				And(func() error { return errors.New("boom") }).
				When(func() error { return nil })
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Given step 0 failed")
	})
}

func TestTestFixture_ThenError(t *testing.T) {
	t.Run("matches wrapped sentinel", func(t *testing.T) {
		m := mealOnMenu()

		Given(t, m, m.Delete).
			When(func() error { return m.SetName("Stew") }).
			ThenError(menuplan.ErrDiscarded)
	})

	t.Run("contains substring", func(t *testing.T) {
		m := mealOnMenu()

		Given(t, m).
			When(func() error { return m.SetName("") }).
			ThenErrorContains("name")
	})

	t.Run("fails on success", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return nil }).
				ThenError(menuplan.ErrDiscarded)
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Expected error but got success")
	})

	t.Run("fails on other error", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return errors.New("other") }).
				ThenError(menuplan.ErrDiscarded)
		})

		assert.True(t, ft.Failed())
		assert.False(t, ft.Fataled())
	})

	t.Run("version check", func(t *testing.T) {
		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			m := mealOnMenu()
			Given(ft, m).
				When(func() error { return nil }).
				ThenVersionBumpedBy(1)
		})

		assert.True(t, ft.Failed())
		assert.Contains(t, ft.Messages()[0], "grew by 0")
	})
}

// =============================================================================
// Bus fixture
// =============================================================================

type fakeBus = menuplan.MessageBus[*testutil.FakeUnitOfWork]

func newBus(t *testing.T, handler func(ctx context.Context, cmd testutil.TestCommand, uow *testutil.FakeUnitOfWork) error, opts ...menuplan.BusOption) (*fakeBus, *testutil.FakeFactory) {
	t.Helper()
	factory := &testutil.FakeFactory{}
	registry := menuplan.NewHandlerRegistry[*testutil.FakeUnitOfWork]()
	menuplan.RegisterCommandFunc(registry, handler)
	return menuplan.NewMessageBus(factory.New, registry, opts...), factory
}

func commit(ctx context.Context, cmd testutil.TestCommand, uow *testutil.FakeUnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow *testutil.FakeUnitOfWork) error {
		return uow.Commit(ctx)
	})
}

func TestBusFixture(t *testing.T) {
	t.Run("succeeds", func(t *testing.T) {
		bus, factory := newBus(t, commit)

		GivenBus(t, bus).
			WithCommands(testutil.TestCommand{ID: "1"}).
			When(testutil.TestCommand{ID: "2"}).
			ThenSucceeds()

		created := factory.Created()
		require.Len(t, created, 2)
		assert.Equal(t, 1, created[1].Commits)
	})

	t.Run("fails with validation error", func(t *testing.T) {
		bus, _ := newBus(t, commit, menuplan.WithMiddleware(menuplan.ValidationMiddleware()))

		GivenBus(t, bus).
			When(testutil.TestCommand{}).
			ThenFails(menuplan.ErrValidationFailed)
	})

	t.Run("times out", func(t *testing.T) {
		factory := &testutil.FakeFactory{}
		registry := menuplan.NewHandlerRegistry[*testutil.FakeUnitOfWork]()
		registry.RegisterCommand(testutil.SlowCommandHandler[*testutil.FakeUnitOfWork]{Type: "TestCommand", Delay: time.Second})
		bus := menuplan.NewMessageBus(factory.New, registry)

		f := GivenBus(t, bus).
			When(testutil.TestCommand{ID: "1"}, menuplan.CommandTimeout(10*time.Millisecond)).
			ThenTimesOut()

		var timeout *menuplan.TimeoutError
		assert.True(t, errors.As(f.Err(), &timeout))
	})

	t.Run("reports unexpected success", func(t *testing.T) {
		bus, _ := newBus(t, commit)

		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			GivenBus(ft, bus).When(testutil.TestCommand{ID: "1"}).ThenFails(menuplan.ErrTimeout)
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Expected failure but got success")
	})

	t.Run("reports failing given command", func(t *testing.T) {
		bus, _ := newBus(t, func(ctx context.Context, cmd testutil.TestCommand, uow *testutil.FakeUnitOfWork) error {
			return errors.New("rejected")
		})

		ft := testutil.RunWithFakeT(func(ft *testutil.FakeT) {
			GivenBus(ft, bus).
				WithCommands(testutil.TestCommand{ID: "1"}).
				When(testutil.TestCommand{ID: "2"})
		})

		assert.True(t, ft.Fataled())
		assert.Contains(t, ft.Messages()[0], "Given command TestCommand failed")
	})

	t.Run("uses the given context", func(t *testing.T) {
		bus, _ := newBus(t, func(ctx context.Context, cmd testutil.TestCommand, uow *testutil.FakeUnitOfWork) error {
			if menuplan.CorrelationIDFromContext(ctx) != "corr-1" {
				return errors.New("missing correlation ID")
			}
			return nil
		})

		GivenBus(t, bus).
			WithContext(menuplan.WithCorrelationID(context.Background(), "corr-1")).
			When(testutil.TestCommand{ID: "1"}).
			ThenSucceeds()
	})
}
