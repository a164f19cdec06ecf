// Package menuplan provides the write side of a menu-planning backend:
// aggregates mutated by commands, a unit of work that drains the events they
// raise, and a message bus that dispatches those events to handlers keeping
// related aggregates consistent.
//
// # Commands
//
// Commands carry one intent and are handled by exactly one handler:
//
//	type RenameMeal struct {
//	    menuplan.CommandBase
//	    MealID string `json:"mealId"`
//	    Name   string `json:"name"`
//	}
//
//	func (c RenameMeal) CommandType() string { return "RenameMeal" }
//	func (c RenameMeal) Validate() error {
//	    if c.MealID == "" {
//	        return menuplan.NewValidationError("RenameMeal", "MealID", "required")
//	    }
//	    return nil
//	}
//
// # Units of work
//
// A unit of work is created per command by a factory. Handlers begin it, use
// its repositories, commit, and close it:
//
//	func renameMeal(ctx context.Context, cmd RenameMeal, uow services.UnitOfWork) error {
//	    return menuplan.Run(ctx, uow, func(uow services.UnitOfWork) error {
//	        m, err := uow.Meals().Get(ctx, cmd.MealID)
//	        if err != nil {
//	            return err
//	        }
//	        if err := m.SetName(cmd.Name); err != nil {
//	            return err
//	        }
//	        if err := uow.Meals().Persist(ctx, m); err != nil {
//	            return err
//	        }
//	        return uow.Commit(ctx)
//	    })
//	}
//
// # Message bus
//
// Handlers are registered once in a HandlerRegistry and the registry is
// handed to the bus:
//
//	registry := menuplan.NewHandlerRegistry[services.UnitOfWork]()
//	menuplan.RegisterCommandFunc(registry, renameMeal)
//	menuplan.RegisterEventFunc(registry, "refresh_menu_meals", refreshMenuMeals)
//
//	bus := menuplan.NewMessageBus(newUoW, registry,
//	    menuplan.WithCommandTimeout(10*time.Second),
//	    menuplan.WithEventTimeout(10*time.Second),
//	    menuplan.WithLogger(logger),
//	)
//
//	err := bus.Handle(ctx, RenameMeal{MealID: "m1", Name: "Lunch"})
//
// Handle returns the command handler's error, if any, and dispatches no
// events in that case. After a successful command the events drained from
// the unit of work are dispatched one at a time; the handlers of each event
// run concurrently and their failures are logged, never returned.
package menuplan

import (
	"github.com/google/uuid"
)

// Version returns the library version string.
func Version() string {
	return "0.3.0"
}

// NewID returns a new random identifier for aggregates and entities.
func NewID() string {
	return uuid.New().String()
}
