// Package services wires the meal, menu and client aggregates to the message
// bus: commands, their handlers, and the event handlers that keep related
// aggregates consistent.
package services

import (
	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
)

// Dependencies are the collaborators bound into handlers at registration.
type Dependencies struct {
	// Notifier delivers notifications. Notification handlers are not
	// registered when it is nil.
	Notifier menuplan.Notifier

	// Serializer renders event payloads. Defaults to JSON over NewEventRegistry.
	Serializer menuplan.Serializer

	// NotifyDestination is where MenuDeleted notifications go, for example "kafka:menus".
	NotifyDestination string
}

// NewEventRegistry returns an event registry holding every domain event.
func NewEventRegistry() *menuplan.EventRegistry {
	r := menuplan.NewEventRegistry()
	r.Register(meal.Events()...)
	r.Register(menu.Events()...)
	r.Register(client.Events()...)
	return r
}

// NewRegistry registers every command and event handler.
func NewRegistry(deps Dependencies) *menuplan.HandlerRegistry[UnitOfWork] {
	if deps.Serializer == nil {
		deps.Serializer = menuplan.NewJSONSerializer(NewEventRegistry())
	}
	r := menuplan.NewHandlerRegistry[UnitOfWork]()
	registerCommandHandlers(r)
	registerEventHandlers(r, deps)
	return r
}

// NewBus builds a message bus with every handler registered.
func NewBus(newUoW menuplan.UnitOfWorkFactory[UnitOfWork], deps Dependencies, opts ...menuplan.BusOption) *menuplan.MessageBus[UnitOfWork] {
	return menuplan.NewMessageBus(newUoW, NewRegistry(deps), opts...)
}
