package meal

import (
	"github.com/menu-planning/go-menuplan"
)

// MealAttributesChanged cascades a change of a meal on a menu to that menu.
// At most one is pending per meal: later ones merge into it.
type MealAttributesChanged struct {
	MealID  string `json:"mealId" msgpack:"mealId"`
	MenuID  string `json:"menuId" msgpack:"menuId"`
	Message string `json:"message" msgpack:"message"`
}

// EventType returns "MealAttributesChanged".
func (MealAttributesChanged) EventType() string { return "MealAttributesChanged" }

// AggregateID returns the meal ID.
func (e MealAttributesChanged) AggregateID() string { return e.MealID }

// Merge appends this event's message to the pending one, ";"-joined.
// The menu ID of the newer event wins.
func (e MealAttributesChanged) Merge(pending menuplan.Event) menuplan.Event {
	p, ok := pending.(MealAttributesChanged)
	if !ok {
		return e
	}
	switch {
	case p.Message == "":
		p.Message = e.Message
	case e.Message != "":
		p.Message = p.Message + ";" + e.Message
	}
	p.MenuID = e.MenuID
	return p
}

// MealDeleted is raised when a meal that sits on a menu is deleted.
type MealDeleted struct {
	MealID string `json:"mealId" msgpack:"mealId"`
	MenuID string `json:"menuId" msgpack:"menuId"`
}

// EventType returns "MealDeleted".
func (MealDeleted) EventType() string { return "MealDeleted" }

// AggregateID returns the meal ID.
func (e MealDeleted) AggregateID() string { return e.MealID }

// Events returns a zero value of every event the Meal aggregate raises.
func Events() []menuplan.Event {
	return []menuplan.Event{MealAttributesChanged{}, MealDeleted{}}
}
