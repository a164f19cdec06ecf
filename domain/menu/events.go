package menu

import (
	"github.com/menu-planning/go-menuplan"
)

// MenuMealAddedOrRemoved reports which meals joined or left a menu in one
// SetMeals call. Each call raises its own event; they are never merged.
type MenuMealAddedOrRemoved struct {
	MenuID  string   `json:"menuId" msgpack:"menuId"`
	Added   []string `json:"added" msgpack:"added"`
	Removed []string `json:"removed" msgpack:"removed"`
}

// EventType returns "MenuMealAddedOrRemoved".
func (MenuMealAddedOrRemoved) EventType() string { return "MenuMealAddedOrRemoved" }

// AggregateID returns the menu ID.
func (e MenuMealAddedOrRemoved) AggregateID() string { return e.MenuID }

// MenuDeleted is raised when a menu is deleted.
type MenuDeleted struct {
	MenuID   string `json:"menuId" msgpack:"menuId"`
	AuthorID string `json:"authorId" msgpack:"authorId"`
	ClientID string `json:"clientId" msgpack:"clientId"`
}

// EventType returns "MenuDeleted".
func (MenuDeleted) EventType() string { return "MenuDeleted" }

// AggregateID returns the menu ID.
func (e MenuDeleted) AggregateID() string { return e.MenuID }

// Events returns a zero value of every event the Menu aggregate raises.
func Events() []menuplan.Event {
	return []menuplan.Event{MenuMealAddedOrRemoved{}, MenuDeleted{}}
}
