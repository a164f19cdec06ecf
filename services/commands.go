package services

import (
	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// CreateMeal creates a meal. New meals are never on a menu; they join one
// through AddMealToMenu.
type CreateMeal struct {
	menuplan.CommandBase
	MealID      string              `json:"mealId,omitempty"`
	AuthorID    string              `json:"authorId"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	Recipes     []meal.RecipeParams `json:"recipes,omitempty"`
	Tags        []shared.Tag        `json:"tags,omitempty"`
}

func (CreateMeal) CommandType() string { return "CreateMeal" }

func (c CreateMeal) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("AuthorID", c.AuthorID)
	v.Require("Name", c.Name)
	return v.ErrOrNil()
}

// UpdateMeal applies property updates to a meal.
// See meal.Meal.UpdateProperties for the keys.
type UpdateMeal struct {
	menuplan.CommandBase
	MealID  string                 `json:"mealId"`
	Updates map[string]interface{} `json:"updates"`
}

func (UpdateMeal) CommandType() string   { return "UpdateMeal" }
func (c UpdateMeal) AggregateID() string { return c.MealID }

func (c UpdateMeal) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MealID", c.MealID)
	if len(c.Updates) == 0 {
		v.AddField("Updates", "at least one update required")
	}
	return v.ErrOrNil()
}

// DeleteMeal deletes a meal.
type DeleteMeal struct {
	menuplan.CommandBase
	MealID string `json:"mealId"`
}

func (DeleteMeal) CommandType() string   { return "DeleteMeal" }
func (c DeleteMeal) AggregateID() string { return c.MealID }

func (c DeleteMeal) Validate() error {
	if c.MealID == "" {
		return menuplan.NewValidationError(c.CommandType(), "MealID", "required")
	}
	return nil
}

// AddRecipeToMeal adds a recipe to a meal.
type AddRecipeToMeal struct {
	menuplan.CommandBase
	MealID string            `json:"mealId"`
	Recipe meal.RecipeParams `json:"recipe"`
}

func (AddRecipeToMeal) CommandType() string   { return "AddRecipeToMeal" }
func (c AddRecipeToMeal) AggregateID() string { return c.MealID }

func (c AddRecipeToMeal) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MealID", c.MealID)
	v.Require("Recipe.Name", c.Recipe.Name)
	return v.ErrOrNil()
}

// CopyMeal copies a meal, with its recipes, for another author.
type CopyMeal struct {
	menuplan.CommandBase
	MealID    string `json:"mealId"`
	AuthorID  string `json:"authorId"`
	NewMealID string `json:"newMealId,omitempty"`
}

func (CopyMeal) CommandType() string   { return "CopyMeal" }
func (c CopyMeal) AggregateID() string { return c.MealID }

func (c CopyMeal) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MealID", c.MealID)
	v.Require("AuthorID", c.AuthorID)
	return v.ErrOrNil()
}

// CreateMenu creates an empty menu for a client.
type CreateMenu struct {
	menuplan.CommandBase
	MenuID      string       `json:"menuId,omitempty"`
	AuthorID    string       `json:"authorId"`
	ClientID    string       `json:"clientId"`
	Description string       `json:"description,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Tags        []shared.Tag `json:"tags,omitempty"`
}

func (CreateMenu) CommandType() string { return "CreateMenu" }

func (c CreateMenu) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("AuthorID", c.AuthorID)
	v.Require("ClientID", c.ClientID)
	return v.ErrOrNil()
}

// UpdateMenu applies property updates to a menu.
// See menu.Menu.UpdateProperties for the keys.
type UpdateMenu struct {
	menuplan.CommandBase
	MenuID  string                 `json:"menuId"`
	Updates map[string]interface{} `json:"updates"`
}

func (UpdateMenu) CommandType() string   { return "UpdateMenu" }
func (c UpdateMenu) AggregateID() string { return c.MenuID }

func (c UpdateMenu) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MenuID", c.MenuID)
	if len(c.Updates) == 0 {
		v.AddField("Updates", "at least one update required")
	}
	return v.ErrOrNil()
}

// DeleteMenu deletes a menu.
type DeleteMenu struct {
	menuplan.CommandBase
	MenuID string `json:"menuId"`
}

func (DeleteMenu) CommandType() string   { return "DeleteMenu" }
func (c DeleteMenu) AggregateID() string { return c.MenuID }

func (c DeleteMenu) Validate() error {
	if c.MenuID == "" {
		return menuplan.NewValidationError(c.CommandType(), "MenuID", "required")
	}
	return nil
}

// AddMealToMenu places a meal in a menu slot, replacing the slot's meal.
type AddMealToMenu struct {
	menuplan.CommandBase
	MenuID   string `json:"menuId"`
	MealID   string `json:"mealId"`
	Week     int    `json:"week"`
	Weekday  string `json:"weekday"`
	MealType string `json:"mealType"`
}

func (AddMealToMenu) CommandType() string   { return "AddMealToMenu" }
func (c AddMealToMenu) AggregateID() string { return c.MenuID }

func (c AddMealToMenu) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MenuID", c.MenuID)
	v.Require("MealID", c.MealID)
	v.Require("Weekday", c.Weekday)
	v.Require("MealType", c.MealType)
	if c.Week < 1 {
		v.AddField("Week", "must be at least 1")
	}
	return v.ErrOrNil()
}

// RemoveMealsFromMenu empties menu slots.
type RemoveMealsFromMenu struct {
	menuplan.CommandBase
	MenuID string     `json:"menuId"`
	Keys   []menu.Key `json:"keys"`
}

func (RemoveMealsFromMenu) CommandType() string   { return "RemoveMealsFromMenu" }
func (c RemoveMealsFromMenu) AggregateID() string { return c.MenuID }

func (c RemoveMealsFromMenu) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("MenuID", c.MenuID)
	if len(c.Keys) == 0 {
		v.AddField("Keys", "at least one slot required")
	}
	return v.ErrOrNil()
}

// CreateClient creates a client.
type CreateClient struct {
	menuplan.CommandBase
	ClientID string         `json:"clientId,omitempty"`
	AuthorID string         `json:"authorId"`
	Profile  client.Profile `json:"profile"`
	Notes    string         `json:"notes,omitempty"`
	Tags     []shared.Tag   `json:"tags,omitempty"`
}

func (CreateClient) CommandType() string { return "CreateClient" }

func (c CreateClient) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("AuthorID", c.AuthorID)
	v.Require("Profile.Name", c.Profile.Name)
	return v.ErrOrNil()
}

// UpdateClient applies property updates to a client.
type UpdateClient struct {
	menuplan.CommandBase
	ClientID string                 `json:"clientId"`
	Updates  map[string]interface{} `json:"updates"`
}

func (UpdateClient) CommandType() string   { return "UpdateClient" }
func (c UpdateClient) AggregateID() string { return c.ClientID }

func (c UpdateClient) Validate() error {
	v := menuplan.NewMultiValidationError(c.CommandType())
	v.Require("ClientID", c.ClientID)
	if len(c.Updates) == 0 {
		v.AddField("Updates", "at least one update required")
	}
	return v.ErrOrNil()
}

// DeleteClient deletes a client and, through ClientDeleted, its menus.
type DeleteClient struct {
	menuplan.CommandBase
	ClientID string `json:"clientId"`
}

func (DeleteClient) CommandType() string   { return "DeleteClient" }
func (c DeleteClient) AggregateID() string { return c.ClientID }

func (c DeleteClient) Validate() error {
	if c.ClientID == "" {
		return menuplan.NewValidationError(c.CommandType(), "ClientID", "required")
	}
	return nil
}
