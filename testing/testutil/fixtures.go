package testutil

import (
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// Fixed identifiers used across fixtures.
const (
	AuthorID      = "author-1"
	OtherAuthorID = "author-2"
)

// Tag returns a tag owned by authorID.
func Tag(key, value, authorID string) shared.Tag {
	return shared.Tag{Key: key, Value: value, AuthorID: authorID, Type: "meal"}
}

// Recipe builds a recipe owned by mealID and authorID.
func Recipe(id, name, mealID, authorID string, calories float64) *meal.Recipe {
	return meal.NewRecipe(meal.RecipeParams{
		ID:            id,
		Name:          name,
		MealID:        mealID,
		AuthorID:      authorID,
		Ingredients:   []string{name + " base"},
		NutriFacts:    shared.NutriFacts{Calories: calories},
		WeightInGrams: 100,
	})
}

// Meal builds a meal with the given recipes.
func Meal(id, name, menuID string, recipes ...*meal.Recipe) *meal.Meal {
	m, err := meal.New(meal.Params{
		ID:       id,
		AuthorID: AuthorID,
		Name:     name,
		MenuID:   menuID,
		Recipes:  recipes,
	})
	if err != nil {
		panic(err)
	}
	return m
}

// MenuMeal builds a menu slot for week 1.
func MenuMeal(mealID, weekday, mealType string) menu.MenuMeal {
	return menu.MenuMeal{
		MealID:   mealID,
		MealName: mealID,
		Week:     1,
		Weekday:  weekday,
		MealType: mealType,
	}
}

// Menu builds a menu holding meals.
func Menu(id, clientID string, meals ...menu.MenuMeal) *menu.Menu {
	m, err := menu.New(menu.Params{
		ID:       id,
		AuthorID: AuthorID,
		ClientID: clientID,
		Meals:    meals,
	})
	if err != nil {
		panic(err)
	}
	return m
}
