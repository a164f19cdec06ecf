package meal

import (
	"fmt"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// RecipeEntity is the entity name used in errors.
const RecipeEntity = "Recipe"

// Recipe is a child entity of Meal. A recipe belongs to exactly one meal
// and to that meal's author.
type Recipe struct {
	id            string
	name          string
	mealID        string
	authorID      string
	instructions  string
	ingredients   []string
	nutriFacts    shared.NutriFacts
	weightInGrams float64
	version       int64
	discarded     bool
}

// RecipeParams holds the fields of a new recipe.
// An empty ID is replaced by a generated one.
type RecipeParams struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"name"`
	MealID        string            `json:"mealId,omitempty"`
	AuthorID      string            `json:"authorId,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Ingredients   []string          `json:"ingredients,omitempty"`
	NutriFacts    shared.NutriFacts `json:"nutriFacts"`
	WeightInGrams float64           `json:"weightInGrams,omitempty"`
}

// NewRecipe creates a recipe at version 1.
func NewRecipe(p RecipeParams) *Recipe {
	id := p.ID
	if id == "" {
		id = menuplan.NewID()
	}
	return &Recipe{
		id:            id,
		name:          p.Name,
		mealID:        p.MealID,
		authorID:      p.AuthorID,
		instructions:  p.Instructions,
		ingredients:   append([]string(nil), p.Ingredients...),
		nutriFacts:    p.NutriFacts,
		weightInGrams: p.WeightInGrams,
		version:       1,
	}
}

func (r *Recipe) ID() string                    { return r.id }
func (r *Recipe) Name() string                  { return r.name }
func (r *Recipe) MealID() string                { return r.mealID }
func (r *Recipe) AuthorID() string              { return r.authorID }
func (r *Recipe) Instructions() string          { return r.instructions }
func (r *Recipe) NutriFacts() shared.NutriFacts { return r.nutriFacts }
func (r *Recipe) WeightInGrams() float64        { return r.weightInGrams }
func (r *Recipe) Version() int64                { return r.version }
func (r *Recipe) IsDiscarded() bool             { return r.discarded }

// Ingredients returns a copy of the ingredient list.
func (r *Recipe) Ingredients() []string {
	return append([]string(nil), r.ingredients...)
}

// BelongsTo reports whether the recipe's parentage matches the meal.
func (r *Recipe) BelongsTo(mealID, authorID string) bool {
	return r.mealID == mealID && r.authorID == authorID
}

// SetName renames the recipe.
func (r *Recipe) SetName(name string) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	r.name = name
	r.version++
	return nil
}

// SetInstructions replaces the instructions.
func (r *Recipe) SetInstructions(instructions string) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	r.instructions = instructions
	r.version++
	return nil
}

// SetIngredients replaces the ingredient list.
func (r *Recipe) SetIngredients(ingredients []string) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	r.ingredients = append([]string(nil), ingredients...)
	r.version++
	return nil
}

// SetNutriFacts replaces the nutrition summary.
func (r *Recipe) SetNutriFacts(n shared.NutriFacts) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	r.nutriFacts = n
	r.version++
	return nil
}

// SetWeightInGrams sets the weight.
func (r *Recipe) SetWeightInGrams(w float64) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	if w < 0 {
		return menuplan.NewInvalidPropertyError(RecipeEntity, "weight_in_grams", "must not be negative")
	}
	r.weightInGrams = w
	r.version++
	return nil
}

// UpdateProperties applies several changes. Keys: name, instructions,
// ingredients ([]string), nutri_facts (shared.NutriFacts),
// weight_in_grams (float64).
func (r *Recipe) UpdateProperties(updates map[string]interface{}) error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	return shared.ApplyProperties(RecipeEntity, updates, map[string]shared.Setter{
		"name": func(v interface{}) error {
			s, err := shared.AsString(RecipeEntity, "name", v)
			if err != nil {
				return err
			}
			return r.SetName(s)
		},
		"instructions": func(v interface{}) error {
			s, err := shared.AsString(RecipeEntity, "instructions", v)
			if err != nil {
				return err
			}
			return r.SetInstructions(s)
		},
		"ingredients": func(v interface{}) error {
			list, ok := v.([]string)
			if !ok {
				return menuplan.NewInvalidPropertyError(RecipeEntity, "ingredients", fmt.Sprintf("expected []string, got %T", v))
			}
			return r.SetIngredients(list)
		},
		"nutri_facts": func(v interface{}) error {
			n, ok := v.(shared.NutriFacts)
			if !ok {
				return menuplan.NewInvalidPropertyError(RecipeEntity, "nutri_facts", fmt.Sprintf("expected NutriFacts, got %T", v))
			}
			return r.SetNutriFacts(n)
		},
		"weight_in_grams": func(v interface{}) error {
			w, ok := v.(float64)
			if !ok {
				return menuplan.NewInvalidPropertyError(RecipeEntity, "weight_in_grams", fmt.Sprintf("expected float64, got %T", v))
			}
			return r.SetWeightInGrams(w)
		},
	})
}

// Delete soft-discards the recipe.
func (r *Recipe) Delete() error {
	if err := r.checkNotDiscarded(); err != nil {
		return err
	}
	r.discarded = true
	r.version++
	return nil
}

// CopyTo returns a deep copy of the recipe under a new ID, re-parented to
// the given meal and author. The receiver is left untouched.
func (r *Recipe) CopyTo(mealID, authorID string) *Recipe {
	c := r.clone()
	c.id = menuplan.NewID()
	c.mealID = mealID
	c.authorID = authorID
	c.version = 1
	c.discarded = false
	return c
}

// clone copies every field, identity included.
func (r *Recipe) clone() *Recipe {
	c := *r
	c.ingredients = append([]string(nil), r.ingredients...)
	return &c
}

func (r *Recipe) checkNotDiscarded() error {
	if r.discarded {
		return menuplan.NewDiscardedError(RecipeEntity, r.id)
	}
	return nil
}
