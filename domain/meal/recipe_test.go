package meal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

func TestNewRecipe(t *testing.T) {
	ingredients := []string{"lentils", "onion"}
	r := NewRecipe(RecipeParams{Name: "broth", Ingredients: ingredients})

	assert.NotEmpty(t, r.ID())
	assert.Equal(t, int64(1), r.Version())
	assert.False(t, r.IsDiscarded())

	ingredients[0] = "changed"
	assert.Equal(t, []string{"lentils", "onion"}, r.Ingredients())
}

func TestRecipe_Setters(t *testing.T) {
	r := NewRecipe(RecipeParams{ID: "r1", Name: "broth"})

	require.NoError(t, r.SetName("soup"))
	require.NoError(t, r.SetInstructions("simmer"))
	require.NoError(t, r.SetIngredients([]string{"water"}))
	require.NoError(t, r.SetNutriFacts(shared.NutriFacts{Calories: 10}))
	require.NoError(t, r.SetWeightInGrams(250))

	assert.Equal(t, "soup", r.Name())
	assert.Equal(t, "simmer", r.Instructions())
	assert.Equal(t, []string{"water"}, r.Ingredients())
	assert.Equal(t, float64(10), r.NutriFacts().Calories)
	assert.Equal(t, float64(250), r.WeightInGrams())
	assert.Equal(t, int64(6), r.Version())

	t.Run("negative weight", func(t *testing.T) {
		assert.ErrorIs(t, r.SetWeightInGrams(-1), menuplan.ErrInvalidProperty)
	})
}

func TestRecipe_UpdateProperties(t *testing.T) {
	r := NewRecipe(RecipeParams{ID: "r1", Name: "broth"})

	require.NoError(t, r.UpdateProperties(map[string]interface{}{
		"ingredients":     []string{"a", "b"},
		"weight_in_grams": 120.0,
	}))
	assert.Equal(t, []string{"a", "b"}, r.Ingredients())

	assert.ErrorIs(t, r.UpdateProperties(map[string]interface{}{"color": "red"}), menuplan.ErrInvalidProperty)
	assert.ErrorIs(t, r.UpdateProperties(map[string]interface{}{"ingredients": "a"}), menuplan.ErrInvalidProperty)
}

func TestRecipe_Delete(t *testing.T) {
	r := NewRecipe(RecipeParams{ID: "r1", Name: "broth"})

	require.NoError(t, r.Delete())

	assert.True(t, r.IsDiscarded())
	assert.ErrorIs(t, r.Delete(), menuplan.ErrDiscarded)
	assert.ErrorIs(t, r.SetName("x"), menuplan.ErrDiscarded)
}

func TestRecipe_CopyTo(t *testing.T) {
	r := NewRecipe(RecipeParams{ID: "r1", Name: "broth", MealID: "m1", AuthorID: "a1", Ingredients: []string{"x"}})
	require.NoError(t, r.SetName("soup"))

	c := r.CopyTo("m2", "a2")

	assert.NotEqual(t, "r1", c.ID())
	assert.True(t, c.BelongsTo("m2", "a2"))
	assert.Equal(t, int64(1), c.Version())
	assert.Equal(t, "soup", c.Name())
	assert.True(t, r.BelongsTo("m1", "a1"))
}
