package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menu-planning/go-menuplan"
)

func TestTagSet(t *testing.T) {
	spicy := Tag{Key: "flavor", Value: "spicy", AuthorID: "a1", Type: "meal"}
	vegan := Tag{Key: "diet", Value: "vegan", AuthorID: "a1", Type: "meal"}
	lunch := Tag{Key: "when", Value: "lunch", AuthorID: "a1", Type: "menu"}

	s := NewTagSet(spicy, vegan, lunch, spicy)

	t.Run("deduplicates", func(t *testing.T) {
		assert.Equal(t, 3, s.Len())
		assert.True(t, s.Has(vegan))
		assert.False(t, s.Has(Tag{Key: "diet", Value: "vegan", AuthorID: "a2", Type: "meal"}))
	})

	t.Run("slice is ordered by type then key", func(t *testing.T) {
		assert.Equal(t, []Tag{vegan, spicy, lunch}, s.Slice())
	})

	t.Run("clone is independent", func(t *testing.T) {
		c := s.Clone()
		delete(c, spicy)

		assert.True(t, s.Has(spicy))
		assert.False(t, s.Equal(c))
		assert.True(t, s.Equal(NewTagSet(lunch, vegan, spicy)))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "flavor:spicy", spicy.String())
	})

	t.Run("nil set", func(t *testing.T) {
		var empty TagSet
		assert.Zero(t, empty.Len())
		assert.Empty(t, empty.Slice())
		assert.NotNil(t, empty.Clone())
		assert.True(t, empty.Equal(TagSet{}))
	})
}

func TestCheckTagsAuthor(t *testing.T) {
	own := Tag{Key: "diet", Value: "vegan", AuthorID: "a1"}
	foreign := Tag{Key: "diet", Value: "keto", AuthorID: "a2"}

	assert.NoError(t, CheckTagsAuthor("Meal", "a1", NewTagSet(own)))
	assert.NoError(t, CheckTagsAuthor("Meal", "a1", nil))

	err := CheckTagsAuthor("Meal", "a1", NewTagSet(own, foreign))
	require.Error(t, err)
	assert.ErrorIs(t, err, menuplan.ErrBusinessRule)

	var rule *menuplan.BusinessRuleError
	require.True(t, errors.As(err, &rule))
	assert.Equal(t, "TagAuthorMustMatch", rule.Rule)
	assert.Contains(t, rule.Message, "diet:keto")
}

func TestNutriFacts(t *testing.T) {
	a := NutriFacts{Calories: 100, Protein: 5}
	b := NutriFacts{Calories: 50, TotalFat: 2, Carbohydrate: 8}

	assert.Equal(t, NutriFacts{Calories: 150, Protein: 5, Carbohydrate: 8, TotalFat: 2}, a.Add(b))
	assert.True(t, NutriFacts{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestApplyProperties(t *testing.T) {
	var order []string
	setters := map[string]Setter{
		"b": func(v interface{}) error { order = append(order, "b"); return nil },
		"a": func(v interface{}) error { order = append(order, "a"); return nil },
		"c": func(v interface{}) error {
			order = append(order, "c")
			return errors.New("c failed")
		},
		"d": func(v interface{}) error { order = append(order, "d"); return nil },
	}

	t.Run("sorted order", func(t *testing.T) {
		order = nil
		require.NoError(t, ApplyProperties("Thing", map[string]interface{}{"b": 1, "a": 2}, setters))
		assert.Equal(t, []string{"a", "b"}, order)
	})

	t.Run("unknown key runs nothing", func(t *testing.T) {
		order = nil
		err := ApplyProperties("Thing", map[string]interface{}{"a": 1, "zz": 2}, setters)

		assert.ErrorIs(t, err, menuplan.ErrInvalidProperty)
		assert.Contains(t, err.Error(), "zz")
		assert.Empty(t, order)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		order = nil
		err := ApplyProperties("Thing", map[string]interface{}{"d": 1, "c": 2, "a": 3}, setters)

		assert.EqualError(t, err, "c failed")
		assert.Equal(t, []string{"a", "c"}, order)
	})
}

func TestConverters(t *testing.T) {
	t.Run("AsString", func(t *testing.T) {
		s := "x"
		var nilPtr *string

		for _, v := range []interface{}{"x", &s} {
			got, err := AsString("Meal", "name", v)
			require.NoError(t, err)
			assert.Equal(t, "x", got)
		}
		for _, v := range []interface{}{nil, nilPtr} {
			got, err := AsString("Meal", "name", v)
			require.NoError(t, err)
			assert.Empty(t, got)
		}
		_, err := AsString("Meal", "name", 3)
		assert.ErrorIs(t, err, menuplan.ErrInvalidProperty)
	})

	t.Run("AsBool", func(t *testing.T) {
		got, err := AsBool("Meal", "like", true)
		require.NoError(t, err)
		assert.True(t, got)

		_, err = AsBool("Meal", "like", "yes")
		assert.ErrorIs(t, err, menuplan.ErrInvalidProperty)
	})

	t.Run("AsTagSet", func(t *testing.T) {
		tag := Tag{Key: "k", Value: "v"}

		fromSlice, err := AsTagSet("Meal", "tags", []Tag{tag, tag})
		require.NoError(t, err)
		assert.Equal(t, 1, fromSlice.Len())

		fromSet, err := AsTagSet("Meal", "tags", NewTagSet(tag))
		require.NoError(t, err)
		assert.True(t, fromSet.Has(tag))

		empty, err := AsTagSet("Meal", "tags", nil)
		require.NoError(t, err)
		assert.Zero(t, empty.Len())

		_, err = AsTagSet("Meal", "tags", []string{"k:v"})
		assert.ErrorIs(t, err, menuplan.ErrInvalidProperty)
	})
}
