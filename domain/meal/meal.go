// Package meal implements the Meal aggregate and its Recipe entities.
package meal

import (
	"fmt"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// AggregateType is the aggregate type of Meal.
const AggregateType = "Meal"

// Meal is an aggregate root owning its recipes and tags.
//
// Recipes are kept in an append-only list: removed recipes are discarded in
// place and hidden by Recipes. Every recipe carries the meal's ID and
// author; recipes with another parentage are copied on the way in.
type Meal struct {
	menuplan.AggregateBase

	authorID    string
	name        string
	description string
	notes       string
	imageURL    string
	menuID      string
	like        *bool
	recipes     []*Recipe
	tags        shared.TagSet

	// nil until computed; reset by every recipe mutation
	nutriFacts *shared.NutriFacts
	weight     *float64
}

// Params holds the fields of a new meal.
type Params struct {
	ID          string
	AuthorID    string
	Name        string
	Description string
	Notes       string
	ImageURL    string
	MenuID      string
	Like        *bool
	Recipes     []*Recipe
	Tags        shared.TagSet
}

// New creates a meal at version 1. Foreign recipes are re-parented by copy;
// tags of another author are rejected. No event is raised.
func New(p Params) (*Meal, error) {
	id := p.ID
	if id == "" {
		id = menuplan.NewID()
	}
	if p.Name == "" {
		return nil, menuplan.NewInvalidPropertyError(AggregateType, "name", "required")
	}
	if err := shared.CheckTagsAuthor(AggregateType, p.AuthorID, p.Tags); err != nil {
		return nil, err
	}

	m := &Meal{
		AggregateBase: menuplan.NewAggregateBase(id, AggregateType),
		authorID:      p.AuthorID,
		name:          p.Name,
		description:   p.Description,
		notes:         p.Notes,
		imageURL:      p.ImageURL,
		menuID:        p.MenuID,
		like:          copyBool(p.Like),
		tags:          p.Tags.Clone(),
	}
	m.recipes = m.adopt(p.Recipes)
	return m, nil
}

// Snapshot is a read-only copy of a live meal's data.
type Snapshot struct {
	ID            string
	AuthorID      string
	Name          string
	Description   string
	Notes         string
	ImageURL      string
	MenuID        string
	Like          *bool
	Recipes       []*Recipe
	Tags          shared.TagSet
	NutriFacts    shared.NutriFacts
	WeightInGrams float64
	Version       int64
}

// Snapshot returns the meal's data, or a *menuplan.DiscardedError once the
// meal was deleted. Handlers read meals through it; the single-field
// accessors below return stored values regardless of the discarded flag so
// that repositories can still index deleted rows.
func (m *Meal) Snapshot() (Snapshot, error) {
	if err := m.CheckNotDiscarded(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:            m.AggregateID(),
		AuthorID:      m.authorID,
		Name:          m.name,
		Description:   m.description,
		Notes:         m.notes,
		ImageURL:      m.imageURL,
		MenuID:        m.menuID,
		Like:          copyBool(m.like),
		Recipes:       m.Recipes(),
		Tags:          m.tags.Clone(),
		NutriFacts:    m.NutriFacts(),
		WeightInGrams: m.WeightInGrams(),
		Version:       m.Version(),
	}, nil
}

func (m *Meal) AuthorID() string    { return m.authorID }
func (m *Meal) Name() string        { return m.name }
func (m *Meal) Description() string { return m.description }
func (m *Meal) Notes() string       { return m.notes }
func (m *Meal) ImageURL() string    { return m.imageURL }

// MenuID returns the menu the meal is on, or "".
func (m *Meal) MenuID() string { return m.menuID }

// Like returns the rating, nil when unrated.
func (m *Meal) Like() *bool { return copyBool(m.like) }

// Tags returns a copy of the tag set.
func (m *Meal) Tags() shared.TagSet { return m.tags.Clone() }

// Recipes returns copies of the live recipes, in insertion order.
func (m *Meal) Recipes() []*Recipe {
	out := make([]*Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		if !r.discarded {
			out = append(out, r.clone())
		}
	}
	return out
}

// AllRecipes returns copies of every stored recipe, discarded ones included.
func (m *Meal) AllRecipes() []*Recipe {
	out := make([]*Recipe, len(m.recipes))
	for i, r := range m.recipes {
		out[i] = r.clone()
	}
	return out
}

// Recipe returns a copy of a live recipe.
func (m *Meal) Recipe(id string) (*Recipe, error) {
	r := m.liveRecipe(id)
	if r == nil {
		return nil, menuplan.NewNotFoundError(RecipeEntity, id)
	}
	return r.clone(), nil
}

// NutriFacts returns the sum over live recipes.
func (m *Meal) NutriFacts() shared.NutriFacts {
	if m.nutriFacts == nil {
		var total shared.NutriFacts
		for _, r := range m.recipes {
			if !r.discarded {
				total = total.Add(r.nutriFacts)
			}
		}
		m.nutriFacts = &total
	}
	return *m.nutriFacts
}

// WeightInGrams returns the total weight of live recipes.
func (m *Meal) WeightInGrams() float64 {
	if m.weight == nil {
		var total float64
		for _, r := range m.recipes {
			if !r.discarded {
				total += r.weightInGrams
			}
		}
		m.weight = &total
	}
	return *m.weight
}

// SetName renames the meal and cascades to its menu.
func (m *Meal) SetName(name string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	if name == "" {
		return menuplan.NewInvalidPropertyError(AggregateType, "name", "required")
	}
	m.name = name
	m.cascade("name changed")
	m.IncrementVersion()
	return nil
}

// SetDescription sets the description.
func (m *Meal) SetDescription(description string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.description = description
	m.IncrementVersion()
	return nil
}

// SetNotes sets the notes.
func (m *Meal) SetNotes(notes string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.notes = notes
	m.IncrementVersion()
	return nil
}

// SetImageURL sets the image URL.
func (m *Meal) SetImageURL(url string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.imageURL = url
	m.IncrementVersion()
	return nil
}

// SetLike sets the rating. nil clears it.
func (m *Meal) SetLike(like *bool) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.like = copyBool(like)
	m.IncrementVersion()
	return nil
}

// SetMenuID sets or, with "", clears the menu back-reference.
func (m *Meal) SetMenuID(menuID string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.menuID = menuID
	m.IncrementVersion()
	return nil
}

// SetTags replaces the tag set. Tags of another author are rejected with
// a *menuplan.BusinessRuleError and the current tags are kept.
func (m *Meal) SetTags(tags shared.TagSet) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	if err := shared.CheckTagsAuthor(AggregateType, m.authorID, tags); err != nil {
		return err
	}
	m.tags = tags.Clone()
	m.IncrementVersion()
	return nil
}

// SetRecipes replaces the recipe list.
//
// Recipes whose meal or author differ from the meal's are replaced by
// re-parented copies with new IDs. With no live recipes the list is
// adopted as is. Otherwise new IDs are appended, live recipes missing from
// recipes are discarded in place, and recipes present in both take the
// incoming value with the stored version plus one. A cascade event is
// raised when the meal is on a menu. The version grows by one.
func (m *Meal) SetRecipes(recipes []*Recipe) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	target := m.adopt(recipes)
	defer m.invalidate()

	if m.liveCount() == 0 {
		m.recipes = target
		m.cascade("recipes changed")
		m.IncrementVersion()
		return nil
	}

	incoming := make(map[string]*Recipe, len(target))
	for _, r := range target {
		incoming[r.id] = r
	}
	stored := make(map[string]bool, len(m.recipes))
	for _, r := range m.recipes {
		stored[r.id] = true
	}

	n := len(m.recipes)
	for _, r := range target {
		if !stored[r.id] {
			m.recipes = append(m.recipes, r)
			stored[r.id] = true
		}
	}
	for i := 0; i < n; i++ {
		current := m.recipes[i]
		if current.discarded {
			continue
		}
		next, ok := incoming[current.id]
		if !ok {
			current.discarded = true
			continue
		}
		next.version = current.version + 1
		m.recipes[i] = next
	}

	m.cascade("recipes changed")
	m.IncrementVersion()
	return nil
}

// AddRecipe appends a recipe, re-parenting it by copy when needed.
func (m *Meal) AddRecipe(r *Recipe) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	if r == nil {
		return menuplan.ErrNilAggregate
	}
	added := m.adopt([]*Recipe{r})[0]
	for _, existing := range m.recipes {
		if existing.id == added.id {
			return menuplan.NewBusinessRuleError("RecipeIDUnique",
				fmt.Sprintf("recipe %s already on meal %s", added.id, m.AggregateID()))
		}
	}
	m.recipes = append(m.recipes, added)
	m.invalidate()
	m.cascade("recipe added")
	m.IncrementVersion()
	return nil
}

// RemoveRecipe discards a live recipe in place.
func (m *Meal) RemoveRecipe(id string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	r := m.liveRecipe(id)
	if r == nil {
		return menuplan.NewNotFoundError(RecipeEntity, id)
	}
	if err := r.Delete(); err != nil {
		return err
	}
	m.invalidate()
	m.cascade("recipe removed")
	m.IncrementVersion()
	return nil
}

// UpdateRecipe applies property updates to a live recipe.
// See Recipe.UpdateProperties for the keys.
func (m *Meal) UpdateRecipe(id string, updates map[string]interface{}) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	r := m.liveRecipe(id)
	if r == nil {
		return menuplan.NewNotFoundError(RecipeEntity, id)
	}
	working := r.clone()
	if err := working.UpdateProperties(updates); err != nil {
		return err
	}
	*r = *working
	m.invalidate()
	m.cascade("recipe updated")
	m.IncrementVersion()
	return nil
}

// UpdateProperties applies several changes in sorted key order. Keys:
// name, description, notes, image_url (string), like (*bool or bool),
// menu_id (string, "" clears), tags (shared.TagSet or []shared.Tag),
// recipes ([]*Recipe). An unknown key fails with ErrInvalidProperty
// before anything changes.
func (m *Meal) UpdateProperties(updates map[string]interface{}) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	return shared.ApplyProperties(AggregateType, updates, map[string]shared.Setter{
		"name":        m.stringSetter("name", m.SetName),
		"description": m.stringSetter("description", m.SetDescription),
		"notes":       m.stringSetter("notes", m.SetNotes),
		"image_url":   m.stringSetter("image_url", m.SetImageURL),
		"menu_id":     m.stringSetter("menu_id", m.SetMenuID),
		"like": func(v interface{}) error {
			switch l := v.(type) {
			case nil:
				return m.SetLike(nil)
			case *bool:
				return m.SetLike(l)
			case bool:
				return m.SetLike(&l)
			}
			return menuplan.NewInvalidPropertyError(AggregateType, "like", fmt.Sprintf("expected bool, got %T", v))
		},
		"tags": func(v interface{}) error {
			tags, err := shared.AsTagSet(AggregateType, "tags", v)
			if err != nil {
				return err
			}
			return m.SetTags(tags)
		},
		"recipes": func(v interface{}) error {
			recipes, ok := v.([]*Recipe)
			if !ok && v != nil {
				return menuplan.NewInvalidPropertyError(AggregateType, "recipes", fmt.Sprintf("expected []*Recipe, got %T", v))
			}
			return m.SetRecipes(recipes)
		},
	})
}

// Delete discards the meal and its recipes. A meal on a menu raises
// MealDeleted so the menu can drop it.
func (m *Meal) Delete() error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	for _, r := range m.recipes {
		r.discarded = true
	}
	m.invalidate()
	if m.menuID != "" {
		m.Raise(MealDeleted{MealID: m.AggregateID(), MenuID: m.menuID})
	}
	m.Discard()
	m.IncrementVersion()
	return nil
}

// Copy returns a new meal owned by authorID with copies of the live recipes.
// Tags are re-authored and the menu back-reference is not copied.
func (m *Meal) Copy(authorID string) (*Meal, error) {
	if err := m.CheckNotDiscarded(); err != nil {
		return nil, err
	}
	tags := make(shared.TagSet, len(m.tags))
	for t := range m.tags {
		t.AuthorID = authorID
		tags[t] = struct{}{}
	}
	return New(Params{
		AuthorID:    authorID,
		Name:        m.name,
		Description: m.description,
		Notes:       m.notes,
		ImageURL:    m.imageURL,
		Recipes:     m.Recipes(),
		Tags:        tags,
	})
}

// Clone returns a deep copy with the same identity and version and an
// empty event queue.
func (m *Meal) Clone() *Meal {
	c := *m
	c.AggregateBase = m.CloneBase()
	c.like = copyBool(m.like)
	c.tags = m.tags.Clone()
	c.recipes = make([]*Recipe, len(m.recipes))
	for i, r := range m.recipes {
		c.recipes[i] = r.clone()
	}
	c.nutriFacts = nil
	c.weight = nil
	return &c
}

// adopt returns private copies of recipes, re-parenting foreign ones.
// A later duplicate ID replaces the earlier one in place.
func (m *Meal) adopt(recipes []*Recipe) []*Recipe {
	out := make([]*Recipe, 0, len(recipes))
	index := make(map[string]int, len(recipes))
	for _, r := range recipes {
		if r == nil {
			continue
		}
		var c *Recipe
		if r.BelongsTo(m.AggregateID(), m.authorID) {
			c = r.clone()
		} else {
			c = r.CopyTo(m.AggregateID(), m.authorID)
		}
		if i, ok := index[c.id]; ok {
			out[i] = c
			continue
		}
		index[c.id] = len(out)
		out = append(out, c)
	}
	return out
}

func (m *Meal) liveRecipe(id string) *Recipe {
	for _, r := range m.recipes {
		if r.id == id && !r.discarded {
			return r
		}
	}
	return nil
}

func (m *Meal) liveCount() int {
	n := 0
	for _, r := range m.recipes {
		if !r.discarded {
			n++
		}
	}
	return n
}

func (m *Meal) invalidate() {
	m.nutriFacts = nil
	m.weight = nil
}

func (m *Meal) cascade(message string) {
	if m.menuID == "" {
		return
	}
	m.RaiseMerged(MealAttributesChanged{
		MealID:  m.AggregateID(),
		MenuID:  m.menuID,
		Message: message,
	})
}

func (m *Meal) stringSetter(property string, set func(string) error) shared.Setter {
	return func(v interface{}) error {
		s, err := shared.AsString(AggregateType, property, v)
		if err != nil {
			return err
		}
		return set(s)
	}
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
