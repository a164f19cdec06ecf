// Package menu implements the Menu aggregate.
package menu

import (
	"fmt"
	"sort"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

// AggregateType is the aggregate type of Menu.
const AggregateType = "Menu"

// Key identifies a slot on a menu. It is unique within a menu.
type Key struct {
	Week     int    `json:"week"`
	Weekday  string `json:"weekday"`
	MealType string `json:"mealType"`
}

// String returns "week/weekday/meal_type".
func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s", k.Week, k.Weekday, k.MealType)
}

// MenuMeal places a meal in a slot and caches what the menu shows of it.
type MenuMeal struct {
	MealID     string            `json:"mealId"`
	MealName   string            `json:"mealName"`
	NutriFacts shared.NutriFacts `json:"nutriFacts"`
	Week       int               `json:"week"`
	Weekday    string            `json:"weekday"`
	MealType   string            `json:"mealType"`
}

// Key returns the slot of the menu meal.
func (mm MenuMeal) Key() Key {
	return Key{Week: mm.Week, Weekday: mm.Weekday, MealType: mm.MealType}
}

// Menu is an aggregate root holding meals keyed by slot.
type Menu struct {
	menuplan.AggregateBase

	authorID    string
	clientID    string
	description string
	notes       string
	meals       []MenuMeal
	tags        shared.TagSet

	// derived views, nil until computed and after every change to meals
	byKey      map[Key]MenuMeal
	byID       map[string][]MenuMeal
	ids        []string
	nutriFacts *shared.NutriFacts
}

// Params holds the fields of a new menu.
type Params struct {
	ID          string
	AuthorID    string
	ClientID    string
	Description string
	Notes       string
	Meals       []MenuMeal
	Tags        shared.TagSet
}

// New creates a menu at version 1. No event is raised.
func New(p Params) (*Menu, error) {
	id := p.ID
	if id == "" {
		id = menuplan.NewID()
	}
	if err := shared.CheckTagsAuthor(AggregateType, p.AuthorID, p.Tags); err != nil {
		return nil, err
	}
	if err := checkUniqueKeys(p.Meals); err != nil {
		return nil, err
	}
	return &Menu{
		AggregateBase: menuplan.NewAggregateBase(id, AggregateType),
		authorID:      p.AuthorID,
		clientID:      p.ClientID,
		description:   p.Description,
		notes:         p.Notes,
		meals:         append([]MenuMeal(nil), p.Meals...),
		tags:          p.Tags.Clone(),
	}, nil
}

// Snapshot is a read-only copy of a live menu's data.
type Snapshot struct {
	ID          string
	AuthorID    string
	ClientID    string
	Description string
	Notes       string
	Meals       []MenuMeal
	Tags        shared.TagSet
	NutriFacts  shared.NutriFacts
	Version     int64
}

// Snapshot returns the menu's data, or a *menuplan.DiscardedError once the
// menu was deleted. The plain accessors keep answering for deleted menus.
func (m *Menu) Snapshot() (Snapshot, error) {
	if err := m.CheckNotDiscarded(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:          m.AggregateID(),
		AuthorID:    m.authorID,
		ClientID:    m.clientID,
		Description: m.description,
		Notes:       m.notes,
		Meals:       m.Meals(),
		Tags:        m.tags.Clone(),
		NutriFacts:  m.NutriFacts(),
		Version:     m.Version(),
	}, nil
}

func (m *Menu) AuthorID() string    { return m.authorID }
func (m *Menu) ClientID() string    { return m.clientID }
func (m *Menu) Description() string { return m.description }
func (m *Menu) Notes() string       { return m.notes }

// Tags returns a copy of the tag set.
func (m *Menu) Tags() shared.TagSet { return m.tags.Clone() }

// Meals returns the menu meals ordered by slot.
func (m *Menu) Meals() []MenuMeal {
	out := append([]MenuMeal(nil), m.meals...)
	sortMeals(out)
	return out
}

// MealsByKey returns the menu meals indexed by slot.
func (m *Menu) MealsByKey() map[Key]MenuMeal {
	if m.byKey == nil {
		m.byKey = make(map[Key]MenuMeal, len(m.meals))
		for _, mm := range m.meals {
			m.byKey[mm.Key()] = mm
		}
	}
	out := make(map[Key]MenuMeal, len(m.byKey))
	for k, v := range m.byKey {
		out[k] = v
	}
	return out
}

// MealsByID returns the slots a meal occupies, ordered by slot.
func (m *Menu) MealsByID(mealID string) []MenuMeal {
	if m.byID == nil {
		m.byID = make(map[string][]MenuMeal)
		for _, mm := range m.meals {
			m.byID[mm.MealID] = append(m.byID[mm.MealID], mm)
		}
		for _, list := range m.byID {
			sortMeals(list)
		}
	}
	return append([]MenuMeal(nil), m.byID[mealID]...)
}

// IDsOfMeals returns the distinct meal IDs on the menu, sorted.
func (m *Menu) IDsOfMeals() []string {
	if m.ids == nil {
		m.ids = sortedIDs(mealIDs(m.meals))
	}
	return append([]string(nil), m.ids...)
}

// HasMeal reports whether the meal occupies at least one slot.
func (m *Menu) HasMeal(mealID string) bool {
	return len(m.MealsByID(mealID)) > 0
}

// NutriFacts returns the sum over all menu meals.
func (m *Menu) NutriFacts() shared.NutriFacts {
	if m.nutriFacts == nil {
		var total shared.NutriFacts
		for _, mm := range m.meals {
			total = total.Add(mm.NutriFacts)
		}
		m.nutriFacts = &total
	}
	return *m.nutriFacts
}

// SetMeals replaces the menu meals.
//
// Meals are compared by MealID: IDs only in meals are added, IDs only in
// the current set are removed. Exactly one MenuMealAddedOrRemoved is raised
// per call and the version grows by one. Two meals sharing a slot are
// rejected with a *menuplan.BusinessRuleError.
func (m *Menu) SetMeals(meals []MenuMeal) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	if err := checkUniqueKeys(meals); err != nil {
		return err
	}

	current := mealIDs(m.meals)
	target := mealIDs(meals)
	var added, removed []string
	for id := range target {
		if _, ok := current[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range current {
		if _, ok := target[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	m.meals = append([]MenuMeal(nil), meals...)
	m.invalidate()
	m.IncrementVersion()
	m.Raise(MenuMealAddedOrRemoved{
		MenuID:  m.AggregateID(),
		Added:   added,
		Removed: removed,
	})
	return nil
}

// AddMeal places mm in its slot, replacing whatever occupied it.
func (m *Menu) AddMeal(mm MenuMeal) error {
	next := make([]MenuMeal, 0, len(m.meals)+1)
	for _, existing := range m.meals {
		if existing.Key() != mm.Key() {
			next = append(next, existing)
		}
	}
	return m.SetMeals(append(next, mm))
}

// RemoveMeals empties the given slots. Unknown slots are ignored.
func (m *Menu) RemoveMeals(keys ...Key) error {
	drop := make(map[Key]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	next := make([]MenuMeal, 0, len(m.meals))
	for _, mm := range m.meals {
		if !drop[mm.Key()] {
			next = append(next, mm)
		}
	}
	return m.SetMeals(next)
}

// RemoveMealsByID empties every slot holding one of the meals.
func (m *Menu) RemoveMealsByID(mealIDs ...string) error {
	drop := make(map[string]bool, len(mealIDs))
	for _, id := range mealIDs {
		drop[id] = true
	}
	next := make([]MenuMeal, 0, len(m.meals))
	for _, mm := range m.meals {
		if !drop[mm.MealID] {
			next = append(next, mm)
		}
	}
	return m.SetMeals(next)
}

// RefreshMealsFromMeal rewrites the cached name and nutrition of every slot
// holding mealID. The set of meal IDs does not change, so no event is
// raised. It returns false when the meal is not on the menu.
func (m *Menu) RefreshMealsFromMeal(mealID, name string, nutri shared.NutriFacts) (bool, error) {
	if err := m.CheckNotDiscarded(); err != nil {
		return false, err
	}
	found := false
	for i, mm := range m.meals {
		if mm.MealID == mealID {
			m.meals[i].MealName = name
			m.meals[i].NutriFacts = nutri
			found = true
		}
	}
	if found {
		m.invalidate()
		m.IncrementVersion()
	}
	return found, nil
}

// SetTags replaces the tag set. Tags of another author are rejected.
func (m *Menu) SetTags(tags shared.TagSet) error {
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

// SetDescription sets the description.
func (m *Menu) SetDescription(description string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.description = description
	m.IncrementVersion()
	return nil
}

// SetNotes sets the notes.
func (m *Menu) SetNotes(notes string) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.notes = notes
	m.IncrementVersion()
	return nil
}

// UpdateProperties applies several changes in sorted key order. Keys:
// description, notes (string), tags (shared.TagSet or []shared.Tag),
// meals ([]MenuMeal).
func (m *Menu) UpdateProperties(updates map[string]interface{}) error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	return shared.ApplyProperties(AggregateType, updates, map[string]shared.Setter{
		"description": func(v interface{}) error {
			s, err := shared.AsString(AggregateType, "description", v)
			if err != nil {
				return err
			}
			return m.SetDescription(s)
		},
		"notes": func(v interface{}) error {
			s, err := shared.AsString(AggregateType, "notes", v)
			if err != nil {
				return err
			}
			return m.SetNotes(s)
		},
		"tags": func(v interface{}) error {
			tags, err := shared.AsTagSet(AggregateType, "tags", v)
			if err != nil {
				return err
			}
			return m.SetTags(tags)
		},
		"meals": func(v interface{}) error {
			meals, ok := v.([]MenuMeal)
			if !ok && v != nil {
				return menuplan.NewInvalidPropertyError(AggregateType, "meals", fmt.Sprintf("expected []MenuMeal, got %T", v))
			}
			return m.SetMeals(meals)
		},
	})
}

// Delete discards the menu and raises MenuDeleted.
func (m *Menu) Delete() error {
	if err := m.CheckNotDiscarded(); err != nil {
		return err
	}
	m.Raise(MenuDeleted{
		MenuID:   m.AggregateID(),
		AuthorID: m.authorID,
		ClientID: m.clientID,
	})
	m.Discard()
	m.IncrementVersion()
	return nil
}

// Clone returns a deep copy with the same identity and version and an
// empty event queue.
func (m *Menu) Clone() *Menu {
	return &Menu{
		AggregateBase: m.CloneBase(),
		authorID:      m.authorID,
		clientID:      m.clientID,
		description:   m.description,
		notes:         m.notes,
		meals:         append([]MenuMeal(nil), m.meals...),
		tags:          m.tags.Clone(),
	}
}

func (m *Menu) invalidate() {
	m.byKey = nil
	m.byID = nil
	m.ids = nil
	m.nutriFacts = nil
}

func checkUniqueKeys(meals []MenuMeal) error {
	seen := make(map[Key]bool, len(meals))
	for _, mm := range meals {
		if seen[mm.Key()] {
			return menuplan.NewBusinessRuleError("MenuSlotUnique",
				fmt.Sprintf("slot %s is used more than once", mm.Key()))
		}
		seen[mm.Key()] = true
	}
	return nil
}

func mealIDs(meals []MenuMeal) map[string]struct{} {
	ids := make(map[string]struct{}, len(meals))
	for _, mm := range meals {
		ids[mm.MealID] = struct{}{}
	}
	return ids
}

func sortedIDs(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortMeals(meals []MenuMeal) {
	sort.Slice(meals, func(i, j int) bool {
		a, b := meals[i], meals[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		return a.MealType < b.MealType
	})
}
