// Package shared holds value objects used by more than one aggregate.
package shared

import (
	"fmt"
	"sort"

	"github.com/menu-planning/go-menuplan"
)

// Tag is a key/value label owned by an author.
type Tag struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	AuthorID string `json:"authorId"`
	Type     string `json:"type"`
}

// String returns "key:value".
func (t Tag) String() string {
	return t.Key + ":" + t.Value
}

// TagSet is a set of tags.
type TagSet map[Tag]struct{}

// NewTagSet creates a set from tags.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is in the set.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s)
}

// Slice returns the tags ordered by type, key, value and author.
func (s TagSet) Slice() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.AuthorID < b.AuthorID
	})
	return out
}

// Equal reports whether both sets hold the same tags.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the set.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// CheckTagsAuthor returns a *menuplan.BusinessRuleError naming the first
// tag, in Slice order, whose author differs from authorID.
func CheckTagsAuthor(entity, authorID string, tags TagSet) error {
	for _, t := range tags.Slice() {
		if t.AuthorID != authorID {
			return menuplan.NewBusinessRuleError("TagAuthorMustMatch",
				fmt.Sprintf("tag %s of %s belongs to author %q, expected %q", t, entity, t.AuthorID, authorID))
		}
	}
	return nil
}

// NutriFacts is a nutrition summary.
type NutriFacts struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	TotalFat     float64 `json:"totalFat"`
}

// Add returns the sum of n and o.
func (n NutriFacts) Add(o NutriFacts) NutriFacts {
	return NutriFacts{
		Calories:     n.Calories + o.Calories,
		Protein:      n.Protein + o.Protein,
		Carbohydrate: n.Carbohydrate + o.Carbohydrate,
		TotalFat:     n.TotalFat + o.TotalFat,
	}
}

// IsZero reports whether every value is zero.
func (n NutriFacts) IsZero() bool {
	return n == NutriFacts{}
}
