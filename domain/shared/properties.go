package shared

import (
	"fmt"
	"sort"

	"github.com/menu-planning/go-menuplan"
)

// Setter applies one property value.
type Setter func(value interface{}) error

// ApplyProperties calls the setter of every key in updates, in sorted key
// order. An unknown key fails before any setter runs. The first setter
// error stops the loop; setters already applied stay applied.
func ApplyProperties(entity string, updates map[string]interface{}, setters map[string]Setter) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		if _, ok := setters[k]; !ok {
			return menuplan.NewInvalidPropertyError(entity, k, "unknown property")
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := setters[k](updates[k]); err != nil {
			return err
		}
	}
	return nil
}

// AsString converts a property value to a string.
// nil converts to the empty string.
func AsString(entity, property string, v interface{}) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case *string:
		if s == nil {
			return "", nil
		}
		return *s, nil
	}
	return "", typeMismatch(entity, property, "string", v)
}

// AsBool converts a property value to a bool.
func AsBool(entity, property string, v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, typeMismatch(entity, property, "bool", v)
}

// AsTagSet converts a TagSet or []Tag property value to a TagSet.
func AsTagSet(entity, property string, v interface{}) (TagSet, error) {
	switch t := v.(type) {
	case nil:
		return TagSet{}, nil
	case TagSet:
		return t.Clone(), nil
	case []Tag:
		return NewTagSet(t...), nil
	}
	return nil, typeMismatch(entity, property, "tags", v)
}

func typeMismatch(entity, property, want string, v interface{}) error {
	return menuplan.NewInvalidPropertyError(entity, property, fmt.Sprintf("expected %s, got %T", want, v))
}
