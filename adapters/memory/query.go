package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/menu-planning/go-menuplan"
)

// applyQuery filters, orders and pages candidates.
func applyQuery[A Entity[A]](fields map[string]FieldFunc[A], candidates []A, q menuplan.Query) ([]A, error) {
	for _, f := range q.Filters {
		if _, ok := fields[f.Field]; !ok {
			return nil, fmt.Errorf("%w: %w %q", menuplan.ErrInvalidQuery, ErrUnknownField, f.Field)
		}
	}
	for _, o := range q.OrderBy {
		if _, ok := fields[o.Field]; !ok {
			return nil, fmt.Errorf("%w: %w %q", menuplan.ErrInvalidQuery, ErrUnknownField, o.Field)
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", menuplan.ErrInvalidQuery)
	}

	var out []A
	for _, a := range candidates {
		if a.IsDiscarded() && !q.IncludeDiscarded {
			continue
		}
		ok, err := matchAll(fields, a, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compare(fields[o.Field](out[i]), fields[o.Field](out[j]))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchAll[A Entity[A]](fields map[string]FieldFunc[A], a A, filters []menuplan.Filter) (bool, error) {
	for _, f := range filters {
		ok, err := match(fields[f.Field](a), f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(value interface{}, f menuplan.Filter) (bool, error) {
	switch f.Op {
	case menuplan.FilterOpEq:
		return !isEmpty(value) && scalar(value) == scalar(f.Value), nil
	case menuplan.FilterOpNe:
		return scalar(value) != scalar(f.Value), nil
	case menuplan.FilterOpIn, menuplan.FilterOpNotIn:
		list, ok := f.Value.([]string)
		if !ok {
			return false, fmt.Errorf("%w: %s on %q needs a []string, got %T", menuplan.ErrInvalidQuery, f.Op, f.Field, f.Value)
		}
		found := !isEmpty(value) && contains(list, scalar(value))
		if f.Op == menuplan.FilterOpIn {
			return found, nil
		}
		return !found, nil
	case menuplan.FilterOpIsNull:
		return isEmpty(value), nil
	case menuplan.FilterOpIsNotNull:
		return !isEmpty(value), nil
	case menuplan.FilterOpContains:
		list, ok := value.([]string)
		if !ok {
			return false, fmt.Errorf("%w: %s on %q needs a list field", menuplan.ErrInvalidQuery, f.Op, f.Field)
		}
		return contains(list, scalar(f.Value)), nil
	}
	return false, fmt.Errorf("%w: unsupported operator %q", menuplan.ErrInvalidQuery, f.Op)
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	}
	return false
}

func scalar(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// compare orders numbers numerically and everything else as strings.
func compare(a, b interface{}) int {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(scalar(a), scalar(b))
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
