package eval

import (
	"math"
	"strings"

	"github.com/LingHeChen/nodescript/value"
)

func registerLogic(t *builtinTable) {
	t.condition("True", func(*Call) (bool, error) { return true, nil })
	t.condition("False", func(*Call) (bool, error) { return false, nil })
	t.condition("Bool", func(c *Call) (bool, error) { return c.Truth(0, "value"), nil })

	t.condition("Equals", func(c *Call) (bool, error) {
		a, _ := c.Value(0, "a")
		b, _ := c.Value(1, "b")
		return valuesEqual(a, b), nil
	})
	t.condition("NotEquals", func(c *Call) (bool, error) {
		a, _ := c.Value(0, "a")
		b, _ := c.Value(1, "b")
		return !valuesEqual(a, b), nil
	})
	t.condition("Greater", ordered(func(cmp int) bool { return cmp > 0 }))
	t.condition("GreaterOrEqual", ordered(func(cmp int) bool { return cmp >= 0 }))
	t.condition("Less", ordered(func(cmp int) bool { return cmp < 0 }))
	t.condition("LessOrEqual", ordered(func(cmp int) bool { return cmp <= 0 }))

	t.condition("Contains", func(c *Call) (bool, error) {
		haystack, ok := c.Value(0, "value")
		if !ok {
			return false, nil
		}
		needle, _ := c.Value(1, "item")
		return contains(haystack, needle), nil
	})
	t.condition("StartsWith", func(c *Call) (bool, error) {
		s, _ := c.Text(0, "value")
		prefix, ok := c.Text(1, "prefix")
		return ok && strings.HasPrefix(s, prefix), nil
	})
	t.condition("EndsWith", func(c *Call) (bool, error) {
		s, _ := c.Text(0, "value")
		suffix, ok := c.Text(1, "suffix")
		return ok && strings.HasSuffix(s, suffix), nil
	})
	t.condition("IsEmpty", func(c *Call) (bool, error) {
		v, ok := c.Value(0, "value")
		if !ok {
			return true, nil
		}
		switch v.Kind() {
		case value.KindString, value.KindArray, value.KindObject:
			return v.Len() == 0, nil
		}
		return false, nil
	})
	t.condition("IsNull", func(c *Call) (bool, error) {
		_, ok := c.Value(0, "value")
		return !ok, nil
	})

	t.condition("And", func(c *Call) (bool, error) {
		for _, cond := range conditionList(c) {
			if !c.Check(cond) {
				return false, nil
			}
		}
		return true, nil
	})
	t.condition("Or", func(c *Call) (bool, error) {
		for _, cond := range conditionList(c) {
			if c.Check(cond) {
				return true, nil
			}
		}
		return false, nil
	})

	t.expression("True", func(*Call) (value.Value, error) { return value.Bool(true), nil })
	t.expression("False", func(*Call) (value.Value, error) { return value.Bool(false), nil })
	t.expression("Null", func(*Call) (value.Value, error) { return value.Null(), nil })
	t.expression("Bool", func(c *Call) (value.Value, error) { return value.Bool(c.Truth(0, "value")), nil })

	t.expression("If", func(c *Call) (value.Value, error) {
		branch, _ := ifBranch(c)
		return c.Eval(branch), nil
	})
	t.statement("If", func(c *Call) error {
		if branch, ok := ifBranch(c); ok {
			c.Exec(branch)
		}
		return nil
	})

	t.expression("Switch", func(c *Call) (value.Value, error) {
		selected, ok := switchCase(c)
		if !ok {
			return value.Null(), nil
		}
		return c.Eval(selected), nil
	})
	t.statement("Switch", func(c *Call) error {
		if selected, ok := switchCase(c); ok {
			c.Exec(selected)
		}
		return nil
	})
}

// ifBranch selects the node an If runs. The first param is either one
// condition, with then and else at positions 1 and 2, or a list of
// {"if", "then"} branches where the first satisfied one wins and else
// sits at position 1.
func ifBranch(c *Call) (value.Value, bool) {
	if branches, ok := ifChain(c); ok {
		for _, b := range branches {
			cond, _ := b.Field("if")
			if c.Check(cond) {
				return b.Field("then")
			}
		}
		return c.Raw(1, "else")
	}
	if c.Truth(0, "if") {
		return c.Raw(1, "then")
	}
	return c.Raw(2, "else")
}

func ifChain(c *Call) ([]value.Value, bool) {
	raw, ok := c.Raw(0, "branches")
	if !ok {
		return nil, false
	}
	items, ok := raw.AsArray()
	if !ok || len(items) == 0 {
		return nil, false
	}
	for _, item := range items {
		if _, hasThen := item.Field("then"); !hasThen {
			return nil, false
		}
	}
	return items, true
}

// conditionList reads the conditions of And/Or: a "conditions" array, or
// the positional params themselves.
func conditionList(c *Call) []value.Value {
	if list, ok := c.Params.Field("conditions"); ok {
		items, _ := list.AsArray()
		return items
	}
	items, _ := c.Params.AsArray()
	return items
}

// switchCase picks the case for the "var" selector: by index when "case"
// is an array, by key when it is an object. An unmatched or missing
// selector falls back to "default".
func switchCase(c *Call) (value.Value, bool) {
	cases, _ := c.Raw(1, "case")
	if sel, ok := c.Value(0, "var"); ok {
		switch cases.Kind() {
		case value.KindArray:
			if n, isNum := sel.ToNumber(); isNum && n == math.Trunc(n) {
				if v, found := cases.Index(int(n)); found {
					return v, true
				}
			}
		case value.KindObject:
			if v, found := cases.Field(sel.Text()); found {
				return v, true
			}
		}
	}
	return c.Raw(2, "default")
}

// compareValues orders two values numerically when both are numeric and
// lexically when both are strings.
func compareValues(a, b value.Value) (int, bool) {
	if x, ok := a.ToNumber(); ok && a.Kind() != value.KindBool {
		if y, ok := b.ToNumber(); ok && b.Kind() != value.KindBool {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	}
	if a.IsString() && b.IsString() {
		x, _ := a.AsString()
		y, _ := b.AsString()
		return strings.Compare(x, y), true
	}
	return 0, false
}

func valuesEqual(a, b value.Value) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return a.Equal(b)
}

func ordered(accept func(cmp int) bool) ConditionFunc {
	return func(c *Call) (bool, error) {
		a, ok := c.Value(0, "a")
		if !ok {
			return false, nil
		}
		b, ok := c.Value(1, "b")
		if !ok {
			return false, nil
		}
		cmp, ok := compareValues(a, b)
		return ok && accept(cmp), nil
	}
}

func contains(haystack, needle value.Value) bool {
	switch haystack.Kind() {
	case value.KindString:
		s, _ := haystack.AsString()
		return strings.Contains(s, needle.Text())
	case value.KindArray:
		items, _ := haystack.AsArray()
		for _, item := range items {
			if valuesEqual(item, needle) {
				return true
			}
		}
	case value.KindObject:
		_, ok := haystack.Field(needle.Text())
		return ok
	}
	return false
}
