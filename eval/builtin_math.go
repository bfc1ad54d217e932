package eval

import (
	"errors"
	"fmt"

	"github.com/LingHeChen/nodescript/formula"
	"github.com/LingHeChen/nodescript/value"
)

func registerMath(t *builtinTable) {
	t.expression("Math", func(c *Call) (value.Value, error) {
		src, ok := formulaText(c)
		if !ok {
			return value.Null(), errors.New("Math needs a formula")
		}
		vars := c.Env.Numbers()
		if raw, ok := c.Raw(1, "vars"); ok {
			obj, isObj := raw.AsObject()
			if !isObj {
				return value.Null(), fmt.Errorf("Math vars must be an object, got %s", raw.Kind())
			}
			for _, name := range obj.Keys() {
				node, _ := obj.Get(name)
				n, isNum := c.Eval(node).ToNumber()
				if !isNum {
					return value.Null(), fmt.Errorf("Math var %s is not a number", name)
				}
				vars[name] = n
			}
		}
		n, err := formula.Eval(src, vars)
		if err != nil {
			return value.Null(), err
		}
		return value.Number(n), nil
	})
}

// formulaText reads the formula param. A literal string is the formula as
// written; formulas name their variables instead of splicing them in.
func formulaText(c *Call) (string, bool) {
	raw, ok := c.Raw(0, "formula")
	if !ok {
		return "", false
	}
	if s, isStr := raw.AsString(); isStr {
		return s, s != ""
	}
	v := c.Eval(raw)
	if v.IsNull() {
		return "", false
	}
	return v.Text(), true
}
