package eval

import (
	"strings"

	"github.com/LingHeChen/nodescript/subst"
	"github.com/LingHeChen/nodescript/value"
)

func registerStrings(t *builtinTable) {
	t.expression("Array", func(c *Call) (value.Value, error) {
		items := listParam(c, "items")
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = c.Eval(item)
		}
		return value.Array(out...), nil
	})
	t.expression("Concat", func(c *Call) (value.Value, error) {
		var b strings.Builder
		for _, item := range listParam(c, "items") {
			b.WriteString(c.Eval(item).Text())
		}
		return value.String(b.String()), nil
	})
	t.expression("Length", func(c *Call) (value.Value, error) {
		v, _ := c.Value(0, "value")
		return value.Int(v.Len()), nil
	})
	t.expression("Upper", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		return value.String(strings.ToUpper(s)), nil
	})
	t.expression("Lower", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		return value.String(strings.ToLower(s)), nil
	})
	t.expression("Substring", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		runes := []rune(s)
		start, _ := c.Int(1, "start")
		start = clampIndex(start, len(runes))
		end := len(runes)
		if n, ok := c.Int(2, "length"); ok && n >= 0 && n < end-start {
			end = start + n
		}
		return value.String(string(runes[start:end])), nil
	})

	// mutations work on characters; "end" addresses the last character
	t.expression("RemoveAt", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		runes := []rune(s)
		i, ok := charIndex(c, 1, "index", len(runes)-1)
		if !ok || i < 0 || i >= len(runes) {
			return value.String(s), nil
		}
		count := 1
		if n, ok := c.Int(2, "count"); ok && n > 0 {
			count = min(n, len(runes)-i)
		}
		end := i + count
		return value.String(string(runes[:i]) + string(runes[end:])), nil
	})
	t.expression("Replace", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		with, _ := c.Text(2, "with")
		if old, ok := c.Text(1, "old"); ok && old != "" {
			return value.String(strings.ReplaceAll(s, old, with)), nil
		}
		// without "old", "index" replaces one character
		runes := []rune(s)
		i, ok := charIndex(c, 3, "index", len(runes)-1)
		if !ok || i < 0 || i >= len(runes) {
			return value.String(s), nil
		}
		return value.String(string(runes[:i]) + with + string(runes[i+1:])), nil
	})
	t.expression("Insert", func(c *Call) (value.Value, error) {
		s, _ := c.Text(0, "value")
		insert, _ := c.Text(2, "text")
		runes := []rune(s)
		// inserting at "end" appends after the last character
		i, ok := charIndex(c, 1, "index", len(runes))
		if !ok || i < 0 || i > len(runes) {
			return value.String(s), nil
		}
		return value.String(string(runes[:i]) + insert + string(runes[i:])), nil
	})

	t.expression("ToNumber", func(c *Call) (value.Value, error) {
		n, ok := c.Number(0, "value")
		if !ok {
			return value.Null(), nil
		}
		return value.Number(n), nil
	})
	t.expression("ToString", func(c *Call) (value.Value, error) {
		v, _ := c.Value(0, "value")
		return value.String(v.Text()), nil
	})
	t.expression("Template", func(c *Call) (value.Value, error) {
		raw, _ := c.Raw(0, "text")
		text, ok := raw.AsString()
		if !ok {
			text = c.Eval(raw).Text()
		}
		return value.String(subst.Expand(text, &resolver{ip: c.ip, this: c.This, env: c.Env})), nil
	})
}

// listParam returns the call's list argument: the params array itself, or
// the array under key.
func listParam(c *Call, key string) []value.Value {
	if items, ok := c.Params.AsArray(); ok {
		return items
	}
	list, _ := c.Params.Field(key)
	items, _ := list.AsArray()
	return items
}

// charIndex reads a character index; the string "end" maps to endIndex
func charIndex(c *Call, index int, key string, endIndex int) (int, bool) {
	raw, ok := c.Raw(index, key)
	if !ok {
		return 0, false
	}
	v := c.Eval(raw)
	if s, isStr := v.AsString(); isStr && strings.EqualFold(s, "end") {
		return endIndex, true
	}
	n, ok := v.ToNumber()
	if !ok {
		return 0, false
	}
	if !(n >= 0 && n <= float64(endIndex)) {
		return -1, true
	}
	return int(n), true
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
