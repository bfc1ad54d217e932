package eval

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/subst"
	"github.com/LingHeChen/nodescript/value"
)

// Call is one dispatch of a named function. Params holds the node's raw,
// unevaluated "params"; accessors evaluate on demand so that built-ins that
// take nodes (loop bodies, delayed statements) get them untouched.
type Call struct {
	Name   string
	Node   value.Value
	Params value.Value
	This   host.Receiver
	Env    *Env

	ip *Interpreter
}

// Interpreter returns the interpreter running the call
func (c *Call) Interpreter() *Interpreter { return c.ip }

// Host returns the host collaborators
func (c *Call) Host() *host.Host { return c.ip.host }

// Raw returns a parameter without evaluating it. Positional index applies
// when params is an array, key otherwise.
func (c *Call) Raw(index int, key string) (value.Value, bool) {
	return value.Param(c.Params, index, key)
}

// Value evaluates a parameter as an expression. A null result counts as
// missing.
func (c *Call) Value(index int, key string) (value.Value, bool) {
	raw, ok := c.Raw(index, key)
	if !ok {
		return value.Null(), false
	}
	v := c.Eval(raw)
	if v.IsNull() {
		return value.Null(), false
	}
	return v, true
}

// Text evaluates a parameter and renders it as text
func (c *Call) Text(index int, key string) (string, bool) {
	v, ok := c.Value(index, key)
	if !ok {
		return "", false
	}
	return v.Text(), true
}

// Key reads a name parameter. A literal string is never resolved as a
// variable, only template-expanded; any other node is evaluated and
// rendered as text.
func (c *Call) Key(index int, key string) (string, bool) {
	raw, ok := c.Raw(index, key)
	if !ok {
		return "", false
	}
	if s, isStr := raw.AsString(); isStr {
		s = subst.Expand(s, &resolver{ip: c.ip, this: c.This, env: c.Env})
		return s, s != ""
	}
	v := c.Eval(raw)
	if v.IsNull() {
		return "", false
	}
	return v.Text(), true
}

// Number evaluates a parameter and converts it to a number
func (c *Call) Number(index int, key string) (float64, bool) {
	v, ok := c.Value(index, key)
	if !ok {
		return 0, false
	}
	return v.ToNumber()
}

// Int is Number truncated toward zero
func (c *Call) Int(index int, key string) (int, bool) {
	n, ok := c.Number(index, key)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	switch {
	case n >= math.MaxInt64:
		return math.MaxInt, true
	case n <= math.MinInt64:
		return math.MinInt, true
	}
	return int(n), true
}

// Cond evaluates a parameter as a condition
func (c *Call) Cond(index int, key string) (bool, bool) {
	raw, ok := c.Raw(index, key)
	if !ok {
		return false, false
	}
	return c.Check(raw), true
}

// Truth reads a parameter that may be either a condition or a value. Nodes
// and condition lists are evaluated as conditions; names bound in the
// environment as values; other strings as condition names, except the
// literals accepted by strconv.ParseBool.
func (c *Call) Truth(index int, key string) bool {
	raw, ok := c.Raw(index, key)
	if !ok {
		return false
	}
	switch raw.Kind() {
	case value.KindObject, value.KindArray:
		return c.Check(raw)
	case value.KindString:
		s, _ := raw.AsString()
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		if !c.Env.Has(s) {
			return c.Check(raw)
		}
	}
	return c.Eval(raw).Truthy()
}

// Eval evaluates node as an expression in the caller's context
func (c *Call) Eval(node value.Value) value.Value {
	return c.ip.expression(node, c.This, c.Env, true)
}

// Exec executes node as a statement in the caller's context
func (c *Call) Exec(node value.Value) {
	c.ip.statement(node, c.This, c.Env, true)
}

// Check evaluates node as a condition in the caller's context
func (c *Call) Check(node value.Value) bool {
	return c.ip.condition(node, c.This, c.Env, true)
}

// skip records that the call did nothing because a host collaborator or
// argument is missing
func (c *Call) skip(reason string) {
	c.ip.logger.Debug("script call skipped",
		slog.String("name", c.Name),
		slog.String("reason", reason))
}
