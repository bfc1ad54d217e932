package eval

import (
	"errors"
	"strconv"

	"github.com/LingHeChen/nodescript/value"
)

// MaxCallDepth bounds nested user function calls
const MaxCallDepth = 200

var errCallDepth = errors.New("user function call depth exceeded")

// callEnv builds the environment a user function body runs in: a copy of
// the caller's environment plus the call's arguments, evaluated at the call
// site. Object params bind by key, array params as arg0, arg1, ...; the
// whole argument list is also bound as "params".
func (ip *Interpreter) callEnv(c *Call) (*Env, error) {
	if c.Env.depth >= MaxCallDepth {
		return nil, errCallDepth
	}
	env := c.Env.Clone()
	env.depth++
	switch c.Params.Kind() {
	case value.KindObject:
		obj, _ := c.Params.AsObject()
		args := value.NewObject()
		for _, key := range obj.Keys() {
			raw, _ := obj.Get(key)
			v := c.Eval(raw)
			env.Set(key, v)
			args.Set(key, v)
		}
		env.Set("params", value.Obj(args))
	case value.KindArray:
		items, _ := c.Params.AsArray()
		args := make([]value.Value, len(items))
		for i, raw := range items {
			args[i] = c.Eval(raw)
			env.Set("arg"+strconv.Itoa(i), args[i])
		}
		env.Set("params", value.Array(args...))
	case value.KindNull:
	default:
		env.Set("params", c.Eval(c.Params))
	}
	return env, nil
}

// userCondition evaluates the entry's "condition" field
func (ip *Interpreter) userCondition(entry value.Value, c *Call) (bool, error) {
	body, ok := entry.Field("condition")
	if !ok {
		return false, nil
	}
	env, err := ip.callEnv(c)
	if err != nil {
		return false, err
	}
	return ip.condition(body, c.This, env, true), nil
}

// userStatement runs the entry itself as a statement node, so an entry may
// use func, if_func/else, sub_func and func_reference.
func (ip *Interpreter) userStatement(entry value.Value, c *Call) error {
	obj, ok := entry.AsObject()
	if !ok {
		return nil
	}
	env, err := ip.callEnv(c)
	if err != nil {
		return err
	}
	ip.singleStatement(value.Obj(obj.Without("name")), c.This, env, true)
	return nil
}

// userExpression evaluates the entry's "value" field. An entry without one
// leaves the calling node unchanged.
func (ip *Interpreter) userExpression(entry value.Value, c *Call) (value.Value, error) {
	body, ok := entry.Field("value")
	if !ok {
		return c.Node, nil
	}
	env, err := ip.callEnv(c)
	if err != nil {
		return value.Null(), err
	}
	return ip.expression(body, c.This, env, true), nil
}
