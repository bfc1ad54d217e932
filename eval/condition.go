package eval

import (
	"log/slog"
	"strings"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

func (ip *Interpreter) condition(node value.Value, this host.Receiver, env *Env, checkSource bool) bool {
	switch node.Kind() {
	case value.KindNull:
		return true
	case value.KindBool:
		b, _ := node.AsBool()
		return b
	case value.KindArray:
		items, _ := node.AsArray()
		return ip.conditionChain(items, this, env)
	case value.KindString, value.KindObject:
		return ip.singleCondition(node, this, env, checkSource)
	}
	return false
}

// conditionChain ANDs the elements of an array. An escape element (a nested
// array, or an object with "otherwise": true) is an else-if branch: it is
// skipped when everything before it held, and otherwise decides the result.
func (ip *Interpreter) conditionChain(items []value.Value, this host.Receiver, env *Env) bool {
	result := true
	for _, item := range items {
		if isEscape(item) {
			if !result {
				result = ip.condition(item, this, env, true)
			}
			continue
		}
		if !ip.condition(item, this, env, true) {
			result = false
		}
	}
	return result
}

func isEscape(item value.Value) bool {
	if item.IsArray() {
		return true
	}
	otherwise, _ := item.Field("otherwise")
	b, _ := otherwise.AsBool()
	return b
}

func (ip *Interpreter) singleCondition(node value.Value, this host.Receiver, env *Env, checkSource bool) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			ip.fault("condition", node, r, false)
			result = false
		}
	}()

	if checkSource && node.IsObject() {
		if remote, target, ok := ip.redirect(node, this, env); ok {
			return remote.condition(node, target, env, false)
		}
	}
	ip.runFunc(node, this, env)

	name, params := nameAndParams(node)
	negate := false
	for strings.HasPrefix(name, "!") {
		name = name[1:]
		negate = !negate
	}
	if not, ok := node.Field("not"); ok {
		if b, _ := not.AsBool(); b {
			negate = true
		}
	}
	if name == "" {
		// a literal condition: {"value": <condition>}
		if v, ok := node.Field("value"); ok {
			return ip.condition(v, this, env, true) != negate
		}
		return false
	}

	c := &Call{Name: name, Node: node, Params: params, This: this, Env: env, ip: ip}
	ok, found, err := ip.dispatchCondition(c)
	if err != nil {
		ip.fail("condition", node, err)
		return false
	}
	if !found {
		ip.logger.Debug("unknown condition", slog.String("name", name))
		return false
	}
	return ok != negate
}
