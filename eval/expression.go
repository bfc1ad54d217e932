package eval

import (
	"log/slog"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/subst"
	"github.com/LingHeChen/nodescript/value"
)

func (ip *Interpreter) expression(node value.Value, this host.Receiver, env *Env, checkSource bool) value.Value {
	switch node.Kind() {
	case value.KindString:
		return ip.stringExpression(node, this, env)
	case value.KindObject:
		return ip.objectExpression(node, this, env, checkSource)
	}
	// arrays are literal data; scalars evaluate to themselves
	return node
}

// stringExpression expands a string node. Host lookups made by the
// expansion fail like any dispatch: the node comes back unchanged.
func (ip *Interpreter) stringExpression(node value.Value, this host.Receiver, env *Env) (out value.Value) {
	defer func() {
		if r := recover(); r != nil {
			ip.fault("expression", node, r, true)
			out = node
		}
	}()
	s, _ := node.AsString()
	return ip.expandString(s, this, env)
}

// expandString resolves a string in expression position. A name bound in
// the environment is followed, through chains of string aliases, to the
// value it stands for. Otherwise the string is localized when it has the
// loc:<key> shape and template substitution is applied.
func (ip *Interpreter) expandString(s string, this host.Receiver, env *Env) value.Value {
	seen := make(map[string]bool)
	for !seen[s] {
		v, ok := env.Get(s)
		if !ok {
			break
		}
		seen[s] = true
		next, isStr := v.AsString()
		if !isStr {
			return ip.expression(v, this, env, true)
		}
		s = next
	}

	r := &resolver{ip: ip, this: this, env: env}
	if key, ok := subst.LocalizationKey(s); ok && ip.host.Localizer != nil {
		if text, found := ip.host.Localizer.Localize(key); found {
			return value.String(subst.Expand(text, r))
		}
		ip.logger.Debug("missing localization", slog.String("key", key))
	}
	return value.String(subst.Expand(s, r))
}

func (ip *Interpreter) objectExpression(node value.Value, this host.Receiver, env *Env, checkSource bool) (out value.Value) {
	defer func() {
		if r := recover(); r != nil {
			ip.fault("expression", node, r, true)
			out = node
		}
	}()

	if checkSource {
		if remote, target, ok := ip.redirect(node, this, env); ok {
			return remote.expression(node, target, env, false)
		}
	}

	name, params := nameAndParams(node)
	if name == "" {
		return node
	}
	c := &Call{Name: name, Node: node, Params: params, This: this, Env: env, ip: ip}
	v, found, err := ip.dispatchExpression(c)
	if err != nil {
		ip.fail("expression", node, err)
		if ip.strict {
			panic(scriptPanic{err})
		}
		return node
	}
	if !found {
		return node
	}
	return v
}
