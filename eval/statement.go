package eval

import (
	"log/slog"

	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

func (ip *Interpreter) statement(node value.Value, this host.Receiver, env *Env, checkSource bool) {
	switch node.Kind() {
	case value.KindArray:
		items, _ := node.AsArray()
		for _, item := range items {
			ip.statementElement(item, this, env)
		}
	case value.KindString, value.KindObject:
		ip.singleStatement(node, this, env, checkSource)
	}
}

// statementElement runs one element of a statement list. A failure while
// resolving or running it stops only that element.
func (ip *Interpreter) statementElement(item value.Value, this host.Receiver, env *Env) {
	defer func() {
		if r := recover(); r != nil {
			ip.fault("statement", item, r, true)
		}
	}()
	ip.statement(ip.statementItem(item, this, env), this, env, true)
}

// statementItem resolves one element of a statement list. Elements go
// through the expression evaluator first so that variable names and
// node-producing expressions become the statement to run. Objects naming a
// built-in statement, or a user function with a statement body, are taken
// as they are.
func (ip *Interpreter) statementItem(item value.Value, this host.Receiver, env *Env) value.Value {
	if item.IsObject() {
		name, _ := nameAndParams(item)
		if isBuiltinStatement(name) || ip.isUserStatement(name) {
			return item
		}
	}
	return ip.expression(item, this, env, true)
}

// statementFields mark a user entry as a statement body
var statementFields = []string{"func", "if_func", "sub_func", "func_reference"}

func (ip *Interpreter) isUserStatement(name string) bool {
	if name == "" {
		return false
	}
	entry, ok := ip.users.Lookup(name)
	if !ok {
		return false
	}
	for _, f := range statementFields {
		if v, ok := entry.Field(f); ok && !v.IsNull() {
			return true
		}
	}
	return false
}

func (ip *Interpreter) singleStatement(node value.Value, this host.Receiver, env *Env, checkSource bool) {
	defer func() {
		if r := recover(); r != nil {
			ip.fault("statement", node, r, true)
		}
	}()

	if node.IsObject() {
		if checkSource {
			if remote, target, ok := ip.redirect(node, this, env); ok {
				remote.statement(node, target, env, false)
				return
			}
		}
		ip.runFunc(node, this, env)

		if guard, ok := node.Field("if_func"); ok && !guard.IsNull() {
			if !ip.condition(guard, this, env, true) {
				if alt, ok := node.Field("else"); ok {
					ip.statement(alt, this, env, true)
				}
				return
			}
		}
		if sub, ok := node.Field("sub_func"); ok && !sub.IsNull() {
			ip.statement(sub, this, env, true)
			return
		}
	}

	name, params := nameAndParams(node)
	if name == "" {
		return
	}
	c := &Call{Name: name, Node: node, Params: params, This: this, Env: env, ip: ip}
	found, err := ip.dispatchStatement(c)
	if err != nil {
		ip.fail("statement", node, err)
		if ip.strict {
			panic(scriptPanic{err})
		}
		return
	}
	if !found {
		ip.logger.Debug("unknown statement", slog.String("name", name))
	}
}
