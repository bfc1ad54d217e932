package eval

import (
	"sort"
	"sync"

	"github.com/LingHeChen/nodescript/value"
)

// ConditionFunc implements a built-in condition
type ConditionFunc func(c *Call) (bool, error)

// StatementFunc implements a built-in statement
type StatementFunc func(c *Call) error

// ExpressionFunc implements a built-in expression
type ExpressionFunc func(c *Call) (value.Value, error)

// Form selects one of the three evaluation modes
type Form int

const (
	FormCondition Form = iota
	FormStatement
	FormExpression
)

func (f Form) String() string {
	switch f {
	case FormStatement:
		return "statement"
	case FormExpression:
		return "expression"
	}
	return "condition"
}

type builtinTable struct {
	conditions  map[string]ConditionFunc
	statements  map[string]StatementFunc
	expressions map[string]ExpressionFunc
}

var (
	builtins     *builtinTable
	builtinsOnce sync.Once
)

func table() *builtinTable {
	builtinsOnce.Do(func() {
		t := &builtinTable{
			conditions:  make(map[string]ConditionFunc),
			statements:  make(map[string]StatementFunc),
			expressions: make(map[string]ExpressionFunc),
		}
		registerLogic(t)
		registerStrings(t)
		registerControl(t)
		registerHost(t)
		registerMath(t)
		builtins = t
	})
	return builtins
}

func (t *builtinTable) condition(name string, fn ConditionFunc) {
	t.conditions[name] = fn
}

func (t *builtinTable) statement(name string, fn StatementFunc) {
	t.statements[name] = fn
}

func (t *builtinTable) expression(name string, fn ExpressionFunc) {
	t.expressions[name] = fn
}

func isBuiltinStatement(name string) bool {
	_, ok := table().statements[name]
	return ok
}

// BuiltinNames lists the built-in names of one form, sorted
func BuiltinNames(form Form) []string {
	t := table()
	var names []string
	switch form {
	case FormCondition:
		for name := range t.conditions {
			names = append(names, name)
		}
	case FormStatement:
		for name := range t.statements {
			names = append(names, name)
		}
	case FormExpression:
		for name := range t.expressions {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------
// Dispatch: built-ins first, then the user catalog
// ---------------------------------------------------------

func (ip *Interpreter) dispatchCondition(c *Call) (bool, bool, error) {
	if fn, ok := table().conditions[c.Name]; ok {
		result, err := fn(c)
		return result, true, err
	}
	if entry, ok := ip.users.Lookup(c.Name); ok {
		result, err := ip.userCondition(entry, c)
		return result, true, err
	}
	return false, false, nil
}

func (ip *Interpreter) dispatchStatement(c *Call) (bool, error) {
	if fn, ok := table().statements[c.Name]; ok {
		return true, fn(c)
	}
	if entry, ok := ip.users.Lookup(c.Name); ok {
		return true, ip.userStatement(entry, c)
	}
	return false, nil
}

func (ip *Interpreter) dispatchExpression(c *Call) (value.Value, bool, error) {
	if fn, ok := table().expressions[c.Name]; ok {
		v, err := fn(c)
		return v, true, err
	}
	if entry, ok := ip.users.Lookup(c.Name); ok {
		v, err := ip.userExpression(entry, c)
		return v, true, err
	}
	return value.Null(), false, nil
}
