package eval

import (
	"sort"

	"github.com/LingHeChen/nodescript/value"
)

// Env is the variable scope threaded through one evaluation call tree.
// There is no parent chain: a nested scope starts as an explicit Clone.
type Env struct {
	vars map[string]value.Value
	// depth counts nested user function calls
	depth int
}

// NewEnv creates an empty environment
func NewEnv() *Env {
	return &Env{vars: make(map[string]value.Value)}
}

// EnvOf creates an environment from plain Go values (see value.From)
func EnvOf(vars map[string]any) *Env {
	e := NewEnv()
	for k, v := range vars {
		e.vars[k] = value.From(v)
	}
	return e
}

// Get looks up a variable. A nil Env is empty.
func (e *Env) Get(name string) (value.Value, bool) {
	if e == nil {
		return value.Null(), false
	}
	v, ok := e.vars[name]
	return v, ok
}

// Has reports whether name is bound
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set binds name in this environment
func (e *Env) Set(name string, v value.Value) {
	e.vars[name] = v
}

// Delete unbinds name
func (e *Env) Delete(name string) {
	if e != nil {
		delete(e.vars, name)
	}
}

// Len is the number of bindings
func (e *Env) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Clone copies the bindings into a new Env. Values are immutable, so the
// copy is independent of the original.
func (e *Env) Clone() *Env {
	c := NewEnv()
	if e == nil {
		return c
	}
	c.depth = e.depth
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}

// Names lists bound names, sorted
func (e *Env) Names() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Numbers returns every binding that is a number or a numeric string
func (e *Env) Numbers() map[string]float64 {
	out := make(map[string]float64)
	if e == nil {
		return out
	}
	for k, v := range e.vars {
		switch v.Kind() {
		case value.KindNumber, value.KindString:
			if n, ok := v.ToNumber(); ok {
				out[k] = n
			}
		}
	}
	return out
}

// Value renders the environment as an object with sorted keys
func (e *Env) Value() value.Value {
	o := value.NewObject()
	for _, name := range e.Names() {
		o.Set(name, e.vars[name])
	}
	return value.Obj(o)
}
