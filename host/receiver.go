package host

import (
	"sort"
	"sync"

	"github.com/LingHeChen/nodescript/value"
)

// Receiver is the object a call is evaluated against ("this")
type Receiver interface {
	ReceiverName() string
	// SubReceiver returns the named child, or nil when it is absent
	SubReceiver(name string) Receiver
}

// VarHolder is implemented by receivers that keep their own variables
type VarHolder interface {
	Var(name string) (value.Value, bool)
	SetVar(name string, v value.Value)
}

// Component names one of the fixed sub-receiver slots of an Entity
type Component uint8

const (
	Player Component = iota
	Camera
	Dialog
	Inventory
	HUD

	componentCount
)

var componentNames = [componentCount]string{
	Player:    "Player",
	Camera:    "Camera",
	Dialog:    "Dialog",
	Inventory: "Inventory",
	HUD:       "HUD",
}

func (c Component) String() string {
	if c < componentCount {
		return componentNames[c]
	}
	return "Component(?)"
}

// ParseComponent matches a path segment against the fixed component names
func ParseComponent(name string) (Component, bool) {
	switch name {
	case "Player":
		return Player, true
	case "Camera":
		return Camera, true
	case "Dialog":
		return Dialog, true
	case "Inventory":
		return Inventory, true
	case "HUD":
		return HUD, true
	}
	return 0, false
}

// ---------------------------------------------------------
// Entity
// ---------------------------------------------------------

// Entity is a receiver with fixed component slots and local variables
type Entity struct {
	name string

	mu    sync.RWMutex
	parts [componentCount]*Entity
	vars  map[string]value.Value
}

// NewEntity creates an entity with no components attached
func NewEntity(name string) *Entity {
	return &Entity{name: name, vars: make(map[string]value.Value)}
}

func (e *Entity) ReceiverName() string { return e.name }

// SubReceiver resolves a component name to the attached child
func (e *Entity) SubReceiver(name string) Receiver {
	c, ok := ParseComponent(name)
	if !ok {
		return nil
	}
	child := e.Component(c)
	if child == nil {
		return nil
	}
	return child
}

// Attach installs child in slot c and returns the child
func (e *Entity) Attach(c Component, child *Entity) *Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parts[c] = child
	return child
}

// Detach empties slot c
func (e *Entity) Detach(c Component) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parts[c] = nil
}

// Component returns the child in slot c, or nil
func (e *Entity) Component(c Component) *Entity {
	if c >= componentCount {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parts[c]
}

func (e *Entity) Var(name string) (value.Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

func (e *Entity) SetVar(name string, v value.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = v
}

// ---------------------------------------------------------
// World
// ---------------------------------------------------------

type domain struct {
	root   Receiver
	active bool
}

// World is a Directory of named domains that can be switched on and off
type World struct {
	mu      sync.RWMutex
	domains map[string]*domain
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{domains: make(map[string]*domain)}
}

// Register adds or replaces a domain; it starts active
func (w *World) Register(name string, root Receiver) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.domains[name] = &domain{root: root, active: true}
}

// SetActive toggles a registered domain. Unknown names are ignored.
func (w *World) SetActive(name string, active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.domains[name]; ok {
		d.active = active
	}
}

// Domain implements Directory
func (w *World) Domain(name string) (Receiver, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.domains[name]
	if !ok || !d.active || d.root == nil {
		return nil, false
	}
	return d.root, true
}

// Names lists registered domains, active or not
func (w *World) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.domains))
	for name := range w.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
