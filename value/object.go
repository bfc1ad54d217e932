package value

// Object is a string-keyed map that remembers insertion order
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject creates an empty object
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// ObjectOf builds an object from alternating key/value pairs
func ObjectOf(pairs ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		o.Set(key, From(pairs[i+1]))
	}
	return o
}

// Get looks up a key
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set assigns key. New keys are appended; existing keys keep their position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key if present
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len is the number of keys
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone copies the key list and map; member values are shared
func (o *Object) Clone() *Object {
	c := &Object{
		keys: make([]string, len(o.keys)),
		vals: make(map[string]Value, len(o.vals)),
	}
	copy(c.keys, o.keys)
	for k, v := range o.vals {
		c.vals[k] = v
	}
	return c
}

// Without returns a copy of the object minus key
func (o *Object) Without(key string) *Object {
	c := o.Clone()
	c.Delete(key)
	return c
}

// ---------------------------------------------------------
// Go value conversion
// ---------------------------------------------------------

// From converts plain Go values (as produced by encoding/json, yaml or
// literals in tests) into a Value. Unsupported types become null.
func From(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Object:
		return Obj(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case []Value:
		return Array(t...)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = From(item)
		}
		return Array(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return Array(items...)
	case map[string]any:
		// plain maps carry no order; sort keys so output is stable
		o := NewObject()
		for _, k := range sortedKeys(t) {
			o.Set(k, From(t[k]))
		}
		return Obj(o)
	}
	return fromOrdered(x)
}
