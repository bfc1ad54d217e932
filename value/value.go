// Package value defines the JSON-shaped values that serve as data, as
// executable nodes and as runtime results of the interpreter.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which member of the tagged union a Value holds
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a null, bool, number, string, array or ordered object.
// The zero Value is null. Values are treated as immutable once built.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

// ---------------------------------------------------------
// Constructors
// ---------------------------------------------------------

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an int as a number
func Int(n int) Value { return Number(float64(n)) }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a list of values
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Obj wraps an object. A nil object becomes an empty one.
func Obj(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// ---------------------------------------------------------
// Accessors
// ---------------------------------------------------------

// Kind reports the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsArray reports whether v is an array
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsObject reports whether v is an object
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsString reports whether v is a string
func (v Value) IsString() bool { return v.kind == KindString }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Field reads a key of an object value. Non-objects have no fields.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	return v.obj.Get(key)
}

// Index reads an element of an array value
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null(), false
	}
	return v.arr[i], true
}

// Len is the element count of arrays and objects, and the rune count of strings
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	case KindString:
		return len([]rune(v.s))
	}
	return 0
}

// Param reads an argument from a params value: by position when params is an
// array, by key otherwise. A null element counts as missing.
func Param(params Value, index int, key string) (Value, bool) {
	var (
		v  Value
		ok bool
	)
	if params.kind == KindArray {
		v, ok = params.Index(index)
	} else {
		v, ok = params.Field(key)
	}
	if !ok || v.IsNull() {
		return Null(), false
	}
	return v, true
}

// ---------------------------------------------------------
// Conversions
// ---------------------------------------------------------

// ToNumber converts numbers, numeric strings and bools to float64
func (v Value) ToNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Truthy converts a value to a boolean: false, null, 0, "", "false" and
// empty containers are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != "" && !strings.EqualFold(v.s, "false")
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj.Len() > 0
	}
	return false
}

// Text renders a value for display: strings are returned raw, integral
// numbers without a fraction, containers as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	}
	return v.String()
}

// String is the compact JSON form, used in log messages
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(data)
}

// FormatNumber prints integral values without a decimal point
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Equal is deep structural equality. Object key order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for _, k := range v.obj.keys {
			ov, ok := o.obj.Get(k)
			if !ok || !v.obj.vals[k].Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}
