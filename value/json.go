package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// ParseJSON decodes JSON into a Value, keeping object key order
func ParseJSON(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Null(), fmt.Errorf("empty JSON document")
	}

	switch trimmed[0] {
	case '{':
		om := orderedmap.New()
		if err := json.Unmarshal(trimmed, om); err != nil {
			return Null(), fmt.Errorf("invalid JSON object: %w", err)
		}
		return From(om), nil
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return Null(), fmt.Errorf("invalid JSON array: %w", err)
		}
		items := make([]Value, len(raws))
		for i, raw := range raws {
			item, err := ParseJSON(raw)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Array(items...), nil
	}

	var scalar any
	if err := json.Unmarshal(trimmed, &scalar); err != nil {
		return Null(), fmt.Errorf("invalid JSON value: %w", err)
	}
	return From(scalar), nil
}

// MustParseJSON is ParseJSON for literals known to be valid
func MustParseJSON(src string) Value {
	v, err := ParseJSON([]byte(src))
	if err != nil {
		panic(err)
	}
	return v
}

// Parse decodes a document by file extension: .yaml/.yml as YAML, anything
// else as JSON.
func Parse(name string, data []byte) (Value, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// MarshalJSON encodes the value with object keys in insertion order
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.toAny()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON lets Values sit inside structs decoded with encoding/json
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Indent renders the value as indented JSON
func (v Value) Indent() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return v.String()
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}

func (v Value) toAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.toAny()
		}
		return items
	case KindObject:
		om := orderedmap.New()
		om.SetEscapeHTML(false)
		for _, k := range v.obj.keys {
			om.Set(k, v.obj.vals[k].toAny())
		}
		return om
	}
	return nil
}

// fromOrdered handles the map types produced by orderedmap decoding.
// Nested objects come back as OrderedMap values, the root as a pointer.
func fromOrdered(x any) Value {
	switch t := x.(type) {
	case *orderedmap.OrderedMap:
		if t == nil {
			return Null()
		}
		o := NewObject()
		values := t.Values()
		for _, k := range t.Keys() {
			o.Set(k, From(values[k]))
		}
		return Obj(o)
	case orderedmap.OrderedMap:
		return fromOrdered(&t)
	}
	return Null()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
