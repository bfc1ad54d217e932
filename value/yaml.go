package value

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML document into a Value. Mapping order is kept by
// walking the node tree instead of decoding into Go maps.
func ParseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Null(), fmt.Errorf("invalid YAML: %w", err)
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case 0:
		// empty document
		return Null(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := fromYAML(child)
			if err != nil {
				return Null(), err
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		o := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			item, err := fromYAML(n.Content[i+1])
			if err != nil {
				return Null(), err
			}
			o.Set(key, item)
		}
		return Obj(o), nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	}
	return Null(), fmt.Errorf("line %d: unsupported YAML node kind %v", n.Line, n.Kind)
}

func scalarFromYAML(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!str", "!!timestamp", "!!binary":
		return String(n.Value), nil
	}

	var x any
	if err := n.Decode(&x); err != nil {
		return Null(), fmt.Errorf("line %d: %w", n.Line, err)
	}
	return From(x), nil
}
