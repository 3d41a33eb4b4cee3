package storage

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML builds a Value from a YAML document, keeping mapping order.
// Hand-edited memory seeds are usually written in YAML.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := fromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML emits v as an ordered YAML node.
func (v Value) MarshalYAML() (any, error) {
	return toYAMLNode(v), nil
}

// ParseYAML decodes a single YAML document.
func ParseYAML(b []byte) (Value, error) {
	var v Value
	if err := yaml.Unmarshal(b, &v); err != nil {
		return Value{}, fmt.Errorf("decoding yaml: %w", err)
	}
	return v, nil
}

func fromYAMLNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(node.Content[0])

	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, c := range node.Content {
			item, err := fromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil

	case yaml.MappingNode:
		m := Map()
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return Value{}, fmt.Errorf("line %d: mapping key: %w", node.Content[i].Line, err)
			}
			val, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.SetKey(key, val)
		}
		return m, nil

	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return Value{}, fmt.Errorf("line %d: %w", node.Line, err)
			}
			return Bool(b), nil
		case "!!int", "!!float":
			var n float64
			if err := node.Decode(&n); err != nil {
				return Value{}, fmt.Errorf("line %d: %w", node.Line, err)
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return Value{}, fmt.Errorf("line %d: number %s is not finite", node.Line, node.Value)
			}
			return Number(n), nil
		default:
			return Str(node.Value), nil
		}
	}

	return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
}

func toYAMLNode(v Value) *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1<<53 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v.n), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.n, 'g', -1, 64)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			n.Content = append(n.Content, toYAMLNode(item))
		}
		return n
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.entries {
			if e.Value.IsAbsent() {
				continue
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				toYAMLNode(e.Value))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
