package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Decode reads a YAML (or JSON) mapping node into Options, keeping document order.
// A missing, empty or null node decodes to an empty set, and null values are dropped.
func Decode(node *yaml.Node) (*Options, error) {
	out := &Options{}
	if node == nil {
		return out, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return out, nil
		}
		node = node.Content[0]
	}
	node = resolveAlias(node)
	switch {
	case node.Kind == 0:
		return out, nil
	case node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null":
		return out, nil
	case node.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("options must be a mapping, line %d", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], resolveAlias(node.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("option key must be a scalar, line %d", keyNode.Line)
		}
		key := keyNode.Value
		value, ok, err := decodeValue(valNode)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", key, err)
		}
		if !ok {
			continue
		}
		out.Set(key, value)
	}
	return out, nil
}

func decodeValue(n *yaml.Node) (Value, bool, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return Value{}, false, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Value{}, false, err
			}
			return BoolValue(b), true, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return Value{}, false, err
			}
			return NumberValue(f), true, nil
		default:
			return StringValue(n.Value), true, nil
		}
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.ScalarNode {
				return Value{}, false, fmt.Errorf("list items must be scalars, line %d", item.Line)
			}
			if item.ShortTag() == "!!null" {
				continue
			}
			items = append(items, item.Value)
		}
		return ListValue(items...), true, nil
	default:
		return Value{}, false, fmt.Errorf("nested objects are not supported, line %d", n.Line)
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// DecodeYAML parses YAML or JSON bytes into Options.
func DecodeYAML(data []byte) (*Options, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	return Decode(&node)
}

// DecodeTOML parses a TOML document into Options. Only top-level keys are read,
// in the order they appear in the document.
func DecodeTOML(data []byte) (*Options, error) {
	raw := make(map[string]any)
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse options: %w", err)
	}
	out := &Options{}
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		value, err := fromTOML(raw[name])
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", name, err)
		}
		out.Set(name, value)
	}
	return out, nil
}

func fromTOML(v any) (Value, error) {
	switch t := v.(type) {
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int64:
		return NumberValue(float64(t)), nil
	case float64:
		return NumberValue(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any, []map[string]any:
				return Value{}, errors.New("list items must be scalars")
			}
			items = append(items, fmt.Sprint(item))
		}
		return ListValue(items...), nil
	case map[string]any, []map[string]any:
		return Value{}, errors.New("nested objects are not supported")
	default:
		return StringValue(fmt.Sprint(t)), nil
	}
}

// LoadFile reads an options file. ".toml" files are parsed as TOML, anything else
// as YAML, which also covers JSON.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return DecodeTOML(data)
	}
	return DecodeYAML(data)
}
