package literal

import (
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a source holds no value at all.
var ErrEmptyDocument = errors.New("document is empty")

// ParseYAML decodes a YAML document into a Value tree, keeping mapping order
// and line numbers.
func ParseYAML(data []byte) (*Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	return FromYAMLNode(&doc)
}

// ParseJSONC decodes JSON with // and /* */ comments and trailing commas.
// The comments are blanked out in place, so line numbers still match the
// original source. JSON is a YAML subset, which lets the YAML decoder keep
// key order.
func ParseJSONC(data []byte) (*Value, error) {
	stripped := jsonc.ToJSON(data)
	var doc yaml.Node
	if err := yaml.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	return FromYAMLNode(&doc)
}

// FromYAMLNode converts a yaml.v3 node into a Value tree.
func FromYAMLNode(n *yaml.Node) (*Value, error) {
	return fromYAML(n, 0)
}

// maxAliasDepth bounds alias expansion so self-referencing anchors cannot loop.
const maxAliasDepth = 32

func fromYAML(n *yaml.Node, depth int) (*Value, error) {
	if n == nil {
		return &Value{Kind: KindNull}, nil
	}
	pos := Position{Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		return fromYAML(n.Content[0], depth)

	case yaml.AliasNode:
		if depth >= maxAliasDepth {
			return nil, fmt.Errorf("line %d: alias nesting too deep", n.Line)
		}
		return fromYAML(n.Alias, depth+1)

	case yaml.MappingNode:
		v := &Value{Kind: KindObject, Pos: pos}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			// Merge keys ("<<: *base") splice the referenced mapping in
			// front, so explicit keys in this mapping always win.
			if keyNode.ShortTag() == "!!merge" {
				merged, err := fromYAML(valNode, depth+1)
				if err != nil {
					return nil, err
				}
				if merged.Kind == KindObject {
					v.Fields = append(append([]Field{}, merged.Fields...), v.Fields...)
				}
				continue
			}
			child, err := fromYAML(valNode, depth)
			if err != nil {
				return nil, err
			}
			// Block collections start on the line after their key; report
			// them at the key instead.
			if child.Pos.Line > keyNode.Line {
				child.Pos = Position{Line: keyNode.Line, Column: keyNode.Column}
			}
			v.Fields = append(v.Fields, Field{Key: keyNode.Value, Value: child})
		}
		return v, nil

	case yaml.SequenceNode:
		v := &Value{Kind: KindArray, Pos: pos}
		for _, item := range n.Content {
			child, err := fromYAML(item, depth)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, child)
		}
		return v, nil

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return &Value{Kind: KindNull, Pos: pos}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return &Value{Kind: KindBool, Text: fmt.Sprintf("%t", b), Pos: pos}, nil
		case "!!int", "!!float":
			return &Value{Kind: KindNumber, Text: n.Value, Pos: pos}, nil
		default:
			return &Value{Kind: KindString, Text: n.Value, Pos: pos}, nil
		}
	}

	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
