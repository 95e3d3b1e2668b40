// Package jsconfig reads the exported configuration object out of a
// JavaScript or TypeScript config module without evaluating it.
//
// The module is parsed with tree-sitter and the exported object literal is
// converted into a literal.Value tree. Anything that is not a plain literal
// (require() calls, plugin functions, arbitrary expressions) is kept as a
// KindExpr value holding its source text.
package jsconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/twtheme/pkg/literal"
	"github.com/gnana997/twtheme/pkg/parser"
)

var (
	// ErrSyntax reports that the module does not parse.
	ErrSyntax = errors.New("syntax error")
	// ErrNoExport reports that no exported object literal was found.
	ErrNoExport = errors.New("no exported config object")
)

// maxResolveDepth bounds identifier chasing (const a = b; const b = {...}).
const maxResolveDepth = 8

// Extract parses source as lang and returns the exported config object.
//
// Recognized export forms:
//
//	module.exports = {...}
//	export default {...}
//	export default {...} satisfies Config   (and "as Config")
//	export default defineConfig({...})
//	const config = {...}; module.exports = config
func Extract(pm *parser.ParserManager, source []byte, lang parser.Language) (*literal.Value, error) {
	tree, err := pm.Parse(source, lang)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			return nil, fmt.Errorf("%w at %s", ErrSyntax, position(bad))
		}
		return nil, ErrSyntax
	}

	x := &extractor{
		source:   source,
		bindings: collectBindings(root, source),
	}

	exported := findExport(root, source)
	if exported == nil {
		return nil, ErrNoExport
	}

	obj := x.unwrap(exported, 0)
	if obj == nil || obj.Kind() != "object" {
		return nil, fmt.Errorf("%w: export at %s is not an object literal", ErrNoExport, position(exported))
	}

	return x.convert(obj, 0)
}

type extractor struct {
	source   []byte
	bindings map[string]*ts.Node // top-level const/let/var name -> initializer
}

// findExport locates the expression assigned to module.exports or used as
// the default export. The last one wins, matching module evaluation order.
func findExport(root *ts.Node, source []byte) *ts.Node {
	var found *ts.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "expression_statement":
			expr := stmt.NamedChild(0)
			if expr == nil || expr.Kind() != "assignment_expression" {
				continue
			}
			left := expr.ChildByFieldName("left")
			if left != nil && left.Utf8Text(source) == "module.exports" {
				found = expr.ChildByFieldName("right")
			}
		case "export_statement":
			if !hasDefaultKeyword(stmt) {
				continue
			}
			if value := stmt.ChildByFieldName("value"); value != nil {
				found = value
				continue
			}
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				found = decl
			}
		}
	}
	return found
}

func hasDefaultKeyword(stmt *ts.Node) bool {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		if stmt.Child(i).Kind() == "default" {
			return true
		}
	}
	return false
}

// collectBindings records top-level variable initializers so identifiers in
// the export can be followed back to their object literals.
func collectBindings(root *ts.Node, source []byte) map[string]*ts.Node {
	bindings := make(map[string]*ts.Node)
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				stmt = decl
			}
		}
		if stmt.Kind() != "lexical_declaration" && stmt.Kind() != "variable_declaration" {
			continue
		}
		for j := uint(0); j < stmt.NamedChildCount(); j++ {
			decl := stmt.NamedChild(j)
			if decl.Kind() != "variable_declarator" {
				continue
			}
			name := decl.ChildByFieldName("name")
			value := decl.ChildByFieldName("value")
			if name == nil || value == nil || name.Kind() != "identifier" {
				continue
			}
			bindings[name.Utf8Text(source)] = value
		}
	}
	return bindings
}

// unwrap peels parentheses, type assertions, wrapper calls and identifiers
// until it reaches a non-wrapper node.
func (x *extractor) unwrap(node *ts.Node, depth int) *ts.Node {
	for node != nil && depth <= maxResolveDepth {
		switch node.Kind() {
		case "parenthesized_expression", "satisfies_expression", "as_expression", "non_null_expression":
			node = node.NamedChild(0)
		case "call_expression":
			args := node.ChildByFieldName("arguments")
			if args == nil || args.NamedChildCount() == 0 {
				return node
			}
			first := args.NamedChild(0)
			if inner := x.unwrap(first, depth+1); inner != nil && inner.Kind() == "object" {
				return inner
			}
			return node
		case "identifier":
			bound, ok := x.bindings[node.Utf8Text(x.source)]
			if !ok {
				return node
			}
			node = bound
			depth++
		default:
			return node
		}
	}
	return node
}

// convert turns an expression node into a literal value.
func (x *extractor) convert(node *ts.Node, depth int) (*literal.Value, error) {
	pos := position(node)

	switch node.Kind() {
	case "object":
		return x.convertObject(node, depth)

	case "array":
		v := &literal.Value{Kind: literal.KindArray, Pos: pos}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() == "comment" {
				continue
			}
			if child.Kind() == "spread_element" {
				spread, err := x.spread(child, depth, "array")
				if err != nil {
					return nil, err
				}
				v.Items = append(v.Items, spread.Items...)
				continue
			}
			item, err := x.convert(child, depth)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil

	case "string":
		return &literal.Value{Kind: literal.KindString, Text: stringContent(node, x.source), Pos: pos}, nil

	case "template_string":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if node.NamedChild(i).Kind() == "template_substitution" {
				return x.expr(node), nil
			}
		}
		text := node.Utf8Text(x.source)
		return &literal.Value{Kind: literal.KindString, Text: strings.Trim(text, "`"), Pos: pos}, nil

	case "number":
		return &literal.Value{Kind: literal.KindNumber, Text: node.Utf8Text(x.source), Pos: pos}, nil

	case "true", "false":
		return &literal.Value{Kind: literal.KindBool, Text: node.Kind(), Pos: pos}, nil

	case "null", "undefined":
		return &literal.Value{Kind: literal.KindNull, Pos: pos}, nil

	case "parenthesized_expression", "satisfies_expression", "as_expression", "identifier":
		if depth >= maxResolveDepth {
			return x.expr(node), nil
		}
		inner := x.unwrap(node, depth)
		if inner == nil || inner == node || inner.Kind() == "identifier" || inner.Kind() == "call_expression" {
			return x.expr(node), nil
		}
		return x.convert(inner, depth+1)
	}

	return x.expr(node), nil
}

func (x *extractor) convertObject(node *ts.Node, depth int) (*literal.Value, error) {
	v := &literal.Value{Kind: literal.KindObject, Pos: position(node)}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "comment":
			continue

		case "pair":
			keyNode := child.ChildByFieldName("key")
			valueNode := child.ChildByFieldName("value")
			if keyNode == nil || valueNode == nil {
				continue
			}
			key, err := x.propertyKey(keyNode)
			if err != nil {
				return nil, err
			}
			value, err := x.convert(valueNode, depth)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			v.Fields = append(v.Fields, literal.Field{Key: key, Value: value})

		case "shorthand_property_identifier":
			name := child.Utf8Text(x.source)
			value, err := x.convert(child, depth)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			// shorthand_property_identifier is not an identifier node, so
			// resolve the binding explicitly.
			if bound, ok := x.bindings[name]; ok && depth < maxResolveDepth {
				if value, err = x.convert(bound, depth+1); err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
			}
			v.Fields = append(v.Fields, literal.Field{Key: name, Value: value})

		case "method_definition":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			v.Fields = append(v.Fields, literal.Field{Key: nameNode.Utf8Text(x.source), Value: x.expr(child)})

		case "spread_element":
			spread, err := x.spread(child, depth, "object")
			if err != nil {
				return nil, err
			}
			v.Fields = append(v.Fields, spread.Fields...)

		default:
			return nil, fmt.Errorf("unsupported object member %q at %s", child.Kind(), position(child))
		}
	}

	return v, nil
}

// spread resolves "...name" to the literal it refers to. Spreading anything
// that cannot be resolved statically is an error, since the resulting keys
// are unknowable.
func (x *extractor) spread(node *ts.Node, depth int, want string) (*literal.Value, error) {
	arg := node.NamedChild(0)
	if arg == nil {
		return nil, fmt.Errorf("empty spread at %s", position(node))
	}
	target := x.unwrap(arg, depth)
	if target == nil || target.Kind() != want {
		return nil, fmt.Errorf("cannot resolve spread %q at %s", node.Utf8Text(x.source), position(node))
	}
	return x.convert(target, depth+1)
}

func (x *extractor) propertyKey(node *ts.Node) (string, error) {
	switch node.Kind() {
	case "property_identifier", "number", "private_property_identifier":
		return node.Utf8Text(x.source), nil
	case "string":
		return stringContent(node, x.source), nil
	default:
		return "", fmt.Errorf("unsupported property key %q at %s", node.Utf8Text(x.source), position(node))
	}
}

func (x *extractor) expr(node *ts.Node) *literal.Value {
	return &literal.Value{Kind: literal.KindExpr, Text: node.Utf8Text(x.source), Pos: position(node)}
}

// stringContent returns the decoded content of a string node.
func stringContent(node *ts.Node, source []byte) string {
	var b strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		part := node.NamedChild(i)
		text := part.Utf8Text(source)
		switch part.Kind() {
		case "string_fragment":
			b.WriteString(text)
		case "escape_sequence":
			b.WriteString(decodeEscape(text))
		}
	}
	return b.String()
}

func decodeEscape(seq string) string {
	switch seq {
	case `\'`:
		return "'"
	case `\"`:
		return `"`
	}
	if s, err := strconv.Unquote(`"` + seq + `"`); err == nil {
		return s
	}
	return strings.TrimPrefix(seq, `\`)
}

func firstErrorNode(node *ts.Node) *ts.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstErrorNode(child); bad != nil {
			return bad
		}
	}
	return nil
}

func position(node *ts.Node) literal.Position {
	p := node.StartPosition()
	return literal.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
