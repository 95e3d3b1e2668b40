// Package literal provides an ordered, source-positioned value tree that every
// declaration format (JavaScript/TypeScript object literals, JSONC, YAML)
// decodes into before the theme loader interprets it.
package literal

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	// KindNull is a null/undefined literal.
	KindNull Kind = iota
	// KindString is a string literal. Text holds the unquoted content.
	KindString
	// KindNumber is a numeric literal. Text holds the source digits.
	KindNumber
	// KindBool is true or false. Text holds "true" or "false".
	KindBool
	// KindArray is an ordered list. Items holds the elements.
	KindArray
	// KindObject is an ordered key/value map. Fields holds the entries.
	KindObject
	// KindExpr is any expression that is not a plain literal (function calls,
	// require(), identifiers). Text holds the raw source.
	KindExpr
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindExpr:
		return "expression"
	default:
		return "unknown"
	}
}

// Position is a 1-based source location. The zero value means unknown.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position points into a source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats the position as "line N".
func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	return fmt.Sprintf("line %d", p.Line)
}

// Field is one entry of an object, in declaration order.
type Field struct {
	Key   string
	Value *Value
}

// Value is a node of the literal tree.
type Value struct {
	Kind   Kind
	Text   string
	Items  []*Value
	Fields []Field
	Pos    Position
}

// String builds a string value.
func String(s string) *Value {
	return &Value{Kind: KindString, Text: s}
}

// Object builds an object value from ordered fields.
func Object(fields ...Field) *Value {
	return &Value{Kind: KindObject, Fields: fields}
}

// Array builds an array value.
func Array(items ...*Value) *Value {
	return &Value{Kind: KindArray, Items: items}
}

// Get returns the value stored under key. Later duplicates win, the same way
// an object literal evaluates.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Kind != KindObject {
		return nil, false
	}
	for i := len(v.Fields) - 1; i >= 0; i-- {
		if v.Fields[i].Key == key {
			return v.Fields[i].Value, true
		}
	}
	return nil, false
}

// Keys returns the object keys in declaration order, without duplicates.
func (v *Value) Keys() []string {
	if v == nil || v.Kind != KindObject {
		return nil
	}
	seen := make(map[string]bool, len(v.Fields))
	keys := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		keys = append(keys, f.Key)
	}
	return keys
}

// Source renders the value back as compact JavaScript-ish text. Expressions
// are rendered verbatim.
func (v *Value) Source() string {
	var b strings.Builder
	v.writeSource(&b)
	return b.String()
}

func (v *Value) writeSource(b *strings.Builder) {
	if v == nil {
		b.WriteString("undefined")
		return
	}
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindString:
		b.WriteString(fmt.Sprintf("%q", v.Text))
	case KindNumber, KindBool, KindExpr:
		b.WriteString(v.Text)
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeSource(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%q: ", f.Key))
			f.Value.writeSource(b)
		}
		b.WriteByte('}')
	}
}
