package theme

import (
	"fmt"
	"strings"

	"github.com/gnana997/twtheme/pkg/literal"
)

// Top-level keys the decoder interprets. Everything else is recorded in
// Document.Unrecognized.
var knownKeys = map[string]bool{
	"content":  true,
	"darkMode": true,
	"theme":    true,
	"plugins":  true,
}

// decoder turns a literal tree into a Document, collecting shape problems
// instead of stopping at the first one.
type decoder struct {
	errs []error

	// Sections whose problems were already reported with positions.
	darkModeFailed bool
	themeFailed    bool
}

func (dec *decoder) addf(pos literal.Position, where, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if pos.IsValid() {
		dec.errs = append(dec.errs, fmt.Errorf("%s (%s): %s", where, pos, msg))
		return
	}
	dec.errs = append(dec.errs, fmt.Errorf("%s: %s", where, msg))
}

// decode interprets root. The returned document has not been validated.
func decode(root *literal.Value) (Document, *decoder) {
	dec := &decoder{}
	var doc Document

	if root == nil || root.Kind != literal.KindObject {
		kind := "nothing"
		if root != nil {
			kind = root.Kind.String()
		}
		dec.addf(literal.Position{}, "config", "must be an object, got %s", kind)
		dec.darkModeFailed, dec.themeFailed = true, true
		return doc, dec
	}

	for _, key := range root.Keys() {
		if !knownKeys[key] {
			doc.Unrecognized = append(doc.Unrecognized, key)
		}
	}

	if v, ok := root.Get("content"); ok {
		doc.Content = dec.content(v)
	} else {
		dec.addf(root.Pos, "config", "content is required")
	}

	if v, ok := root.Get("darkMode"); ok {
		before := len(dec.errs)
		doc.DarkMode = dec.darkMode(v)
		dec.darkModeFailed = len(dec.errs) > before
	} else {
		dec.addf(root.Pos, "config", "darkMode is required")
		dec.darkModeFailed = true
	}

	if v, ok := root.Get("theme"); ok {
		doc.Colors = dec.theme(v)
	} else {
		dec.addf(root.Pos, "config", "theme is required")
		dec.themeFailed = true
	}

	doc.Plugins = []*literal.Value{}
	if v, ok := root.Get("plugins"); ok {
		switch v.Kind {
		case literal.KindArray:
			doc.Plugins = append(doc.Plugins, v.Items...)
		case literal.KindNull:
		default:
			dec.addf(v.Pos, "plugins", "must be an array, got %s", v.Kind)
		}
	}

	return doc, dec
}

// content accepts an array of globs, or Tailwind's object form with a
// files array.
func (dec *decoder) content(v *literal.Value) []string {
	if v.Kind == literal.KindObject {
		files, ok := v.Get("files")
		if !ok {
			dec.addf(v.Pos, "content", "object form requires a files array")
			return []string{}
		}
		v = files
	}

	if v.Kind != literal.KindArray {
		dec.addf(v.Pos, "content", "must be an array of glob strings, got %s", v.Kind)
		return []string{}
	}

	globs := make([]string, 0, len(v.Items))
	for i, item := range v.Items {
		if item.Kind != literal.KindString {
			dec.addf(item.Pos, fmt.Sprintf("content[%d]", i), "must be a glob string, got %s", item.Kind)
			continue
		}
		globs = append(globs, item.Text)
	}
	return globs
}

// darkMode accepts "media", "class", "selector", or ['class', '.selector'].
func (dec *decoder) darkMode(v *literal.Value) DarkMode {
	switch v.Kind {
	case literal.KindString:
		mode := DarkMode{Strategy: DarkModeStrategy(v.Text)}
		if mode.Strategy == DarkModeClass || mode.Strategy == DarkModeSelector {
			mode.Selector = DefaultDarkSelector
		}
		if !validStrategies[mode.Strategy] {
			dec.addf(v.Pos, "darkMode", "invalid strategy %q (must be media/class/selector)", v.Text)
		}
		return mode

	case literal.KindArray:
		if len(v.Items) == 0 || len(v.Items) > 2 {
			dec.addf(v.Pos, "darkMode", "array form takes a strategy and an optional selector")
			return DarkMode{}
		}
		first := v.Items[0]
		if first.Kind != literal.KindString {
			dec.addf(first.Pos, "darkMode[0]", "must be a string, got %s", first.Kind)
			return DarkMode{}
		}
		mode := DarkMode{Strategy: DarkModeStrategy(first.Text), Selector: DefaultDarkSelector}
		if mode.Strategy != DarkModeClass && mode.Strategy != DarkModeSelector {
			dec.addf(first.Pos, "darkMode[0]", "array form requires class or selector, got %q", first.Text)
			return mode
		}
		if len(v.Items) == 2 {
			sel := v.Items[1]
			if sel.Kind != literal.KindString || strings.TrimSpace(sel.Text) == "" {
				dec.addf(sel.Pos, "darkMode[1]", "selector must be a non-empty string")
				return mode
			}
			mode.Selector = sel.Text
		}
		return mode

	default:
		dec.addf(v.Pos, "darkMode", "must be a string or [strategy, selector], got %s", v.Kind)
		return DarkMode{}
	}
}

// theme collects theme.colors and theme.extend.colors. Top-level keys in
// extend replace same-named keys of the base palette. Nested groups are not
// deep-merged as Tailwind does: extend.colors.accent replaces colors.accent whole.
func (dec *decoder) theme(v *literal.Value) []ColorToken {
	if v.Kind != literal.KindObject {
		dec.addf(v.Pos, "theme", "must be an object, got %s", v.Kind)
		dec.themeFailed = true
		return nil
	}

	var merged []literal.Field
	where := make(map[string]string)
	index := make(map[string]int)
	addGroup := func(group *literal.Value, name string) {
		if group.Kind != literal.KindObject {
			dec.addf(group.Pos, name, "must be an object, got %s", group.Kind)
			return
		}
		for _, key := range group.Keys() {
			value, _ := group.Get(key)
			if i, ok := index[key]; ok {
				merged[i].Value = value
			} else {
				index[key] = len(merged)
				merged = append(merged, literal.Field{Key: key, Value: value})
			}
			where[key] = name
		}
	}

	if colors, ok := v.Get("colors"); ok {
		addGroup(colors, "theme.colors")
	}
	if extend, ok := v.Get("extend"); ok {
		if extend.Kind != literal.KindObject {
			dec.addf(extend.Pos, "theme.extend", "must be an object, got %s", extend.Kind)
		} else if colors, ok := extend.Get("colors"); ok {
			addGroup(colors, "theme.extend.colors")
		}
	}

	var tokens []ColorToken
	for _, f := range merged {
		tokens = dec.color(tokens, f.Value, []string{f.Key}, where[f.Key])
	}
	return tokens
}

// color flattens one declared entry. An object with light or dark keys is
// a mode-dependent token; its remaining keys are nested tokens.
func (dec *decoder) color(tokens []ColorToken, v *literal.Value, path []string, group string) []ColorToken {
	tokenPath := path
	if path[len(path)-1] == "DEFAULT" {
		tokenPath = path[:len(path)-1]
	}
	label := group + "." + strings.Join(path, ".")

	if len(tokenPath) == 0 {
		dec.addf(v.Pos, label, "DEFAULT needs a parent color")
		return tokens
	}

	switch v.Kind {
	case literal.KindString:
		return append(tokens, ColorToken{
			Name:  tokenName(tokenPath),
			Path:  cloneStrings(tokenPath),
			Value: ColorValue{Literal: v.Text},
			Pos:   v.Pos,
		})

	case literal.KindObject:
		keys := v.Keys()
		if len(keys) == 0 {
			dec.addf(v.Pos, label, "empty color group")
			return tokens
		}

		light, hasLight := v.Get("light")
		dark, hasDark := v.Get("dark")
		if hasLight || hasDark {
			tok := ColorToken{
				Name: tokenName(tokenPath),
				Path: cloneStrings(tokenPath),
				Pos:  v.Pos,
			}
			if hasLight {
				tok.Value.Light = dec.modeLiteral(light, label+".light")
			}
			if hasDark {
				tok.Value.Dark = dec.modeLiteral(dark, label+".dark")
			}
			tokens = append(tokens, tok)
		}

		for _, key := range keys {
			if key == "light" || key == "dark" {
				continue
			}
			child, _ := v.Get(key)
			tokens = dec.color(tokens, child, append(cloneStrings(path), key), group)
		}
		return tokens

	default:
		dec.addf(v.Pos, label, "must be a color string or a light/dark object, got %s", v.Kind)
		return tokens
	}
}

func (dec *decoder) modeLiteral(v *literal.Value, label string) string {
	if v.Kind != literal.KindString {
		dec.addf(v.Pos, label, "must be a color string, got %s", v.Kind)
		return ""
	}
	return v.Text
}

func tokenName(path []string) string {
	return strings.Join(path, "-")
}

func cloneStrings(s []string) []string {
	return append([]string(nil), s...)
}
