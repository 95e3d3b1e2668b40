package theme

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gnana997/twtheme/pkg/content"
)

// ResolvedColor is a token's value under one mode.
type ResolvedColor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResolveColor returns the literal token resolves to under mode.
//
// Single-literal tokens resolve to the same value in every mode. Tokens may
// be named in kebab form (accent-soft) or camelCase (accentSoft).
func (d *Document) ResolveColor(token string, mode Mode) (string, error) {
	tok, ok := d.Token(token)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}

	v := tok.Value
	if !v.IsModeDependent() {
		return v.Literal, nil
	}

	switch mode {
	case ModeLight:
		return v.Light, nil
	case ModeDark:
		return v.Dark, nil
	default:
		return "", fmt.Errorf("%w: token %q has no %q value", ErrModeNotDefined, tok.Name, mode)
	}
}

// Token looks up a token by name. A camelCase name (accentSoft) also finds
// its kebab form (accent-soft); other spellings must match exactly.
func (d *Document) Token(name string) (ColorToken, bool) {
	if tok, ok := d.lookup(name); ok {
		return tok, true
	}
	if isCamelCase(name) {
		if kebab := kebabCase(name); kebab != name {
			return d.lookup(kebab)
		}
	}
	return ColorToken{}, false
}

func (d *Document) lookup(name string) (ColorToken, bool) {
	if d.index != nil {
		if i, ok := d.index[name]; ok {
			return d.Colors[i], true
		}
		return ColorToken{}, false
	}
	for _, tok := range d.Colors {
		if tok.Name == name {
			return tok, true
		}
	}
	return ColorToken{}, false
}

// TokenNames returns every token name in declaration order.
func (d *Document) TokenNames() []string {
	names := make([]string, len(d.Colors))
	for i, tok := range d.Colors {
		names[i] = tok.Name
	}
	return names
}

// Palette resolves every token under mode, in declaration order.
func (d *Document) Palette(mode Mode) ([]ResolvedColor, error) {
	palette := make([]ResolvedColor, 0, len(d.Colors))
	for _, tok := range d.Colors {
		value, err := d.ResolveColor(tok.Name, mode)
		if err != nil {
			return nil, err
		}
		palette = append(palette, ResolvedColor{Name: tok.Name, Value: value})
	}
	return palette, nil
}

// MatchesContentGlob reports whether path is selected by the content globs.
// Relative paths are taken relative to the declaration's directory.
func (d *Document) MatchesContentGlob(path string) bool {
	m, err := d.contentMatcher()
	if err != nil {
		return false
	}
	return m.Match(path)
}

// MatchStats reports the glob answer cache usage.
func (d *Document) MatchStats() content.MatcherStats {
	if d.matcher == nil {
		return content.MatcherStats{Patterns: len(d.Content)}
	}
	return d.matcher.Stats()
}

// contentMatcher returns the matcher built by New or a loader. Documents
// assembled as struct literals get an uncached matcher per call.
func (d *Document) contentMatcher() (*content.Matcher, error) {
	if d.matcher != nil {
		return d.matcher, nil
	}
	return content.NewMatcher(d.Content, content.MatcherConfig{Base: d.Dir(), CacheSize: 1})
}

// DiscoverContent walks root and returns the files the content globs select.
// An empty root means the declaration's directory.
func (d *Document) DiscoverContent(root string) ([]string, error) {
	if root == "" {
		root = d.Dir()
	}
	if root == "" {
		return nil, fmt.Errorf("no root directory: document was not loaded from a file")
	}
	m, err := d.contentMatcher()
	if err != nil {
		return nil, err
	}
	return content.DiscoverFiles(root, m)
}

// isCamelCase reports whether name looks like a JavaScript identifier in
// camelCase: a lower-case first letter and no dashes.
func isCamelCase(name string) bool {
	if name == "" || strings.ContainsRune(name, '-') {
		return false
	}
	first := []rune(name)[0]
	return unicode.IsLower(first)
}

// kebabCase converts camelCase lookups to the declared kebab form
// (codeBg -> code-bg). Names without upper-case letters are returned as-is.
func kebabCase(name string) string {
	if strings.IndexFunc(name, unicode.IsUpper) < 0 {
		return name
	}

	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '-' && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
