package theme

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnana997/twtheme/pkg/content"
	"github.com/gnana997/twtheme/pkg/literal"
)

// Mode selects a presentation variant.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Modes lists the modes every mode-dependent token must define.
var Modes = []Mode{ModeLight, ModeDark}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLight, ModeDark:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (must be light or dark)", ErrModeNotDefined, s)
	}
}

// DarkModeStrategy selects how dark variants are activated.
type DarkModeStrategy string

const (
	// DarkModeMedia follows the prefers-color-scheme media query.
	DarkModeMedia DarkModeStrategy = "media"
	// DarkModeClass activates dark variants under a class selector.
	DarkModeClass DarkModeStrategy = "class"
	// DarkModeSelector is the newer spelling of the class strategy.
	DarkModeSelector DarkModeStrategy = "selector"
)

// DefaultDarkSelector is the selector used by the class and selector
// strategies when the declaration does not name one.
const DefaultDarkSelector = ".dark"

var validStrategies = map[DarkModeStrategy]bool{
	DarkModeMedia:    true,
	DarkModeClass:    true,
	DarkModeSelector: true,
}

// DarkMode is the resolved darkMode declaration.
type DarkMode struct {
	Strategy DarkModeStrategy `json:"strategy"`
	// Selector is empty for the media strategy.
	Selector string `json:"selector,omitempty"`
}

// ColorValue is either a single literal used by every mode, or a light/dark
// pair. Exactly one of the two shapes is populated in a valid value.
type ColorValue struct {
	Literal string `json:"literal,omitempty"`
	Light   string `json:"light,omitempty"`
	Dark    string `json:"dark,omitempty"`
}

// IsModeDependent reports whether the value varies by mode.
func (v ColorValue) IsModeDependent() bool {
	return v.Literal == ""
}

// ColorToken is one flattened color token. Nested declaration keys join
// with "-" (accent.soft becomes accent-soft); a DEFAULT key names its parent.
type ColorToken struct {
	Name  string           `json:"name"`
	Path  []string         `json:"path"`
	Value ColorValue       `json:"value"`
	Pos   literal.Position `json:"-"`
}

// Document is the loaded theme configuration. It is immutable once
// returned by a loader or by New and may be shared between goroutines.
//
// Build documents with New or a Loader: they validate the input and index
// it. A Document assembled as a struct literal still answers queries, but
// token lookups scan Colors and glob matches are not cached.
type Document struct {
	Content  []string         `json:"content"`
	DarkMode DarkMode         `json:"darkMode"`
	Colors   []ColorToken     `json:"colors"`
	Plugins  []*literal.Value `json:"-"`

	// Unrecognized lists top-level keys the loader did not interpret.
	Unrecognized []string `json:"unrecognized,omitempty"`

	// Source is the file the document was loaded from, if any.
	Source string `json:"source,omitempty"`
	Format Format `json:"format,omitempty"`

	index   map[string]int
	matcher *content.Matcher
}

// Dir is the directory content globs are anchored at: the declaration's
// directory, or "" when the document did not come from a file.
func (d *Document) Dir() string {
	if d.Source == "" {
		return ""
	}
	return filepath.Dir(d.Source)
}

// New validates doc and returns a ready-to-query copy of it.
func New(doc Document) (*Document, error) {
	return newDocument(doc, 0)
}

func newDocument(doc Document, matchCacheSize int) (*Document, error) {
	if errs := doc.Validate(); len(errs) > 0 {
		return nil, malformed(errs)
	}

	d := doc
	d.Content = append([]string(nil), doc.Content...)
	d.Colors = append([]ColorToken(nil), doc.Colors...)
	d.Plugins = append([]*literal.Value{}, doc.Plugins...)

	d.index = make(map[string]int, len(d.Colors))
	for i, tok := range d.Colors {
		d.index[tok.Name] = i
	}

	matcher, err := content.NewMatcher(d.Content, content.MatcherConfig{
		Base:      d.Dir(),
		CacheSize: matchCacheSize,
	})
	if err != nil {
		return nil, malformed([]error{err})
	}
	d.matcher = matcher

	return &d, nil
}
