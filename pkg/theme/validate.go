package theme

import (
	"fmt"
	"regexp"

	"github.com/gnana997/twtheme/pkg/content"
	"github.com/gnana997/twtheme/pkg/literal"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a #RRGGBB literal (case-insensitive).
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// Validate checks the document's invariants and returns every violation
// (empty slice if valid).
func (d *Document) Validate() []error {
	return d.validate(validateOptions{})
}

// validateOptions skips checks for sections the decoder already rejected.
type validateOptions struct {
	skipDarkMode bool
	skipEmpty    bool
}

func (d *Document) validate(opts validateOptions) []error {
	var errs []error

	for _, pattern := range d.Content {
		if err := content.ValidatePattern(pattern); err != nil {
			errs = append(errs, fmt.Errorf("content: %w", err))
		}
	}

	switch {
	case opts.skipDarkMode:
	case !validStrategies[d.DarkMode.Strategy]:
		errs = append(errs, fmt.Errorf("darkMode: invalid strategy %q (must be media/class/selector)", d.DarkMode.Strategy))
	case d.DarkMode.Strategy != DarkModeMedia && d.DarkMode.Selector == "":
		errs = append(errs, fmt.Errorf("darkMode: strategy %q requires a selector", d.DarkMode.Strategy))
	}

	if len(d.Colors) == 0 && !opts.skipEmpty {
		errs = append(errs, fmt.Errorf("theme: no colors declared (expected theme.extend.colors or theme.colors)"))
	}

	seen := make(map[string]literal.Position, len(d.Colors))
	for _, tok := range d.Colors {
		label := tokenLabel(tok)

		if tok.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
			continue
		}
		if prev, dup := seen[tok.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate token (first declared at %s)", label, orUnknown(prev)))
			continue
		}
		seen[tok.Name] = tok.Pos

		v := tok.Value
		if !v.IsModeDependent() {
			if v.Light != "" || v.Dark != "" {
				errs = append(errs, fmt.Errorf("%s: has both a single literal and mode values", label))
			}
			if !IsHexColor(v.Literal) {
				errs = append(errs, fmt.Errorf("%s: %q is not a #RRGGBB color", label, v.Literal))
			}
			continue
		}

		switch {
		case v.Light == "" && v.Dark == "":
			errs = append(errs, fmt.Errorf("%s: no color value", label))
			continue
		case v.Light == "":
			errs = append(errs, fmt.Errorf("%s: defines dark but not light", label))
		case v.Dark == "":
			errs = append(errs, fmt.Errorf("%s: defines light but not dark", label))
		}
		if v.Light != "" && !IsHexColor(v.Light) {
			errs = append(errs, fmt.Errorf("%s: light value %q is not a #RRGGBB color", label, v.Light))
		}
		if v.Dark != "" && !IsHexColor(v.Dark) {
			errs = append(errs, fmt.Errorf("%s: dark value %q is not a #RRGGBB color", label, v.Dark))
		}
	}

	return errs
}

func tokenLabel(tok ColorToken) string {
	if tok.Pos.IsValid() {
		return fmt.Sprintf("color %q (%s)", tok.Name, tok.Pos)
	}
	return fmt.Sprintf("color %q", tok.Name)
}

func orUnknown(p literal.Position) string {
	if p.IsValid() {
		return p.String()
	}
	return "unknown position"
}
