package parser

// Language represents a grammar a config module can be written in.
type Language int

const (
	// LanguageJavaScript covers .js, .cjs and .mjs config modules.
	LanguageJavaScript Language = iota
	// LanguageTypeScript covers .ts, .mts and .cts config modules.
	LanguageTypeScript
	// LanguageUnknown represents an unsupported source.
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}
