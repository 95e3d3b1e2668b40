package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnana997/twtheme/pkg/jsconfig"
	"github.com/gnana997/twtheme/pkg/literal"
	"github.com/gnana997/twtheme/pkg/parser"
	"github.com/gnana997/twtheme/pkg/util"
)

// Format identifies the declaration syntax.
type Format string

const (
	FormatJavaScript Format = "javascript"
	FormatTypeScript Format = "typescript"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
)

// ErrUnsupportedFormat reports a declaration file type the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".cjs", ".mjs":
		return FormatJavaScript, nil
	case ".ts", ".cts", ".mts":
		return FormatTypeScript, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseFormat converts a format name ("js", "typescript", "yaml", ...).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "js", "javascript":
		return FormatJavaScript, nil
	case "ts", "typescript":
		return FormatTypeScript, nil
	case "json", "jsonc":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Parser parses JavaScript and TypeScript declarations. If nil, the
	// loader creates one and closes it in Close.
	Parser *parser.ParserManager

	// Cache serves file reads. If nil, files are read with os.ReadFile.
	Cache util.SourceCache

	// MatchCacheSize bounds each document's glob answer cache. Zero uses
	// the content package default.
	MatchCacheSize int

	// Logger for load diagnostics. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Loader reads, parses, validates and indexes theme declarations.
// It is safe for concurrent use.
type Loader struct {
	parser     *parser.ParserManager
	ownsParser bool
	cache      util.SourceCache
	matchCache int
	logger     *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(config LoaderConfig) *Loader {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loader{
		parser:     config.Parser,
		cache:      config.Cache,
		matchCache: config.MatchCacheSize,
		logger:     logger,
	}
	if l.parser == nil {
		l.parser = parser.NewParserManager(logger)
		l.ownsParser = true
	}
	return l
}

// Close releases the parser if the loader created it.
func (l *Loader) Close() error {
	if l.ownsParser {
		return l.parser.Close()
	}
	return nil
}

// ParserStats reports tree-sitter usage by JavaScript and TypeScript loads.
func (l *Loader) ParserStats() parser.ParserStats {
	return l.parser.GetStats()
}

// LoadFile reads the declaration at path. Content globs of the returned
// document are anchored at the file's directory.
//
// Read failures are returned as-is; every syntax or schema problem is
// reported under ErrMalformedConfig.
func (l *Loader) LoadFile(path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := l.read(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.load(data, format, abs)
}

// LoadBytes parses a declaration held in memory. Content globs are matched
// against paths as given.
func (l *Loader) LoadBytes(data []byte, format Format) (*Document, error) {
	return l.load(data, format, "")
}

func (l *Loader) read(path string) ([]byte, error) {
	if l.cache != nil {
		return l.cache.Read(path)
	}
	return os.ReadFile(path)
}

func (l *Loader) load(data []byte, format Format, source string) (*Document, error) {
	root, err := l.parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}

	doc, dec := decode(root)
	doc.Source = source
	doc.Format = format

	errs := dec.errs
	errs = append(errs, doc.validate(validateOptions{
		skipDarkMode: dec.darkModeFailed,
		skipEmpty:    dec.themeFailed,
	})...)
	if len(errs) > 0 {
		l.logger.Debug("config rejected", "source", source, "problems", len(errs))
		return nil, malformed(errs)
	}

	d, err := newDocument(doc, l.matchCache)
	if err != nil {
		return nil, err
	}

	if len(d.Unrecognized) > 0 {
		l.logger.Debug("ignoring unrecognized config keys", "source", source, "keys", d.Unrecognized)
	}
	if len(d.Content) == 0 {
		l.logger.Warn("config declares no content globs", "source", source)
	}
	l.logger.Debug("config loaded",
		"source", source,
		"format", format,
		"tokens", len(d.Colors),
		"globs", len(d.Content),
		"dark_mode", d.DarkMode.Strategy)

	return d, nil
}

func (l *Loader) parse(data []byte, format Format) (*literal.Value, error) {
	switch format {
	case FormatJavaScript:
		return jsconfig.Extract(l.parser, data, parser.LanguageJavaScript)
	case FormatTypeScript:
		return jsconfig.Extract(l.parser, data, parser.LanguageTypeScript)
	case FormatJSON:
		return literal.ParseJSONC(data)
	case FormatYAML:
		return literal.ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFromFile loads, validates and indexes a declaration with a one-off
// loader.
func LoadFromFile(path string) (*Document, error) {
	l := NewLoader(LoaderConfig{})
	defer l.Close()
	return l.LoadFile(path)
}

// LoadFromBytes is LoadFromFile for in-memory declarations.
func LoadFromBytes(data []byte, format Format) (*Document, error) {
	l := NewLoader(LoaderConfig{})
	defer l.Close()
	return l.LoadBytes(data, format)
}
