package theme

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/twtheme/pkg/util"
	"github.com/gnana997/twtheme/presets"
)

func loadJS(t *testing.T, src string) (*Document, error) {
	t.Helper()
	return LoadFromBytes([]byte(src), FormatJavaScript)
}

func mustLoadPreset(t *testing.T) *Document {
	t.Helper()
	doc, err := LoadFromBytes(presets.TailwindConfig, FormatJavaScript)
	require.NoError(t, err)
	return doc
}

func TestLoad_Preset(t *testing.T) {
	doc := mustLoadPreset(t)

	assert.Equal(t, []string{"./layouts/**/*.html", "./content/**/*.md"}, doc.Content)
	assert.Equal(t, DarkMode{Strategy: DarkModeClass, Selector: ".dark"}, doc.DarkMode)
	assert.Equal(t,
		[]string{"bg", "surface", "accent", "accent-soft", "border", "link", "code-bg"},
		doc.TokenNames())
	assert.NotNil(t, doc.Plugins)
	assert.Empty(t, doc.Plugins)
	assert.Empty(t, doc.Unrecognized)
	assert.Equal(t, FormatJavaScript, doc.Format)
	assert.Empty(t, doc.Source)

	accent, ok := doc.Token("accent")
	require.True(t, ok)
	assert.Equal(t, []string{"accent"}, accent.Path)
	assert.Equal(t, 18, accent.Pos.Line)

	soft, ok := doc.Token("accent-soft")
	require.True(t, ok)
	assert.Equal(t, []string{"accent", "soft"}, soft.Path)
	assert.Equal(t, ColorValue{Light: "#e9d5ff", Dark: "#4c366d"}, soft.Value)
}

func TestLoad_EveryTokenResolvesInBothModes(t *testing.T) {
	doc := mustLoadPreset(t)

	for _, name := range doc.TokenNames() {
		for _, mode := range Modes {
			value, err := doc.ResolveColor(name, mode)
			require.NoError(t, err, "%s/%s", name, mode)
			assert.True(t, IsHexColor(value), "%s/%s = %q", name, mode, value)
		}
	}
}

func TestLoad_Idempotent(t *testing.T) {
	first := mustLoadPreset(t)
	second := mustLoadPreset(t)

	if diff := cmp.Diff(first, second, cmpopts.IgnoreUnexported(Document{})); diff != "" {
		t.Errorf("second load differs (-first +second):\n%s", diff)
	}

	for _, name := range first.TokenNames() {
		for _, mode := range Modes {
			a, errA := first.ResolveColor(name, mode)
			b, errB := second.ResolveColor(name, mode)
			assert.Equal(t, errA, errB)
			assert.Equal(t, a, b)
		}
	}
}

func TestLoad_MissingDarkIsMalformed(t *testing.T) {
	src := strings.Replace(string(presets.TailwindConfig), "dark: '#9f7aea',", "", 1)
	require.NotEqual(t, string(presets.TailwindConfig), src)

	_, err := loadJS(t, src)
	require.ErrorIs(t, err, ErrMalformedConfig)
	assert.ErrorContains(t, err, `color "accent" (line 18): defines light but not dark`)
}

func TestLoad_MissingLightIsMalformed(t *testing.T) {
	src := strings.Replace(string(presets.TailwindConfig), "light: '#8b5cf6',", "", 1)

	_, err := loadJS(t, src)
	require.ErrorIs(t, err, ErrMalformedConfig)
	assert.ErrorContains(t, err, `color "link"`)
	assert.ErrorContains(t, err, "defines dark but not light")
}

func TestLoad_NonHexLiteralIsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"named color", "'blue'"},
		{"short hex", "'#fff'"},
		{"alpha hex", "'#a78bfa80'"},
		{"rgb function", "'rgb(0 0 0)'"},
		{"missing hash", "'a78bfa'"},
		{"number", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `module.exports = {
  content: [],
  darkMode: 'class',
  theme: { extend: { colors: { ink: ` + tt.value + ` } } },
}`
			_, err := loadJS(t, src)
			require.ErrorIs(t, err, ErrMalformedConfig)
			assert.ErrorContains(t, err, "ink")
		})
	}
}

func TestLoad_UpperCaseHexAccepted(t *testing.T) {
	doc, err := loadJS(t, `module.exports = {
  content: [],
  darkMode: 'media',
  theme: { extend: { colors: { ink: '#A78BFA' } } },
}`)
	require.NoError(t, err)

	value, err := doc.ResolveColor("ink", ModeDark)
	require.NoError(t, err)
	assert.Equal(t, "#A78BFA", value)
}

func TestLoad_MissingSectionsReportedTogether(t *testing.T) {
	_, err := loadJS(t, `module.exports = { plugins: [] }`)
	require.ErrorIs(t, err, ErrMalformedConfig)

	msg := err.Error()
	assert.Contains(t, msg, "content is required")
	assert.Contains(t, msg, "darkMode is required")
	assert.Contains(t, msg, "theme is required")
	assert.NotContains(t, msg, "no colors declared")
}

func TestLoad_ThemeWithoutColors(t *testing.T) {
	_, err := loadJS(t, `module.exports = { content: [], darkMode: 'class', theme: { extend: {} } }`)
	require.ErrorIs(t, err, ErrMalformedConfig)
	assert.ErrorContains(t, err, "no colors declared")
}

func TestLoad_WrongShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "content not array",
			src:  `module.exports = { content: './src/**/*.html', darkMode: 'class', theme: { colors: { a: '#000000' } } }`,
			want: "content (line 1): must be an array of glob strings, got string",
		},
		{
			name: "content item not string",
			src:  `module.exports = { content: [{ raw: '<div>' }], darkMode: 'class', theme: { colors: { a: '#000000' } } }`,
			want: "content[0]",
		},
		{
			name: "invalid glob",
			src:  `module.exports = { content: ['./src/[a-.html'], darkMode: 'class', theme: { colors: { a: '#000000' } } }`,
			want: "invalid glob pattern",
		},
		{
			name: "unknown dark mode",
			src:  `module.exports = { content: [], darkMode: 'auto', theme: { colors: { a: '#000000' } } }`,
			want: `invalid strategy "auto"`,
		},
		{
			name: "media in array form",
			src:  `module.exports = { content: [], darkMode: ['media', '.x'], theme: { colors: { a: '#000000' } } }`,
			want: "array form requires class or selector",
		},
		{
			name: "theme not object",
			src:  `module.exports = { content: [], darkMode: 'class', theme: [] }`,
			want: "theme (line 1): must be an object, got array",
		},
		{
			name: "color array",
			src:  `module.exports = { content: [], darkMode: 'class', theme: { colors: { a: ['#000000'] } } }`,
			want: "theme.colors.a (line 1): must be a color string or a light/dark object",
		},
		{
			name: "empty color group",
			src:  `module.exports = { content: [], darkMode: 'class', theme: { colors: { a: {} } } }`,
			want: "empty color group",
		},
		{
			name: "plugins not array",
			src:  `module.exports = { content: [], darkMode: 'class', theme: { colors: { a: '#000000' } }, plugins: {} }`,
			want: "plugins (line 1): must be an array",
		},
		{
			name: "duplicate flattened name",
			src:  `module.exports = { content: [], darkMode: 'class', theme: { colors: { 'a-b': '#000000', a: { b: '#111111' } } } }`,
			want: "duplicate token",
		},
		{
			name: "syntax error",
			src:  `module.exports = { content: [ }`,
			want: "syntax error",
		},
		{
			name: "no export",
			src:  `const config = {}`,
			want: "no exported config object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadJS(t, tt.src)
			require.ErrorIs(t, err, ErrMalformedConfig)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_DarkModeForms(t *testing.T) {
	tests := []struct {
		decl string
		want DarkMode
	}{
		{`'media'`, DarkMode{Strategy: DarkModeMedia}},
		{`'class'`, DarkMode{Strategy: DarkModeClass, Selector: ".dark"}},
		{`'selector'`, DarkMode{Strategy: DarkModeSelector, Selector: ".dark"}},
		{`['class']`, DarkMode{Strategy: DarkModeClass, Selector: ".dark"}},
		{`['class', '.theme-dark']`, DarkMode{Strategy: DarkModeClass, Selector: ".theme-dark"}},
		{`['selector', '[data-mode="dark"]']`, DarkMode{Strategy: DarkModeSelector, Selector: `[data-mode="dark"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			doc, err := loadJS(t, `module.exports = {
  content: [],
  darkMode: `+tt.decl+`,
  theme: { colors: { ink: '#000000' } },
}`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.DarkMode)
		})
	}
}

func TestLoad_ColorsAndExtendMerge(t *testing.T) {
	doc, err := loadJS(t, `module.exports = {
  content: { files: ['./src/**/*.html'] },
  darkMode: 'media',
  theme: {
    colors: { ink: '#000000', accent: '#111111', brand: { DEFAULT: '#222222', muted: '#333333' } },
    extend: { colors: { accent: { light: '#a78bfa', dark: '#9f7aea' } } },
  },
  prefix: 'tw-',
  plugins: [require('@tailwindcss/typography')],
}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"./src/**/*.html"}, doc.Content)
	assert.Equal(t, []string{"ink", "accent", "brand", "brand-muted"}, doc.TokenNames())
	assert.Equal(t, []string{"prefix"}, doc.Unrecognized)
	require.Len(t, doc.Plugins, 1)
	assert.Equal(t, "require('@tailwindcss/typography')", doc.Plugins[0].Text)

	accent, err := doc.ResolveColor("accent", ModeDark)
	require.NoError(t, err)
	assert.Equal(t, "#9f7aea", accent, "extend replaces the base entry")

	brand, err := doc.ResolveColor("brand", ModeLight)
	require.NoError(t, err)
	assert.Equal(t, "#222222", brand)
}

func TestLoad_YAML(t *testing.T) {
	src := `content:
  - ./layouts/**/*.html
darkMode: media
theme:
  extend:
    colors:
      accent:
        light: "#a78bfa"
        dark: "#9f7aea"
      ink: "#111827"
`
	doc, err := LoadFromBytes([]byte(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, DarkMode{Strategy: DarkModeMedia}, doc.DarkMode)
	assert.Equal(t, []string{"accent", "ink"}, doc.TokenNames())

	accent, _ := doc.Token("accent")
	assert.Equal(t, 7, accent.Pos.Line)

	_, err = LoadFromBytes([]byte("content: [\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrMalformedConfig)
}

func TestLoad_JSONC(t *testing.T) {
	src := `{
  // site palette
  "content": ["./content/**/*.md"],
  "darkMode": ["class", ".theme-dark"],
  "theme": {
    "colors": { "accent": { "DEFAULT": "#a78bfa" } },
    "extend": { "colors": { "link": { "light": "#8b5cf6", "dark": "#b794f6", }, }, },
  },
}`
	doc, err := LoadFromBytes([]byte(src), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, ".theme-dark", doc.DarkMode.Selector)
	assert.Equal(t, []string{"accent", "link"}, doc.TokenNames())

	link, err := doc.ResolveColor("link", ModeDark)
	require.NoError(t, err)
	assert.Equal(t, "#b794f6", link)
}

func TestLoad_TypeScript(t *testing.T) {
	src := `import type { Config } from 'tailwindcss'

export default {
  content: ['./layouts/**/*.html'],
  darkMode: 'class',
  theme: { extend: { colors: { accent: { light: '#a78bfa', dark: '#9f7aea' } } } },
  plugins: [],
} satisfies Config
`
	doc, err := LoadFromBytes([]byte(src), FormatTypeScript)
	require.NoError(t, err)

	value, err := doc.ResolveColor("accent", ModeLight)
	require.NoError(t, err)
	assert.Equal(t, "#a78bfa", value)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, presets.TailwindConfigName)
	require.NoError(t, os.WriteFile(path, presets.TailwindConfig, 0o644))

	for _, p := range []string{"layouts/index.html", "layouts/partials/nav.html", "content/post.md", "static/app.css"} {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}

	doc, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(doc.Source))
	assert.Equal(t, filepath.Dir(doc.Source), doc.Dir())

	assert.True(t, doc.MatchesContentGlob("layouts/index.html"))
	assert.True(t, doc.MatchesContentGlob(filepath.Join(dir, "content", "post.md")))
	assert.False(t, doc.MatchesContentGlob(filepath.Join(dir, "static", "app.css")))

	files, err := doc.DiscoverContent("")
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(doc.Dir(), f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"content/post.md", "layouts/index.html", "layouts/partials/nav.html"}, rel)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "tailwind.config.js"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrMalformedConfig)

	_, err = LoadFromFile(filepath.Join(dir, "tailwind.config.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_SharedParserAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tailwind.config.js")
	require.NoError(t, os.WriteFile(path, presets.TailwindConfig, 0o644))

	cache := util.NewSourceCache(util.DefaultSourceCacheConfig())
	defer cache.Close()

	loader := NewLoader(LoaderConfig{Cache: cache, Logger: util.NewLogger(util.LoggerConfig{Level: util.LevelError, Output: io.Discard})})
	defer loader.Close()

	for i := 0; i < 3; i++ {
		_, err := loader.LoadFile(path)
		require.NoError(t, err)
	}

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, int64(2), stats.CacheHits)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"tailwind.config.js":  FormatJavaScript,
		"tailwind.config.cjs": FormatJavaScript,
		"tailwind.config.mjs": FormatJavaScript,
		"tailwind.config.ts":  FormatTypeScript,
		"tailwind.config.mts": FormatTypeScript,
		"theme.json":          FormatJSON,
		"theme.jsonc":         FormatJSON,
		"theme.yaml":          FormatYAML,
		"THEME.YML":           FormatYAML,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectFormat("theme.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	f, err := ParseFormat("ts")
	require.NoError(t, err)
	assert.Equal(t, FormatTypeScript, f)

	_, err = ParseFormat("toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_ParserStats(t *testing.T) {
	loader := NewLoader(LoaderConfig{Logger: util.NewLogger(util.LoggerConfig{Level: util.LevelError, Output: io.Discard})})
	defer loader.Close()

	assert.Equal(t, 0, loader.ParserStats().ParsesCalled)

	_, err := loader.LoadBytes(presets.TailwindConfig, FormatJavaScript)
	require.NoError(t, err)
	_, err = loader.LoadBytes([]byte("content: []\ndarkMode: media\ntheme: {colors: {a: '#000000'}}\n"), FormatYAML)
	require.NoError(t, err)

	stats := loader.ParserStats()
	assert.Equal(t, 1, stats.ParsesCalled, "YAML does not use tree-sitter")
	assert.Equal(t, 1, stats.ParsersCreated)
}

func TestLoad_ConcurrentUse(t *testing.T) {
	doc := mustLoadPreset(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mode := Modes[i%2]
			for j := 0; j < 50; j++ {
				_, err := doc.ResolveColor("accent-soft", mode)
				assert.NoError(t, err)
				assert.True(t, doc.MatchesContentGlob("layouts/index.html"))
				assert.False(t, doc.MatchesContentGlob("static/app.css"))
			}
		}(i)
	}
	wg.Wait()
}
