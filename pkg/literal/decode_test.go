package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML_PreservesOrder(t *testing.T) {
	src := []byte(`
content:
  - ./layouts/**/*.html
  - ./content/**/*.md
darkMode: class
theme:
  extend:
    colors:
      surface: {light: "#ffffff", dark: "#252538"}
      bg: {light: "#faf8f5", dark: "#1a1a2e"}
plugins: []
`)
	root, err := ParseYAML(src)
	require.NoError(t, err)
	require.Equal(t, KindObject, root.Kind)
	assert.Equal(t, []string{"content", "darkMode", "theme", "plugins"}, root.Keys())

	content, ok := root.Get("content")
	require.True(t, ok)
	require.Len(t, content.Items, 2)
	assert.Equal(t, "./layouts/**/*.html", content.Items[0].Text)

	theme, _ := root.Get("theme")
	extend, _ := theme.Get("extend")
	colors, _ := extend.Get("colors")
	assert.Equal(t, []string{"surface", "bg"}, colors.Keys())

	surface, _ := colors.Get("surface")
	assert.Equal(t, 9, surface.Pos.Line)
}

func TestParseYAML_ScalarKinds(t *testing.T) {
	root, err := ParseYAML([]byte("a: 1\nb: true\nc: ~\nd: text\ne: '#fff'\n"))
	require.NoError(t, err)

	kinds := map[string]Kind{}
	for _, f := range root.Fields {
		kinds[f.Key] = f.Value.Kind
	}
	assert.Equal(t, map[string]Kind{
		"a": KindNumber,
		"b": KindBool,
		"c": KindNull,
		"d": KindString,
		"e": KindString,
	}, kinds)
}

func TestParseYAML_Aliases(t *testing.T) {
	src := []byte(`
base: &base
  light: "#ffffff"
  dark: "#000000"
surface:
  <<: *base
link: *base
`)
	root, err := ParseYAML(src)
	require.NoError(t, err)

	surface, _ := root.Get("surface")
	light, ok := surface.Get("light")
	require.True(t, ok)
	assert.Equal(t, "#ffffff", light.Text)

	link, _ := root.Get("link")
	dark, ok := link.Get("dark")
	require.True(t, ok)
	assert.Equal(t, "#000000", dark.Text)
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML([]byte(""))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseJSONC_CommentsAndTrailingCommas(t *testing.T) {
	src := []byte(`{
  // scanned sources
  "content": ["./layouts/**/*.html",],
  /* strategy */
  "darkMode": "class",
  "plugins": [],
}`)
	root, err := ParseJSONC(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"content", "darkMode", "plugins"}, root.Keys())

	dm, _ := root.Get("darkMode")
	assert.Equal(t, "class", dm.Text)
	assert.Equal(t, 5, dm.Pos.Line)
}

func TestParseJSONC_Invalid(t *testing.T) {
	_, err := ParseJSONC([]byte(`{"content": [`))
	assert.Error(t, err)
}

func TestValue_GetLastDuplicateWins(t *testing.T) {
	v := Object(
		Field{Key: "a", Value: String("first")},
		Field{Key: "a", Value: String("second")},
	)
	got, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, []string{"a"}, v.Keys())
}

func TestValue_Source(t *testing.T) {
	v := Array(
		String("x"),
		&Value{Kind: KindExpr, Text: "require('@tailwindcss/forms')"},
		Object(Field{Key: "k", Value: &Value{Kind: KindNumber, Text: "1"}}),
	)
	assert.Equal(t, `["x", require('@tailwindcss/forms'), {"k": 1}]`, v.Source())
}
