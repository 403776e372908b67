package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc/ruleconf/internal/config"
)

func TestParseFormats(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "detekt.yml",
			content: `
style:
  MagicNumber:
    active: false
    ignoreNumbers: ['-1', '0']
complexity:
  LongMethod:
    threshold: 42
`,
		},
		{
			name: "jsonc with comments and trailing commas",
			file: "detekt.jsonc",
			content: `{
  // rule sets
  "style": {"MagicNumber": {"active": false, "ignoreNumbers": ["-1", "0",]}},
  /* thresholds */
  "complexity": {"LongMethod": {"threshold": 42}},
}`,
		},
		{
			name: "toml",
			file: "detekt.toml",
			content: `
[style.MagicNumber]
active = false
ignoreNumbers = ["-1", "0"]

[complexity.LongMethod]
threshold = 42
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t, tc.file, tc.content)

			assert.Equal(t, false, lookup(t, doc, "style>MagicNumber>active"))
			assert.Equal(t, []any{"-1", "0"}, lookup(t, doc, "style>MagicNumber>ignoreNumbers"))
			assert.Equal(t, 42, lookup(t, doc, "complexity>LongMethod>threshold"))
			assert.Equal(t, []string{"complexity", "style"}, doc.Keys())
			assert.Equal(t, tc.file, doc.Source())
		})
	}
}

func TestParseNormalizesValues(t *testing.T) {
	doc := mustParse(t, "values.yml", `
ratio: 0.5
whole: 3.0
empty:
list: [a, 1, true]
`)

	assert.Equal(t, 0.5, lookup(t, doc, "ratio"))
	assert.Equal(t, 3, lookup(t, doc, "whole"))
	assert.Equal(t, []any{"a", 1, true}, lookup(t, doc, "list"))

	_, ok := doc.Lookup("empty")
	assert.False(t, ok, "null values read as absent")
}

func TestParseEmptyDocument(t *testing.T) {
	for _, name := range []string{"empty.yml", "empty.json", "empty.toml"} {
		doc := mustParse(t, name, "")
		assert.Empty(t, doc.Keys(), name)
	}
}

func TestParseInvalidDocument(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{name: "broken yaml", file: "bad.yml", content: "style: [unclosed"},
		{name: "top level list", file: "list.yml", content: "- a\n- b\n"},
		{name: "broken json", file: "bad.json", content: `{"style": }`},
		{name: "broken toml", file: "bad.toml", content: "style = = 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse(tc.file, []byte(tc.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), "decoding "+tc.file)
		})
	}
}

func TestDocumentIsImmutable(t *testing.T) {
	input := map[string]any{
		"style": map[string]any{"MagicNumber": map[string]any{"active": true}},
	}
	doc, err := config.NewDocument("inline", input)
	require.NoError(t, err)

	// Changing the input after construction is not visible.
	input["style"].(map[string]any)["MagicNumber"] = map[string]any{"active": false}
	assert.Equal(t, true, lookup(t, doc, "style>MagicNumber>active"))

	// Changing a looked up value is not visible either.
	style, ok := doc.Lookup("style")
	require.True(t, ok)
	style.(map[string]any)["injected"] = 1
	_, ok = doc.Sub("style").Lookup("injected")
	assert.False(t, ok)
}

func TestDocumentScopes(t *testing.T) {
	doc := mustParse(t, "detekt.yml", `
style:
  MagicNumber:
    active: true
`)

	scope := config.At(doc, "style", "MagicNumber")
	assert.Equal(t, "style>MagicNumber", scope.Path())
	assert.Equal(t, []string{"active"}, scope.Keys())

	missing := config.At(doc, "naming", "FunctionNaming")
	require.NotNil(t, missing)
	assert.Equal(t, "naming>FunctionNaming", missing.Path())
	assert.Empty(t, missing.Keys())

	_, ok := config.LookupPath(doc, "style>MagicNumber>threshold")
	assert.False(t, ok)
}
