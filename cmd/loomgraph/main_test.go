package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		parseFormat = "json"
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestParseCommandJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	require.NoError(t, os.WriteFile(path, []byte("function greet(name) {}\n"), 0o644))

	out := run(t, "parse", path)

	var result parser.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, parser.LangJavaScript, result.Language)
	assert.NotNil(t, result.Entity("app.greet"))
}

func TestParseCommandYAMLList(t *testing.T) {
	dir := t.TempDir()
	js := filepath.Join(dir, "app.js")
	py := filepath.Join(dir, "tool.py")
	require.NoError(t, os.WriteFile(js, []byte("class A {}\n"), 0o644))
	require.NoError(t, os.WriteFile(py, []byte("def run():\n    pass\n"), 0o644))

	out := run(t, "parse", js, py, "--format", "yaml")

	var results []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "javascript", results[0]["language"])
	assert.Equal(t, "python", results[1]["language"])
}

func TestParseCommandBadFormat(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"parse", "a.js", "--format", "xml"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		parseFormat = "json"
	})
	assert.ErrorContains(t, rootCmd.Execute(), "unknown format")
}

func TestLanguagesCommand(t *testing.T) {
	out := run(t, "languages")
	for _, lang := range []string{"javascript", "typescript", "cpp", "python", "html"} {
		assert.Contains(t, out, lang)
	}
	assert.Contains(t, out, ".hpp")
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("<div id=\"root\"></div>\n"), 0o644))
	t.Setenv("LOOMGRAPH_STORAGE", "bolt")
	t.Setenv("LOOMGRAPH_BOLT_PATH", filepath.Join(t.TempDir(), "graph.db"))

	out := run(t, "index", dir)
	assert.Contains(t, out, "1 indexed")

	out = run(t, "index", dir)
	assert.Contains(t, out, "1 unchanged")
}
