package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryLookup(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())

	tests := []struct {
		path string
		want Language
	}{
		{"a.js", LangJavaScript},
		{"a.JSX", LangJavaScript},
		{"a.mjs", LangJavaScript},
		{"a.ts", LangTypeScript},
		{"a.tsx", LangTypeScript},
		{"a.h", LangCPP},
		{"a.cc", LangCPP},
		{"a.py", LangPython},
		{"a.htm", LangHTML},
	}
	for _, tt := range tests {
		e, ok := reg.Lookup(tt.path)
		require.True(t, ok, tt.path)
		assert.Equal(t, tt.want, e.Language(), tt.path)
	}

	_, ok := reg.Lookup("notes.txt")
	assert.False(t, ok)
	assert.False(t, reg.CanParse("Makefile"))
}

func TestRegistryLanguageFilter(t *testing.T) {
	opts := DefaultOptions()
	opts.Languages = []Language{LangPython, LangHTML}
	reg := DefaultRegistry(opts)

	assert.Equal(t, []Language{LangPython, LangHTML}, reg.Languages())
	assert.False(t, reg.CanParse("a.js"))
	assert.Equal(t, []string{".py", ".pyw", ".html", ".htm"}, reg.SupportedExtensions())
}

func TestRegistryExtensionsUnique(t *testing.T) {
	reg := NewRegistry(NewJavaScriptExtractor(DefaultOptions()), NewJavaScriptExtractor(DefaultOptions()))
	assert.Equal(t, []string{".js", ".mjs", ".cjs", ".jsx"}, reg.SupportedExtensions())
	assert.Len(t, reg.Extractors(), 2)
}

func TestRegistryParseFileUnsupported(t *testing.T) {
	reg := DefaultRegistry(DefaultOptions())
	result := reg.ParseFile("README.md", []byte("# hi"))

	assert.Empty(t, result.Entities)
	assert.Equal(t, []string{"Unsupported file type: README.md"}, result.Errors)
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.js":  "function a() { b(); }\n",
		"b.py":  "def b():\n    pass\n",
		"c.cpp": "int c() { return 0; }\n",
	}
	var paths []string
	for _, name := range []string{"a.js", "b.py", "c.cpp", "missing.ts"} {
		path := filepath.Join(dir, name)
		if src, ok := files[name]; ok {
			require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		}
		paths = append(paths, path)
	}

	results, err := ParseFiles(context.Background(), DefaultRegistry(DefaultOptions()), paths, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NotNil(t, results[0].Entity("a.a"))
	assert.Equal(t, LangPython, results[1].Language)
	assert.NotNil(t, results[2].Entity("c.c"))
	assert.True(t, results[3].Failed())
	for i, r := range results {
		assert.Equal(t, paths[i], r.File)
	}
}

func TestParseFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseFiles(ctx, DefaultRegistry(DefaultOptions()), []string{"a.js"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
