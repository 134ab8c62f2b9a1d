package util

import (
	"path/filepath"
	"testing"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		filename string
		want     bool
	}{
		{"node_modules", "node_modules", true},
		{"*.min.js", "app.min.js", true},
		{"*.min.js", "app.js", false},
		{"Intermediate", "Intermediate", true},
		{"Intermediate", "intermediate", false},
		{"*.generated.h", "Hero.generated.h", true},
		{"test?.py", "test1.py", true},
		{"test?.py", "test12.py", false},
		{"**/*.js", "a.js", false}, // filepath.Match has no **
		{"", "a.js", false},
		{"*.js", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.filename, func(t *testing.T) {
			if got := MatchPattern(tt.pattern, tt.filename); got != tt.want {
				t.Errorf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.filename, got, tt.want)
			}
		})
	}
}

func TestMatchPatternInvalid(t *testing.T) {
	for _, pattern := range []string{"[", "[*", "[a-]"} {
		if MatchPattern(pattern, "a") {
			t.Errorf("MatchPattern(%q) matched, want no match for a malformed pattern", pattern)
		}
	}
}

func TestShouldExclude(t *testing.T) {
	root := filepath.FromSlash("/repo")
	patterns := []string{".git", "node_modules", "*.min.js", "Intermediate"}

	tests := []struct {
		path string
		want bool
	}{
		{"/repo/src/app.js", false},
		{"/repo/src/app.min.js", true},
		{"/repo/node_modules/react/index.js", true},
		{"/repo/web/node_modules/x.js", true},
		{"/repo/.git/config", true},
		{"/repo/Source/Intermediate/Build/Hero.gen.cpp", true},
		{"/repo/Source/Hero.cpp", false},
		{"/repo", false},
	}
	for _, tt := range tests {
		path := filepath.FromSlash(tt.path)
		if got := ShouldExclude(root, path, patterns); got != tt.want {
			t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestShouldExcludeOutsideRoot(t *testing.T) {
	// Paths outside root are matched on every element of the full path.
	got := ShouldExclude(filepath.FromSlash("/repo"), filepath.FromSlash("/other/node_modules/a.js"), []string{"node_modules"})
	if !got {
		t.Error("Expected node_modules outside root to be excluded")
	}
}
