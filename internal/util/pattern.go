package util

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// MatchPattern wraps filepath.Match and logs malformed patterns instead of
// failing. A malformed pattern matches nothing.
//
// The indexer and the watcher share it so both exclude the same files.
func MatchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		logrus.WithError(err).WithField("pattern", pattern).Warn("Invalid exclude pattern, it will not match any files")
		return false
	}
	return matched
}

// ShouldExclude reports whether any path element of path below root matches
// one of patterns. Patterns are matched against single names, so "build"
// excludes every file under any build directory.
func ShouldExclude(root, path string, patterns []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		rel = filepath.Base(path)
	}
	if strings.HasPrefix(rel, "..") {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		for _, pattern := range patterns {
			if MatchPattern(pattern, part) {
				return true
			}
		}
	}
	return false
}
