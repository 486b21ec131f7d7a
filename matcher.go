package relift

import (
	"path/filepath"
	"strings"
)

// PathMatcher decides whether a candidate path falls under the managed
// directory set. Implementations must be pure and cheap: the matcher runs on
// every load attempt, including ones that end up unmanaged, so it should
// short-circuit on lexical checks before touching the filesystem.
type PathMatcher interface {
	Accepts(path string) bool
}

// PathMatcherFunc adapts a plain function to the PathMatcher interface.
type PathMatcherFunc func(path string) bool

// Accepts implements PathMatcher.
func (f PathMatcherFunc) Accepts(path string) bool { return f(path) }

// defaultExemptDirs are directory names that mark a nested boundary the
// matcher never descends into, even under a managed directory. Vendored
// dependencies keep their original semantics, and the cache marker directory
// must never be re-transformed.
var defaultExemptDirs = []string{"vendor", "testdata", CacheDirName}

// DirMatcher is the default PathMatcher: a path is accepted when it equals
// one of the managed directories or is a strict descendant of one, and no
// path segment below the managed root names an exempt boundary.
type DirMatcher struct {
	dirs   []string
	exempt map[string]bool
}

// NewDirMatcher builds a matcher over the given directories. Paths are
// cleaned once up front so Accepts stays a pure string comparison.
func NewDirMatcher(dirs ...string) *DirMatcher {
	m := &DirMatcher{
		dirs:   make([]string, 0, len(dirs)),
		exempt: make(map[string]bool, len(defaultExemptDirs)),
	}
	for _, d := range dirs {
		m.dirs = append(m.dirs, filepath.Clean(d))
	}
	for _, e := range defaultExemptDirs {
		m.exempt[e] = true
	}
	return m
}

// Accepts implements PathMatcher.
func (m *DirMatcher) Accepts(path string) bool {
	p := filepath.Clean(path)
	for _, dir := range m.dirs {
		if p == dir {
			return true
		}
		prefix := dir + string(filepath.Separator)
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if m.exemptBelow(p[len(prefix):]) {
			return false
		}
		return true
	}
	return false
}

// exemptBelow reports whether any segment of the managed-relative remainder
// names an exempt boundary.
func (m *DirMatcher) exemptBelow(rel string) bool {
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if m.exempt[seg] {
			return true
		}
	}
	return false
}
