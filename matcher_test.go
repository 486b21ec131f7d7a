package relift

import (
	"strings"
	"testing"
)

func TestDirMatcherAccepts(t *testing.T) {
	m := NewDirMatcher("/proj", "/other/tree")

	cases := []struct {
		path string
		want bool
	}{
		{"/proj", true},
		{"/proj/mod.go", true},
		{"/proj/sub/deep/mod.go", true},
		{"/other/tree/x.go", true},
		{"/projx/mod.go", false},        // sibling with a shared prefix
		{"/other", false},               // parent of a managed dir
		{"/elsewhere/mod.go", false},
		{"/proj/vendor/dep/dep.go", false},    // vendored boundary
		{"/proj/testdata/fixture.go", false},  // fixtures stay untouched
		{"/proj/" + CacheDirName + "/mod.relift-0.go", false}, // never re-transform cache output
		{"/proj/sub/vendor/x.go", false},
	}

	for _, tc := range cases {
		if got := m.Accepts(tc.path); got != tc.want {
			t.Errorf("Accepts(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDirMatcherCleansInput(t *testing.T) {
	m := NewDirMatcher("/proj/")

	if !m.Accepts("/proj/./sub/../mod.go") {
		t.Errorf("matcher did not normalize the candidate path")
	}
}

func TestPathMatcherFunc(t *testing.T) {
	m := PathMatcherFunc(func(path string) bool {
		return strings.HasSuffix(path, "_legacy.go")
	})

	if !m.Accepts("/anywhere/mod_legacy.go") {
		t.Errorf("custom predicate not consulted")
	}
	if m.Accepts("/anywhere/mod.go") {
		t.Errorf("custom predicate accepted a non-matching path")
	}
}
