package relift

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Finder resolves module names within one accepted path entry to
// transforming loaders. Finders are memoized per entry by the registry:
// asking for the same entry twice returns the same finder with no further
// side effects.
type Finder struct {
	dir string
	reg *Registry
}

// Dir returns the path entry the finder serves.
func (f *Finder) Dir() string { return f.dir }

// Find resolves a module name to a loader, or ErrModuleNotFound. Names map
// to <dir>/<name>.go, with <dir>/<name>/<name>.go as the package-style
// fallback.
func (f *Finder) Find(name string) (*Loader, error) {
	path, err := resolveModule(f.reg.fs, f.dir, name)
	if err != nil {
		return nil, err
	}
	return f.reg.newLoader(name, path, true), nil
}

// resolveModule maps a module name to a source file below dir.
func resolveModule(fs afero.Fs, dir, name string) (string, error) {
	rel := filepath.FromSlash(name)
	candidates := []string{
		filepath.Join(dir, rel+".go"),
		filepath.Join(dir, rel, filepath.Base(rel)+".go"),
	}
	for _, c := range candidates {
		info, err := fs.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrModuleNotFound, name, dir)
}
