package relift

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Registry owns the load-time rewriting machinery for one process: the
// managed directory set, the active configuration, the cache store and the
// per-entry finders. It is an explicit object rather than package-level
// state; construct one, Install it, and tear it down with Uninstall. An
// installed registry does not affect loads that already completed, nor
// child processes. Install and Uninstall are not safe to race from multiple
// goroutines against in-flight loads; callers serialize configuration
// changes themselves.
type Registry struct {
	fs          afero.Fs
	logger      *zap.Logger
	hashFunc    HashFunc
	nowFunc     NowFunc
	cacheRoot   string
	transformer SourceTransformer
	executor    Executor
	matcher     PathMatcher // optional override; nil means DirMatcher over the installed set
	searchPath  []string    // extra path entries consulted after the managed directories

	mu        sync.Mutex
	installed bool
	dirs      []string
	cfg       Config
	active    PathMatcher
	store     *Store
	finders   map[string]*Finder
}

// Option defines a function that configures a Registry.
type Option func(*Registry)

// New creates a registry. Collaborators default to the OS filesystem, the
// built-in rule transformer, a yaegi executor and a no-op logger.
func New(options ...Option) *Registry {
	r := &Registry{
		fs:       afero.NewOsFs(),
		logger:   zap.NewNop(),
		hashFunc: defaultHashFunc,
		nowFunc:  time.Now,
	}
	for _, option := range options {
		option(r)
	}
	if r.transformer == nil {
		r.transformer = NewRuleTransformer()
	}
	if r.executor == nil {
		r.executor = NewYaegiExecutor()
	}
	return r
}

// Install activates rewriting for the given directories under the given
// configuration. Installing twice with equal arguments is a no-op;
// installing with different arguments returns ErrConfigConflict — the
// conflict is explicit rather than silently merged, uninstall first to
// reconfigure. Configuration errors (unknown rule names, unusable
// directories) surface here, before any load is affected.
func (r *Registry) Install(dirs []string, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	abs, err := absDirs(dirs)
	if err != nil {
		return err
	}
	if len(abs) == 0 {
		return errors.New("install: no directories given")
	}

	if r.installed {
		if equalStrings(r.dirs, abs) && r.cfg.Equal(cfg) {
			return nil
		}
		return fmt.Errorf("%w: already installed for %v", ErrConfigConflict, r.dirs)
	}

	// Validate rule selection eagerly when the transformer supports it.
	if rt, ok := r.transformer.(*RuleTransformer); ok {
		if _, err := rt.Select(cfg); err != nil {
			return err
		}
	}

	r.dirs = abs
	r.cfg = cfg
	r.active = r.matcher
	if r.active == nil {
		r.active = NewDirMatcher(abs...)
	}
	r.store = NewStore(
		WithStoreFs(r.fs),
		WithStoreCacheRoot(r.cacheRoot),
		WithStoreHashFunc(r.hashFunc),
		WithStoreNowFunc(r.nowFunc),
		WithStoreLogger(r.logger),
	)
	r.finders = make(map[string]*Finder)
	r.installed = true

	r.logger.Debug("installed", zap.Strings("dirs", abs), zap.String("tag", cfg.Tag()))
	return nil
}

// Uninstall deactivates rewriting. Safe to call on a registry that was
// never installed. Modules already loaded stay loaded.
func (r *Registry) Uninstall() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.installed {
		return
	}
	r.installed = false
	r.dirs = nil
	r.cfg = Config{}
	r.active = nil
	r.store = nil
	r.finders = nil
	r.logger.Debug("uninstalled")
}

// Installed reports whether the registry is active.
func (r *Registry) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installed
}

// Store returns the active cache store, or nil when not installed.
func (r *Registry) Store() *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store
}

// FinderFor returns the transforming finder for a path entry, or
// ErrNotApplicable when the entry is outside the managed set, does not
// exist, or is not a directory. Not-applicable is a routing signal: the
// caller falls through to plain loading for that entry.
func (r *Registry) FinderFor(entry string) (*Finder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finderForLocked(entry)
}

func (r *Registry) finderForLocked(entry string) (*Finder, error) {
	if !r.installed {
		return nil, ErrNotApplicable
	}

	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, ErrNotApplicable
	}
	abs = filepath.Clean(abs)

	if f, ok := r.finders[abs]; ok {
		return f, nil
	}

	if !r.active.Accepts(abs) {
		return nil, ErrNotApplicable
	}
	info, err := r.fs.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, ErrNotApplicable
	}

	f := &Finder{dir: abs, reg: r}
	r.finders[abs] = f
	return f, nil
}

// Load resolves a module name against the managed directories followed by
// any extra search path entries, and loads the first match. Managed entries
// load through the transforming pipeline; everything else loads plain.
func (r *Registry) Load(ctx context.Context, name string) (*Module, error) {
	entries := r.entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no directories to search", ErrNotInstalled)
	}
	for _, entry := range entries {
		loader, err := r.loaderFor(entry, name)
		if errors.Is(err, ErrModuleNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return loader.Load(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
}

// LoadFile loads a single source file by path, transforming it when the
// matcher accepts it. This is the entry point the CLI launcher uses for its
// target script.
func (r *Registry) LoadFile(ctx context.Context, path string) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	abs = filepath.Clean(abs)

	r.mu.Lock()
	transform := r.installed && r.active.Accepts(abs)
	r.mu.Unlock()

	name := filepath.Base(abs)
	return r.newLoader(name, abs, transform).Load(ctx)
}

// entries returns the path entries consulted by Load, managed first.
func (r *Registry) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.dirs)+len(r.searchPath))
	out = append(out, r.dirs...)
	out = append(out, r.searchPath...)
	return out
}

// loaderFor resolves name within one path entry, transforming or plain
// depending on whether the entry is managed.
func (r *Registry) loaderFor(entry, name string) (*Loader, error) {
	f, err := r.FinderFor(entry)
	if err == nil {
		return f.Find(name)
	}
	if !errors.Is(err, ErrNotApplicable) {
		return nil, err
	}

	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	path, err := resolveModule(r.fs, filepath.Clean(abs), name)
	if err != nil {
		return nil, err
	}
	return r.newLoader(name, path, false), nil
}

// newLoader builds a loader bound to the registry's collaborators.
func (r *Registry) newLoader(name, path string, transform bool) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Loader{
		name:        name,
		path:        path,
		transform:   transform && r.installed,
		cfg:         r.cfg,
		store:       r.store,
		transformer: r.transformer,
		executor:    r.executor,
		fs:          r.fs,
		hashFunc:    r.hashFunc,
		logger:      r.logger,
	}
}

// absDirs normalizes a directory list to cleaned absolute paths, preserving
// order and dropping duplicates.
func absDirs(dirs []string) ([]string, error) {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("install: bad directory %q: %w", d, err)
		}
		abs = filepath.Clean(abs)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out, nil
}

// equalStrings reports element-wise equality.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
