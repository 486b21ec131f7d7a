package relift

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CacheDirName is the marker directory holding cache entries alongside a
// source directory, mirroring the bytecode-cache convention of keeping
// derived artifacts next to the source without polluting the tree.
const CacheDirName = "__liftcache__"

// Store persists transformed source text keyed by fingerprint. Entries live
// in a marker directory next to each source directory (or under a mirror
// tree below cacheRoot when one is set). The configuration tag is part of
// every entry filename, so entries from different configurations never
// collide. Only source text is cached, never compiled programs: a program
// cache could not safely distinguish transform configurations.
type Store struct {
	fs        afero.Fs
	cacheRoot string
	hashFunc  HashFunc
	nowFunc   NowFunc
	logger    *zap.Logger

	mu      sync.Mutex
	metrics StoreMetrics
}

// StoreMetrics counts store outcomes. Useful for verifying that repeat
// loads hit the cache instead of paying the transform again.
type StoreMetrics struct {
	Hits        int
	Misses      int
	Puts        int
	WriteErrors int
}

// StoreOption defines a function that configures a Store.
type StoreOption func(*Store)

// NewStore creates a cache store. By default entries are colocated with the
// source tree on the OS filesystem.
func NewStore(options ...StoreOption) *Store {
	s := &Store{
		fs:       afero.NewOsFs(),
		hashFunc: defaultHashFunc,
		nowFunc:  time.Now,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Metrics returns a snapshot of the store counters.
func (s *Store) Metrics() StoreMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// entryDir returns the directory holding cache entries for a source file.
func (s *Store) entryDir(sourcePath string) string {
	dir := filepath.Dir(sourcePath)
	if s.cacheRoot == "" {
		return filepath.Join(dir, CacheDirName)
	}
	// Mirror the source directory structure under the cache root.
	return filepath.Join(s.cacheRoot, strings.TrimPrefix(dir, string(filepath.Separator)))
}

// EntryPath returns the path of the transformed-source payload for a
// fingerprint. The configuration tag is embedded in the filename.
func (s *Store) EntryPath(fp Fingerprint) string {
	return filepath.Join(s.entryDir(fp.Path), entryBase(fp)+".go")
}

// manifestPath returns the path of the manifest recorded with an entry.
func (s *Store) manifestPath(fp Fingerprint) string {
	return filepath.Join(s.entryDir(fp.Path), entryBase(fp)+".json")
}

// entryBase derives the entry basename NAME.TAG from a fingerprint.
func entryBase(fp Fingerprint) string {
	base := strings.TrimSuffix(filepath.Base(fp.Path), ".go")
	return base + "." + fp.ConfigTag
}
