package relift

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// WithFs sets a custom filesystem for the registry and the stores it
// creates. This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	reg := relift.New(relift.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(r *Registry) {
		r.fs = fs
	}
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHashFunc sets a custom hash function for fingerprints. The default is
// xxHash64. Changing the hash function invalidates existing cache entries.
func WithHashFunc(hashFunc HashFunc) Option {
	return func(r *Registry) {
		r.hashFunc = hashFunc
	}
}

// WithNowFunc sets a custom time function. This is primarily useful for
// testing with deterministic timestamps.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(r *Registry) {
		r.nowFunc = nowFunc
	}
}

// WithCacheRoot stores cache entries under a mirror tree below root instead
// of colocating them with the source directories.
func WithCacheRoot(root string) Option {
	return func(r *Registry) {
		r.cacheRoot = root
	}
}

// WithPathMatcher overrides the default directory-prefix matcher.
func WithPathMatcher(m PathMatcher) Option {
	return func(r *Registry) {
		r.matcher = m
	}
}

// WithTransformer sets the source transformer. The default is the built-in
// rule transformer.
func WithTransformer(t SourceTransformer) Option {
	return func(r *Registry) {
		r.transformer = t
	}
}

// WithExecutor sets the execution primitive. The default is a yaegi
// executor with stdlib symbols.
func WithExecutor(e Executor) Option {
	return func(r *Registry) {
		r.executor = e
	}
}

// WithSearchPath appends extra path entries consulted by Load after the
// managed directories. Entries outside the managed set load plain.
func WithSearchPath(entries ...string) Option {
	return func(r *Registry) {
		r.searchPath = append(r.searchPath, entries...)
	}
}

// WithStoreFs sets a custom filesystem for a store.
func WithStoreFs(fs afero.Fs) StoreOption {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithStoreCacheRoot mirrors entries below root instead of colocating them
// with the source tree.
func WithStoreCacheRoot(root string) StoreOption {
	return func(s *Store) {
		s.cacheRoot = root
	}
}

// WithStoreHashFunc sets the hash function used for content signatures and
// payload verification.
func WithStoreHashFunc(hashFunc HashFunc) StoreOption {
	return func(s *Store) {
		s.hashFunc = hashFunc
	}
}

// WithStoreNowFunc sets the store's time function.
func WithStoreNowFunc(nowFunc NowFunc) StoreOption {
	return func(s *Store) {
		s.nowFunc = nowFunc
	}
}

// WithStoreLogger sets the store's logger.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}
