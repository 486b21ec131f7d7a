package relift

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Loader performs one load: resolve the source, fingerprint it, consult the
// store, transform on miss, persist, execute. A loader for an unmanaged
// path skips everything but resolve and execute, so unmanaged modules run
// byte-identical to a system without relift installed.
type Loader struct {
	name      string
	path      string // absolute source path
	transform bool

	cfg         Config
	store       *Store
	transformer SourceTransformer
	executor    Executor
	fs          afero.Fs
	hashFunc    HashFunc
	logger      *zap.Logger
}

// Path returns the absolute source path the loader resolves.
func (l *Loader) Path() string { return l.path }

// Load runs the full pipeline and returns the loaded module.
func (l *Loader) Load(ctx context.Context) (*Module, error) {
	if !l.transform {
		return l.loadPlain(ctx)
	}

	fp, src, err := fingerprintSource(l.fs, l.hashFunc, l.path, l.cfg)
	if err != nil {
		return nil, err
	}

	entry, err := l.store.Get(fp)
	switch {
	case errors.Is(err, ErrCacheMiss):
		entry, err = l.transformAndStore(fp, src)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", l.name, err)
	}

	execPath := entry.Path
	if execPath == "" {
		execPath = l.path
	}
	if err := l.executor.Execute(ctx, execPath, entry.Text); err != nil {
		return nil, fmt.Errorf("load %s: %w", l.name, err)
	}

	return &Module{
		Name:        l.name,
		SourcePath:  l.path,
		CachePath:   entry.Path,
		Transformed: true,
		source:      entry.Text,
	}, nil
}

// transformAndStore invokes the transformer and persists the result. A
// transform failure fails the load; executing the raw source instead would
// only move the error somewhere confusing. A cache write failure does not:
// the load continues with the in-memory text.
func (l *Loader) transformAndStore(fp Fingerprint, src []byte) (*Entry, error) {
	out, err := l.transformer.Transform(src, l.cfg)
	if err != nil {
		var te *TransformError
		if errors.As(err, &te) && te.Path == "" {
			te.Path = l.path
		}
		return nil, fmt.Errorf("load %s: %w", l.name, err)
	}

	entry, err := l.store.Put(fp, out)
	if err != nil {
		var we *CacheWriteError
		if !errors.As(err, &we) {
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
		l.logger.Warn("cache write failed, continuing uncached",
			zap.String("source", l.path), zap.Error(we))
		entry = &Entry{Text: out, Fingerprint: fp}
	}
	return entry, nil
}

// loadPlain executes the source untransformed.
func (l *Loader) loadPlain(ctx context.Context) (*Module, error) {
	src, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, l.path, err)
	}
	if err := l.executor.Execute(ctx, l.path, src); err != nil {
		return nil, fmt.Errorf("load %s: %w", l.name, err)
	}
	return &Module{
		Name:       l.name,
		SourcePath: l.path,
		source:     src,
	}, nil
}
