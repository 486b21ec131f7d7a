package relift

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransformer counts invocations so tests can assert that cache hits
// never pay the transform.
type fakeTransformer struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (f *fakeTransformer) Transform(src []byte, cfg Config) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	out := append([]byte("// lifted "+cfg.Tag()+"\n"), src...)
	return out, nil
}

func (f *fakeTransformer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeExecutor records what it was asked to run.
type fakeExecutor struct {
	mu    sync.Mutex
	paths []string
	srcs  []string
}

func (f *fakeExecutor) Execute(ctx context.Context, path string, src []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	f.srcs = append(f.srcs, string(src))
	return nil
}

func newTestRegistry(fs afero.Fs, tr SourceTransformer, ex Executor, extra ...Option) *Registry {
	opts := append([]Option{
		WithFs(fs),
		WithTransformer(tr),
		WithExecutor(ex),
		WithNowFunc(fixedNowFunc),
	}, extra...)
	return New(opts...)
}

func TestLoadTransformsOnceAndCaches(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/mod.go", []byte("package main\n"))

	tr := &fakeTransformer{}
	ex := &fakeExecutor{}
	reg := newTestRegistry(fs, tr, ex)
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	first, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.callCount())
	assert.True(t, first.Transformed)
	assert.Contains(t, first.CachePath, CacheDirName)

	second, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.callCount(), "second load must be a cache hit")
	assert.Equal(t, first.Source(), second.Source())
	assert.Equal(t, first.CachePath, second.CachePath)

	metrics := reg.Store().Metrics()
	assert.Equal(t, 1, metrics.Hits)
	assert.Equal(t, 1, metrics.Misses)
}

func TestLoadExecutesExactlyTheRecordedText(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/mod.go", []byte("package main\n"))

	tr := &fakeTransformer{}
	ex := &fakeExecutor{}
	reg := newTestRegistry(fs, tr, ex)
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	mod, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err)

	require.Len(t, ex.srcs, 1)
	assert.Equal(t, string(mod.Source()), ex.srcs[0],
		"executed text and Source() must never diverge")
	assert.Equal(t, mod.CachePath, ex.paths[0],
		"errors must attribute to the transformed-source location")

	// The on-disk entry holds the same bytes.
	onDisk, err := afero.ReadFile(fs, mod.CachePath)
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), ex.srcs[0])
}

func TestLoadRetransformsAfterEdit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/mod.go", []byte("package main\n"))

	tr := &fakeTransformer{}
	reg := newTestRegistry(fs, tr, &fakeExecutor{})
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	_, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err)
	require.Equal(t, 1, tr.callCount())

	writeSource(t, fs, "/proj/mod.go", []byte("package main // edited\n"))

	mod, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err)
	assert.Equal(t, 2, tr.callCount(), "content change must invalidate the entry")
	assert.Contains(t, string(mod.Source()), "edited")
}

func TestLoadTransformFailureCreatesNoEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/bad.go", []byte("not really go"))

	tr := &fakeTransformer{fail: &TransformError{Err: errors.New("cannot parse")}}
	ex := &fakeExecutor{}
	reg := newTestRegistry(fs, tr, ex)
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	_, err := reg.Load(context.Background(), "bad")
	require.Error(t, err)

	var te *TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/proj/bad.go", te.Path, "diagnostic should name the source file")

	assert.Empty(t, ex.srcs, "nothing may execute after a transform failure")

	entries, scanErr := reg.Store().Scan([]string{"/proj"})
	require.NoError(t, scanErr)
	assert.Empty(t, entries, "no cache entry may exist for a failed transform")
}

func TestLoadSurvivesUnwritableCache(t *testing.T) {
	base := afero.NewMemMapFs()
	writeSource(t, base, "/proj/mod.go", []byte("package main\n"))

	tr := &fakeTransformer{}
	ex := &fakeExecutor{}
	// Reads succeed, cache writes fail.
	reg := newTestRegistry(afero.NewReadOnlyFs(base), tr, ex)
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	mod, err := reg.Load(context.Background(), "mod")
	require.NoError(t, err, "caching is an optimization, the load must still succeed")
	assert.Empty(t, mod.CachePath)
	assert.True(t, mod.Transformed)
	require.Len(t, ex.srcs, 1)
	assert.Equal(t, string(mod.Source()), ex.srcs[0])
}

func TestLoadMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0o755))

	reg := newTestRegistry(fs, &fakeTransformer{}, &fakeExecutor{})
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	_, err := reg.Load(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLoadFileOutsideManagedDirsIsPlain(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSource(t, fs, "/proj/mod.go", []byte("package main\n"))
	writeSource(t, fs, "/other/plain.go", []byte("package main // plain\n"))

	tr := &fakeTransformer{}
	ex := &fakeExecutor{}
	reg := newTestRegistry(fs, tr, ex)
	require.NoError(t, reg.Install([]string{"/proj"}, Config{}))

	mod, err := reg.LoadFile(context.Background(), "/other/plain.go")
	require.NoError(t, err)

	assert.False(t, mod.Transformed)
	assert.Empty(t, mod.CachePath)
	assert.Equal(t, 0, tr.callCount(), "unmanaged paths must never be intercepted")
	require.Len(t, ex.srcs, 1)
	assert.Equal(t, "package main // plain\n", ex.srcs[0],
		"unmanaged loads must execute the raw bytes")
}
