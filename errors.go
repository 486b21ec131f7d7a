package relift

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrCacheMiss is returned when no valid cache entry exists for a fingerprint.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotApplicable signals that a path entry is not handled by relift and
	// that loading should fall through to plain execution. It is a routing
	// signal, not a failure.
	ErrNotApplicable = errors.New("path not applicable")

	// ErrModuleNotFound is returned when a finder cannot resolve a module name
	// within its path entry.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSourceNotFound is returned when a module's source file vanished or
	// became unreadable between discovery and load.
	ErrSourceNotFound = errors.New("source not found")

	// ErrConfigConflict is returned when Install is called on an already
	// installed registry with a different directory set or configuration.
	ErrConfigConflict = errors.New("configuration conflict")

	// ErrUnknownRule is returned when a configuration names a rewrite rule
	// the transformer does not provide.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrNotInstalled is returned when a load is requested from a registry
	// that has no active installation.
	ErrNotInstalled = errors.New("registry not installed")
)

// TransformError reports a failure of the source transformer. The load that
// triggered it fails; relift never falls back to executing the raw source,
// since that would surface confusing downstream errors far from the cause.
type TransformError struct {
	Path string // source file being transformed
	Rule string // rule active at failure, empty if the source did not parse
	Err  error  // underlying tool diagnostic
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("transform of %s failed in rule %q: %v", e.Path, e.Rule, e.Err)
	}
	return fmt.Sprintf("transform of %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying diagnostic.
func (e *TransformError) Unwrap() error {
	return e.Err
}

// CacheWriteError reports a failure to persist a cache entry. Caching is an
// optimization, not a correctness requirement: a load still succeeds with the
// in-memory transformed text, just slower on repeat loads.
type CacheWriteError struct {
	Path string // cache entry path that could not be written
	Err  error
}

// Error implements the error interface.
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write to %s failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheWriteError) Unwrap() error {
	return e.Err
}
