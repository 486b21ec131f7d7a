package relift

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Entry is one cached transformed-source artifact together with the
// fingerprint it was computed for.
type Entry struct {
	// Path is the on-disk location of the transformed source.
	Path string

	// Text is the transformed source, byte for byte what the payload holds.
	Text []byte

	// Fingerprint identifies the (source, configuration) pair the entry was
	// computed for.
	Fingerprint Fingerprint

	// CreatedAt is when the entry was written.
	CreatedAt time.Time
}

// Get retrieves the cache entry for a live fingerprint. Any divergence from
// the state the entry was recorded under — source content changed,
// configuration changed, payload corrupted — is ErrCacheMiss, never a
// partial or stale hit.
func (s *Store) Get(live Fingerprint) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifestPath := s.manifestPath(live)

	exists, err := afero.Exists(s.fs, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check manifest: %w", err)
	}
	if !exists {
		s.metrics.Misses++
		s.logger.Debug("cache miss", zap.String("source", live.Path))
		return nil, ErrCacheMiss
	}

	m, err := s.loadManifest(manifestPath)
	if err != nil {
		// A corrupted manifest is a miss; the next Put rewrites it.
		s.metrics.Misses++
		s.logger.Debug("cache miss (corrupt manifest)",
			zap.String("source", live.Path), zap.Error(err))
		return nil, ErrCacheMiss
	}

	if !m.Fingerprint.Matches(live) {
		s.metrics.Misses++
		s.logger.Debug("cache miss (stale)",
			zap.String("source", live.Path),
			zap.String("recorded", m.Fingerprint.ContentHash),
			zap.String("live", live.ContentHash))
		return nil, ErrCacheMiss
	}

	entryPath := s.EntryPath(live)
	text, err := afero.ReadFile(s.fs, entryPath)
	if err != nil {
		s.metrics.Misses++
		s.logger.Debug("cache miss (payload unreadable)",
			zap.String("entry", entryPath), zap.Error(err))
		return nil, ErrCacheMiss
	}

	digest, err := contentDigest(s.hashFunc, text)
	if err != nil {
		return nil, fmt.Errorf("failed to hash payload: %w", err)
	}
	if digest != m.OutputHash {
		s.metrics.Misses++
		s.logger.Debug("cache miss (payload mismatch)", zap.String("entry", entryPath))
		return nil, ErrCacheMiss
	}

	s.metrics.Hits++
	s.logger.Debug("cache hit", zap.String("entry", entryPath))

	return &Entry{
		Path:        entryPath,
		Text:        text,
		Fingerprint: m.Fingerprint,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// Put stores transformed text under a fingerprint. The payload is written
// before the manifest and both writes are atomic, so a visible manifest
// always refers to a complete payload. Failures are *CacheWriteError.
func (s *Store) Put(fp Fingerprint, transformed []byte) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryPath := s.EntryPath(fp)

	digest, err := contentDigest(s.hashFunc, transformed)
	if err != nil {
		return nil, fmt.Errorf("failed to hash payload: %w", err)
	}

	if err := s.writeFileAtomic(entryPath, transformed); err != nil {
		s.metrics.WriteErrors++
		return nil, &CacheWriteError{Path: entryPath, Err: err}
	}

	m := &manifest{
		Fingerprint: fp,
		OutputHash:  digest,
		CreatedAt:   s.nowFunc(),
	}
	if err := s.saveManifest(s.manifestPath(fp), m); err != nil {
		s.metrics.WriteErrors++
		return nil, &CacheWriteError{Path: s.manifestPath(fp), Err: err}
	}

	s.metrics.Puts++
	s.logger.Debug("cache write", zap.String("entry", entryPath))

	return &Entry{
		Path:        entryPath,
		Text:        transformed,
		Fingerprint: fp,
		CreatedAt:   m.CreatedAt,
	}, nil
}
