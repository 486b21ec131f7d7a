package relift

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Stats summarizes the cache entries found under a directory set.
type Stats struct {
	Entries     int           // Total number of cache entries
	TotalSize   int64         // Total size of all payloads in bytes
	OldestEntry time.Duration // Age of the oldest entry
	NewestEntry time.Duration // Age of the newest entry
}

// EntryInfo describes a single cache entry for iteration.
type EntryInfo struct {
	Path       string // payload path
	SourcePath string // the source file the entry was computed from
	ConfigTag  string
	Size       int64
	CreatedAt  time.Time
}

// Scan enumerates the cache entries below the given source directories (or
// below the cache root when one is configured). Corrupted manifests are
// skipped; the next load rewrites them.
func (s *Store) Scan(dirs []string) ([]EntryInfo, error) {
	var entries []EntryInfo
	err := s.walkManifests(dirs, func(manifestPath string, m *manifest) error {
		payload := strings.TrimSuffix(manifestPath, ".json") + ".go"
		var size int64
		if info, err := s.fs.Stat(payload); err == nil {
			size = info.Size()
		}
		entries = append(entries, EntryInfo{
			Path:       payload,
			SourcePath: m.Fingerprint.Path,
			ConfigTag:  m.Fingerprint.ConfigTag,
			Size:       size,
			CreatedAt:  m.CreatedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats returns statistics about the cache entries below the given source
// directories.
func (s *Store) Stats(dirs []string) (Stats, error) {
	entries, err := s.Scan(dirs)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{}
	var oldest, newest time.Time
	for _, e := range entries {
		stats.Entries++
		stats.TotalSize += e.Size
		if oldest.IsZero() || e.CreatedAt.Before(oldest) {
			oldest = e.CreatedAt
		}
		if newest.IsZero() || e.CreatedAt.After(newest) {
			newest = e.CreatedAt
		}
	}

	now := s.nowFunc()
	if !oldest.IsZero() {
		stats.OldestEntry = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestEntry = now.Sub(newest)
	}
	return stats, nil
}

// Prune removes cache entries older than the given duration.
// Returns the number of entries removed.
func (s *Store) Prune(dirs []string, olderThan time.Duration) (int, error) {
	cutoff := s.nowFunc().Add(-olderThan)

	entries, err := s.Scan(dirs)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.fs.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return count, err
		}
		manifestPath := strings.TrimSuffix(e.Path, ".go") + ".json"
		if err := s.fs.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
			return count, err
		}
		count++
	}
	return count, nil
}

// Clear removes every cache marker directory below the given source
// directories. Returns the number of marker directories removed.
func (s *Store) Clear(dirs []string) (int, error) {
	markers, err := s.markerDirs(dirs)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, dir := range markers {
		if err := s.fs.RemoveAll(dir); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// markerDirs locates the cache marker directories for a directory set.
func (s *Store) markerDirs(dirs []string) ([]string, error) {
	if s.cacheRoot != "" {
		exists, err := afero.DirExists(s.fs, s.cacheRoot)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}
		return []string{s.cacheRoot}, nil
	}

	var markers []string
	for _, dir := range dirs {
		err := afero.Walk(s.fs, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && info.Name() == CacheDirName {
				markers = append(markers, path)
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return markers, nil
}

// walkManifests walks all manifest files under the marker directories and
// calls fn for each.
func (s *Store) walkManifests(dirs []string, fn func(manifestPath string, m *manifest) error) error {
	markers, err := s.markerDirs(dirs)
	if err != nil {
		return err
	}

	for _, marker := range markers {
		err := afero.Walk(s.fs, marker, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}
			m, err := s.loadManifest(path)
			if err != nil {
				// Skip corrupted manifests
				return nil
			}
			return fn(path, m)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
