package relift

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Fingerprint identifies one (source file, configuration) pair. It combines
// the file's identity, a content signature and the configuration tag. Two
// loads of the same physical file under the same configuration produce equal
// fingerprints; any change to content or configuration produces a different
// one, which the store treats as a miss.
type Fingerprint struct {
	// Path is the absolute path of the source file.
	Path string `json:"path"`

	// Size and ModTime form the cheap part of the content signature. They
	// are recorded for diagnostics; equality is decided by ContentHash.
	Size    int64 `json:"size"`
	ModTime int64 `json:"modTime"` // unix nanoseconds

	// ContentHash is the hex digest of the file content.
	ContentHash string `json:"contentHash"`

	// ConfigTag is Config.Tag() of the active configuration.
	ConfigTag string `json:"configTag"`
}

// Matches reports whether the stored fingerprint is still valid for the
// live one. Size and mtime are advisory; content and configuration decide.
func (f Fingerprint) Matches(live Fingerprint) bool {
	return f.Path == live.Path &&
		f.ContentHash == live.ContentHash &&
		f.ConfigTag == live.ConfigTag
}

// fingerprintSource reads a source file and computes its fingerprint under
// the given configuration. The source bytes are returned alongside so the
// caller does not read the file twice on a miss.
func fingerprintSource(fs afero.Fs, hashFunc HashFunc, path string, cfg Config) (Fingerprint, []byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return Fingerprint{}, nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return Fingerprint{}, nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	digest, err := contentDigest(hashFunc, src)
	if err != nil {
		return Fingerprint{}, nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return Fingerprint{
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime().UnixNano(),
		ContentHash: digest,
		ConfigTag:   cfg.Tag(),
	}, src, nil
}

// contentDigest hashes a byte slice with the configured hash function and
// returns the hex digest.
func contentDigest(hashFunc HashFunc, data []byte) (string, error) {
	h := hashFunc()
	if err := hashContent(bytes.NewReader(data), h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashBufferPool holds reusable I/O buffers for hashing so payload
// verification on every cache hit does not allocate.
var hashBufferPool = sync.Pool{
	New: func() any {
		buffer := make([]byte, 32*1024)
		return &buffer
	},
}

// hashContent feeds content into h through a pooled buffer.
func hashContent(content io.Reader, h hash.Hash) error {
	bufPtr := hashBufferPool.Get().(*[]byte)
	defer hashBufferPool.Put(bufPtr)

	if _, err := io.CopyBuffer(h, content, *bufPtr); err != nil {
		return fmt.Errorf("failed to copy content: %w", err)
	}
	return nil
}

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return xxhash.New()
}
