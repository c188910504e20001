package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	artifactsDir = "artifacts"
	zstdExt      = ".zst"

	// Artifacts at or below this size are stored as is.
	compressThreshold = 1024
)

// DiskStore is a content-addressed store for audio artifacts. An artifact
// is named by its key and extension and lives at
// <dir>/artifacts/<key[:2]>/<key>.<ext>, with a .zst suffix when it was
// compressed. Artifacts are never evicted.
type DiskStore struct {
	dir string

	// Compression
	compressionLevel int
	encoder          *zstd.Encoder
	decoder          *zstd.Decoder

	mu sync.Mutex
}

// NewDiskStore creates a store rooted at dir. A compressionLevel of zero
// disables compression.
func NewDiskStore(dir string, compressionLevel int) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, artifactsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	ds := &DiskStore{dir: dir, compressionLevel: compressionLevel}

	var err error
	if compressionLevel > 0 {
		ds.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// Always able to read compressed artifacts, even with compression off.
	ds.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return ds, nil
}

// Dir returns the root directory of the store.
func (ds *DiskStore) Dir() string {
	return ds.dir
}

// Write stores data under key and returns the artifact's absolute path. If
// an artifact for key and ext already exists it is reused.
func (ds *DiskStore) Write(ctx context.Context, key, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(key) < 2 {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	ext = strings.TrimPrefix(ext, ".")

	ds.mu.Lock()
	defer ds.mu.Unlock()

	plain := ds.Path(key + "." + ext)
	for _, candidate := range []string{plain, plain + zstdExt} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Only compress if it actually reduces size
	path, payload := plain, data
	if ds.encoder != nil && len(data) > compressThreshold {
		if compressed := ds.encoder.EncodeAll(data, nil); len(compressed) < len(data) {
			path, payload = plain+zstdExt, compressed
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := writeFile(path, payload); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// Import stores an artifact under its existing name, as produced by Name.
func (ds *DiskStore) Import(name string, payload []byte) (string, error) {
	path := ds.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := writeFile(path, payload); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return path, nil
}

// Read returns the decoded contents of the artifact at location.
func (ds *DiskStore) Read(location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, location)
		}
		return nil, err
	}
	if !strings.HasSuffix(location, zstdExt) {
		return data, nil
	}
	decoded, err := ds.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupted, location, err)
	}
	return decoded, nil
}

// ReadRaw returns the artifact bytes exactly as stored.
func (ds *DiskStore) ReadRaw(name string) ([]byte, error) {
	return os.ReadFile(ds.Path(name))
}

// Exists reports whether the artifact at location is a readable file.
func (ds *DiskStore) Exists(location string) bool {
	info, err := os.Stat(location)
	return err == nil && info.Mode().IsRegular()
}

// Path resolves an artifact name to its absolute location.
func (ds *DiskStore) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	base := filepath.Base(name)
	shard := base
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(ds.dir, artifactsDir, shard, base)
}

// Name returns the store-relative name of a location.
func (ds *DiskStore) Name(location string) string {
	return filepath.Base(location)
}

// Format returns the audio container of an artifact, ignoring compression.
func Format(location string) string {
	return strings.TrimPrefix(filepath.Ext(strings.TrimSuffix(location, zstdExt)), ".")
}

// Usage counts the artifacts on disk and their size.
func (ds *DiskStore) Usage() (files int64, bytes int64, err error) {
	root := filepath.Join(ds.dir, artifactsDir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, bytes, err
}

// Clear removes every artifact.
func (ds *DiskStore) Clear() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	root := filepath.Join(ds.dir, artifactsDir)
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("failed to remove artifacts: %w", err)
	}
	return os.MkdirAll(root, 0o755)
}

// Close releases the codecs.
func (ds *DiskStore) Close() error {
	if ds.encoder != nil {
		if err := ds.encoder.Close(); err != nil {
			return err
		}
	}
	ds.decoder.Close()
	return nil
}

func writeFile(path string, data []byte) error {
	// Write to temp file first, then rename (atomic on most systems)
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}
