package cache

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	compressedExt = ".zst"
	rawExt        = ".pcm"
)

// DiskCache stores one file per key. Entries are compressed with zstd when
// a compression level is set and written atomically through a temp file.
// An entry's age is its file modification time.
type DiskCache struct {
	basePath string
	ttl      time.Duration

	// Compression
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	stats CacheStats
}

// NewDiskCache creates the cache directory if needed. A compressionLevel
// of 0 stores audio uncompressed; ttl of 0 keeps entries forever.
func NewDiskCache(basePath string, compressionLevel int, ttl time.Duration) (*DiskCache, error) {
	if basePath == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		ttl:      ttl,
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	// Always able to read entries written with compression, even when
	// compression is now off.
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	dc.decoder = decoder

	return dc, nil
}

// Get returns the audio stored under key. Expired or unreadable entries
// are removed and reported as a miss.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, ext := range []string{compressedExt, rawExt} {
		path := dc.filePath(key, ext)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if dc.expired(info.ModTime()) {
			os.Remove(path) //nolint:errcheck
			dc.stats.Expired++
			break
		}

		data, err := os.ReadFile(path)
		if err != nil {
			break
		}
		if ext == compressedExt {
			data, err = dc.decoder.DecodeAll(data, nil)
			if err != nil {
				os.Remove(path) //nolint:errcheck
				break
			}
		}

		dc.stats.Hits++
		return data, true
	}

	dc.stats.Misses++
	return nil, false
}

// Put stores value under key, replacing any earlier entry.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	ext := rawExt
	data := value
	// Only keep the compressed form when it is actually smaller
	if dc.encoder != nil {
		if compressed := dc.encoder.EncodeAll(value, nil); len(compressed) < len(value) {
			data = compressed
			ext = compressedExt
		}
	}

	dc.removeKey(key)

	if err := writeFile(dc.filePath(key, ext), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for key, if any.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.removeKey(key)
	return nil
}

// Clear removes all entries from the disk cache.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, err := dc.walk(func(string, fs.FileInfo) bool { return true })
	return err
}

// Prune removes entries older than maxAge and returns how many were removed.
func (dc *DiskCache) Prune(maxAge time.Duration) (int, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	return dc.walk(func(_ string, info fs.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size, stats.ItemCount = dc.usage()
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// Dir returns the directory entries are stored in.
func (dc *DiskCache) Dir() string {
	return dc.basePath
}

// Close releases the zstd encoder and decoder.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	if dc.encoder != nil {
		return dc.encoder.Close()
	}
	return nil
}

// Private helper methods

func (dc *DiskCache) filePath(key, ext string) string {
	return filepath.Join(dc.basePath, key+ext)
}

func (dc *DiskCache) expired(modTime time.Time) bool {
	return dc.ttl > 0 && time.Since(modTime) > dc.ttl
}

func (dc *DiskCache) removeKey(key string) {
	os.Remove(dc.filePath(key, compressedExt)) //nolint:errcheck
	os.Remove(dc.filePath(key, rawExt))        //nolint:errcheck
}

// walk removes every cache file for which remove returns true.
func (dc *DiskCache) walk(remove func(path string, info fs.FileInfo) bool) (int, error) {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isCacheFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dc.basePath, entry.Name())
		if remove(path, info) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (dc *DiskCache) usage() (size, count int64) {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		if entry.IsDir() || !isCacheFile(entry.Name()) {
			continue
		}
		if info, err := entry.Info(); err == nil {
			size += info.Size()
			count++
		}
	}
	return size, count
}

func isCacheFile(name string) bool {
	return strings.HasSuffix(name, compressedExt) || strings.HasSuffix(name, rawExt)
}

func writeFile(path string, data []byte) error {
	// Write to temp file first, then rename (atomic on most systems)
	file, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	_, err = bytes.NewReader(data).WriteTo(file)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath) //nolint:errcheck
		return closeErr
	}

	return os.Rename(tempPath, path)
}
