package cache

import (
	"context"

	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

// CacheStats holds cache performance metrics
type CacheStats struct {
	// Current state
	Size      int64 // Bytes on disk
	ItemCount int64 // Number of cached entries

	// Performance metrics
	Hits    int64   // Number of cache hits
	Misses  int64   // Number of cache misses
	Expired int64   // Entries dropped for being older than the TTL
	HitRate float64 // Calculated hit rate (hits / (hits + misses))
}

// Cache defines the interface for cache implementations
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Stats() CacheStats
}

// Sender is the part of a synthesizer the cache wraps.
type Sender interface {
	Send(ctx context.Context, req tts.Request) (*tts.Result, error)
}
