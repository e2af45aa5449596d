package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

// CachedSender answers repeated requests from a cache and sends everything
// else through next, storing successful results.
type CachedSender struct {
	next     Sender
	cache    Cache
	endpoint string
	logger   *log.Logger
}

// NewCachedSender wraps next with cache. endpoint scopes the keys so two
// services never share entries.
func NewCachedSender(next Sender, cache Cache, endpoint string, logger *log.Logger) *CachedSender {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedSender{
		next:     next,
		cache:    cache,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Send returns the cached audio for req when present.
func (s *CachedSender) Send(ctx context.Context, req tts.Request) (*tts.Result, error) {
	key, err := Key(s.endpoint, req)
	if err != nil {
		return nil, err
	}

	if audio, ok := s.cache.Get(key); ok {
		s.logger.Debug("Cache hit", "key", key, "bytes", len(audio))
		return &tts.Result{Audio: audio}, nil
	}

	result, err := s.next.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	// A failed write only costs a future cache hit
	if err := s.cache.Put(key, result.Audio); err != nil {
		s.logger.Warn("Failed to cache audio", "key", key, "error", err)
	}
	return result, nil
}
