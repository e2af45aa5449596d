package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

// Key derives a file-safe cache key from the endpoint and the encoded
// request. Two requests share a key only if they would send the same body
// to the same service.
func Key(endpoint string, req tts.Request) (string, error) {
	body, err := req.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode request for cache key: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)[:16]), nil
}
