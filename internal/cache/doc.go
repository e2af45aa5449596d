// Package cache keeps synthesized audio on disk, zstd compressed, so the
// CLI can answer a repeated request without calling the service again.
// The bytes client itself never caches.
package cache
