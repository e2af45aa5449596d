package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, level int, ttl time.Duration) *DiskCache {
	t.Helper()
	dc, err := NewDiskCache(t.TempDir(), level, ttl)
	if err != nil {
		t.Fatalf("Failed to create disk cache: %v", err)
	}
	t.Cleanup(func() { dc.Close() })
	return dc
}

func TestDiskCache_BasicOperations(t *testing.T) {
	for _, level := range []int{0, 3} {
		dc := newTestCache(t, level, 0)

		key := "abc123"
		value := bytes.Repeat([]byte("audio"), 1000)

		if err := dc.Put(key, value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		got, ok := dc.Get(key)
		if !ok {
			t.Fatalf("level %d: key not found", level)
		}
		if !bytes.Equal(got, value) {
			t.Errorf("level %d: retrieved value mismatch", level)
		}

		if err := dc.Delete(key); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok := dc.Get(key); ok {
			t.Errorf("level %d: key still exists after delete", level)
		}
	}
}

func TestDiskCache_Compression(t *testing.T) {
	dc := newTestCache(t, 3, 0)

	compressible := bytes.Repeat([]byte{0}, 64*1024)
	if err := dc.Put("zeros", compressible); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dc.Dir(), "zeros"+compressedExt)); err != nil {
		t.Errorf("Expected compressed entry: %v", err)
	}

	stats := dc.Stats()
	if stats.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", stats.ItemCount)
	}
	if stats.Size >= int64(len(compressible)) {
		t.Errorf("Compressed size %d should be below %d", stats.Size, len(compressible))
	}

	// Tiny inputs do not shrink and are stored as is
	if err := dc.Put("tiny", []byte{1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dc.Dir(), "tiny"+rawExt)); err != nil {
		t.Errorf("Expected raw entry: %v", err)
	}
}

func TestDiskCache_ReadsCompressedAfterDisabling(t *testing.T) {
	dir := t.TempDir()
	value := bytes.Repeat([]byte("ab"), 4096)

	compressed, err := NewDiskCache(dir, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := compressed.Put("k", value); err != nil {
		t.Fatal(err)
	}
	compressed.Close()

	plain, err := NewDiskCache(dir, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Close()

	got, ok := plain.Get("k")
	if !ok || !bytes.Equal(got, value) {
		t.Error("Expected compressed entry to be readable without compression")
	}
}

func TestDiskCache_Overwrite(t *testing.T) {
	dc := newTestCache(t, 3, 0)

	if err := dc.Put("k", bytes.Repeat([]byte{0}, 4096)); err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("k", []byte{9}); err != nil {
		t.Fatal(err)
	}

	got, ok := dc.Get("k")
	if !ok || !bytes.Equal(got, []byte{9}) {
		t.Errorf("Expected latest value, got %v", got)
	}
	if n := dc.Stats().ItemCount; n != 1 {
		t.Errorf("ItemCount = %d, want 1", n)
	}
}

func TestDiskCache_TTL(t *testing.T) {
	dc := newTestCache(t, 0, time.Hour)

	if err := dc.Put("old", []byte("x")); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dc.Dir(), "old"+rawExt), past, past); err != nil {
		t.Fatal(err)
	}

	if _, ok := dc.Get("old"); ok {
		t.Error("Expired entry should be a miss")
	}
	stats := dc.Stats()
	if stats.Expired != 1 || stats.ItemCount != 0 {
		t.Errorf("Unexpected stats after expiry: %+v", stats)
	}
}

func TestDiskCache_PruneAndClear(t *testing.T) {
	dc := newTestCache(t, 0, 0)

	for _, k := range []string{"a", "b", "c"} {
		if err := dc.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dc.Dir(), "a"+rawExt), past, past); err != nil {
		t.Fatal(err)
	}

	// Files that are not cache entries are left alone
	if err := os.WriteFile(filepath.Join(dc.Dir(), "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := dc.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}

	if err := dc.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n := dc.Stats().ItemCount; n != 0 {
		t.Errorf("ItemCount after clear = %d", n)
	}
	if _, err := os.Stat(filepath.Join(dc.Dir(), "notes.txt")); err != nil {
		t.Error("Clear should not remove unrelated files")
	}
}

func TestDiskCache_Stats(t *testing.T) {
	dc := newTestCache(t, 0, 0)

	if err := dc.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	dc.Get("k")
	dc.Get("missing")

	stats := dc.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestNewDiskCache_EmptyDir(t *testing.T) {
	if _, err := NewDiskCache("", 3, 0); err == nil {
		t.Error("Expected error for empty directory")
	}
}
