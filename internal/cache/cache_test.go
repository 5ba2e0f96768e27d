package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hargabyte/cl-bindgen/internal/cdecl"
	"github.com/hargabyte/cl-bindgen/internal/emit"
)

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheOpenClose(t *testing.T) {
	dir := t.TempDir()

	cache, err := Open(dir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	expectedPath := filepath.Join(dir, "cache.db")
	if cache.Path() != expectedPath {
		t.Errorf("path = %q, want %q", cache.Path(), expectedPath)
	}

	if err := cache.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	cache2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer cache2.Close()
}

func TestStoreAndLookup(t *testing.T) {
	cache := setupTestCache(t)

	hash := InputHash([]byte("int x;\n"), "opts")
	entry := &Entry{
		FilePath:  "a.h",
		InputHash: hash,
		Output:    []byte("(defcvar \"x\" :int)\n"),
		Warnings: []emit.Warning{{
			Kind:    emit.MacroValueUnresolved,
			Message: "macro FOO",
			Loc:     cdecl.Location{File: "a.h", Line: 3, Column: 1},
		}},
		StoredAt: time.Now().Truncate(time.Second),
	}
	if err := cache.Store(entry); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := cache.Lookup("a.h", hash)
	if err != nil || !ok {
		t.Fatalf("lookup = %v, %v", ok, err)
	}
	if string(got.Output) != string(entry.Output) {
		t.Errorf("output = %q", got.Output)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != entry.Warnings[0] {
		t.Errorf("warnings = %+v", got.Warnings)
	}
	if !got.StoredAt.Equal(entry.StoredAt) {
		t.Errorf("stored at = %v, want %v", got.StoredAt, entry.StoredAt)
	}
}

func TestLookupMisses(t *testing.T) {
	cache := setupTestCache(t)

	if _, ok, err := cache.Lookup("missing.h", "x"); ok || err != nil {
		t.Errorf("missing entry: ok = %v err = %v", ok, err)
	}

	if err := cache.Store(&Entry{FilePath: "a.h", InputHash: "old"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok, err := cache.Lookup("a.h", "new"); ok || err != nil {
		t.Errorf("stale entry: ok = %v err = %v", ok, err)
	}
	got, ok, err := cache.Lookup("a.h", "old")
	if !ok || err != nil {
		t.Fatalf("fresh entry: ok = %v err = %v", ok, err)
	}
	if len(got.Output) != 0 || len(got.Warnings) != 0 {
		t.Errorf("empty entry = %+v", got)
	}
}

func TestInputHash(t *testing.T) {
	base := InputHash([]byte("int x;"), "a")
	if base != InputHash([]byte("int x;"), "a") {
		t.Error("hash is not stable")
	}
	if base == InputHash([]byte("int x;"), "b") {
		t.Error("fingerprint does not change the hash")
	}
	if base == InputHash([]byte("int y;"), "a") {
		t.Error("content does not change the hash")
	}
	if InputHash([]byte("ab"), "c") == InputHash([]byte("a"), "bc") {
		t.Error("content and fingerprint are not separated")
	}
}

func TestStatsAndClear(t *testing.T) {
	cache := setupTestCache(t)

	cache.Store(&Entry{FilePath: "a.h", InputHash: "1", Output: []byte("abc")})
	cache.Store(&Entry{FilePath: "b.h", InputHash: "2", Output: []byte("de")})

	stats, err := cache.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Passes != 2 || stats.OutputBytes != 5 {
		t.Errorf("stats = %+v", stats)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	stats, err = cache.GetStats()
	if err != nil {
		t.Fatalf("get stats after clear: %v", err)
	}
	if stats.Passes != 0 || stats.OutputBytes != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestPruneStaleEntries(t *testing.T) {
	cache := setupTestCache(t)

	for _, p := range []string{"a.h", "b.h", "c.h"} {
		if err := cache.Store(&Entry{FilePath: p, InputHash: "h"}); err != nil {
			t.Fatalf("store %s: %v", p, err)
		}
	}

	pruned, err := cache.PruneStaleEntries(map[string]bool{"b.h": true})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned)
	}

	paths, err := cache.Paths()
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if len(paths) != 1 || paths[0] != "b.h" {
		t.Errorf("paths = %v", paths)
	}
}
