package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(t *testing.T, cfg Config) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(cfg)
	c.now = clock.now
	return c, clock
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// --- Key ---

func TestKey_StableAcrossMapOrder(t *testing.T) {
	a := Key("m", map[string]any{"a": 1, "b": map[string]any{"x": 1, "y": 2}})
	b := Key("m", map[string]any{"b": map[string]any{"y": 2, "x": 1}, "a": 1})
	if a != b {
		t.Errorf("keys differ: %s vs %s", a, b)
	}
}

func TestKey_DiffersByMethodAndParams(t *testing.T) {
	base := Key("m", map[string]any{"a": 1})
	if base == Key("n", map[string]any{"a": 1}) {
		t.Error("different methods should produce different keys")
	}
	if base == Key("m", map[string]any{"a": 2}) {
		t.Error("different params should produce different keys")
	}
}

func TestKey_NilEqualsEmpty(t *testing.T) {
	if Key("m", nil) != Key("m", map[string]any{}) {
		t.Error("nil and empty params should share a key")
	}
}

// --- Get / Put ---

func TestPutGet_RoundTripWithinTTL(t *testing.T) {
	c, clock := newTestCache(t, Config{TTL: map[string]int{"m": 10}})
	value := map[string]any{"answer": float64(42)}
	key := Key("m", nil)

	c.Put("m", key, value)
	clock.t = clock.t.Add(10 * time.Second)

	got, ok := c.Get("m", key)
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if !reflect.DeepEqual(got, value) {
		t.Errorf("Get = %#v, want %#v", got, value)
	}
}

func TestGet_ExpiredEntryIsEvicted(t *testing.T) {
	c, clock := newTestCache(t, Config{TTL: map[string]int{"m": 10}})
	key := Key("m", nil)
	c.Put("m", key, "v")

	clock.t = clock.t.Add(11 * time.Second)
	if _, ok := c.Get("m", key); ok {
		t.Fatal("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted, Len = %d", c.Len())
	}
}

func TestPut_DisabledTTLIsNoop(t *testing.T) {
	c, _ := newTestCache(t, Config{TTL: map[string]int{"m": 0}})
	c.Put("m", "k", "v")
	c.Put("other", "k2", "v")
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if _, ok := c.Get("m", "k"); ok {
		t.Error("disabled method should never hit")
	}
}

func TestGet_WatchedFileMtimeChangeInvalidates(t *testing.T) {
	root := t.TempDir()
	watched := filepath.Join(root, "routes", "table.json")
	writeFile(t, watched, "{}")

	c, _ := newTestCache(t, Config{
		Root:  root,
		TTL:   map[string]int{"m": 60},
		Watch: map[string][]string{"m": {"routes/*.json"}},
	})
	key := Key("m", nil)
	c.Put("m", key, "v")

	if _, ok := c.Get("m", key); !ok {
		t.Fatal("expected hit before file change")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(watched, later, later); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("m", key); ok {
		t.Fatal("expected miss after mtime change")
	}
}

func TestGet_NewMatchingFileInvalidates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "a")

	c, _ := newTestCache(t, Config{
		Root:  root,
		TTL:   map[string]int{"m": 60},
		Watch: map[string][]string{"m": {"*.md"}},
	})
	key := Key("m", nil)
	c.Put("m", key, "v")

	writeFile(t, filepath.Join(root, "b.md"), "b")
	if _, ok := c.Get("m", key); ok {
		t.Fatal("expected miss after a new file matched the pattern")
	}
}

func TestSnapshot_DeduplicatesOverlappingPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "a")

	c, _ := newTestCache(t, Config{
		Root:  root,
		TTL:   map[string]int{"m": 60},
		Watch: map[string][]string{"m": {"*.md", "a.*"}},
	})
	snap := c.snapshot("m")
	if len(snap) != 1 {
		t.Errorf("snapshot = %v, want one file", snap)
	}
}

func TestSnapshot_Equal(t *testing.T) {
	a := Snapshot{"x": 1, "y": 2}
	if !a.Equal(Snapshot{"y": 2, "x": 1}) {
		t.Error("equal snapshots reported different")
	}
	if a.Equal(Snapshot{"x": 1}) {
		t.Error("different sizes reported equal")
	}
	if a.Equal(Snapshot{"x": 1, "y": 3}) {
		t.Error("different mtimes reported equal")
	}
	if a.Equal(Snapshot{"x": 1, "z": 2}) {
		t.Error("different paths reported equal")
	}
}
