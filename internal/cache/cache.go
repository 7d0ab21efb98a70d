// Package cache holds prior handler results keyed by method and params.
//
// Entries expire after a per-method TTL and are also invalidated when any
// file matched by the method's watch patterns changes. Invalidation is
// lazy: a stale entry is evicted the next time it is read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Snapshot maps a watched file path to its modification time in unix
// nanoseconds, or 0 if the file was missing.
type Snapshot map[string]int64

// Equal reports whether two snapshots cover the same files with the same
// modification times.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for path, mtime := range s {
		if o, ok := other[path]; !ok || o != mtime {
			return false
		}
	}
	return true
}

// Config controls per-method caching.
type Config struct {
	// Root is the directory relative watch patterns are resolved against.
	Root string
	// TTL is seconds per method. Zero or missing disables caching.
	TTL map[string]int
	// Watch lists glob patterns per method.
	Watch map[string][]string
}

type entry struct {
	value     any
	expiresAt int64
	files     Snapshot
}

// Cache is not safe for concurrent use; the server dispatches one request
// at a time.
type Cache struct {
	cfg     Config
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty Cache.
func New(cfg Config) *Cache {
	return &Cache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Key derives a deterministic cache key from method and params. Map keys
// are serialized in sorted order, so equal params always hash the same.
func Key(method string, params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(data)
	return method + ":" + hex.EncodeToString(sum[:])
}

// TTL returns the configured time-to-live in seconds for method.
func (c *Cache) TTL(method string) int {
	return c.cfg.TTL[method]
}

// Get returns the stored value for key when caching is enabled for method,
// the entry has not expired, and its watched files are unchanged.
func (c *Cache) Get(method, key string) (any, bool) {
	if c.TTL(method) <= 0 {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Unix() > e.expiresAt {
		delete(c.entries, key)
		return nil, false
	}
	if !c.snapshot(method).Equal(e.files) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key. It is a no-op when caching is disabled for
// method.
func (c *Cache) Put(method, key string, value any) {
	ttl := c.TTL(method)
	if ttl <= 0 {
		return
	}
	c.entries[key] = &entry{
		value:     value,
		expiresAt: c.now().Unix() + int64(ttl),
		files:     c.snapshot(method),
	}
}

// Len returns the number of stored entries, including stale ones not yet
// evicted.
func (c *Cache) Len() int {
	return len(c.entries)
}

// snapshot expands the method's watch patterns and records each match's
// modification time.
func (c *Cache) snapshot(method string) Snapshot {
	snap := Snapshot{}
	for _, path := range c.watchedFiles(method) {
		info, err := os.Stat(path)
		if err != nil {
			snap[path] = 0
			continue
		}
		snap[path] = info.ModTime().UnixNano()
	}
	return snap
}

func (c *Cache) watchedFiles(method string) []string {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range c.cfg.Watch[method] {
		if !filepath.IsAbs(pattern) && c.cfg.Root != "" {
			pattern = filepath.Join(c.cfg.Root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files
}
