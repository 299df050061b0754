// Package cachefile implements the per-project translation cache: a JSON
// document mapping original strings to their translations. The cache is
// what makes interrupted runs cheap to resume — every flushed batch is
// durable, so a killed process never pays twice for the same string.
//
// The file lives under the tool's cache directory, keyed by a hash of the
// project root, so several projects never collide.
package cachefile

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// File is an in-memory view of one project's cache document. All methods
// are safe for concurrent use; writes go through an atomic temp-then-rename
// so no reader ever observes a half-written file.
type File struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

// Path returns the cache file location for a project root inside dir.
func Path(dir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(dir, fmt.Sprintf("cache_%x.json", sum)), nil
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the cache for the given project root from dir. A missing file
// yields an empty cache. A file that no longer parses is moved aside to a
// ".bad-<timestamp>" name and replaced by an empty cache, so one corrupted
// write never wedges the project.
func Load(dir, root string) (*File, error) {
	path, err := Path(dir, root)
	if err != nil {
		return nil, err
	}
	f := &File{
		path:    path,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &f.entries); err != nil {
		backup := fmt.Sprintf("%s.bad-%d", path, time.Now().Unix())
		os.Rename(path, backup)
		f.entries = make(map[string]string)
		return f, nil
	}
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	return f, nil
}

// Save writes the cache document atomically: marshal, write a sibling .tmp
// file, fsync, rename over the real path.
func (f *File) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked()
}

func (f *File) saveLocked() error {
	if f.path == "" {
		return fmt.Errorf("cache file path not set")
	}
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp := f.path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

// Path returns the cache file path.
func (f *File) Path() string {
	return f.path
}

// ---------------------------------------------------------------------------
// Entry operations
// ---------------------------------------------------------------------------

// Get looks up the cached translation for an original string.
func (f *File) Get(original string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.entries[original]
	return t, ok
}

// Merge adds every pair from m into the cache, overwriting existing keys.
func (f *File) Merge(m map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range m {
		f.entries[k] = v
	}
}

// MergeAndSave merges m and flushes to disk as one step under the cache
// lock, so concurrent batch completions serialize their writes. On a flush
// error the merged entries stay in memory for the next save point.
func (f *File) MergeAndSave(m map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range m {
		f.entries[k] = v
	}
	return f.saveLocked()
}

// Len reports the number of cached translations.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Snapshot returns a copy of the cache contents for write-back.
func (f *File) Snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out
}

// Clear empties the cache and removes its file from disk.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]string)
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", f.path, err)
	}
	return nil
}
