// Package settings provides storage for translator user settings, chiefly
// the per-backend API credential store.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/translator/auth.json  (default: ~/.local/share/translator/)
//
// The file is a JSON object keyed by backend name. Each entry holds an
// ordered list of API keys — the order is the token rotation order — plus
// the time the entry was last written. File permissions are 0600.
//
// Lookup order for API keys at run time:
//  1. --api-key flag / keys in .translator.yaml (highest priority)
//  2. TRANSLATOR_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	appDirName = "translator"
	fileName   = "auth.json"
)

// ---------------------------------------------------------------------------
// Store types
// ---------------------------------------------------------------------------

// Entry holds the credentials stored for one backend.
type Entry struct {
	// Keys in rotation order. Several keys per backend are common; the
	// token pool cycles through them.
	Keys []string `json:"keys"`

	// Added records when the entry was last written.
	Added time.Time `json:"added"`
}

// Store holds all backend credentials, keyed by backend name.
type Store map[string]*Entry

// ---------------------------------------------------------------------------
// Directories
// ---------------------------------------------------------------------------

func xdgDir(envVar, fallback string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, fallback, appDirName), nil
}

// DataDir returns the translator data directory.
// Default: ~/.local/share/translator (or $XDG_DATA_HOME/translator).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns the translator cache directory, holding the per-project
// translation caches and the backend result databases.
// Default: ~/.cache/translator (or $XDG_CACHE_HOME/translator).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// ConfigDir returns the translator config directory.
// Default: ~/.config/translator (or $XDG_CONFIG_HOME/translator).
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func filePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return make(Store)
	}

	if store == nil {
		return make(Store)
	}

	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Key operations
// ---------------------------------------------------------------------------

// GetKeys returns the stored keys for a backend in rotation order, or nil
// if none are stored.
func GetKeys(backend string) []string {
	store := Load()
	entry := store[backend]
	if entry == nil {
		return nil
	}
	return entry.Keys
}

// SetKeys replaces the stored keys for a backend (upsert).
func SetKeys(backend string, keys []string) error {
	store := Load()
	store[backend] = &Entry{Keys: keys, Added: time.Now().UTC()}
	return Save(store)
}

// AddKey appends a key to a backend's rotation, ignoring duplicates.
func AddKey(backend, key string) error {
	store := Load()
	entry := store[backend]
	if entry == nil {
		entry = &Entry{}
	}
	for _, k := range entry.Keys {
		if k == key {
			return nil
		}
	}
	entry.Keys = append(entry.Keys, key)
	entry.Added = time.Now().UTC()
	store[backend] = entry
	return Save(store)
}

// Remove deletes the credentials for a backend.
func Remove(backend string) error {
	store := Load()
	if _, ok := store[backend]; !ok {
		return nil // Nothing to delete
	}
	delete(store, backend)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// List returns the backends that have stored credentials, sorted.
func List() []string {
	store := Load()
	names := make([]string, 0, len(store))
	for name := range store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
