// Package unity extracts translatable strings from a Unity game's text
// assets and writes the finished mapping to a reference file. Unity
// bundles most text into engine-specific asset formats, so coverage is
// limited to the plain JSON and txt assets games ship under
// StreamingAssets and Resources.
package unity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ymylive/translator/engine"
)

// minTextLen filters out JSON values that are too short to be prose:
// identifiers, flags, single glyphs.
const minTextLen = 4

// assetDirs are the directories scanned for text assets, in preference
// order relative to the project root.
var assetDirs = []string{
	filepath.Join("Data", "StreamingAssets"),
	"StreamingAssets",
	"Resources",
}

// Engine handles Unity projects: JSON and txt assets under the known
// asset directories.
type Engine struct {
	onLog func(string)
}

// New returns a Unity engine. onLog may be nil.
func New(onLog func(string)) *Engine { return &Engine{onLog: onLog} }

// Register wires this engine into the shared registry.
func Register() {
	engine.Register("unity", func(onLog func(string)) engine.Engine {
		return New(onLog)
	})
}

func (e *Engine) Name() string { return "unity" }

func (e *Engine) log(format string, args ...any) {
	if e.onLog != nil {
		e.onLog(fmt.Sprintf(format, args...))
	}
}

// Validate checks for the player binary or the Data directory.
func (e *Engine) Validate(root string) error {
	if _, err := os.Stat(filepath.Join(root, "UnityPlayer.dll")); err == nil {
		return nil
	}
	if info, err := os.Stat(filepath.Join(root, "Data")); err == nil && info.IsDir() {
		return nil
	}
	return fmt.Errorf("not a Unity project (no UnityPlayer.dll or Data/ under %s)", root)
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Extract walks every asset directory present and collects string values
// from JSON objects plus non-comment lines from txt files. The result is
// unique and sorted. Unreadable or malformed assets are skipped with a
// log line rather than failing the run.
func (e *Engine) Extract(root string) ([]string, error) {
	if err := e.Validate(root); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			seen[s] = true
		}
	}

	found := false
	for _, rel := range assetDirs {
		dir := filepath.Join(root, rel)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		found = true
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".json":
				if err := e.extractJSON(path, add); err != nil {
					e.log("skip %s: %v", filepath.Base(path), err)
				}
			case ".txt":
				if err := e.extractText(path, add); err != nil {
					e.log("skip %s: %v", filepath.Base(path), err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if !found {
		e.log("no asset directories under %s", root)
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (e *Engine) extractJSON(path string, add func(string)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	walkJSONText(doc, add)
	return nil
}

// walkJSONText collects object values long enough to be prose. Keys and
// bare array strings stay put: they are usually asset names or lookup
// tables, not player-visible text.
func walkJSONText(doc any, add func(string)) {
	switch v := doc.(type) {
	case map[string]any:
		for _, child := range v {
			if s, ok := child.(string); ok {
				if utf8.RuneCountInString(s) >= minTextLen {
					add(s)
				}
				continue
			}
			walkJSONText(child, add)
		}
	case []any:
		for _, child := range v {
			walkJSONText(child, add)
		}
	}
}

// extractText collects non-empty lines that are not # comments.
func (e *Engine) extractText(path string, add func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			add(line)
		}
	}
	return sc.Err()
}

// ---------------------------------------------------------------------------
// Write-back
// ---------------------------------------------------------------------------

// WriteTranslations writes the full mapping to
// translations_<lang>/translations.json. Unity asset bundles cannot be
// rewritten in place, so the game is expected to load this file through a
// translation mod or a custom loader.
func (e *Engine) WriteTranslations(root, lang string, translations map[string]string) error {
	if lang == "" {
		return fmt.Errorf("language code is required")
	}
	dir := filepath.Join(root, "translations_"+lang)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(translations, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "translations.json")
	tmp, err := os.CreateTemp(dir, "translations.json.tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	e.log("translations written to %s", path)
	return nil
}
