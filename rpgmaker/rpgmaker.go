// Package rpgmaker extracts translatable strings from RPG Maker MV/MZ data
// files and writes translations back into the same JSON fields in place.
package rpgmaker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ymylive/translator/engine"
)

// Event command codes carrying player-visible text.
const (
	codeShowText     = 401 // Show Text line
	codeShowChoices  = 102 // Show Choices: parameters[0] is the choice list
	codeChoiceBranch = 402 // When [choice]: parameters[1] repeats the label
	codeScrollText   = 405 // Show Scrolling Text line
)

// databaseFiles are the data files scanned for name/description/message/
// note fields in addition to the Map*.json event text.
var databaseFiles = []string{
	"CommonEvents.json",
	"Troops.json",
	"Items.json",
	"Weapons.json",
	"Armors.json",
	"Skills.json",
	"Actors.json",
	"Enemies.json",
	"States.json",
}

// textFields are the database object keys whose values are shown to the
// player.
var textFields = map[string]bool{
	"name":        true,
	"description": true,
	"message":     true,
	"note":        true,
}

// Engine handles RPG Maker MV/MZ projects: data files under www/data/ (MV
// desktop layout) or data/ directly.
type Engine struct {
	onLog func(string)
}

// New returns an RPG Maker engine. onLog may be nil.
func New(onLog func(string)) *Engine { return &Engine{onLog: onLog} }

// Register wires this engine into the shared registry.
func Register() {
	engine.Register("rpgmaker", func(onLog func(string)) engine.Engine {
		return New(onLog)
	})
}

func (e *Engine) Name() string { return "rpgmaker" }

func (e *Engine) log(format string, args ...any) {
	if e.onLog != nil {
		e.onLog(fmt.Sprintf(format, args...))
	}
}

// dataDir resolves the project's data directory, preferring www/data.
func dataDir(root string) (string, error) {
	for _, rel := range []string{filepath.Join("www", "data"), "data"} {
		dir := filepath.Join(root, rel)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no data directory under %s", root)
}

// Validate checks for System.json in the project's data directory.
func (e *Engine) Validate(root string) error {
	dir, err := dataDir(root)
	if err != nil {
		return fmt.Errorf("not an RPG Maker project: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "System.json")); err != nil {
		return fmt.Errorf("not an RPG Maker project (no System.json): %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Extract collects event text from Map*.json and database text fields from
// the known data files. The result is unique and sorted, matching the
// stable order the data files themselves do not provide.
func (e *Engine) Extract(root string) ([]string, error) {
	if err := e.Validate(root); err != nil {
		return nil, err
	}
	dir, err := dataDir(root)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			seen[s] = true
		}
	}

	maps, err := filepath.Glob(filepath.Join(dir, "Map*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(maps)
	for _, path := range maps {
		var doc any
		if err := readJSON(path, &doc); err != nil {
			e.log("skip %s: %v", filepath.Base(path), err)
			continue
		}
		walkEventText(doc, add)
	}

	for _, name := range databaseFiles {
		path := filepath.Join(dir, name)
		var doc any
		if err := readJSON(path, &doc); err != nil {
			if !os.IsNotExist(err) {
				e.log("skip %s: %v", name, err)
			}
			continue
		}
		walkDatabaseText(doc, add)
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// walkEventText visits every event command list in a map document and
// feeds the text-bearing parameters to add.
func walkEventText(doc any, add func(string)) {
	switch v := doc.(type) {
	case map[string]any:
		if code, ok := v["code"].(float64); ok {
			params, _ := v["parameters"].([]any)
			collectCommandText(int(code), params, add)
			return
		}
		for _, child := range v {
			walkEventText(child, add)
		}
	case []any:
		for _, child := range v {
			walkEventText(child, add)
		}
	}
}

func collectCommandText(code int, params []any, add func(string)) {
	switch code {
	case codeShowText, codeScrollText:
		if len(params) > 0 {
			if s, ok := params[0].(string); ok {
				add(s)
			}
		}
	case codeShowChoices:
		if len(params) > 0 {
			if choices, ok := params[0].([]any); ok {
				for _, c := range choices {
					if s, ok := c.(string); ok {
						add(s)
					}
				}
			}
		}
	case codeChoiceBranch:
		if len(params) > 1 {
			if s, ok := params[1].(string); ok {
				add(s)
			}
		}
	}
}

// walkDatabaseText visits a database document and feeds the known text
// fields to add.
func walkDatabaseText(doc any, add func(string)) {
	switch v := doc.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok && textFields[key] {
				add(s)
				continue
			}
			walkDatabaseText(child, add)
		}
	case []any:
		for _, child := range v {
			walkDatabaseText(child, add)
		}
	}
}

// ---------------------------------------------------------------------------
// Write-back
// ---------------------------------------------------------------------------

// WriteTranslations rewrites the data files in place, replacing every
// extracted string that has a translation. Each file is rewritten
// atomically; files without any change are left untouched. A copy of the
// full mapping is also written to translations_<lang>/translations.json
// for reference.
func (e *Engine) WriteTranslations(root, lang string, translations map[string]string) error {
	if lang == "" {
		return fmt.Errorf("language code is required")
	}
	dir, err := dataDir(root)
	if err != nil {
		return err
	}

	lookup := func(s string) (string, bool) {
		tr, ok := translations[strings.TrimSpace(s)]
		return tr, ok && tr != ""
	}

	maps, err := filepath.Glob(filepath.Join(dir, "Map*.json"))
	if err != nil {
		return err
	}
	files := maps
	for _, name := range databaseFiles {
		files = append(files, filepath.Join(dir, name))
	}

	changed := 0
	for _, path := range files {
		var doc any
		if err := readJSON(path, &doc); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		var dirty bool
		if strings.HasPrefix(filepath.Base(path), "Map") {
			dirty = rewriteEventText(doc, lookup)
		} else {
			dirty = rewriteDatabaseText(doc, lookup)
		}
		if !dirty {
			continue
		}
		if err := writeJSON(path, doc); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
		changed++
	}
	e.log("rewrote %d data files", changed)

	refDir := filepath.Join(root, "translations_"+lang)
	if err := os.MkdirAll(refDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(refDir, "translations.json"), translations)
}

func rewriteEventText(doc any, lookup func(string) (string, bool)) bool {
	dirty := false
	switch v := doc.(type) {
	case map[string]any:
		if code, ok := v["code"].(float64); ok {
			if params, ok := v["parameters"].([]any); ok {
				if rewriteCommandText(int(code), params, lookup) {
					dirty = true
				}
			}
			return dirty
		}
		for _, child := range v {
			if rewriteEventText(child, lookup) {
				dirty = true
			}
		}
	case []any:
		for _, child := range v {
			if rewriteEventText(child, lookup) {
				dirty = true
			}
		}
	}
	return dirty
}

func rewriteCommandText(code int, params []any, lookup func(string) (string, bool)) bool {
	dirty := false
	switch code {
	case codeShowText, codeScrollText:
		if len(params) > 0 {
			if s, ok := params[0].(string); ok {
				if tr, ok := lookup(s); ok {
					params[0] = tr
					dirty = true
				}
			}
		}
	case codeShowChoices:
		if len(params) > 0 {
			if choices, ok := params[0].([]any); ok {
				for i, c := range choices {
					if s, ok := c.(string); ok {
						if tr, ok := lookup(s); ok {
							choices[i] = tr
							dirty = true
						}
					}
				}
			}
		}
	case codeChoiceBranch:
		if len(params) > 1 {
			if s, ok := params[1].(string); ok {
				if tr, ok := lookup(s); ok {
					params[1] = tr
					dirty = true
				}
			}
		}
	}
	return dirty
}

func rewriteDatabaseText(doc any, lookup func(string) (string, bool)) bool {
	dirty := false
	switch v := doc.(type) {
	case map[string]any:
		for key, child := range v {
			if s, ok := child.(string); ok && textFields[key] {
				if tr, ok := lookup(s); ok {
					v[key] = tr
					dirty = true
				}
				continue
			}
			if rewriteDatabaseText(child, lookup) {
				dirty = true
			}
		}
	case []any:
		for _, child := range v {
			if rewriteDatabaseText(child, lookup) {
				dirty = true
			}
		}
	}
	return dirty
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON marshals v and renames it into place so a crash never leaves a
// half-written data file.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
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
	return os.Rename(tmp.Name(), path)
}
