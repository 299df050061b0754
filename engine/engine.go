// Package engine defines the game-engine collaborator interface: how
// translatable strings leave a game's on-disk layout and how finished
// translations return to it. Concrete engines live in their own packages
// and are wired into the registry at startup.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Engine extracts strings from and writes translations back into one game
// engine's project layout. Implementations return structured errors; they
// never panic on a malformed project.
type Engine interface {
	Name() string
	// Validate reports whether root looks like a project of this engine.
	Validate(root string) error
	// Extract returns the project's translatable strings, unique, in a
	// stable order.
	Extract(root string) ([]string, error)
	// WriteTranslations merges translated strings back into the project
	// for the given language code.
	WriteTranslations(root, lang string, translations map[string]string) error
}

// Factory builds an engine. onLog receives progress messages and may be
// nil.
type Factory func(onLog func(string)) Engine

var factories = map[string]Factory{}

// Register adds an engine to the registry under name. Called from main at
// startup for each compiled-in engine.
func Register(name string, f Factory) {
	factories[strings.ToLower(name)] = f
}

// Names returns the registered engine names, sorted.
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the named engine. Unknown names list what is registered.
func New(name string, onLog func(string)) (Engine, error) {
	f, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown game engine %q (registered: %s)",
			name, strings.Join(Names(), ", "))
	}
	return f(onLog), nil
}

// ---------------------------------------------------------------------------
// Detection
// ---------------------------------------------------------------------------

// signature lists the files and directories whose presence suggests an
// engine. The score is the fraction of entries present.
type signature struct {
	engine string
	files  []string
}

// signatures is a fixed list rather than anything discovered at runtime,
// so detection behavior is reviewable in one place.
var signatures = []signature{
	{engine: "renpy", files: []string{"game/script.rpy", "renpy/", "game/", "lib/"}},
	{engine: "rpgmaker", files: []string{"www/data/System.json", "www/js/rpg_core.js", "package.json"}},
	{engine: "rpgmaker", files: []string{"data/System.json", "js/rpg_core.js", "js/main.js"}},
	{engine: "rpgmaker", files: []string{"www/js/rmmz_core.js", "www/data/System.json"}},
	{engine: "unity", files: []string{"UnityPlayer.dll", "globalgamemanagers", "Data/"}},
}

// Detect scores each registered engine's signature files under root and
// returns the best match. A tie between different engines is an error;
// the caller should name the engine explicitly.
func Detect(root string) (string, error) {
	if _, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	scores := map[string]float64{}
	for _, sig := range signatures {
		if _, registered := factories[sig.engine]; !registered {
			continue
		}
		matches := 0
		for _, f := range sig.files {
			if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(f))); err == nil {
				matches++
			}
		}
		score := float64(matches) / float64(len(sig.files))
		if score > scores[sig.engine] {
			scores[sig.engine] = score
		}
	}

	best, second := "", 0.0
	bestScore := 0.0
	for name, score := range scores {
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	for name, score := range scores {
		if name != best && score > second {
			second = score
		}
	}
	if bestScore == 0 {
		return "", fmt.Errorf("no known game engine detected under %s", root)
	}
	if second == bestScore {
		return "", fmt.Errorf("ambiguous engine detection under %s: use --engine to choose", root)
	}
	return best, nil
}
