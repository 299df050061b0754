// Package renpy extracts translatable strings from Ren'Py script sources
// and writes translations back as a string-translation file under
// game/tl/<lang>/.
package renpy

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ymylive/translator/engine"
)

// outputFile sorts after the game's own tl files so its string
// translations win on conflicts.
const outputFile = "zz_auto_strings.rpy"

// Engine handles Ren'Py projects: a root directory with a game/ folder of
// .rpy scripts.
type Engine struct {
	onLog func(string)
}

// New returns a Ren'Py engine. onLog may be nil.
func New(onLog func(string)) *Engine { return &Engine{onLog: onLog} }

// Register wires this engine into the shared registry.
func Register() {
	engine.Register("renpy", func(onLog func(string)) engine.Engine {
		return New(onLog)
	})
}

func (e *Engine) Name() string { return "renpy" }

func (e *Engine) log(format string, args ...any) {
	if e.onLog != nil {
		e.onLog(fmt.Sprintf(format, args...))
	}
}

// Validate checks root for a game/ directory.
func (e *Engine) Validate(root string) error {
	info, err := os.Stat(filepath.Join(root, "game"))
	if err != nil {
		return fmt.Errorf("not a Ren'Py project (no game directory): %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a Ren'Py project: %s is not a directory", filepath.Join(root, "game"))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// sayRE matches dialogue: an optional speaker expression followed by a
// double-quoted string ending the statement. menuRE matches menu choices,
// which are a quoted string followed by a colon (optionally with an `if`
// clause). uiTextRE matches common screen-language text widgets.
var (
	sayRE    = regexp.MustCompile(`^\s*(?:[A-Za-z_][\w.]*\s+)?"((?:[^"\\]|\\.)*)"\s*(?:with\s+\w+\s*)?$`)
	menuRE   = regexp.MustCompile(`^\s*"((?:[^"\\]|\\.)*)"\s*(?:if\s+.+?\s*)?:\s*$`)
	uiTextRE = regexp.MustCompile(`^\s*(?:text|textbutton|label|tooltip)\s+"((?:[^"\\]|\\.)*)"`)
)

// Extract walks game/**/*.rpy and returns the unique dialogue, menu and
// screen strings in file order. Files under game/tl/ hold existing
// translations and are skipped, as are comment lines and python blocks.
func (e *Engine) Extract(root string) ([]string, error) {
	if err := e.Validate(root); err != nil {
		return nil, err
	}
	gameDir := filepath.Join(root, "game")
	tlDir := filepath.Join(gameDir, "tl") + string(filepath.Separator)

	var files []string
	err := filepath.WalkDir(gameDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(path+string(filepath.Separator), tlDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".rpy") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scripts: %w", err)
	}

	seen := map[string]bool{}
	var out []string
	for _, path := range files {
		strs, err := extractFile(path)
		if err != nil {
			e.log("skip %s: %v", filepath.Base(path), err)
			continue
		}
		for _, s := range strs {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func extractFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		out        []string
		inPython   bool
		pythonBase int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))

		// Python blocks carry code, not player-visible text.
		if inPython {
			if indent > pythonBase {
				continue
			}
			inPython = false
		}
		if strings.HasSuffix(trimmed, ":") &&
			(strings.HasPrefix(trimmed, "python") || strings.HasPrefix(trimmed, "init python")) {
			inPython = true
			pythonBase = indent
			continue
		}

		var quoted string
		switch {
		case uiTextRE.MatchString(line):
			quoted = uiTextRE.FindStringSubmatch(line)[1]
		case menuRE.MatchString(line):
			quoted = menuRE.FindStringSubmatch(line)[1]
		case sayRE.MatchString(line):
			quoted = sayRE.FindStringSubmatch(line)[1]
		default:
			continue
		}
		text := unescape(quoted)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, text)
	}
	return out, sc.Err()
}

// ---------------------------------------------------------------------------
// Write-back
// ---------------------------------------------------------------------------

// WriteTranslations writes game/tl/<lang>/zz_auto_strings.rpy with one
// old/new pair per translation and removes any stale compiled copy. The
// file is written to a temp name and renamed into place.
func (e *Engine) WriteTranslations(root, lang string, translations map[string]string) error {
	if lang == "" {
		return fmt.Errorf("language code is required")
	}
	dir := filepath.Join(root, "game", "tl", lang)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tl directory: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "translate %s strings:\n\n", lang)
	for _, old := range sortedKeys(translations) {
		fmt.Fprintf(&sb, "    old \"%s\"\n", escape(old))
		fmt.Fprintf(&sb, "    new \"%s\"\n\n", escape(translations[old]))
	}

	path := filepath.Join(dir, outputFile)
	tmp, err := os.CreateTemp(dir, outputFile+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	// A stale .rpyc from a previous run would shadow the new source.
	if err := os.Remove(path + "c"); err != nil && !os.IsNotExist(err) {
		e.log("remove stale %sc: %v", outputFile, err)
	}
	e.log("wrote %d translations to %s", len(translations), path)
	return nil
}

// WriteForceLanguage drops a startup script that switches the game to lang
// on first launch, so players see the translation without touching the
// preferences screen.
func (e *Engine) WriteForceLanguage(root, lang string) error {
	path := filepath.Join(root, "game", "set_default_language_at_startup.rpy")
	content := fmt.Sprintf(`init 999 python:
    if persistent.translator_lang_set is not True:
        persistent.translator_lang_set = True
        renpy.change_language(%q)
`, lang)
	return os.WriteFile(path, []byte(content), 0o644)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable output keeps diffs of the generated file reviewable.
	sort.Strings(keys)
	return keys
}
