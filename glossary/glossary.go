// Package glossary enforces fixed source-to-target terminology around a
// translation call. Before translation, known source terms are swapped for
// placeholders the backend has no reason to touch; after translation, each
// placeholder is resolved to the entry's target term. The two passes are
// independent of markup masking and compose with it.
package glossary

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one terminology rule. Source is matched literally unless IsRegex
// is set; matching is case-insensitive unless CaseSensitive is set.
type Entry struct {
	Source        string `json:"source" yaml:"source"`
	Target        string `json:"target" yaml:"target"`
	Context       string `json:"context,omitempty" yaml:"context,omitempty"`
	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
	IsRegex       bool   `json:"regex,omitempty" yaml:"regex,omitempty"`
}

// Context carries the placeholder substitutions made by Apply so
// RestoreTerms can resolve them after translation. A nil Context is valid
// and means nothing was substituted.
type Context struct {
	terms map[string]string // placeholder -> matched source text
}

// Engine holds a compiled glossary. It is immutable after New and safe for
// concurrent use.
type Engine struct {
	entries []Entry
	res     []*regexp.Regexp // per entry, nil when the pattern failed to compile
	order   []int            // entry indices, longest source first
	byExact map[string]int
	byLower map[string]int
	invalid []int
}

// New compiles entries into an Engine. Entries with an empty source are
// dropped; regex entries whose pattern does not compile are kept for
// reporting via Invalid but never match.
func New(entries []Entry) *Engine {
	g := &Engine{
		byExact: make(map[string]int),
		byLower: make(map[string]int),
	}
	for _, e := range entries {
		if e.Source == "" {
			continue
		}
		g.entries = append(g.entries, e)
	}
	g.res = make([]*regexp.Regexp, len(g.entries))
	for i, e := range g.entries {
		pattern := e.Source
		if !e.IsRegex {
			pattern = regexp.QuoteMeta(e.Source)
		}
		if !e.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			g.invalid = append(g.invalid, i)
			continue
		}
		g.res[i] = re
		g.byExact[e.Source] = i
		g.byLower[strings.ToLower(e.Source)] = i
	}
	g.order = make([]int, len(g.entries))
	for i := range g.order {
		g.order[i] = i
	}
	// Longer terms substitute first so "Alice Margatroid" wins over "Alice".
	sort.SliceStable(g.order, func(a, b int) bool {
		return len(g.entries[g.order[a]].Source) > len(g.entries[g.order[b]].Source)
	})
	return g
}

// Len reports the number of usable entries.
func (g *Engine) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Entries returns a copy of the loaded entries in file order.
func (g *Engine) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Invalid returns the entries whose regex pattern failed to compile.
func (g *Engine) Invalid() []Entry {
	if g == nil {
		return nil
	}
	var out []Entry
	for _, i := range g.invalid {
		out = append(out, g.entries[i])
	}
	return out
}

// Apply substitutes a placeholder for every occurrence of every entry's
// source term. Longer sources are processed first, and within one entry the
// occurrences are replaced back to front so earlier offsets stay valid. With
// zero matching entries the text is returned unchanged with a nil Context.
func (g *Engine) Apply(text string) (string, *Context) {
	if g == nil || len(g.entries) == 0 {
		return text, nil
	}
	var ctx *Context
	for _, idx := range g.order {
		re := g.res[idx]
		if re == nil {
			continue
		}
		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		if ctx == nil {
			ctx = &Context{terms: make(map[string]string)}
		}
		ph := placeholderFor(idx)
		for i := len(locs) - 1; i >= 0; i-- {
			start, end := locs[i][0], locs[i][1]
			ctx.terms[ph] = text[start:end]
			text = text[:start] + ph + text[end:]
		}
	}
	return text, ctx
}

// RestoreTerms resolves every placeholder recorded in ctx. Placeholders are
// matched case-insensitively since backends occasionally lowercase them. A
// placeholder whose matched text no longer resolves to an entry restores to
// the original source text rather than disappearing.
func (g *Engine) RestoreTerms(text string, ctx *Context) string {
	if ctx == nil || len(ctx.terms) == 0 {
		return text
	}
	for ph, original := range ctx.terms {
		repl := original
		if i, ok := g.lookup(original); ok {
			repl = g.entries[i].Target
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(ph))
		text = re.ReplaceAllLiteralString(text, repl)
	}
	return text
}

func (g *Engine) lookup(source string) (int, bool) {
	if g == nil {
		return 0, false
	}
	if i, ok := g.byExact[source]; ok {
		return i, true
	}
	if i, ok := g.byLower[strings.ToLower(source)]; ok {
		return i, true
	}
	return 0, false
}

// placeholderFor derives the placeholder for entry index i. Letters B..Y
// cycle; past one full cycle the index block is appended, so the alphabet
// never runs out.
func placeholderFor(i int) string {
	c := rune('B' + i%24)
	if i < 24 {
		return fmt.Sprintf("ZX%cZ", c)
	}
	return fmt.Sprintf("ZX%c%dZ", c, i/24)
}

// ---------------------------------------------------------------------------
// File formats
// ---------------------------------------------------------------------------

// Load reads a glossary file. The format is chosen by extension: .csv and
// .yaml/.yml are parsed accordingly, anything else is treated as JSON.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = parseCSV(data)
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	default:
		entries, err = parseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", filepath.Base(path), err)
	}
	return New(entries), nil
}

// SaveJSON writes entries as a versioned JSON glossary document.
func SaveJSON(path string, entries []Entry) error {
	doc := struct {
		Version string  `json:"version"`
		Entries []Entry `json:"entries"`
	}{Version: "1.0", Entries: entries}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

type jsonEntry struct {
	Source        string `json:"source"`
	Src           string `json:"src"`
	Target        string `json:"target"`
	Dst           string `json:"dst"`
	Context       string `json:"context"`
	Info          string `json:"info"`
	Category      string `json:"category"`
	CaseSensitive bool   `json:"case_sensitive"`
	IsRegex       bool   `json:"regex"`
}

func (je jsonEntry) entry() Entry {
	e := Entry{
		Source:        je.Source,
		Target:        je.Target,
		Context:       je.Context,
		Category:      je.Category,
		CaseSensitive: je.CaseSensitive,
		IsRegex:       je.IsRegex,
	}
	// Older glossary files used src/dst/info keys.
	if e.Source == "" {
		e.Source = je.Src
	}
	if e.Target == "" {
		e.Target = je.Dst
	}
	if e.Context == "" {
		e.Context = je.Info
	}
	return e
}

func parseJSON(data []byte) ([]Entry, error) {
	var doc struct {
		Version string      `json:"version"`
		Entries []jsonEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// Bare arrays of entries are accepted too.
		var raw []jsonEntry
		if err2 := json.Unmarshal(data, &raw); err2 != nil {
			return nil, err
		}
		doc.Entries = raw
	}
	entries := make([]Entry, 0, len(doc.Entries))
	for _, je := range doc.Entries {
		entries = append(entries, je.entry())
	}
	return entries, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	var doc struct {
		Version string  `yaml:"version"`
		Entries []Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		var bare []Entry
		if err := yaml.Unmarshal(data, &bare); err == nil {
			doc.Entries = bare
		}
	}
	return doc.Entries, nil
}

// parseCSV reads source,target,context,category rows. Lines starting with #
// are comments; a leading header row is skipped.
func parseCSV(data []byte) ([]Entry, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comment = '#'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "source") {
			continue
		}
		e := Entry{
			Source: strings.TrimSpace(rec[0]),
			Target: strings.TrimSpace(rec[1]),
		}
		if len(rec) > 2 {
			e.Context = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			e.Category = strings.TrimSpace(rec[3])
		}
		entries = append(entries, e)
	}
	return entries, nil
}
