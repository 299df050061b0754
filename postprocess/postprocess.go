// Package postprocess applies ordered textual corrections to translated
// strings, typically punctuation fixes and vendor-specific tics collected
// over time in a per-project rule file.
package postprocess

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one correction. Literal rules use strings.ReplaceAll; regex rules
// use the pattern as a Go regular expression with $1-style group references
// in the replacement.
type Rule struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
	IsRegex     bool   `json:"is_regex,omitempty" yaml:"is_regex,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Engine applies rules strictly in list order. It is immutable after New
// and safe for concurrent use.
type Engine struct {
	enabled  bool
	rules    []Rule
	res      []*regexp.Regexp // per rule, nil for literal or invalid rules
	warnings []string
}

// New compiles rules into an Engine. A regex rule whose pattern does not
// compile is skipped during Process; the problem is recorded in Warnings.
func New(enabled bool, rules []Rule) *Engine {
	e := &Engine{enabled: enabled, rules: rules}
	e.res = make([]*regexp.Regexp, len(rules))
	for i, r := range rules {
		if !r.IsRegex {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			e.warnings = append(e.warnings, fmt.Sprintf("rule %d (%s): %v", i+1, r.Pattern, err))
			continue
		}
		e.res[i] = re
	}
	return e
}

// Enabled reports whether the engine applies rules at all.
func (e *Engine) Enabled() bool { return e != nil && e.enabled }

// Rules returns a copy of the rule list in file order.
func (e *Engine) Rules() []Rule {
	if e == nil {
		return nil
	}
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Warnings returns one message per rule that failed to compile.
func (e *Engine) Warnings() []string {
	if e == nil {
		return nil
	}
	return e.warnings
}

// Process runs text through every enabled rule in order and returns the
// result. Disabled engines, disabled rules, and invalid patterns all pass
// text through untouched.
func (e *Engine) Process(text string) string {
	if e == nil || !e.enabled {
		return text
	}
	for i, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if r.IsRegex {
			if e.res[i] == nil {
				continue
			}
			text = e.res[i].ReplaceAllString(text, r.Replacement)
			continue
		}
		text = strings.ReplaceAll(text, r.Pattern, r.Replacement)
	}
	return text
}

// Load reads a rule file. YAML is chosen for .yaml/.yml extensions,
// JSON otherwise. A missing file yields an enabled engine with no rules.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(true, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var doc struct {
		Version string `json:"version" yaml:"version"`
		Enabled *bool  `json:"enabled" yaml:"enabled"`
		Rules   []Rule `json:"rules" yaml:"rules"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", filepath.Base(path), err)
	}
	enabled := true
	if doc.Enabled != nil {
		enabled = *doc.Enabled
	}
	return New(enabled, doc.Rules), nil
}
