// Package config loads per-project translation settings from
// .translator.yaml at the project root, layered under TRANSLATOR_*
// environment overrides and CLI flags. Precedence is flags over
// environment over file over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ymylive/translator/backend"
)

// FileName is looked up at the project root.
const FileName = ".translator.yaml"

// Config is a project's translation settings.
type Config struct {
	Version int    `yaml:"version"`
	SrcLang string `yaml:"src_lang" env:"TRANSLATOR_SRC_LANG"`
	TgtLang string `yaml:"tgt_lang" env:"TRANSLATOR_TGT_LANG"`
	Engine  string `yaml:"engine" env:"TRANSLATOR_ENGINE"`

	// Glossary and Postprocess are rule-file paths, relative to the
	// project root unless absolute.
	Glossary    string `yaml:"glossary" env:"TRANSLATOR_GLOSSARY"`
	Postprocess string `yaml:"postprocess" env:"TRANSLATOR_POSTPROCESS"`

	// CacheDir overrides where the project cache file and endpoint
	// databases live. Empty means the user cache directory.
	CacheDir string `yaml:"cache_dir" env:"TRANSLATOR_CACHE_DIR"`

	Batch      BatchConfig `yaml:"batch"`
	Workers    int         `yaml:"workers" env:"TRANSLATOR_WORKERS"`
	BatchDelay Duration    `yaml:"batch_delay,omitempty" env:"TRANSLATOR_BATCH_DELAY"`

	// APIs are the backend endpoints in fallback order.
	APIs []backend.Config `yaml:"apis"`
}

// BatchConfig bounds one request to a backend.
type BatchConfig struct {
	Size     int `yaml:"size" env:"TRANSLATOR_BATCH_SIZE"`
	MaxChars int `yaml:"max_chars" env:"TRANSLATOR_MAX_CHARS"`
}

// Duration accepts "500ms" style values from both YAML and the
// environment.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultSrcLang   = "auto"
	DefaultTgtLang   = "zh-cn"
	DefaultBatchSize = 150
	DefaultMaxChars  = 12000
	DefaultWorkers   = 2
	DefaultRPS       = 1.0
)

// Load reads root's .translator.yaml if present, applies environment
// overrides and defaults, and validates the result. A missing file is not
// an error; the config then carries only environment values and defaults.
func Load(root string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", FileName, err)
		}
	case os.IsNotExist(err):
		// config file is optional
	default:
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields. Load calls it; callers that build a
// Config by hand (flag-only runs) should too.
func (c *Config) ApplyDefaults() {
	if c.SrcLang == "" {
		c.SrcLang = DefaultSrcLang
	}
	if c.TgtLang == "" {
		c.TgtLang = DefaultTgtLang
	}
	if c.Batch.Size == 0 {
		c.Batch.Size = DefaultBatchSize
	}
	if c.Batch.MaxChars == 0 {
		c.Batch.MaxChars = DefaultMaxChars
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	for i := range c.APIs {
		if c.APIs[i].Kind == "" {
			c.APIs[i].Kind = backend.KindOpenAI
		}
		if c.APIs[i].RPS == 0 {
			c.APIs[i].RPS = DefaultRPS
		}
	}
}

// Validate rejects values the pipeline cannot run with. Called by Load;
// exported so flag merging can re-check.
func (c *Config) Validate() error {
	if c.TgtLang == "" {
		return errors.New("target language is required")
	}
	if c.Batch.Size < 0 || c.Batch.MaxChars < 0 {
		return errors.New("batch limits must not be negative")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	seen := map[string]bool{}
	for i, api := range c.APIs {
		if !knownKind(api.Kind) {
			return fmt.Errorf("apis[%d]: unknown kind %q", i, api.Kind)
		}
		name := api.Name
		if name == "" {
			name = api.Kind
		}
		if seen[name] {
			return fmt.Errorf("apis[%d]: duplicate endpoint name %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

func knownKind(kind string) bool {
	for _, k := range backend.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Save writes c to root's .translator.yaml.
func Save(root string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, FileName), data, 0o644)
}
