// Package backend implements the translation backends: protocol adapters
// for the supported vendor APIs, a per-endpoint dual-tier result cache
// (memory plus SQLite), credential rotation, and a Manager that walks an
// ordered fallback chain with per-backend rate limiting and statistics.
package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Adapter interface
// ---------------------------------------------------------------------------

// Translator is one vendor protocol adapter bound to a single credential.
// Translate must return exactly one output per input, in input order, or
// an error; a length mismatch is never returned silently.
type Translator interface {
	Name() string
	Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error)
}

// Config describes one configured backend endpoint.
type Config struct {
	// Name identifies the endpoint in logs, stats, and the fallback chain.
	// Defaults to Kind when empty.
	Name string `yaml:"name"`
	// Kind selects the protocol adapter (openai, anthropic, deepl, google).
	Kind string `yaml:"kind"`
	// BaseURL overrides the adapter's default API base URL.
	BaseURL string `yaml:"base_url"`
	// Model is the model identifier for model-based adapters.
	Model string `yaml:"model"`
	// APIKeys in rotation order. The endpoint's token pool cycles through
	// them, cooling down keys that fail.
	APIKeys []string `yaml:"keys"`
	// RPS caps the request rate for this endpoint (requests per second).
	RPS float64 `yaml:"rps"`
	// Prompt overrides the built-in system prompt.
	Prompt string `yaml:"prompt"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `yaml:"timeout"`
	// Extra carries adapter-specific HTTP headers, e.g. OpenRouter
	// attribution or organization IDs.
	Extra map[string]string `yaml:"extra"`
}

func (c Config) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind
}

func (c Config) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 60 * time.Second
}

// configYAML mirrors Config with Timeout as a string so YAML files can say
// "90s" instead of nanoseconds.
type configYAML struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"`
	BaseURL string            `yaml:"base_url,omitempty"`
	Model   string            `yaml:"model,omitempty"`
	APIKeys []string          `yaml:"keys,omitempty"`
	RPS     float64           `yaml:"rps,omitempty"`
	Prompt  string            `yaml:"prompt,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
	Extra   map[string]string `yaml:"extra,omitempty"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw configYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = Config{
		Name:    raw.Name,
		Kind:    raw.Kind,
		BaseURL: raw.BaseURL,
		Model:   raw.Model,
		APIKeys: raw.APIKeys,
		RPS:     raw.RPS,
		Prompt:  raw.Prompt,
		Extra:   raw.Extra,
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("endpoint %s: timeout: %w", c.displayName(), err)
		}
		c.Timeout = d
	}
	return nil
}

func (c Config) MarshalYAML() (any, error) {
	raw := configYAML{
		Name:    c.Name,
		Kind:    c.Kind,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		APIKeys: c.APIKeys,
		RPS:     c.RPS,
		Prompt:  c.Prompt,
		Extra:   c.Extra,
	}
	if c.Timeout != 0 {
		raw.Timeout = c.Timeout.String()
	}
	return raw, nil
}

// ---------------------------------------------------------------------------
// Adapter registry
// ---------------------------------------------------------------------------

// Factory builds a protocol adapter from an endpoint config and the
// credential chosen for one call.
type Factory func(cfg Config, apiKey string) Translator

var factories = map[string]Factory{}

// Register adds an adapter kind to the registry. Adapters call this from
// their own file; RegisterBuiltins wires the standard set. Registering an
// existing kind replaces it, which tests rely on.
func Register(kind string, f Factory) {
	factories[strings.ToLower(kind)] = f
}

// Kinds returns the registered adapter kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func factoryFor(kind string) (Factory, error) {
	f, ok := factories[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown backend kind %q (registered: %s)",
			kind, strings.Join(Kinds(), ", "))
	}
	return f, nil
}

// RegisterBuiltins populates the registry with the standard adapters.
// Called once at startup; an explicit call instead of init so the wiring
// is visible from main.
func RegisterBuiltins() {
	Register(KindOpenAI, newOpenAI)
	Register(KindAnthropic, newAnthropic)
	Register(KindDeepL, newDeepL)
	Register(KindGoogle, newGoogle)
}

// Registered adapter kinds.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindDeepL     = "deepl"
	KindGoogle    = "google"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// RateLimitError reports a 429 from a backend along with the wait the
// server asked for, when it provided one.
type RateLimitError struct {
	Backend    string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (retry after %s): %v", e.Backend, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// countError reports an output count that does not match the input count.
func countError(name string, want, got int) error {
	return fmt.Errorf("%s: translation count mismatch: want %d, got %d", name, want, got)
}
