package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ymylive/translator/backend"
)

func TestMain(m *testing.M) {
	backend.RegisterBuiltins()
	os.Exit(m.Run())
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SrcLang != DefaultSrcLang || cfg.TgtLang != DefaultTgtLang {
		t.Fatalf("languages = %q→%q", cfg.SrcLang, cfg.TgtLang)
	}
	if cfg.Batch.Size != DefaultBatchSize || cfg.Batch.MaxChars != DefaultMaxChars {
		t.Fatalf("batch = %+v", cfg.Batch)
	}
	if cfg.Workers != DefaultWorkers {
		t.Fatalf("workers = %d", cfg.Workers)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
version: 1
src_lang: en
tgt_lang: zh-cn
engine: renpy
glossary: glossary.csv
workers: 4
batch_delay: 500ms
batch:
  size: 80
  max_chars: 6000
apis:
  - name: primary
    kind: openai
    model: gpt-4o-mini
    keys: [sk-a, sk-b]
    rps: 2
    timeout: 90s
  - name: spare
    kind: deepl
    keys: [dl-key]
`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "renpy" || cfg.Workers != 4 || cfg.Batch.Size != 80 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.BatchDelay.Std() != 500*time.Millisecond {
		t.Fatalf("batch_delay = %v", cfg.BatchDelay)
	}
	if len(cfg.APIs) != 2 {
		t.Fatalf("apis = %d", len(cfg.APIs))
	}
	api := cfg.APIs[0]
	if api.Name != "primary" || api.Kind != "openai" || api.Model != "gpt-4o-mini" {
		t.Fatalf("apis[0] = %+v", api)
	}
	if len(api.APIKeys) != 2 || api.APIKeys[0] != "sk-a" {
		t.Fatalf("keys = %q", api.APIKeys)
	}
	if api.RPS != 2 || api.Timeout != 90*time.Second {
		t.Fatalf("rps/timeout = %v/%v", api.RPS, api.Timeout)
	}
	// Unset per-endpoint rate defaults to the paced value.
	if cfg.APIs[1].RPS != DefaultRPS {
		t.Fatalf("apis[1].RPS = %v", cfg.APIs[1].RPS)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "tgt_lang: ja\nworkers: 4\n")
	t.Setenv("TRANSLATOR_TGT_LANG", "ko")
	t.Setenv("TRANSLATOR_WORKERS", "8")

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TgtLang != "ko" {
		t.Fatalf("tgt_lang = %q, want env override", cfg.TgtLang)
	}
	if cfg.Workers != 8 {
		t.Fatalf("workers = %d, want env override", cfg.Workers)
	}
}

func TestLoad_RejectsUnknownKind(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "apis:\n  - name: x\n    kind: telepathy\n")
	if _, err := Load(root); err == nil {
		t.Fatal("unknown backend kind accepted")
	}
}

func TestLoad_RejectsDuplicateEndpointNames(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `apis:
  - name: a
    kind: openai
  - name: a
    kind: deepl
`)
	if _, err := Load(root); err == nil {
		t.Fatal("duplicate endpoint names accepted")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "workers: [not a number\n")
	if _, err := Load(root); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := &Config{TgtLang: "zh-cn", Workers: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative workers accepted")
	}
	cfg = &Config{TgtLang: "zh-cn", Batch: BatchConfig{Size: -5}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative batch size accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	in := &Config{
		Version: 1,
		TgtLang: "fr",
		Engine:  "rpgmaker",
		APIs:    []backend.Config{{Name: "main", Kind: "openai", APIKeys: []string{"k"}}},
	}
	if err := Save(root, in); err != nil {
		t.Fatal(err)
	}
	out, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if out.TgtLang != "fr" || out.Engine != "rpgmaker" || len(out.APIs) != 1 {
		t.Fatalf("round trip = %+v", out)
	}
}
