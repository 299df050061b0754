// translator — batch translation tool for game projects (Ren'Py, RPG
// Maker) using AI translation backends with fallback and caching.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ymylive/translator/backend"
	"github.com/ymylive/translator/cachefile"
	"github.com/ymylive/translator/config"
	"github.com/ymylive/translator/engine"
	"github.com/ymylive/translator/glossary"
	"github.com/ymylive/translator/i18n"
	"github.com/ymylive/translator/langmeta"
	"github.com/ymylive/translator/pipeline"
	"github.com/ymylive/translator/postprocess"
	"github.com/ymylive/translator/renpy"
	"github.com/ymylive/translator/rpgmaker"
	"github.com/ymylive/translator/settings"
	"github.com/ymylive/translator/unity"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	tagInfo    = color.New(color.FgBlue).Sprint("[INFO]")
	tagOK      = color.New(color.FgGreen).Sprint("[OK]")
	tagWarn    = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	tagError   = color.New(color.FgRed).Sprint("[ERROR]")
	barDone    = color.New(color.FgGreen)
	barPartial = color.New(color.FgYellow)
	barEmpty   = color.New(color.FgRed)
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagOK+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarn+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "translator",
		Short: "Batch translation tool for game projects",
		Long: `translator — batch translation for game projects using AI backends.

Extracts translatable strings from a game project, protects inline markup
and glossary terms, translates in batches through an ordered chain of
backends with caching and fallback, and writes the results back into the
project.

Commands:
  translate   Translate the project's strings
  status      Show project info, cache and backend state
  cache       Inspect or clear translation caches
  glossary    Check a glossary file
  auth        Manage stored API keys

Backends:
  openai      OpenAI-compatible chat API (OpenRouter, LM Studio, ...)
  anthropic   Anthropic Messages API
  deepl       DeepL REST API
  google      Google Cloud Translation v2`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Accept --batch_size as --batch-size and so on.
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newTranslateCmd(),
		newStatusCmd(),
		newCacheCmd(),
		newGlossaryCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	backend.RegisterBuiltins()
	renpy.Register()
	rpgmaker.Register()
	unity.Register()

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("translator %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateFlags struct {
	srcLang     string
	tgtLang     string
	engineName  string
	apiSpecs    []string
	baseURL     string
	apiKey      string
	model       string
	batchSize   int
	maxChars    int
	workers     int
	batchDelay  time.Duration
	glossary    string
	postprocess string
	cacheDir    string
	dryRun      bool
	forceLang   bool
}

func newTranslateCmd() *cobra.Command {
	var f translateFlags
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate the project's strings",
		Long: `Translate the project's strings through the configured backends.

Backends come from .translator.yaml at the project root, or from repeated
--api flags of the form name=kind:model (kind one of openai, anthropic,
deepl, google). API keys come from the config file, --api-key, or the
stored credentials (see "translator auth").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.srcLang, "src-lang", "", "Source language (default: auto-detect)")
	fl.StringVar(&f.tgtLang, "tgt-lang", "", "Target language code, e.g. zh-cn")
	fl.StringVar(&f.engineName, "engine", "", "Game engine (default: auto-detect)")
	fl.StringArrayVar(&f.apiSpecs, "api", nil, "Backend spec name=kind:model (repeatable)")
	fl.StringVar(&f.baseURL, "base-url", "", "Override the backend base URL")
	fl.StringVar(&f.apiKey, "api-key", "", "API key (overrides stored credentials)")
	fl.StringVar(&f.model, "model", "", "Model identifier for model-based backends")
	fl.IntVar(&f.batchSize, "batch-size", 0, "Strings per request")
	fl.IntVar(&f.maxChars, "max-chars", 0, "Characters per request")
	fl.IntVar(&f.workers, "workers", 0, "Concurrent requests")
	fl.DurationVar(&f.batchDelay, "batch-delay", 0, "Delay between sequential batches")
	fl.StringVar(&f.glossary, "glossary", "", "Glossary file (csv/yaml/json)")
	fl.StringVar(&f.postprocess, "postprocess", "", "Post-processing rules file")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "Cache directory override")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Extract and report without translating")
	fl.BoolVar(&f.forceLang, "force-language", false, "Make the game start in the target language (Ren'Py)")
	return cmd
}

func runTranslate(f translateFlags) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}
	mergeFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng, err := resolveEngine(cfg.Engine)
	if err != nil {
		return err
	}
	logInfo("engine: %s", eng.Name())
	logInfo("languages: %s → %s",
		langmeta.Resolve(cfg.SrcLang).Name, langmeta.Resolve(cfg.TgtLang).Name)

	gloss, err := loadGlossary(cfg.Glossary)
	if err != nil {
		return err
	}
	post, err := loadPostprocess(cfg.Postprocess)
	if err != nil {
		return err
	}

	cacheDir, err := resolveCacheDir(cfg.CacheDir)
	if err != nil {
		return err
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return err
	}
	cache, err := cachefile.Load(cacheDir, absRoot)
	if err != nil {
		return err
	}
	if cache.Len() > 0 {
		logInfo("resuming with %d cached translations", cache.Len())
	}

	var mgr *backend.Manager
	if !f.dryRun {
		mgr, err = buildManager(cfg, cacheDir)
		if err != nil {
			return err
		}
		defer mgr.Close()
	}

	p, err := pipeline.New(pipeline.Options{
		Root:       rootDir,
		SrcLang:    cfg.SrcLang,
		TgtLang:    cfg.TgtLang,
		Engine:     eng,
		Manager:    mgr,
		Glossary:   gloss,
		Post:       post,
		Cache:      cache,
		BatchSize:  cfg.Batch.Size,
		MaxChars:   cfg.Batch.MaxChars,
		Workers:    cfg.Workers,
		BatchDelay: cfg.BatchDelay.Std(),
		DryRun:     f.dryRun,
		OnProgress: renderProgress,
		OnLog: func(msg string) {
			if verbose {
				logInfo("%s", msg)
			}
		},
	})
	if err != nil {
		return err
	}

	// First interrupt stops gracefully, second aborts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		logWarning("%s", i18n.T("stopping after the current batch (interrupt again to abort)"))
		p.Stop()
		<-sig
		cancel()
	}()

	start := time.Now()
	res, err := p.Run(ctx)
	fmt.Fprintln(os.Stderr)
	switch {
	case err == pipeline.ErrStopped:
		logWarning("stopped: %d of %d strings translated, progress saved", res.Translated, res.Extracted)
		return nil
	case err != nil:
		return err
	}

	if f.dryRun {
		logSuccess("dry run: %d strings, %d cached, %d batches to send",
			res.Extracted, res.FromCache, res.Batches)
		return nil
	}
	if f.forceLang {
		if re, ok := eng.(*renpy.Engine); ok {
			if err := re.WriteForceLanguage(rootDir, cfg.TgtLang); err != nil {
				logWarning("force language: %v", err)
			} else {
				logInfo("game will start in %s", langmeta.Resolve(cfg.TgtLang).Name)
			}
		} else {
			logWarning("--force-language is only supported for Ren'Py projects")
		}
	}
	logSuccess("%d strings written (%d new, %d cached) in %s",
		res.Written, res.Translated, res.FromCache, time.Since(start).Round(time.Second))
	return nil
}

// mergeFlags overlays non-zero flag values onto cfg. Flags always win.
func mergeFlags(cfg *config.Config, f translateFlags) {
	if f.srcLang != "" {
		cfg.SrcLang = f.srcLang
	}
	if f.tgtLang != "" {
		cfg.TgtLang = f.tgtLang
	}
	if f.engineName != "" {
		cfg.Engine = f.engineName
	}
	if f.batchSize > 0 {
		cfg.Batch.Size = f.batchSize
	}
	if f.maxChars > 0 {
		cfg.Batch.MaxChars = f.maxChars
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.batchDelay > 0 {
		cfg.BatchDelay = config.Duration(f.batchDelay)
	}
	if f.glossary != "" {
		cfg.Glossary = f.glossary
	}
	if f.postprocess != "" {
		cfg.Postprocess = f.postprocess
	}
	if f.cacheDir != "" {
		cfg.CacheDir = f.cacheDir
	}

	for _, spec := range f.apiSpecs {
		api, err := parseAPISpec(spec)
		if err != nil {
			logWarning("%v", err)
			continue
		}
		cfg.APIs = append(cfg.APIs, api)
	}
	if len(cfg.APIs) == 0 {
		// Zero configuration still works against an OpenAI-compatible
		// endpoint named on the command line.
		cfg.APIs = []backend.Config{{Name: "default", Kind: backend.KindOpenAI, RPS: config.DefaultRPS}}
	}
	for i := range cfg.APIs {
		if f.baseURL != "" {
			cfg.APIs[i].BaseURL = f.baseURL
		}
		if f.model != "" {
			cfg.APIs[i].Model = f.model
		}
		if f.apiKey != "" {
			cfg.APIs[i].APIKeys = []string{f.apiKey}
		}
	}
}

// parseAPISpec parses "name=kind:model", with kind and model optional:
// "spare=deepl", "main=openai:gpt-4o-mini", "local".
func parseAPISpec(spec string) (backend.Config, error) {
	api := backend.Config{RPS: config.DefaultRPS}
	name, rest, found := strings.Cut(spec, "=")
	if !found {
		rest = ""
	}
	api.Name = strings.TrimSpace(name)
	if api.Name == "" {
		return api, fmt.Errorf("bad --api spec %q: empty name", spec)
	}
	kind, model, _ := strings.Cut(rest, ":")
	api.Kind = strings.TrimSpace(kind)
	api.Model = strings.TrimSpace(model)
	if api.Kind == "" {
		api.Kind = backend.KindOpenAI
	}
	return api, nil
}

// buildManager assembles the fallback chain from cfg.APIs, filling in
// missing keys from the TRANSLATOR_API_KEY environment variable and then
// the stored credentials.
func buildManager(cfg *config.Config, cacheDir string) (*backend.Manager, error) {
	var endpoints []*backend.Endpoint
	for _, api := range cfg.APIs {
		if len(api.APIKeys) == 0 {
			if key := os.Getenv("TRANSLATOR_API_KEY"); key != "" {
				api.APIKeys = []string{key}
			}
		}
		if len(api.APIKeys) == 0 {
			api.APIKeys = settings.GetKeys(api.Name)
			if len(api.APIKeys) == 0 {
				api.APIKeys = settings.GetKeys(api.Kind)
			}
		}
		if len(api.APIKeys) == 0 {
			logWarning("skipping %s: no API keys (set with \"translator auth set %s <key>\")",
				api.Name, api.Name)
			continue
		}
		ep, err := backend.NewEndpoint(api, cacheDir)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
		logInfo("backend: %s (%s, %d keys)", ep.Name(), api.Kind, len(api.APIKeys))
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no usable backends: %s",
			i18n.T("configure apis in .translator.yaml or pass --api and --api-key"))
	}
	return backend.NewManager(endpoints...), nil
}

func resolveEngine(name string) (engine.Engine, error) {
	if name == "" {
		detected, err := engine.Detect(rootDir)
		if err != nil {
			return nil, err
		}
		name = detected
	}
	onLog := func(msg string) {
		if verbose {
			logInfo("%s", msg)
		}
	}
	return engine.New(name, onLog)
}

func loadGlossary(path string) (*glossary.Engine, error) {
	if path == "" {
		return nil, nil
	}
	g, err := glossary.Load(resolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("glossary: %w", err)
	}
	for _, bad := range g.Invalid() {
		logWarning("glossary: invalid pattern %q skipped", bad.Source)
	}
	logInfo("glossary: %d terms", g.Len())
	return g, nil
}

func loadPostprocess(path string) (*postprocess.Engine, error) {
	if path == "" {
		return nil, nil
	}
	p, err := postprocess.Load(resolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("postprocess: %w", err)
	}
	for _, w := range p.Warnings() {
		logWarning("postprocess: %s", w)
	}
	logInfo("postprocess: %d rules", len(p.Rules()))
	return p, nil
}

// resolvePath makes a config-relative path absolute against the project
// root.
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func resolveCacheDir(override string) (string, error) {
	if override != "" {
		return resolvePath(override), nil
	}
	return settings.CacheDir()
}

func renderProgress(done, total int, current string) {
	percent := 0
	if total > 0 {
		percent = done * 100 / total
	}
	fmt.Fprintf(os.Stderr, "\r%s %d/%d  %s\033[K",
		progressBar(percent, 24), done, total, current)
}

// progressBar renders a colored bar: red when empty, yellow in progress,
// green at 100%.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	c := barPartial
	switch {
	case percent == 0:
		c = barEmpty
	case percent >= 100:
		c = barDone
	}
	return fmt.Sprintf("%s %3d%%", c.Sprint(bar), percent)
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project info, cache and backend state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return err
	}

	engineName := cfg.Engine
	if engineName == "" {
		engineName, err = engine.Detect(rootDir)
		if err != nil {
			logWarning("%v", err)
			engineName = ""
		}
	}

	fmt.Printf("Project:   %s\n", rootDir)
	if engineName != "" {
		fmt.Printf("Engine:    %s\n", engineName)
	}
	fmt.Printf("Languages: %s → %s\n",
		langmeta.Resolve(cfg.SrcLang).Name, langmeta.Resolve(cfg.TgtLang).Name)

	if engineName != "" {
		if eng, err := engine.New(engineName, nil); err == nil {
			if texts, err := eng.Extract(rootDir); err == nil {
				cached := countCached(cfg, texts)
				fmt.Printf("Strings:   %d total, %d cached, %d pending\n",
					len(texts), cached, len(texts)-cached)
			}
		}
	}

	if len(cfg.APIs) == 0 {
		fmt.Println("Backends:  none configured")
		return nil
	}
	fmt.Println("Backends:")
	for _, api := range cfg.APIs {
		name := api.Name
		if name == "" {
			name = api.Kind
		}
		keys := len(api.APIKeys)
		if keys == 0 {
			keys = len(settings.GetKeys(name))
		}
		fmt.Printf("  %-16s %-10s keys:%d\n", name, api.Kind, keys)
	}
	return nil
}

func countCached(cfg *config.Config, texts []string) int {
	cacheDir, err := resolveCacheDir(cfg.CacheDir)
	if err != nil {
		return 0
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return 0
	}
	cache, err := cachefile.Load(cacheDir, absRoot)
	if err != nil {
		return 0
	}
	n := 0
	for _, t := range texts {
		if _, ok := cache.Get(t); ok {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// cache
// ---------------------------------------------------------------------------

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear translation caches",
	}
	cmd.AddCommand(newCacheStatsCmd(), newCacheClearCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			cacheDir, err := resolveCacheDir(cfg.CacheDir)
			if err != nil {
				return err
			}
			absRoot, err := filepath.Abs(rootDir)
			if err != nil {
				return err
			}
			cache, err := cachefile.Load(cacheDir, absRoot)
			if err != nil {
				return err
			}
			fmt.Printf("Project cache: %d translations (%s)\n", cache.Len(), cache.Path())

			for _, api := range cfg.APIs {
				ep, err := backend.NewEndpoint(api, cacheDir)
				if err != nil {
					continue
				}
				if n, err := ep.CacheLen(); err == nil {
					fmt.Printf("Endpoint %-12s %d entries\n", ep.Name()+":", n)
				}
				ep.Close()
			}
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the project cache and endpoint caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear caches without --yes")
			}
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			cacheDir, err := resolveCacheDir(cfg.CacheDir)
			if err != nil {
				return err
			}
			absRoot, err := filepath.Abs(rootDir)
			if err != nil {
				return err
			}
			cache, err := cachefile.Load(cacheDir, absRoot)
			if err != nil {
				return err
			}
			n := cache.Len()
			if err := cache.Clear(); err != nil {
				return err
			}
			logSuccess("cleared %d project cache entries", n)

			for _, api := range cfg.APIs {
				ep, err := backend.NewEndpoint(api, cacheDir)
				if err != nil {
					continue
				}
				if err := ep.ClearCache(); err != nil {
					logWarning("endpoint %s: %v", ep.Name(), err)
				} else {
					logSuccess("cleared endpoint cache: %s", ep.Name())
				}
				ep.Close()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

// ---------------------------------------------------------------------------
// glossary
// ---------------------------------------------------------------------------

func newGlossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Glossary utilities",
	}
	cmd.AddCommand(newGlossaryCheckCmd())
	return cmd
}

func newGlossaryCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a glossary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := glossary.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d entries\n", g.Len())

			seen := map[string]int{}
			for _, e := range g.Entries() {
				seen[strings.ToLower(e.Source)]++
			}
			var dups []string
			for src, n := range seen {
				if n > 1 {
					dups = append(dups, src)
				}
			}
			sort.Strings(dups)
			for _, d := range dups {
				logWarning("duplicate source: %q", d)
			}
			for _, bad := range g.Invalid() {
				logWarning("invalid regex entry: %q", bad.Source)
			}
			if len(dups) == 0 && len(g.Invalid()) == 0 {
				logSuccess("glossary is clean")
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API keys",
		Long: fmt.Sprintf(`Manage stored API keys.

Keys are stored per backend name in %s and used by "translator translate"
when the config file does not carry keys itself.`, settings.FilePath()),
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthListCmd(), newAuthRemoveCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <backend> <key> [key...]",
		Short: "Store API keys for a backend",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := settings.SetKeys(name, args[1:]); err != nil {
				return err
			}
			logSuccess("stored %d keys for %s", len(args)-1, name)
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored backends and masked keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := settings.List()
			if len(names) == 0 {
				fmt.Println(i18n.T("no stored credentials"))
				return nil
			}
			for _, name := range names {
				keys := settings.GetKeys(name)
				masked := make([]string, len(keys))
				for i, k := range keys {
					masked[i] = settings.MaskKey(k)
				}
				fmt.Printf("%-16s %s\n", name, strings.Join(masked, ", "))
			}
			return nil
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "remove [backend]",
		Short: "Remove stored keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("removed all stored credentials")
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("name a backend or pass --all")
			}
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			logSuccess("removed keys for %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every stored backend")
	return cmd
}
