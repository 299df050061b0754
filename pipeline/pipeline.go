// Package pipeline drives a full translation run: extract strings from a
// game project, diff them against the persisted cache, mask markup, apply
// the glossary, dispatch batches to the backend manager with bisection on
// failure, post-process the replies, and write everything back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ymylive/translator/backend"
	"github.com/ymylive/translator/cachefile"
	"github.com/ymylive/translator/engine"
	"github.com/ymylive/translator/glossary"
	"github.com/ymylive/translator/mask"
	"github.com/ymylive/translator/postprocess"
)

// ErrStopped is returned by Run when Stop was called before the run
// finished. Work completed up to that point has already been flushed to
// the cache.
var ErrStopped = errors.New("translation run stopped")

// Options configures a run. Root, Engine and Manager are required; the
// other collaborators are optional and degrade to no-ops.
type Options struct {
	Root    string
	SrcLang string
	TgtLang string

	Engine   engine.Engine
	Manager  *backend.Manager
	Glossary *glossary.Engine
	Post     *postprocess.Engine
	Cache    *cachefile.File

	// BatchSize caps units per request; MaxChars caps masked characters
	// per request. Zero means the default.
	BatchSize int
	MaxChars  int

	// Workers is the number of concurrent batch requests. With one
	// worker batches run sequentially with BatchDelay between them.
	Workers    int
	BatchDelay time.Duration

	// DryRun extracts, diffs and reports but sends nothing.
	DryRun bool

	// OnProgress is called after each batch with completed and total
	// batch counts plus a sample of the batch just finished. OnLog
	// receives human-readable progress lines. Both may be nil and both
	// may be called from multiple goroutines.
	OnProgress func(done, total int, current string)
	OnLog      func(msg string)
}

const (
	defaultBatchSize = 150
	defaultMaxChars  = 12000
	defaultWorkers   = 2
)

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return defaultBatchSize
}

func (o *Options) effectiveMaxChars() int {
	if o.MaxChars > 0 {
		return o.MaxChars
	}
	return defaultMaxChars
}

func (o *Options) effectiveWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return defaultWorkers
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(fmt.Sprintf(format, args...))
	}
}

// Result summarizes a finished run.
type Result struct {
	Extracted  int // strings found in the project
	FromCache  int // strings already translated in a previous run
	Translated int // strings translated this run
	Batches    int // batches dispatched
	Written    int // strings written back to the project
}

// Pipeline is one translation run over a project.
type Pipeline struct {
	opts    Options
	stopped atomic.Bool
}

// New validates opts and prepares a run.
func New(opts Options) (*Pipeline, error) {
	if opts.Root == "" {
		return nil, errors.New("project root is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("game engine is required")
	}
	if opts.Manager == nil && !opts.DryRun {
		return nil, errors.New("backend manager is required")
	}
	if opts.TgtLang == "" {
		return nil, errors.New("target language is required")
	}
	return &Pipeline{opts: opts}, nil
}

// Stop requests a graceful stop. In-flight batches finish and flush;
// pending batches are skipped. Safe from any goroutine.
func (p *Pipeline) Stop() { p.stopped.Store(true) }

// Run executes the pipeline. A stopped run returns ErrStopped together
// with the partial result; completed batches are already persisted.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	o := &p.opts

	if err := o.Engine.Validate(o.Root); err != nil {
		return res, fmt.Errorf("validate project: %w", err)
	}

	texts, err := o.Engine.Extract(o.Root)
	if err != nil {
		return res, fmt.Errorf("extract strings: %w", err)
	}
	res.Extracted = len(texts)
	o.log("extracted %d strings", len(texts))

	// Diff against the persisted cache so reruns only send new text.
	var pending []Unit
	for _, text := range texts {
		if o.Cache != nil {
			if _, ok := o.Cache.Get(text); ok {
				res.FromCache++
				continue
			}
		}
		pending = append(pending, NewUnit(text))
	}
	o.log("%d cached, %d to translate", res.FromCache, len(pending))

	batches := SplitBatches(pending, o.effectiveBatchSize(), o.effectiveMaxChars())
	res.Batches = len(batches)

	if o.DryRun {
		o.log("dry run: would send %d batches", len(batches))
		return res, nil
	}

	if len(batches) > 0 {
		translated, err := p.dispatch(ctx, batches)
		res.Translated = translated
		if err != nil {
			return res, err
		}
	}

	if p.stopped.Load() {
		return res, ErrStopped
	}

	// Write back everything known, cached and fresh alike, so a resumed
	// run still produces complete output files.
	out := map[string]string{}
	if o.Cache != nil {
		out = o.Cache.Snapshot()
	}
	written := make(map[string]string, len(texts))
	for _, text := range texts {
		if tr, ok := out[text]; ok && tr != "" {
			written[text] = tr
		}
	}
	if len(written) > 0 {
		if err := o.Engine.WriteTranslations(o.Root, o.TgtLang, written); err != nil {
			return res, fmt.Errorf("write translations: %w", err)
		}
	}
	res.Written = len(written)
	o.log("wrote %d translations", len(written))
	return res, nil
}

// dispatch sends batches over a bounded worker pool. Each finished batch
// is merged into the cache and saved before the next progress callback,
// so an interrupted run loses at most its in-flight batches.
func (p *Pipeline) dispatch(ctx context.Context, batches []Batch) (int, error) {
	o := &p.opts
	workers := o.effectiveWorkers()
	if workers > len(batches) {
		workers = len(batches)
	}

	var (
		wg         sync.WaitGroup
		sem        = make(chan struct{}, workers)
		mu         sync.Mutex
		firstErr   error
		done       atomic.Int64
		translated atomic.Int64
	)

	for i, b := range batches {
		if p.stopped.Load() || ctx.Err() != nil {
			break
		}
		// Sequential runs pace themselves between batches.
		if workers == 1 && i > 0 && o.BatchDelay > 0 {
			select {
			case <-time.After(o.BatchDelay):
			case <-ctx.Done():
			}
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(b Batch) {
			defer wg.Done()
			defer func() { <-sem }()

			if p.stopped.Load() || ctx.Err() != nil {
				return
			}
			result, err := p.translateBatch(ctx, b)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				p.stopped.Store(true)
				return
			}
			translated.Add(int64(len(result)))
			if o.Cache != nil {
				if err := o.Cache.MergeAndSave(result); err != nil {
					o.log("cache save failed: %v", err)
				}
			}
			n := int(done.Add(1))
			if o.OnProgress != nil {
				o.OnProgress(n, len(batches), sample(b))
			}
		}(b)
	}
	wg.Wait()

	if firstErr != nil {
		return int(translated.Load()), firstErr
	}
	if ctx.Err() != nil {
		return int(translated.Load()), ctx.Err()
	}
	return int(translated.Load()), nil
}

// translateBatch runs one batch through glossary, backend and restore,
// falling back to bisection when the whole batch fails.
func (p *Pipeline) translateBatch(ctx context.Context, b Batch) (map[string]string, error) {
	o := &p.opts

	texts := make([]string, len(b))
	glossCtx := make([]*glossary.Context, len(b))
	for i, u := range b {
		texts[i], glossCtx[i] = o.Glossary.Apply(u.Masked)
	}

	replies, err := o.Manager.Translate(ctx, texts, o.SrcLang, o.TgtLang)
	if err != nil {
		return p.retryBatch(ctx, b, err)
	}
	if len(replies) != len(b) {
		return p.retryBatch(ctx, b, fmt.Errorf("backend returned %d texts for %d inputs", len(replies), len(b)))
	}

	out := make(map[string]string, len(b))
	for i, u := range b {
		text := o.Glossary.RestoreTerms(replies[i], glossCtx[i])
		if o.Post.Enabled() {
			text = o.Post.Process(text)
		}
		out[u.Original] = mask.Restore(text, u.Tokens)
	}
	return out, nil
}

// retryBatch isolates failures by halving the batch and recursing. A
// single failing unit keeps its source text so the run can finish; the
// failure is logged rather than fatal.
func (p *Pipeline) retryBatch(ctx context.Context, b Batch, cause error) (map[string]string, error) {
	o := &p.opts
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(b) == 1 {
		u := b[0]
		o.log("giving up on %q: %v", sample(b), cause)
		return map[string]string{u.Original: u.Original}, nil
	}
	o.log("batch of %d failed, splitting: %v", len(b), cause)

	left, right := bisect(b)
	out, err := p.translateBatch(ctx, left)
	if err != nil {
		return nil, err
	}
	rightOut, err := p.translateBatch(ctx, right)
	if err != nil {
		return nil, err
	}
	for k, v := range rightOut {
		out[k] = v
	}
	return out, nil
}

// sample returns a short identifying excerpt of a batch for progress and
// log lines.
func sample(b Batch) string {
	if len(b) == 0 {
		return ""
	}
	s := b[0].Original
	s = strings.ReplaceAll(s, "\n", " ")
	const max = 40
	if runes := []rune(s); len(runes) > max {
		s = string(runes[:max]) + "…"
	}
	return s
}
