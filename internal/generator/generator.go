// Package generator turns a source directory into a site.Site: it walks the
// root, skips reserved and hidden files, resolves dates and front matter
// defaults, classifies each file as a page or a layout and materializes a
// private copy of its body for the renderer.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/jasg/internal/config"
	"git.home.luguber.info/inful/jasg/internal/content"
	"git.home.luguber.info/inful/jasg/internal/fileparser"
	"git.home.luguber.info/inful/jasg/internal/logfields"
	"git.home.luguber.info/inful/jasg/internal/metrics"
	"git.home.luguber.info/inful/jasg/internal/naming"
	"git.home.luguber.info/inful/jasg/internal/site"
)

// Generator builds a Site from a root directory. A Generator may be reused;
// each GenerateSite call is an independent run.
type Generator struct {
	root        string
	parser      fileparser.FileParser
	fs          FileSystem
	recorder    metrics.Recorder
	concurrency int
}

// Option configures a Generator.
type Option func(*Generator)

// WithConcurrency bounds the number of files processed at once. Values below
// one fall back to one.
func WithConcurrency(n int) Option {
	return func(g *Generator) { g.concurrency = max(n, 1) }
}

// WithFileSystem replaces the disk I/O used for reads, mtimes and temp files.
func WithFileSystem(fs FileSystem) Option {
	return func(g *Generator) {
		if fs != nil {
			g.fs = fs
		}
	}
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// New creates a Generator for root. A nil parser selects the YAML front
// matter parser.
func New(root string, parser fileparser.FileParser, opts ...Option) *Generator {
	if parser == nil {
		parser = fileparser.NewYAMLParser()
	}
	g := &Generator{
		root:        root,
		parser:      parser,
		fs:          OSFileSystem{},
		recorder:    metrics.NoopRecorder{},
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Root is the directory passed to New.
func (g *Generator) Root() string { return g.root }

type runIDKey struct{}

// ContextWithRunID attaches a run ID that GenerateSite uses in its logs.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run ID attached with ContextWithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// GenerateSite runs one generation. It returns either a Site holding every
// eligible file or an error naming the first file that failed; there is no
// partial result. On failure all template copies created by the run are
// removed.
func (g *Generator) GenerateSite(ctx context.Context) (*site.Site, error) {
	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
	}
	log := slog.With(logfields.RunID(runID), logfields.Root(g.root))

	start := time.Now()
	s, err := g.generate(ctx, log)
	dur := time.Since(start)
	g.recorder.ObserveGenerateDuration(dur)

	switch {
	case err == nil:
		g.recorder.IncGenerateOutcome(metrics.ResultSuccess)
		log.Info("Site generated", logfields.Count(s.Len()), logfields.DurationMS(float64(dur.Microseconds())/1000))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		g.recorder.IncGenerateOutcome(metrics.ResultCanceled)
		log.Warn("Site generation canceled", logfields.Error(err))
	default:
		g.recorder.IncGenerateOutcome(metrics.ResultFailed)
		attrs := []any{logfields.Error(err)}
		var fe *FileError
		if errors.As(err, &fe) {
			attrs = append(attrs, logfields.Path(fe.Path), logfields.Stage(string(fe.Stage)))
		}
		log.Error("Site generation failed", attrs...)
	}
	return s, err
}

func (g *Generator) generate(ctx context.Context, log *slog.Logger) (*site.Site, error) {
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	root, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, newFileError(absRoot, StageWalk, ErrSourceRead, err)
	}

	r := newRules(root, cfg)
	files, err := r.collect(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("Collected source files", logfields.Count(len(files)))

	results, err := g.processAll(ctx, r, cfg, files, log)
	if err != nil {
		return nil, err
	}

	s := site.New(root, cfg)
	for _, c := range results {
		s.AddContent(c)
		g.recorder.IncContent(string(c.Type()))
	}
	return s, nil
}

// processAll runs the per-file pipeline on a bounded worker pool. Results
// are slotted by walk index so the Site is filled in walk order regardless
// of completion order. The first failure cancels the remaining queue.
func (g *Generator) processAll(ctx context.Context, r rules, cfg *config.SiteConfiguration, files []sourceFile, log *slog.Logger) ([]content.Content, error) {
	results := make([]content.Content, len(files))
	if len(files) == 0 {
		return results, nil
	}

	workers := min(g.concurrency, len(files))
	g.recorder.SetWorkers(workers)
	log.Debug("Processing source files", logfields.Workers(workers), logfields.Count(len(files)))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	tasks := make(chan sourceFile)
	worker := func() {
		defer wg.Done()
		for f := range tasks {
			if runCtx.Err() != nil {
				continue
			}
			c, err := g.process(r, cfg, f)
			if err != nil {
				var fe *FileError
				if errors.As(err, &fe) {
					g.recorder.IncFileError(string(fe.Stage))
				}
				fail(err)
				continue
			}
			// Each index is written by exactly one worker.
			results[f.index] = c
			log.Debug("Processed source file", logfields.Path(f.path), logfields.Kind(string(c.Type())))
		}
	}
	wg.Add(workers)
	for range workers {
		go worker()
	}

dispatch:
	for _, f := range files {
		select {
		case <-runCtx.Done():
			break dispatch
		case tasks <- f:
		}
	}
	close(tasks)
	wg.Wait()

	err := firstErr
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("site generation canceled: %w", ctx.Err())
	}
	if err != nil {
		removeTemplates(results, log)
		return nil, err
	}
	return results, nil
}

// process is the pipeline for one file: read, parse, date, front matter,
// template, classify.
func (g *Generator) process(r rules, cfg *config.SiteConfiguration, f sourceFile) (content.Content, error) {
	start := time.Now()
	raw, err := g.fs.ReadFile(f.realPath)
	if err != nil {
		return nil, newFileError(f.path, StageRead, ErrSourceRead, err)
	}
	g.observe(StageRead, start)

	start = time.Now()
	parsed, err := g.parser.Parse(raw)
	if err != nil {
		return nil, newFileError(f.path, StageParse, ErrParse, err)
	}
	g.observe(StageParse, start)

	start = time.Now()
	date, err := g.resolveDate(f)
	if err != nil {
		return nil, err
	}
	g.observe(StageDate, start)

	layout := r.isLayoutPath(f.realPath)
	fm, err := buildFrontMatter(cfg, r.root, parsed.RawFrontMatter(), date, f.path, layout)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	tmp, err := g.fs.WriteTemp([]byte(parsed.RawContents()))
	if err != nil {
		return nil, newFileError(f.path, StageTemplate, ErrTemplate, err)
	}
	g.observe(StageTemplate, start)
	tpl := content.NewTemplate(naming.Format(filepath.Base(f.path)), tmp)

	if layout {
		return content.NewLayout(f.path, date, fm, tpl), nil
	}
	return content.NewPage(f.path, date, fm, tpl), nil
}

func (g *Generator) observe(stage Stage, start time.Time) {
	g.recorder.ObserveStageDuration(string(stage), time.Since(start))
}

func removeTemplates(results []content.Content, log *slog.Logger) {
	for _, c := range results {
		if c == nil {
			continue
		}
		if err := c.Template().Remove(); err != nil {
			log.Warn("Failed to remove template copy", logfields.Path(c.Template().ContentPath()), logfields.Error(err))
		}
	}
}
