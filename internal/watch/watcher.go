// Package watch regenerates a site when its sources change. File system
// events are debounced, builds never overlap, and an optional schedule
// forces periodic full regenerations.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/jasg/internal/config"
	"git.home.luguber.info/inful/jasg/internal/logfields"
)

// Options configures a Watcher.
type Options struct {
	// QuietWindow is how long the tree must stay unchanged before a rebuild (default 300ms).
	QuietWindow time.Duration
	// MaxDelay bounds how long continuous changes can postpone a rebuild (default 5s).
	MaxDelay time.Duration
	// Interval enables periodic regeneration when positive.
	Interval time.Duration
	// SkipInitialBuild starts watching without building first.
	SkipInitialBuild bool
}

// Watcher observes a site root and drives a Runner.
type Watcher struct {
	root   string
	opts   Options
	runner *Runner

	mu        sync.RWMutex
	outputDir string
}

// New creates a Watcher for root that calls build on changes.
func New(root string, build BuildFunc, opts Options) (*Watcher, error) {
	if build == nil {
		return nil, errors.New("watch: build function is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = 300 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	w := &Watcher{root: abs, opts: opts, runner: NewRunner(build)}
	w.reloadOutputDir()
	return w, nil
}

// Runner exposes the build runner, mainly for status reporting.
func (w *Watcher) Runner() *Runner { return w.runner }

func (w *Watcher) reloadOutputDir() {
	out := config.DefaultOutputDirectory
	if cfg, err := config.Load(w.root); err == nil {
		out = cfg.OutputDirectory()
	}
	w.mu.Lock()
	w.outputDir = filepath.Join(w.root, out)
	w.mu.Unlock()
}

func (w *Watcher) outputDirectory() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.outputDir
}

func under(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// relevant reports whether a change at path can affect the generated site.
func (w *Watcher) relevant(path string) bool {
	configDir := filepath.Join(w.root, config.ConfigDirName)
	switch {
	case under(path, configDir):
		return path == config.Path(w.root)
	case under(path, w.outputDirectory()):
		return false
	case strings.HasPrefix(filepath.Base(path), "."):
		return false
	}
	return true
}

// watchable reports whether a directory should be added to the watcher. It
// prunes the same directories the generator does: the output directory and
// everything below the config directory. Hidden directories are watched
// because files inside them are still content.
func (w *Watcher) watchable(dir string) bool {
	configDir := filepath.Join(w.root, config.ConfigDirName)
	switch {
	case dir == w.root, dir == configDir:
		return true
	case under(dir, configDir), under(dir, w.outputDirectory()):
		return false
	}
	return true
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if !w.watchable(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run builds once (unless disabled), then rebuilds on changes until ctx is
// done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()
	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	debouncer := NewDebouncer(w.opts.QuietWindow, w.opts.MaxDelay, func(cause, reason string) {
		slog.Debug("Change burst settled", slog.String("cause", cause), logfields.Path(reason))
		w.runner.Trigger("change")
	})
	wg.Add(2)
	go func() { defer wg.Done(); w.runner.Run(ctx) }()
	go func() { defer wg.Done(); debouncer.Run(ctx) }()
	defer func() {
		cancel()
		wg.Wait()
	}()

	if w.opts.Interval > 0 {
		sched, err := NewScheduler(w.opts.Interval, w.runner)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if !w.opts.SkipInitialBuild {
		w.runner.Trigger("initial")
	}
	slog.Info("Watching for changes", logfields.Root(w.root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, event, debouncer)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event, debouncer *Debouncer) {
	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() && w.watchable(path) {
			if err := w.addTree(fw, path); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(path), logfields.Error(err))
			}
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.relevant(path) {
		return
	}
	if path == config.Path(w.root) {
		w.reloadOutputDir()
	}
	slog.Debug("Source change detected", logfields.Path(path), logfields.Event(event.Op.String()))
	debouncer.Request(path)
}
