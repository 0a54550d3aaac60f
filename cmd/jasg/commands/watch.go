package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/logfields"
	"git.home.luguber.info/inful/jasg/internal/manifest"
	"git.home.luguber.info/inful/jasg/internal/metrics"
	"git.home.luguber.info/inful/jasg/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval time.Duration `help:"Also regenerate on this interval (0 disables)" default:"0s"`
	Quiet    time.Duration `help:"Wait for this long without changes before regenerating" default:"300ms"`
	MaxDelay time.Duration `name:"max-delay" help:"Regenerate at least this often while changes keep arriving" default:"5s"`
	Manifest string        `short:"m" help:"Rewrite a YAML manifest after every successful generation" type:"path"`
}

func (w *WatchCmd) validate() error {
	switch {
	case w.Interval < 0:
		return foundationerrors.ValidationError("--interval must not be negative").WithContext("interval", w.Interval.String()).Build()
	case w.Quiet < 0:
		return foundationerrors.ValidationError("--quiet must not be negative").WithContext("quiet", w.Quiet.String()).Build()
	case w.MaxDelay < 0:
		return foundationerrors.ValidationError("--max-delay must not be negative").WithContext("max_delay", w.MaxDelay.String()).Build()
	}
	return nil
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	if err := w.validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	out := g.out()
	// Runs never overlap, so prev needs no locking.
	var prev *manifest.SiteManifest
	build := func(ctx context.Context, reason string) error {
		runID := uuid.NewString()
		s, err := generate(ctx, root, metrics.NoopRecorder{}, runID)
		if err != nil {
			return err
		}
		defer cleanup(s)

		m, err := buildManifest(s, runID)
		if err != nil {
			return err
		}
		added, removed, changed := manifest.Diff(prev, m)
		unchanged, err := sameHash(prev, m)
		if err != nil {
			return err
		}
		prev = m

		if w.Manifest != "" && !unchanged {
			if err := writeManifest(m, w.Manifest); err != nil {
				return err
			}
		}
		printf(out, "[%s] generated %d items (%s): +%d -%d ~%d\n",
			time.Now().Format(time.TimeOnly), s.Len(), reason, len(added), len(removed), len(changed))
		return nil
	}

	watcher, err := watch.New(root.Root, build, watch.Options{
		QuietWindow: w.Quiet,
		MaxDelay:    w.MaxDelay,
		Interval:    w.Interval,
	})
	if err != nil {
		return foundationerrors.RuntimeError("start watcher").WithCause(err).Build()
	}
	if err := watcher.Run(ctx); err != nil {
		return foundationerrors.RuntimeError("file watcher failed").
			WithCause(err).
			WithContext("root", root.Root).
			Build()
	}
	slog.Info("Watch stopped", logfields.Count(int(watcher.Runner().Runs())))
	return nil
}

// sameHash reports whether two manifests describe the same site.
func sameHash(prev, next *manifest.SiteManifest) (bool, error) {
	if prev == nil {
		return false, nil
	}
	a, err := prev.Hash()
	if err != nil {
		return false, err
	}
	b, err := next.Hash()
	if err != nil {
		return false, err
	}
	return a == b, nil
}
