package watch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/jasg/internal/logfields"
)

// BuildFunc regenerates the site. reason describes what triggered the run.
type BuildFunc func(ctx context.Context, reason string) error

// Runner executes builds one at a time. A trigger that arrives while a
// build runs queues exactly one follow-up; further triggers fold into it.
type Runner struct {
	build   BuildFunc
	queue   chan string
	running atomic.Bool
	runs    atomic.Int64
	failed  atomic.Int64
}

// NewRunner creates a Runner for build.
func NewRunner(build BuildFunc) *Runner {
	return &Runner{build: build, queue: make(chan string, 1)}
}

// Trigger requests a build. It reports false when a build is already queued.
func (r *Runner) Trigger(reason string) bool {
	select {
	case r.queue <- reason:
		return true
	default:
		slog.Debug("Build already queued", logfields.Event(reason))
		return false
	}
}

// Running reports whether a build is in progress.
func (r *Runner) Running() bool { return r.running.Load() }

// Runs is the number of completed builds, failed ones included.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Failures is the number of builds that returned an error.
func (r *Runner) Failures() int64 { return r.failed.Load() }

// Run executes queued builds until ctx is done. Build errors are logged and
// do not stop the loop.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-r.queue:
			r.running.Store(true)
			start := time.Now()
			err := r.build(ctx, reason)
			r.running.Store(false)
			r.runs.Add(1)

			dur := float64(time.Since(start).Microseconds()) / 1000
			if err != nil {
				r.failed.Add(1)
				slog.Error("Rebuild failed", logfields.Event(reason), logfields.DurationMS(dur), logfields.Error(err))
				continue
			}
			slog.Info("Rebuild completed", logfields.Event(reason), logfields.DurationMS(dur))
		}
	}
}
