package commands

import (
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/linkcheck"
	"git.home.luguber.info/inful/jasg/internal/markdown"
	"git.home.luguber.info/inful/jasg/internal/metrics"
	"git.home.luguber.info/inful/jasg/internal/retry"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	External bool          `help:"Also request external http(s) links"`
	GFM      bool          `help:"Parse Markdown as GitHub Flavored Markdown (links bare URLs)"`
	Timeout  time.Duration `help:"Timeout per external request" default:"10s"`
	Parallel int           `help:"Pages checked concurrently" default:"4"`
	Retries  int           `help:"Retries for external links failing with a network error or 5xx" default:"2"`
	Backoff  string        `help:"Delay growth between retries" enum:"fixed,linear,exponential" default:"linear"`
}

func (c *CheckCmd) validate() error {
	switch {
	case c.Parallel < 1:
		return foundationerrors.ValidationError("--parallel must be at least 1").WithContext("parallel", c.Parallel).Build()
	case c.Retries < 0:
		return foundationerrors.ValidationError("--retries must not be negative").WithContext("retries", c.Retries).Build()
	case c.Timeout < 0:
		return foundationerrors.ValidationError("--timeout must not be negative").WithContext("timeout", c.Timeout.String()).Build()
	}
	return nil
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	if err := c.validate(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := generate(ctx, root, metrics.NoopRecorder{}, uuid.NewString())
	if err != nil {
		return err
	}
	defer cleanup(s)

	report, err := linkcheck.New(linkcheck.Options{
		External:      c.External,
		MaxConcurrent: c.Parallel,
		Timeout:       c.Timeout,
		Markdown:      markdown.Options{GFM: c.GFM},
		Retry:         retry.NewPolicy(retry.Mode(c.Backoff), 0, 0, c.Retries),
	}).Check(ctx, s)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryCanceled, "link check interrupted").Build()
	}

	out := g.out()
	for _, issue := range report.Issues {
		printf(out, "%s\n", issue)
	}
	printf(out, "Checked %d links in %d pages: %d broken\n", report.Links, report.Pages, len(report.Issues))
	if !report.OK() {
		return foundationerrors.ContentError("broken links found").
			WithContext("count", len(report.Issues)).
			Build()
	}
	return nil
}
