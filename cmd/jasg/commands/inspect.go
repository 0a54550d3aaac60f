package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/manifest"
	"git.home.luguber.info/inful/jasg/internal/metrics"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Format   string `short:"f" help:"Output format (table, yaml)" enum:"table,yaml" default:"table"`
	Manifest string `short:"m" help:"Inspect a previously written manifest instead of generating" type:"existingfile"`
}

func (i *InspectCmd) Run(g *Global, root *CLI) error {
	m, err := i.load(root)
	if err != nil {
		return err
	}

	out := g.out()
	if i.Format == "yaml" {
		data, err := m.ToYAML()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	printf(tw, "TYPE\tDATE\tFORMAT\tPATH\tTITLE\n")
	for _, e := range m.Contents {
		title, _ := e.FrontMatter.GetString("title")
		printf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Type, e.Date, e.Format, e.Path, title)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func (i *InspectCmd) load(root *CLI) (*manifest.SiteManifest, error) {
	if i.Manifest != "" {
		m, err := manifest.ReadFile(filepath.Clean(i.Manifest))
		if err != nil {
			return nil, foundationerrors.FileSystemError("read manifest").
				WithCause(err).
				WithContext("path", i.Manifest).
				Build()
		}
		return m, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	runID := uuid.NewString()
	s, err := generate(ctx, root, metrics.NoopRecorder{}, runID)
	if err != nil {
		return nil, err
	}
	defer cleanup(s)
	return manifest.Build(s, runID, time.Now())
}
