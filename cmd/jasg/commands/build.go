package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
	"git.home.luguber.info/inful/jasg/internal/generator"
	"git.home.luguber.info/inful/jasg/internal/logfields"
	"git.home.luguber.info/inful/jasg/internal/manifest"
	"git.home.luguber.info/inful/jasg/internal/metrics"
	"git.home.luguber.info/inful/jasg/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Manifest    string `short:"m" help:"Write a YAML manifest of the generated site to this path" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prometheus *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		prometheus = metrics.NewPrometheusRecorder(prom.NewRegistry())
		recorder = prometheus
	}

	runID := uuid.NewString()
	s, err := generate(ctx, root, recorder, runID)

	if prometheus != nil {
		if werr := prometheus.WriteTextfile(b.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(b.MetricsFile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	defer cleanup(s)

	if b.Manifest != "" {
		m, err := buildManifest(s, runID)
		if err != nil {
			return err
		}
		if err := writeManifest(m, b.Manifest); err != nil {
			return err
		}
	}

	out := g.out()
	printf(out, "Generated %d items (%d pages, %d layouts) from %s\n", s.Len(), len(s.Pages()), len(s.Layouts()), s.Root())
	if b.Manifest != "" {
		printf(out, "Manifest written to %s\n", b.Manifest)
	}
	return nil
}

// generate runs one generation and classifies failures for the CLI.
func generate(ctx context.Context, root *CLI, recorder metrics.Recorder, runID string) (*site.Site, error) {
	if root.Concurrency < 0 {
		return nil, foundationerrors.ValidationError("--concurrency must not be negative").
			WithContext("concurrency", root.Concurrency).
			Build()
	}
	ctx = generator.ContextWithRunID(ctx, runID)
	s, err := root.newGenerator(recorder).GenerateSite(ctx)
	if err != nil {
		return nil, generator.Classify(err)
	}
	return s, nil
}

func buildManifest(s *site.Site, runID string) (*manifest.SiteManifest, error) {
	m, err := manifest.Build(s, runID, time.Now())
	if err != nil {
		return nil, foundationerrors.InternalError("build manifest").WithCause(err).Build()
	}
	return m, nil
}

func writeManifest(m *manifest.SiteManifest, path string) error {
	if err := m.WriteFile(path); err != nil {
		return foundationerrors.FileSystemError("write manifest").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	slog.Debug("Manifest written", logfields.Path(path), logfields.Count(len(m.Contents)))
	return nil
}

// cleanup removes template copies once a command is done with the site.
func cleanup(s *site.Site) {
	if err := s.Cleanup(); err != nil {
		slog.Warn("Failed to remove template copies", logfields.Error(fmt.Errorf("cleanup: %w", err)))
	}
}
