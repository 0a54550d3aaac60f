package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/jasg/internal/fileparser"
	"git.home.luguber.info/inful/jasg/internal/generator"
	"git.home.luguber.info/inful/jasg/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives command results; stdout when nil.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Root        string           `short:"r" help:"Site root directory" default:"." type:"existingdir"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	LogLevel    string           `name:"log-level" help:"Log level (debug, info, warn, error)" env:"JASG_LOG_LEVEL"`
	Concurrency int              `help:"Files processed concurrently (0 = number of CPUs)" env:"JASG_CONCURRENCY" default:"0"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Generate the site and report what it contains"`
	Inspect InspectCmd `cmd:"" help:"List the pages and layouts of a site"`
	Check   CheckCmd   `cmd:"" help:"Verify links in page bodies"`
	Watch   WatchCmd   `cmd:"" help:"Regenerate the site whenever sources change"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose, c.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel gives --verbose precedence over JASG_LOG_LEVEL.
func parseLogLevel(verbose bool, level string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newGenerator builds a Generator from the global flags.
func (c *CLI) newGenerator(recorder metrics.Recorder) *generator.Generator {
	opts := []generator.Option{generator.WithRecorder(recorder)}
	if c.Concurrency > 0 {
		opts = append(opts, generator.WithConcurrency(c.Concurrency))
	}
	return generator.New(c.Root, fileparser.NewYAMLParser(), opts...)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
