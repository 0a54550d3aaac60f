package generator

import (
	"context"
	"errors"
	"fmt"

	foundationerrors "git.home.luguber.info/inful/jasg/internal/foundation/errors"
)

// Stage names a step of the per-file pipeline. Errors and metrics carry it.
type Stage string

const (
	StageConfig   Stage = "config"
	StageWalk     Stage = "walk"
	StageRead     Stage = "read"
	StageParse    Stage = "parse"
	StageDate     Stage = "date"
	StageTemplate Stage = "template"
)

var (
	// ErrConfigLoad wraps every configuration failure; it aborts before walking.
	ErrConfigLoad = errors.New("site configuration could not be loaded")
	// ErrSourceRead reports an unreadable source file or failed traversal.
	ErrSourceRead = errors.New("source file could not be read")
	// ErrParse reports a parser failure or malformed front matter.
	ErrParse = errors.New("source file could not be parsed")
	// ErrDateFormat reports a YYYY-MM-DD file name prefix that is not a calendar date.
	ErrDateFormat = errors.New("file name date prefix is not a valid date")
	// ErrTemplate reports a failure materializing the template body copy.
	ErrTemplate = errors.New("template body could not be materialized")
)

// FileError ties a per-file failure to the offending path and pipeline stage.
type FileError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func newFileError(path string, stage Stage, kind, cause error) *FileError {
	if cause == nil {
		return &FileError{Path: path, Stage: stage, Err: kind}
	}
	return &FileError{Path: path, Stage: stage, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// Classify maps a generation error onto the foundation taxonomy so the CLI
// can pick an exit code and message. Already classified errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if foundationerrors.IsClassified(err) {
		return err
	}

	var b *foundationerrors.ErrorBuilder
	switch {
	case errors.Is(err, ErrDateFormat):
		b = foundationerrors.ContentError("invalid date in file name")
	case errors.Is(err, ErrParse):
		b = foundationerrors.ParseError("content file could not be parsed")
	case errors.Is(err, ErrSourceRead):
		b = foundationerrors.FileSystemError("source tree could not be read")
	case errors.Is(err, ErrTemplate):
		b = foundationerrors.FileSystemError("template body could not be written")
	case errors.Is(err, ErrConfigLoad):
		b = foundationerrors.ConfigError("site configuration could not be loaded")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		b = foundationerrors.NewError(foundationerrors.CategoryCanceled, "generation canceled")
	default:
		b = foundationerrors.InternalError("site generation failed")
	}
	b = b.WithCause(err)

	var fe *FileError
	if errors.As(err, &fe) {
		b = b.WithContext("path", fe.Path).WithContext("stage", string(fe.Stage))
	}
	return b.Build()
}
