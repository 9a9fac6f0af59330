package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Builder acquires a source archive into a scratch tree and runs a build
// command inside it. The scratch tree never outlives the build: it is
// removed on success and failure alike.
type Builder struct {
	downloader *Downloader
	stdout     io.Writer
	stderr     io.Writer
	log        zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderOutput directs build command output to the given writers.
// The default discards it.
func WithBuilderOutput(stdout, stderr io.Writer) BuilderOption {
	return func(b *Builder) {
		if stdout != nil {
			b.stdout = stdout
		}
		if stderr != nil {
			b.stderr = stderr
		}
	}
}

// WithBuildLogger sets the logger used for build diagnostics.
func WithBuildLogger(log zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

// NewBuilder creates a builder that fetches sources with d.
func NewBuilder(d *Downloader, opts ...BuilderOption) *Builder {
	b := &Builder{
		downloader: d,
		stdout:     io.Discard,
		stderr:     io.Discard,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build downloads sourceURL into a fresh unique temporary directory with
// the archive extracted and its top-level directory stripped, then runs
// buildCmd with the extracted tree as working directory. The temporary
// directory is always removed before Build returns; removal failure is
// logged, not returned. The returned error is the fetch or build failure,
// if any.
func (b *Builder) Build(ctx context.Context, sourceURL, buildCmd string) error {
	tmpDir, err := os.MkdirTemp("", "binwrap-build-")
	if err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			b.log.Warn().Err(rmErr).Str("dir", tmpDir).Msg("failed to remove build dir")
		}
	}()

	b.log.Debug().Str("url", sourceURL).Str("dir", tmpDir).Msg("fetching source")
	if err := b.downloader.Fetch(ctx, sourceURL, tmpDir, FetchOptions{
		Extract: true,
		Strip:   1,
	}); err != nil {
		return err
	}

	b.log.Debug().Str("cmd", buildCmd).Msg("running build command")
	return b.runBuildCommand(ctx, buildCmd, tmpDir)
}

// runBuildCommand interprets command as a shell program with dir as the
// working directory. A non-zero exit and an interpreter fault both come
// back as a *ExecutionError.
func (b *Builder) runBuildCommand(ctx context.Context, command, dir string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "build")
	if err != nil {
		return &ExecutionError{Cmd: command, Err: fmt.Errorf("parse build command: %w", err)}
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.StdIO(nil, b.stdout, b.stderr),
	)
	if err != nil {
		return &ExecutionError{Cmd: command, Err: fmt.Errorf("create interpreter: %w", err)}
	}

	if err := runner.Run(ctx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return &ExecutionError{Cmd: command, Err: fmt.Errorf("build command exited with status %d", int(status))}
		}
		return &ExecutionError{Cmd: command, Err: err}
	}

	return nil
}
