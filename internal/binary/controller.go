package binary

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vmarkovtsev/bin-wrapper/internal/platform"
)

// Controller owns the configuration for one logical binary (name,
// destination, search paths, per-platform URLs, source URL) and drives the
// check and build lifecycles. All outcomes are delivered as events on the
// channel returned by Check or Build, never as synchronous errors.
//
// A controller is not safe for concurrent operations: callers must wait
// for the terminal event of one operation before starting another on the
// same instance.
type Controller struct {
	name        string
	dest        string
	searchPaths []string
	urls        *Table
	sourceURL   string

	extract   bool
	strip     int
	skipCheck bool

	// resolved caches the binary path computed by Path or Check.
	resolved string

	detector   platform.Detector
	downloader *Downloader
	verifier   *Verifier
	builder    *Builder
	progress   ProgressFunc
	buildOut   io.Writer
	buildErr   io.Writer
	log        zerolog.Logger
}

// Option configures a Controller during construction.
type Option func(*Controller)

// WithDestination sets the directory the binary is installed into.
// The default is the current working directory.
func WithDestination(dir string) Option {
	return func(c *Controller) {
		if dir != "" {
			c.dest = dir
		}
	}
}

// WithLogger sets the logger shared by the controller and the components
// it constructs. The default is zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithDetector replaces runtime platform detection. Tests use this to pin
// resolution to an arbitrary platform.
func WithDetector(d platform.Detector) Option {
	return func(c *Controller) {
		if d != nil {
			c.detector = d
		}
	}
}

// WithDownloader replaces the default downloader.
func WithDownloader(d *Downloader) Option {
	return func(c *Controller) {
		if d != nil {
			c.downloader = d
		}
	}
}

// WithExtract treats downloaded artifacts as archives to unpack into the
// destination, removing strip leading path components.
func WithExtract(strip int) Option {
	return func(c *Controller) {
		c.extract = true
		c.strip = strip
	}
}

// WithSkipCheck makes Check trust a present binary without running the
// verification command.
func WithSkipCheck(skip bool) Option {
	return func(c *Controller) {
		c.skipCheck = skip
	}
}

// WithProgress registers a transfer progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) {
		c.progress = fn
	}
}

// WithBuildOutput directs build command output to the given writers
// instead of discarding it.
func WithBuildOutput(stdout, stderr io.Writer) Option {
	return func(c *Controller) {
		c.buildOut = stdout
		c.buildErr = stderr
	}
}

// New creates a controller for the binary with the given logical name.
func New(name string, opts ...Option) *Controller {
	cwd, _ := os.Getwd()
	c := &Controller{
		name:     name,
		dest:     cwd,
		urls:     NewTable(),
		detector: platform.NewDetector(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.downloader == nil {
		c.downloader = NewDownloader(WithDownloadLogger(c.log))
	}
	c.verifier = NewVerifier(c.log)
	c.builder = NewBuilder(c.downloader,
		WithBuildLogger(c.log),
		WithBuilderOutput(c.buildOut, c.buildErr),
	)
	return c
}

// AddURL records a download URL for the key implied by plat and arch:
// both empty sets the bare default, plat alone a platform-scoped entry,
// both a fully specific one. Later calls for the same key overwrite
// earlier ones.
func (c *Controller) AddURL(url, plat, arch string) *Controller {
	c.urls.Add(Source{URL: url}, plat, arch)
	return c
}

// AddVariant records a full source entry (URL plus sibling fields such as
// a per-platform file name) at the key implied by plat and arch.
func (c *Controller) AddVariant(src Source, plat, arch string) *Controller {
	c.urls.Add(src, plat, arch)
	return c
}

// AddSource sets the URL of the buildable source archive used by Build.
func (c *Controller) AddSource(url string) *Controller {
	c.sourceURL = url
	return c
}

// AddPath appends a directory to the binary search paths.
func (c *Controller) AddPath(dir string) *Controller {
	c.searchPaths = append(c.searchPaths, dir)
	return c
}

// Name returns the logical binary name.
func (c *Controller) Name() string {
	return c.name
}

// Destination returns the managed installation directory.
func (c *Controller) Destination() string {
	return c.dest
}

// Path returns the resolved binary path: the first existing executable
// match for the name across the search paths and the local tools
// directory, else destination/name. The result is cached; Check refreshes
// it as a side effect.
func (c *Controller) Path() string {
	if c.resolved != "" {
		return c.resolved
	}
	if path, ok := FindExecutable(c.name, c.searchPaths); ok {
		c.resolved = path
	} else {
		c.resolved = filepath.Join(c.dest, c.name)
	}
	return c.resolved
}

// Check resolves a working binary and verifies it with testCmd (default
// "--help"). A binary found on the search paths is verified in place and
// never downloaded; otherwise the effective URL for the current platform
// is fetched into the destination with executable permissions and the
// result verified. Check returns immediately; the single terminal event
// (success, fail, or error) arrives on the returned channel, which is
// closed afterwards.
func (c *Controller) Check(ctx context.Context, testCmd []string) <-chan Event {
	ch := make(chan Event, 1)
	go func() {
		defer close(ch)
		ch <- c.runCheck(ctx, testCmd)
	}()
	return ch
}

func (c *Controller) runCheck(ctx context.Context, testCmd []string) Event {
	// Global install: an executable match outside the managed destination
	// short-circuits acquisition entirely.
	if path, ok := FindExecutable(c.name, c.searchPaths); ok {
		c.log.Debug().Str("binary", c.name).Str("path", path).Msg("found existing binary")
		c.resolved = path
		if c.skipCheck {
			return Event{Kind: EventSuccess, Path: path}
		}
		return c.verifyEvent(ctx, path, testCmd)
	}

	info, err := c.detector.Detect(ctx)
	if err != nil {
		return Event{Kind: EventError, Err: err}
	}

	src, err := c.urls.Resolve(info.OS, info.Arch)
	if err != nil {
		// A binary left at the destination by an earlier run stays usable
		// even when the table has no entry for this platform.
		fallback := filepath.Join(c.dest, c.name)
		if !IsExecutable(fallback) {
			return Event{Kind: EventError, Err: err}
		}
		c.resolved = fallback
		if c.skipCheck {
			return Event{Kind: EventSuccess, Path: fallback}
		}
		return c.verifyEvent(ctx, fallback, testCmd)
	}

	name := c.name
	if src.Name != "" {
		name = src.Name
	}
	target := filepath.Join(c.dest, name)

	// A binary left at the destination by an earlier run is reused
	// without a transfer.
	if !IsExecutable(target) {
		c.log.Debug().Str("binary", name).Str("url", src.URL).Msg("downloading binary")

		fetchDest := target
		if c.extract {
			fetchDest = c.dest
		}
		if err := c.downloader.Fetch(ctx, src.URL, fetchDest, FetchOptions{
			Mode:     0755,
			Extract:  c.extract,
			Strip:    c.strip,
			Progress: c.progress,
		}); err != nil {
			return Event{Kind: EventError, Err: err}
		}
		if c.extract {
			if err := SetExecutable(target); err != nil {
				return Event{Kind: EventError, Err: err}
			}
		}
	}

	c.resolved = target
	if c.skipCheck {
		return Event{Kind: EventSuccess, Path: target}
	}
	return c.verifyEvent(ctx, target, testCmd)
}

func (c *Controller) verifyEvent(ctx context.Context, path string, testCmd []string) Event {
	err := c.verifier.Test(ctx, path, testCmd)
	var verr *VerificationError
	switch {
	case err == nil:
		return Event{Kind: EventSuccess, Path: path}
	case errors.As(err, &verr):
		return Event{Kind: EventFail, Path: path, Err: err}
	default:
		return Event{Kind: EventError, Path: path, Err: err}
	}
}

// Build fetches the configured source archive, runs buildCmd inside the
// extracted tree, and cleans the temporary workspace up. It returns
// immediately; an error event (if the fetch or build failed) and then a
// finish event arrive on the returned channel. Finish is always emitted,
// after cleanup, and the channel is closed behind it.
func (c *Controller) Build(ctx context.Context, buildCmd string) <-chan Event {
	ch := make(chan Event, 2)
	go func() {
		defer close(ch)
		if c.sourceURL == "" {
			ch <- Event{Kind: EventError, Err: ErrNoBuildSource}
			ch <- Event{Kind: EventFinish}
			return
		}
		if err := c.builder.Build(ctx, c.sourceURL, buildCmd); err != nil {
			ch <- Event{Kind: EventError, Err: err}
		}
		ch <- Event{Kind: EventFinish}
	}()
	return ch
}

// Run executes the resolved binary directly with args, wiring the given
// writers to its output. Unlike Check it is synchronous: the caller gets
// the process outcome as a return value.
func (c *Controller) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	path := c.Path()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() {
			return &VerificationError{Path: path, ExitCode: exitErr.ExitCode()}
		}
		return &ExecutionError{Cmd: path, Err: err}
	}
	return nil
}
