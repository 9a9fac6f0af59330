// Package binary resolves, acquires, and verifies platform-specific
// executable binaries on behalf of a host tool.
//
// Given a logical binary name, a set of platform/architecture-keyed
// download URLs, and an optional source-build fallback, it produces a
// working local binary path or reports failure. It is a provisioning
// helper, not a package manager: it tracks no versions, no dependency
// graphs, and offers no uninstall.
//
// # Lifecycle
//
// A Controller runs one of two linear asynchronous chains:
//
//	Check: local search -> (found: verify) | (missing: URL resolution ->
//	       download -> verify) -> success | fail | error
//	Build: fetch source -> build command -> cleanup -> finish
//
// Outcomes arrive as events on a channel; nothing is returned
// synchronously. A verification failure (the binary ran but exited
// non-zero) is a fail event, not an error event: the system is not at
// fault, the binary simply did not pass.
//
// # Usage
//
//	ctl := binary.New("gifsicle",
//	    binary.WithDestination("/opt/tools"),
//	    binary.WithLogger(logger),
//	)
//	ctl.AddURL("https://example.com/gifsicle-linux-x64", "linux", "x64").
//	    AddURL("https://example.com/gifsicle-macos", "darwin", "").
//	    AddURL("https://example.com/gifsicle", "", "").
//	    AddSource("https://example.com/gifsicle-src.tar.gz")
//
//	for ev := range ctl.Check(ctx, []string{"--version"}) {
//	    switch ev.Kind {
//	    case binary.EventSuccess:
//	        fmt.Println("binary ready at", ev.Path)
//	    case binary.EventFail, binary.EventError:
//	        return ev.Err
//	    }
//	}
//
// # Components
//
//   - Controller: orchestrates the check and build lifecycles
//   - Table: platform/arch-keyed URL resolution with field-level overrides
//   - Downloader: HTTP transfer with retries, progress, and extraction
//   - Verifier: runs the candidate and interprets its exit status
//   - Builder: source fetch, shell build command, unconditional cleanup
package binary
