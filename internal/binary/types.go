package binary

import (
	"errors"
	"fmt"
)

// EventKind identifies the lifecycle outcome carried by an Event.
type EventKind int

const (
	// EventSuccess means verification confirmed the binary works.
	EventSuccess EventKind = iota
	// EventFail means the binary ran but did not pass verification.
	EventFail
	// EventError means resolution, transfer, extraction, or execution failed.
	EventError
	// EventFinish terminates a build flow, after cleanup, regardless of
	// prior success or error.
	EventFinish
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventFail:
		return "fail"
	case EventError:
		return "error"
	case EventFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification delivered on the channel returned by
// Controller.Check and Controller.Build. Each operation delivers exactly
// one terminal outcome before the channel is closed.
type Event struct {
	Kind EventKind
	Path string // resolved binary path, when known
	Err  error  // failure detail for EventError and EventFail
}

// ErrNoSource indicates the URL table has no effective entry for the
// current platform and architecture.
var ErrNoSource = errors.New("no download URL configured for this platform")

// ErrNoBuildSource indicates a build was requested without a source URL.
var ErrNoBuildSource = errors.New("no source URL configured")

// TransferError wraps a network or extraction failure during acquisition.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps a spawn failure or an unexpected process fault
// during verification or build. The process either never ran or was
// aborted by something other than its own exit status judgement.
type ExecutionError struct {
	Cmd string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.Cmd, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// VerificationError means the candidate binary existed and ran, but
// exited with an unacceptable status. It surfaces as a fail event rather
// than an error event: the system is not at fault, the binary simply did
// not pass.
type VerificationError struct {
	Path     string
	ExitCode int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Path, e.ExitCode)
}
