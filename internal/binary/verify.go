package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// defaultTestArgs is the command run against a candidate binary when the
// caller supplies none.
var defaultTestArgs = []string{"--help"}

// IsExecutable reports whether path is an existing regular file with an
// execute bit set.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// SetExecutable sets 0755 permissions on a file.
func SetExecutable(path string) error {
	if err := os.Chmod(path, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}

// Verifier judges whether a candidate binary works by running it with a
// known-safe command and inspecting the exit status.
type Verifier struct {
	log zerolog.Logger
}

// NewVerifier creates a verifier. The logger may be zerolog.Nop().
func NewVerifier(log zerolog.Logger) *Verifier {
	return &Verifier{log: log}
}

// Test executes binPath with args (default "--help") and classifies the
// outcome: nil means the process ran and exited zero, a *VerificationError
// means it ran but exited non-zero, and a *ExecutionError means it could
// not be spawned at all (missing, not executable, or aborted).
func (v *Verifier) Test(ctx context.Context, binPath string, args []string) error {
	if len(args) == 0 {
		args = defaultTestArgs
	}

	v.log.Debug().Str("binary", binPath).Strs("args", args).Msg("verifying binary")

	cmd := exec.CommandContext(ctx, binPath, args...)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return &VerificationError{Path: binPath, ExitCode: exitErr.ExitCode()}
	}

	return &ExecutionError{
		Cmd: binPath + " " + strings.Join(args, " "),
		Err: err,
	}
}
