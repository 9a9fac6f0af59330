package binary

import (
	"os"
	"path/filepath"
)

// localToolsDir is the conventional project-local tools directory,
// searched after any configured paths.
const localToolsDir = "bin"

// FindExecutable searches each directory in dirs, in order, then the
// local tools directory under the current working directory, for a file
// named name. It returns the first match that also passes the
// executable-bit check. Name matches that are not executable are skipped.
func FindExecutable(name string, dirs []string) (string, bool) {
	candidates := make([]string, 0, len(dirs)+1)
	candidates = append(candidates, dirs...)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, localToolsDir))
	}

	for _, dir := range candidates {
		path := filepath.Join(dir, name)
		if IsExecutable(path) {
			return path, true
		}
	}
	return "", false
}
