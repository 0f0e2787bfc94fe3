package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewDefaultStore resolves the session directory for workspacePath — an
// explicit override if pathOverride is non-empty, otherwise the XDG
// per-workspace default — and opens a FileStore there.
func NewDefaultStore(workspacePath, pathOverride string) (*FileStore, error) {
	dir, err := resolveSessionsDir(workspacePath, pathOverride)
	if err != nil {
		return nil, err
	}
	return NewFileStore(dir)
}

func resolveSessionsDir(workspacePath, pathOverride string) (string, error) {
	pathOverride = strings.TrimSpace(pathOverride)
	if pathOverride == "" {
		return WorkspaceSessionsDir(workspacePath)
	}

	pathOverride = os.ExpandEnv(pathOverride)
	if strings.HasPrefix(pathOverride, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve sessions dir: %w", err)
		}
		pathOverride = filepath.Join(home, pathOverride[2:])
	}
	return filepath.Abs(pathOverride)
}

// NewDefaultCheckpointStore builds a CheckpointStore for workspacePath using
// the default XDG-derived shadow-git directory.
func NewDefaultCheckpointStore(workspacePath string) (*CheckpointStore, error) {
	gitDir, err := CheckpointGitDir(workspacePath)
	if err != nil {
		return nil, err
	}
	return NewCheckpointStore(workspacePath, gitDir), nil
}
