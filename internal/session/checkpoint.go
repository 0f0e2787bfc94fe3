package session

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// CheckpointError wraps a failure from the shadow git repo. Per the
// orchestrator contract, a CheckpointError from Snapshot must never abort
// the turn — only Restore failures are surfaced to the user as fatal.
type CheckpointError struct {
	Op  string
	Err error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s: %v", e.Op, e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// CheckpointStore snapshots and restores a workspace using a shadow git
// repository — a git repo whose GIT_DIR lives outside the workspace,
// entirely independent of any real .git the workspace already has. It is
// keyed by a hash of the absolute workspace path so the same store process
// can safely back multiple workspaces.
type CheckpointStore struct {
	workspacePath string
	gitDir        string

	mu          sync.Mutex
	initialized bool
}

// NewCheckpointStore creates a store rooted at gitDir for the given
// workspace. Init is lazy: the shadow repo is created on first Snapshot
// call, not here.
func NewCheckpointStore(workspacePath, gitDir string) *CheckpointStore {
	return &CheckpointStore{workspacePath: workspacePath, gitDir: gitDir}
}

// CheckpointGitDir returns the default shadow-git directory for a
// workspace, under the XDG data home, keyed by workspaceID.
func CheckpointGitDir(workspacePath string) (string, error) {
	base, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "checkpoints", workspaceID(workspacePath)), nil
}

// Snapshot stages every change in the workspace and commits it if there is
// anything to commit, returning the resulting HEAD commit hash. If nothing
// changed, it returns the current HEAD without creating a commit; on a
// shadow repo with no commits yet, it records an empty first commit so
// there is a hash to return.
func (c *CheckpointStore) Snapshot(ctx context.Context, toolName string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInit(ctx); err != nil {
		return "", &CheckpointError{Op: "snapshot", Err: err}
	}

	if _, err := c.git(ctx, "add", "-A"); err != nil {
		return "", &CheckpointError{Op: "snapshot", Err: err}
	}

	if _, err := c.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		// Nothing staged — return current HEAD unchanged, when there is one.
		if head, headErr := c.head(ctx); headErr == nil {
			return head, nil
		}
	}

	message := fmt.Sprintf("Snapshot for %s", toolName)
	if _, err := c.git(ctx, "commit", "--allow-empty", "-m", message); err != nil {
		return "", &CheckpointError{Op: "snapshot", Err: err}
	}
	return c.head(ctx)
}

// Restore rolls the workspace back to commitHash and removes anything that
// wasn't tracked at that commit. Unlike Snapshot, a Restore failure is
// fatal and must be reported to the user.
func (c *CheckpointStore) Restore(ctx context.Context, commitHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureInit(ctx); err != nil {
		return &CheckpointError{Op: "restore", Err: err}
	}
	if _, err := c.git(ctx, "restore", "--source="+commitHash, "."); err != nil {
		return &CheckpointError{Op: "restore", Err: err}
	}
	if _, err := c.git(ctx, "clean", "-fd"); err != nil {
		return &CheckpointError{Op: "restore", Err: err}
	}
	return nil
}

func (c *CheckpointStore) head(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", &CheckpointError{Op: "snapshot", Err: err}
	}
	return strings.TrimSpace(out), nil
}

// ensureInit creates the shadow repo the first time it's needed. Init is
// idempotent: `git init` against an already-initialized GIT_DIR is a no-op.
func (c *CheckpointStore) ensureInit(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if _, err := c.git(ctx, "init"); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// git runs a git subcommand with GIT_DIR/GIT_WORK_TREE pinned to this
// store's shadow repo and the workspace path, isolated from any user or
// system git config.
func (c *CheckpointStore) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.workspacePath
	cmd.Env = []string{
		"GIT_DIR=" + c.gitDir,
		"GIT_WORK_TREE=" + c.workspacePath,
		"GIT_CONFIG_GLOBAL=/dev/null",
		"GIT_CONFIG_SYSTEM=/dev/null",
		"HOME=" + c.workspacePath, // keep any stray global-config lookups inside the sandboxed tree
		// GIT_CONFIG_GLOBAL=/dev/null means no user.name/user.email is ever
		// configured; supply both directly so commit never blocks on it.
		"GIT_AUTHOR_NAME=agentcore",
		"GIT_AUTHOR_EMAIL=agentcore@localhost",
		"GIT_COMMITTER_NAME=agentcore",
		"GIT_COMMITTER_EMAIL=agentcore@localhost",
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return string(out), fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
