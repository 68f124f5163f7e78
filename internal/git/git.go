// Package git provides the git lookups used to name workers.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/undrift/agentmon/pkg/shell"
)

// gitTimeout bounds every git call; hooks run inline with the agent.
const gitTimeout = 2 * time.Second

var runner = shell.NewRunner()

// run executes git in dir and returns trimmed stdout, failing on a non-zero exit.
func run(dir string, args ...string) (string, error) {
	return shell.Output(context.Background(), runner, shell.Command{
		Name:    "git",
		Args:    args,
		Dir:     dir,
		Timeout: gitTimeout,
	})
}

// IsRepository reports whether dir is inside a git work tree.
func IsRepository(dir string) bool {
	out, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// RepoRoot returns the top-level directory of the work tree containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return out, nil
}

// CommonDir returns the absolute git directory shared by all worktrees of dir's repository.
func CommonDir(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("failed to get git common dir: %w", err)
	}

	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	return filepath.Clean(out), nil
}

// MainWorktreePath returns the path of the repository's main worktree.
func MainWorktreePath(dir string) (string, error) {
	worktrees, err := ListWorktrees(dir)
	if err == nil && len(worktrees) > 0 && !worktrees[0].IsBare {
		return worktrees[0].Path, nil
	}

	commonDir, cerr := CommonDir(dir)
	if cerr != nil {
		return "", cerr
	}
	// The common dir is normally the main worktree's .git folder
	if filepath.Base(commonDir) == ".git" {
		return filepath.Dir(commonDir), nil
	}
	return commonDir, nil
}
