package git

import (
	"os"
	"path/filepath"

	"github.com/undrift/agentmon/internal/config"
	"github.com/undrift/agentmon/internal/status"
)

// Source says where an identity came from.
type Source string

const (
	SourceLocalConfig Source = "config"
	SourceGit         Source = "git"
	SourceDirectory   Source = "directory"
)

// Identity is the (project, worker) pair a checkout reports under.
type Identity struct {
	Project string
	Worker  string
	Source  Source
}

// ResolveIdentity names the worker running in dir. The local identity file
// wins; then git (project is the main worktree's directory name, worker the
// current worktree's); otherwise the default project and dir's base name.
func ResolveIdentity(dir string) Identity {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	fallbackWorker := filepath.Base(dir)

	// An unreadable identity file falls through to git.
	if local, err := config.LoadLocal(dir); err == nil && local.IsSet() {
		id := Identity{Project: local.Repo, Worker: local.Worktree, Source: SourceLocalConfig}
		if id.Project == "" {
			id.Project = status.DefaultProject
		}
		if id.Worker == "" {
			id.Worker = fallbackWorker
		}
		return id
	}
	if info, serr := os.Stat(dir); serr == nil && info.IsDir() {
		if top, gerr := RepoRoot(dir); gerr == nil {
			if main, merr := MainWorktreePath(dir); merr == nil {
				return Identity{
					Project: filepath.Base(main),
					Worker:  filepath.Base(top),
					Source:  SourceGit,
				}
			}
		}
	}

	return Identity{Project: status.DefaultProject, Worker: fallbackWorker, Source: SourceDirectory}
}
