package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Worktree represents a git worktree.
type Worktree struct {
	Path     string
	Commit   string
	Branch   string
	IsBare   bool
	IsLocked bool
}

// Name is the worktree's directory name, which is how workers are labelled.
func (w Worktree) Name() string {
	return filepath.Base(w.Path)
}

// ListWorktrees returns all worktrees of the repository containing dir, main worktree first.
func ListWorktrees(dir string) ([]Worktree, error) {
	out, err := run(dir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}
	return parseWorktrees(out), nil
}

func parseWorktrees(out string) []Worktree {
	worktrees := []Worktree{}
	var current *Worktree

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current != nil {
				worktrees = append(worktrees, *current)
				current = nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "worktree "):
			current = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case current == nil:
			continue
		case strings.HasPrefix(line, "HEAD "):
			current.Commit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			// refs/heads/branch-name -> branch-name
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			current.IsBare = true
		case line == "locked" || strings.HasPrefix(line, "locked "):
			current.IsLocked = true
		case line == "detached":
			current.Branch = "(detached)"
		}
	}

	if current != nil {
		worktrees = append(worktrees, *current)
	}
	return worktrees
}
