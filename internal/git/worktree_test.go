package git

import (
	"path/filepath"
	"testing"
)

func TestListWorktrees_WithLinkedWorktree(t *testing.T) {
	repo := setupTestRepo(t, "app")
	wtPath := filepath.Join(filepath.Dir(repo), "app-feature")
	gitCmd(t, repo, "worktree", "add", "-b", "feature", wtPath)

	worktrees, err := ListWorktrees(wtPath)
	if err != nil {
		t.Fatalf("ListWorktrees() error = %v", err)
	}
	if len(worktrees) != 2 {
		t.Fatalf("ListWorktrees() returned %d worktrees, want 2", len(worktrees))
	}
	if !sameDir(t, worktrees[0].Path, repo) {
		t.Errorf("first worktree = %q, want main %q", worktrees[0].Path, repo)
	}
	if worktrees[1].Branch != "feature" || worktrees[1].Name() != "app-feature" {
		t.Errorf("second worktree = %+v, want branch feature at app-feature", worktrees[1])
	}
	if len(worktrees[0].Commit) < 40 {
		t.Errorf("Worktree.Commit = %q, want 40-character SHA", worktrees[0].Commit)
	}
}

func TestParseWorktrees(t *testing.T) {
	out := `worktree /src/app
HEAD 1111111111111111111111111111111111111111
branch refs/heads/main

worktree /src/app-wip
HEAD 2222222222222222222222222222222222222222
detached
locked reason here

worktree /src/bare.git
bare
`
	got := parseWorktrees(out)
	if len(got) != 3 {
		t.Fatalf("parseWorktrees() returned %d entries, want 3", len(got))
	}

	tests := []struct {
		idx    int
		path   string
		branch string
		locked bool
		bare   bool
	}{
		{0, "/src/app", "main", false, false},
		{1, "/src/app-wip", "(detached)", true, false},
		{2, "/src/bare.git", "", false, true},
	}
	for _, tt := range tests {
		wt := got[tt.idx]
		if wt.Path != tt.path || wt.Branch != tt.branch || wt.IsLocked != tt.locked || wt.IsBare != tt.bare {
			t.Errorf("parseWorktrees()[%d] = %+v, want path=%s branch=%s locked=%v bare=%v",
				tt.idx, wt, tt.path, tt.branch, tt.locked, tt.bare)
		}
	}
}

func TestParseWorktrees_Empty(t *testing.T) {
	if got := parseWorktrees(""); len(got) != 0 {
		t.Errorf("parseWorktrees(\"\") = %v, want empty", got)
	}
}
