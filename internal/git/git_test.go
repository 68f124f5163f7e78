package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupTestRepo creates a temporary git repository with one commit.
func setupTestRepo(t *testing.T, name string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create repo dir: %v", err)
	}

	gitCmd(t, dir, "init")
	gitCmd(t, dir, "config", "user.email", "test@test.com")
	gitCmd(t, dir, "config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

// nonRepoDir returns a directory git will not treat as a repository.
func nonRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	// An invalid .git file stops git searching parent directories
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create .git blocker: %v", err)
	}
	return dir
}

func sameDir(t *testing.T, got, want string) bool {
	t.Helper()
	g, _ := filepath.EvalSymlinks(got)
	w, _ := filepath.EvalSymlinks(want)
	return g == w
}

func TestIsRepository(t *testing.T) {
	repo := setupTestRepo(t, "app")
	if !IsRepository(repo) {
		t.Error("IsRepository() = false, want true in a git repo")
	}
	if IsRepository(nonRepoDir(t)) {
		t.Error("IsRepository() = true, want false outside a repo")
	}
}

func TestRepoRoot_Subdirectory(t *testing.T) {
	repo := setupTestRepo(t, "app")
	sub := filepath.Join(repo, "src", "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := RepoRoot(sub)
	if err != nil {
		t.Fatalf("RepoRoot() error = %v", err)
	}
	if !sameDir(t, root, repo) {
		t.Errorf("RepoRoot() = %q, want %q", root, repo)
	}
}

func TestRepoRoot_NotGitRepo(t *testing.T) {
	if _, err := RepoRoot(nonRepoDir(t)); err == nil {
		t.Error("RepoRoot() expected error outside a repo")
	}
}

func TestCommonDir(t *testing.T) {
	repo := setupTestRepo(t, "app")

	commonDir, err := CommonDir(repo)
	if err != nil {
		t.Fatalf("CommonDir() error = %v", err)
	}
	if !filepath.IsAbs(commonDir) {
		t.Errorf("CommonDir() = %q, want absolute path", commonDir)
	}
	if !sameDir(t, commonDir, filepath.Join(repo, ".git")) {
		t.Errorf("CommonDir() = %q, want %q", commonDir, filepath.Join(repo, ".git"))
	}
}

func TestMainWorktreePath(t *testing.T) {
	repo := setupTestRepo(t, "app")

	main, err := MainWorktreePath(repo)
	if err != nil {
		t.Fatalf("MainWorktreePath() error = %v", err)
	}
	if !sameDir(t, main, repo) {
		t.Errorf("MainWorktreePath() = %q, want %q", main, repo)
	}
}
