package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rickchristie/agentdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func initRepo(t *testing.T, files map[string]string) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	if len(files) == 0 {
		return dir, repo
	}

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		writeFile(t, dir, name, content)
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	sig := &object.Signature{Name: "user", Email: "user@example.com", When: fixedTime}
	_, err = wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return dir, repo
}

func headFile(t *testing.T, repo *git.Repository, name string) string {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	file, err := commit.File(name)
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	return content
}

func TestCommitter_CommitsOnlyListedFiles(t *testing.T) {
	dir, repo := initRepo(t, map[string]string{
		"notes.md":  "v1\n",
		"other.txt": "old\n",
		"free.txt":  "old\n",
	})
	wt, err := repo.Worktree()
	require.NoError(t, err)

	// The user staged other.txt and left free.txt modified but unstaged.
	writeFile(t, dir, "other.txt", "staged\n")
	_, err = wt.Add("other.txt")
	require.NoError(t, err)
	writeFile(t, dir, "free.txt", "unstaged\n")

	notes := writeFile(t, dir, "notes.md", "v2\n")
	hash, err := NewCommitter(dir).WithClock(func() time.Time { return fixedTime }).
		Commit(context.Background(), []string{notes}, "execute notes\n\nstep 1\n")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.Equal(t, "execute notes\n\nstep 1\n", commit.Message)
	assert.Equal(t, "engine", commit.Author.Name)
	assert.Equal(t, "engine@local", commit.Committer.Email)
	assert.Equal(t, 1, commit.NumParents())

	assert.Equal(t, "v2\n", headFile(t, repo, "notes.md"))
	assert.Equal(t, "old\n", headFile(t, repo, "other.txt"))
	assert.Equal(t, "old\n", headFile(t, repo, "free.txt"))

	status, err := wt.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Modified, status.File("other.txt").Staging)
	assert.Equal(t, git.Unmodified, status.File("free.txt").Staging)
	assert.Equal(t, git.Modified, status.File("free.txt").Worktree)
	_, listed := status["notes.md"]
	assert.False(t, listed, "notes.md should be clean after the commit")

	content, err := os.ReadFile(filepath.Join(dir, "free.txt"))
	require.NoError(t, err)
	assert.Equal(t, "unstaged\n", string(content))
}

func TestCommitter_UnchangedFilesAreNotCommitted(t *testing.T) {
	dir, repo := initRepo(t, map[string]string{"notes.md": "v1\n"})
	before, err := repo.Head()
	require.NoError(t, err)

	hash, err := NewCommitter(dir).Commit(
		context.Background(), []string{filepath.Join(dir, "notes.md")}, "noop")
	require.NoError(t, err)
	assert.Empty(t, hash)

	after, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, before.Hash(), after.Hash())
}

func TestCommitter_UnbornBranch(t *testing.T) {
	dir, repo := initRepo(t, nil)
	notes := writeFile(t, dir, "sub/notes.md", "first\n")

	hash, err := NewCommitter(dir).Commit(context.Background(), []string{notes}, "first")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.Equal(t, "first\n", headFile(t, repo, "sub/notes.md"))
}

func TestCommitter_NotARepository(t *testing.T) {
	dir := t.TempDir()
	notes := writeFile(t, dir, "notes.md", "x\n")

	hash, err := NewCommitter(dir).Commit(context.Background(), []string{notes}, "m")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCommitter_PathOutsideRepository(t *testing.T) {
	dir, _ := initRepo(t, map[string]string{"notes.md": "v1\n"})
	outside := writeFile(t, t.TempDir(), "x.md", "x\n")

	_, err := NewCommitter(dir).Commit(context.Background(), []string{outside}, "m")
	var vcsErr *Error
	require.ErrorAs(t, err, &vcsErr)
	assert.Equal(t, outside, vcsErr.Path)
	assert.ErrorIs(t, err, agentdoc.ErrIO)
}
