// Package vcs commits document changes to the git repository enclosing a project.
//
// Only the listed files are committed. Whatever else the user had staged stays staged, and
// unstaged changes in the working tree are never touched.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rickchristie/agentdoc"
)

// Default commit identity.
const (
	DefaultAuthorName  = "engine"
	DefaultAuthorEmail = "engine@local"
)

// Error reports a failed commit step. Path is set when a specific file was involved.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("git %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("git %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both agentdoc.ErrIO and the cause.
func (e *Error) Unwrap() []error {
	return []error{agentdoc.ErrIO, e.Err}
}

// Committer commits files of the repository found by walking up from a directory.
type Committer struct {
	dir   string
	name  string
	email string
	now   func() time.Time
}

// NewCommitter creates a committer for the repository enclosing dir.
func NewCommitter(dir string) *Committer {
	return &Committer{
		dir:   dir,
		name:  DefaultAuthorName,
		email: DefaultAuthorEmail,
		now:   time.Now,
	}
}

// WithAuthor overrides the author and committer identity.
func (c *Committer) WithAuthor(name, email string) *Committer {
	if name != "" {
		c.name = name
	}
	if email != "" {
		c.email = email
	}
	return c
}

// WithClock sets the time source of commit signatures.
func (c *Committer) WithClock(now func() time.Time) *Committer {
	c.now = now
	return c
}

// Commit commits paths with message and returns the new commit hash. It returns an empty hash
// when dir is not inside a repository or when the listed files already match HEAD.
func (c *Committer) Commit(ctx context.Context, paths []string, message string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", agentdoc.Canceled(ctx)
	}

	repo, err := git.PlainOpenWithOptions(c.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", &Error{Op: "open", Path: c.dir, Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", &Error{Op: "worktree", Path: c.dir, Err: err}
	}

	rels, err := relativePaths(wt.Filesystem.Root(), paths)
	if err != nil {
		return "", err
	}

	saved, err := repo.Storer.Index()
	if err != nil {
		return "", &Error{Op: "read index", Err: err}
	}
	saved = copyIndex(saved)

	head, err := repo.Head()
	unborn := errors.Is(err, plumbing.ErrReferenceNotFound)
	if err != nil && !unborn {
		return "", &Error{Op: "resolve HEAD", Err: err}
	}

	if unborn {
		err = repo.Storer.SetIndex(&index.Index{Version: saved.Version})
	} else {
		err = wt.Reset(&git.ResetOptions{Mode: git.MixedReset, Commit: head.Hash()})
	}
	if err != nil {
		return "", &Error{Op: "reset index", Err: err}
	}

	// From here on the user's index must be put back whatever happens.
	hash, commitErr := c.stageAndCommit(repo, wt, head, rels, message)
	if restoreErr := restoreIndex(repo, saved, rels); restoreErr != nil && commitErr == nil {
		commitErr = restoreErr
	}
	if commitErr != nil {
		return "", commitErr
	}
	return hash, nil
}

func (c *Committer) stageAndCommit(
	repo *git.Repository,
	wt *git.Worktree,
	head *plumbing.Reference,
	rels []string,
	message string,
) (string, error) {
	for _, rel := range rels {
		if _, err := wt.Add(rel); err != nil {
			return "", &Error{Op: "add", Path: rel, Err: err}
		}
	}

	changed, err := differsFromHead(repo, head, rels)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}

	sig := &object.Signature{Name: c.name, Email: c.email, When: c.now()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", &Error{Op: "commit", Err: err}
	}
	return hash.String(), nil
}

// differsFromHead reports whether any staged entry of rels differs from HEAD's tree.
func differsFromHead(repo *git.Repository, head *plumbing.Reference, rels []string) (bool, error) {
	if head == nil {
		return true, nil
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return false, &Error{Op: "read HEAD", Err: err}
	}
	tree, err := commit.Tree()
	if err != nil {
		return false, &Error{Op: "read HEAD tree", Err: err}
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return false, &Error{Op: "read index", Err: err}
	}
	for _, rel := range rels {
		entry, err := idx.Entry(rel)
		if err != nil {
			return true, nil
		}
		file, err := tree.File(rel)
		if err != nil || file.Hash != entry.Hash {
			return true, nil
		}
	}
	return false, nil
}

// restoreIndex rebuilds the index from the saved one: entries of committed paths come from
// the current index, every other entry is put back as it was.
func restoreIndex(repo *git.Repository, saved *index.Index, committed []string) error {
	current, err := repo.Storer.Index()
	if err != nil {
		return &Error{Op: "read index", Err: err}
	}
	isCommitted := make(map[string]bool, len(committed))
	for _, rel := range committed {
		isCommitted[rel] = true
	}

	restored := &index.Index{Version: saved.Version}
	for _, e := range saved.Entries {
		if !isCommitted[e.Name] {
			restored.Entries = append(restored.Entries, e)
		}
	}
	for _, e := range current.Entries {
		if isCommitted[e.Name] {
			restored.Entries = append(restored.Entries, e)
		}
	}
	sort.Slice(restored.Entries, func(i, j int) bool {
		return restored.Entries[i].Name < restored.Entries[j].Name
	})
	if err := repo.Storer.SetIndex(restored); err != nil {
		return &Error{Op: "write index", Err: err}
	}
	return nil
}

func copyIndex(idx *index.Index) *index.Index {
	out := &index.Index{Version: idx.Version}
	for _, e := range idx.Entries {
		entry := *e
		out.Entries = append(out.Entries, &entry)
	}
	if out.Version == 0 {
		out.Version = 2
	}
	return out
}

func relativePaths(root string, paths []string) ([]string, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	rels := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs := p
		if real, err := filepath.EvalSymlinks(p); err == nil {
			abs = real
		}
		rel, err := filepath.Rel(realRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, &Error{Op: "resolve", Path: p, Err: errors.New("outside the repository")}
		}
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			rels = append(rels, rel)
		}
	}
	return rels, nil
}
