package fileio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
)

// IOError describes a failed file operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both the cause and agentdoc.ErrIO.
func (e *IOError) Unwrap() []error {
	return []error{agentdoc.ErrIO, e.Err}
}

// Committer records a set of files in version control.
type Committer interface {
	// Commit commits exactly paths with message and returns the new commit hash. An empty
	// hash without error means nothing was committed.
	Commit(ctx context.Context, paths []string, message string) (string, error)
}

// LockID identifies a held lock.
type LockID string

type heldLock struct {
	path      string
	requestID string
}

// Accessor is safe for concurrent use.
type Accessor struct {
	editor    *EditorClient
	committer Committer
	perm      os.FileMode

	mu       sync.Mutex
	modified []string
	seen     map[string]bool
	comments []string
	slots    map[string]chan struct{}
	held     map[LockID]heldLock

	commitMu sync.Mutex
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithEditor performs the editor handshake whenever a file is locked.
func WithEditor(editor *EditorClient) Option {
	return func(a *Accessor) { a.editor = editor }
}

// WithCommitter sets the committer used by Commit. Without one, Commit only clears the
// buffers.
func WithCommitter(committer Committer) Option {
	return func(a *Accessor) { a.committer = committer }
}

// NewAccessor creates an Accessor.
func NewAccessor(opts ...Option) *Accessor {
	a := &Accessor{
		perm:  0o644,
		seen:  make(map[string]bool),
		slots: make(map[string]chan struct{}),
		held:  make(map[LockID]heldLock),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ReadFile returns the content of path.
func (a *Accessor) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// Exists reports whether path exists.
func (a *Accessor) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LockFile takes the exclusive lock of path, waiting for other holders in this process and,
// when an editor is attached, for the editor to save and lock the file.
func (a *Accessor) LockFile(ctx context.Context, path string) (LockID, error) {
	slot := a.slot(path)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return "", agentdoc.Canceled(ctx)
	}

	var requestID string
	if a.editor != nil {
		id, err := a.editor.RequestLock(ctx, path)
		if err != nil {
			<-slot
			return "", err
		}
		requestID = id
	}

	id := LockID(uuid.NewString())
	a.mu.Lock()
	a.held[id] = heldLock{path: path, requestID: requestID}
	a.mu.Unlock()
	return id, nil
}

// UnlockFile releases a lock taken with LockFile. Unknown ids are ignored.
func (a *Accessor) UnlockFile(ctx context.Context, id LockID) error {
	a.mu.Lock()
	lock, ok := a.held[id]
	delete(a.held, id)
	a.mu.Unlock()
	if !ok {
		return nil
	}
	defer func() { <-a.slot(lock.path) }()

	if a.editor != nil {
		return a.editor.Release(ctx, lock.path, lock.requestID)
	}
	return nil
}

// FileLock holds the lock of one file until Release.
type FileLock struct {
	accessor *Accessor
	ctx      context.Context
	id       LockID
	once     sync.Once
	err      error
}

// Lock acquires the lock of path. Callers defer Release.
func (a *Accessor) Lock(ctx context.Context, path string) (*FileLock, error) {
	id, err := a.LockFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return &FileLock{accessor: a, ctx: context.WithoutCancel(ctx), id: id}, nil
}

// Release releases the lock. Calling it more than once is safe.
func (l *FileLock) Release() error {
	l.once.Do(func() {
		l.err = l.accessor.UnlockFile(l.ctx, l.id)
	})
	return l.err
}

// WriteFile atomically replaces path with content, creating parent directories, and records
// the path as modified. A non-empty comment is added to the next commit message.
func (a *Accessor) WriteFile(path string, content string, comment string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := renameio.WriteFile(path, []byte(content), a.perm); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.seen[path] {
		a.seen[path] = true
		a.modified = append(a.modified, path)
	}
	if comment != "" {
		a.comments = append(a.comments, comment)
	}
	return nil
}

// ModifiedFiles returns the paths written since the last commit, in first-write order.
func (a *Accessor) ModifiedFiles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.modified...)
}

// ModifiedFilesComments returns the comments recorded since the last commit.
func (a *Accessor) ModifiedFilesComments() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.comments...)
}

// Commit flushes the modified files into the committer with a message made of title and the
// recorded comments, then clears the buffers. Nothing happens when no file was modified.
// On failure the buffers are kept so the commit can be retried.
func (a *Accessor) Commit(ctx context.Context, title string) (string, error) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	paths := a.ModifiedFiles()
	if len(paths) == 0 {
		return "", nil
	}
	comments := a.ModifiedFilesComments()

	var hash string
	if a.committer != nil {
		var err error
		hash, err = a.committer.Commit(ctx, paths, CommitMessage(title, comments))
		if err != nil {
			return "", err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.modified = a.modified[len(paths):]
	a.comments = a.comments[len(comments):]
	for _, p := range paths {
		delete(a.seen, p)
	}
	return hash, nil
}

// CommitMessage joins title and body lines into a commit message.
func CommitMessage(title string, comments []string) string {
	if title == "" {
		title = "agentdoc: update documents"
	}
	if len(comments) == 0 {
		return title + "\n"
	}
	return title + "\n\n" + strings.Join(comments, "\n") + "\n"
}

func (a *Accessor) slot(path string) chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot, ok := a.slots[path]
	if !ok {
		slot = make(chan struct{}, 1)
		a.slots[path] = slot
	}
	return slot
}

// IsNotExist reports whether err says a file does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
