// Package project resolves context names and metadata paths under a project root.
//
// A project root is a directory containing the zero-byte marker file .engine_root. Discover
// walks up from a starting directory until it finds one.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rickchristie/agentdoc"
)

const (
	// MarkerFile marks the project root.
	MarkerFile = ".engine_root"
	// MetadataDir holds per-directive state files.
	MetadataDir = "metadata"
	// LogDir holds engine logs.
	LogDir = "log"
	// StateFile is the name of a directive state file.
	StateFile = "state.json"
	// DocumentExt is appended to context names without an extension.
	DocumentExt = ".md"
)

// Error reports a name that cannot be resolved to a path.
type Error struct {
	Name   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve %q: %s", e.Name, e.Reason)
}

// Unwrap makes Error match agentdoc.ErrPathResolution.
func (e *Error) Unwrap() error {
	return agentdoc.ErrPathResolution
}

// Resolver maps names to absolute paths under Root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver for root, which must be an existing directory.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Name: root, Reason: err.Error()}
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, &Error{Name: root, Reason: "project root is not a directory"}
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Discover walks up from start to the nearest directory containing MarkerFile.
func Discover(start string) (*Resolver, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, &Error{Name: start, Reason: err.Error()}
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerFile)); err == nil {
			return NewResolver(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, &Error{Name: start, Reason: "no " + MarkerFile + " found in any parent"}
		}
		dir = parent
	}
}

// Init makes dir a project root: it writes the marker file and a .gitignore excluding logs
// and metadata. Existing files are left alone.
func Init(dir string) (*Resolver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", agentdoc.ErrIO, err)
	}
	files := map[string]string{
		MarkerFile:   "",
		".gitignore": LogDir + "/\n" + MetadataDir + "/\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", agentdoc.ErrIO, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("%w: %w", agentdoc.ErrIO, err)
		}
	}
	return NewResolver(dir)
}

// Root returns the absolute project root.
func (r *Resolver) Root() string {
	return r.root
}

// ResolveContext maps a context name such as "notes/intro" to
// <root>/notes/intro.md. Names that already carry an extension are kept as is. Absolute paths
// are accepted when they lie inside the root.
func (r *Resolver) ResolveContext(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &Error{Name: name, Reason: "empty context name"}
	}
	path, err := r.inside(name)
	if err != nil {
		return "", err
	}
	if filepath.Ext(path) == "" {
		path += DocumentExt
	}
	return path, nil
}

// ResolveInputFile maps a name to a file under the root without adding an extension.
func (r *Resolver) ResolveInputFile(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &Error{Name: name, Reason: "empty file name"}
	}
	return r.inside(name)
}

// ResolveMetadata returns the directory holding the state of the directive command/id.
func (r *Resolver) ResolveMetadata(command, id string) (string, error) {
	if !isSegment(command) || !isSegment(id) {
		return "", &Error{Name: command + "/" + id, Reason: "invalid metadata key"}
	}
	return filepath.Join(r.root, MetadataDir, command, id), nil
}

// ResolveState returns the state file of the directive command/id.
func (r *Resolver) ResolveState(command, id string) (string, error) {
	dir, err := r.ResolveMetadata(command, id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateFile), nil
}

// FindMetadata looks for the command owning the directive id by scanning the metadata
// directory. It returns fs.ErrNotExist wrapped in an *Error when no command owns it.
func (r *Resolver) FindMetadata(id string) (string, error) {
	if !isSegment(id) {
		return "", &Error{Name: id, Reason: "invalid metadata key"}
	}
	matches, err := filepath.Glob(filepath.Join(r.root, MetadataDir, "*", id, StateFile))
	if err != nil {
		return "", &Error{Name: id, Reason: err.Error()}
	}
	if len(matches) == 0 {
		return "", &Error{Name: id, Reason: "no state recorded for this directive"}
	}
	return filepath.Base(filepath.Dir(filepath.Dir(matches[0]))), nil
}

// LogPath returns the path of the engine log file.
func (r *Resolver) LogPath() string {
	return filepath.Join(r.root, LogDir, "engine.log")
}

// Relative returns path relative to the root using forward slashes.
func (r *Resolver) Relative(path string) (string, error) {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &Error{Name: path, Reason: "path is outside the project root"}
	}
	return filepath.ToSlash(rel), nil
}

// ContextName returns the context name of a document path: its relative path without the
// document extension.
func (r *Resolver) ContextName(path string) (string, error) {
	rel, err := r.Relative(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(rel, DocumentExt), nil
}

func (r *Resolver) inside(name string) (string, error) {
	var path string
	if filepath.IsAbs(name) {
		path = filepath.Clean(name)
	} else {
		path = filepath.Join(r.root, filepath.FromSlash(name))
	}
	if _, err := r.Relative(path); err != nil {
		return "", &Error{Name: name, Reason: "path escapes the project root"}
	}
	return path, nil
}

func isSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
