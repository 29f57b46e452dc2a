// Package state persists the per-instance state of dynamic directives under
// metadata/<command>/<uuid>/state.json.
//
// State files are plain JSON objects with a mandatory "status" field and a "version" field.
// Saving merges the new value over the fields already on disk, so fields written by other
// versions of a policy survive a read-modify-write cycle. A file that cannot be decoded is
// reported as an *Error and never regenerated.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/fileio"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/schema"
)

// Statuses shared by every dynamic directive.
const (
	StatusCreated   = "created"
	StatusRepeat    = "repeat"
	StatusCompleted = "completed"
)

// CurrentVersion is written into state files that do not carry a version yet.
const CurrentVersion = 1

const (
	fieldStatus  = "status"
	fieldVersion = "version"
)

// State is implemented by every persisted directive state.
type State interface {
	// StatusIndicator returns the token written between the plus signs of the anchor header.
	StatusIndicator() string
}

// Initializer is a pointer to a State that can reset itself to the JustCreated state.
type Initializer[T any] interface {
	*T
	State
	Init()
}

// Error reports a state file that could not be decoded, validated or updated.
type Error struct {
	Command string
	UUID    uuid.UUID
	Path    string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state %s-%s (%s): %v", e.Command, e.UUID, e.Path, e.Err)
}

// Unwrap returns both the cause and agentdoc.ErrState.
func (e *Error) Unwrap() []error {
	return []error{agentdoc.ErrState, e.Err}
}

// Store reads and writes state files below the project metadata directory.
type Store struct {
	resolver *project.Resolver

	mu      sync.RWMutex
	schemas map[string]*schema.Schema
}

// NewStore creates a store for the project of resolver.
func NewStore(resolver *project.Resolver) *Store {
	return &Store{resolver: resolver, schemas: map[string]*schema.Schema{}}
}

// WithSchema validates every state of command against s on load and save.
func (s *Store) WithSchema(command string, sch *schema.Schema) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[command] = sch
	return s
}

// Path returns the state file of command/id.
func (s *Store) Path(command string, id uuid.UUID) (string, error) {
	return s.resolver.ResolveState(command, id.String())
}

// Exists reports whether a state file was written for command/id.
func (s *Store) Exists(command string, id uuid.UUID) bool {
	path, err := s.Path(command, id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// FindCommand returns the command owning the state of id.
func (s *Store) FindCommand(id uuid.UUID) (string, error) {
	return s.resolver.FindMetadata(id.String())
}

// Load reads the state of command/id. A missing file yields a freshly initialized state.
func Load[T any, P Initializer[T]](s *Store, command string, id uuid.UUID) (*T, error) {
	var value T
	P(&value).Init()

	raw, path, err := s.read(command, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &Error{Command: command, UUID: id, Path: path, Err: err}
	}
	return &value, nil
}

// Save writes value as the state of command/id, keeping fields on disk that value does not
// know about.
func Save[T State](s *Store, command string, id uuid.UUID, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal state %s-%s: %w", command, id, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("state %s-%s is not a JSON object: %w", command, id, err)
	}
	return s.UpdateRaw(command, id, func(current map[string]json.RawMessage) error {
		for key, v := range fields {
			current[key] = v
		}
		return nil
	})
}

// Status returns the status recorded for command/id, or StatusCreated when no file exists.
func (s *Store) Status(command string, id uuid.UUID) (string, error) {
	raw, path, err := s.read(command, id)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return StatusCreated, nil
	}
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", &Error{Command: command, UUID: id, Path: path, Err: err}
	}
	return head.Status, nil
}

// SetStatus overwrites the status of command/id, leaving every other field untouched.
func (s *Store) SetStatus(command string, id uuid.UUID, status string) error {
	encoded, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.UpdateRaw(command, id, func(fields map[string]json.RawMessage) error {
		fields[fieldStatus] = encoded
		return nil
	})
}

// UpdateRaw runs update over the decoded fields of command/id and writes the result back
// atomically. Missing files start from an empty object.
func (s *Store) UpdateRaw(command string, id uuid.UUID, update func(fields map[string]json.RawMessage) error) error {
	raw, path, err := s.read(command, id)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if raw != nil {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return &Error{Command: command, UUID: id, Path: path, Err: err}
		}
	}
	if err := update(fields); err != nil {
		return err
	}
	if _, ok := fields[fieldVersion]; !ok {
		fields[fieldVersion] = json.RawMessage(fmt.Sprint(CurrentVersion))
	}
	if _, ok := fields[fieldStatus]; !ok {
		return &Error{Command: command, UUID: id, Path: path, Err: errors.New("state has no status")}
	}

	data, err := encode(fields)
	if err != nil {
		return &Error{Command: command, UUID: id, Path: path, Err: err}
	}
	if err := s.validate(command, data); err != nil {
		return &Error{Command: command, UUID: id, Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &fileio.IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &fileio.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// read returns the validated content of the state file, or nil when it does not exist.
func (s *Store) read(command string, id uuid.UUID) ([]byte, string, error) {
	path, err := s.Path(command, id)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, path, nil
	}
	if err != nil {
		return nil, path, &fileio.IOError{Op: "read", Path: path, Err: err}
	}
	if err := s.validate(command, data); err != nil {
		return nil, path, &Error{Command: command, UUID: id, Path: path, Err: err}
	}
	return data, path, nil
}

func (s *Store) validate(command string, data []byte) error {
	s.mu.RLock()
	sch := s.schemas[command]
	s.mu.RUnlock()
	if sch == nil {
		if !json.Valid(data) {
			return errors.New("invalid JSON")
		}
		return nil
	}
	return sch.ValidateJSON(data)
}

// encode writes fields with sorted keys, status and version first, indented for humans.
func encode(fields map[string]json.RawMessage) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key != fieldStatus && key != fieldVersion {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	keys = append([]string{fieldVersion, fieldStatus}, keys...)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range keys {
		name, _ := json.Marshal(key)
		var value bytes.Buffer
		if err := json.Indent(&value, fields[key], "  ", "  "); err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(value.Bytes())
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
