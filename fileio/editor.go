package fileio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
)

// Environment variables enabling the editor integration.
const (
	EnvRequestFile  = "ENGINE_REQUEST_FILE_PATH"
	EnvResponseFile = "ENGINE_RESPONSE_FILE_PATH"
)

// EditorState is the state carried by request and response messages.
type EditorState string

const (
	// Sent by the engine.
	RequestModification  EditorState = "RequestModification"
	ModificationComplete EditorState = "ModificationComplete"

	// Sent by the editor.
	FileLocked   EditorState = "FileLocked"
	FileUnlocked EditorState = "FileUnlocked"
	StateError   EditorState = "Error"
)

// EditorMessage is the JSON document exchanged with the editor.
type EditorMessage struct {
	State     EditorState `json:"state"`
	FilePath  string      `json:"file_path"`
	RequestID string      `json:"request_id"`
	Message   string      `json:"message,omitempty"`
}

// EditorError is returned when the editor answers with the Error state.
type EditorError struct {
	FilePath string
	Message  string
}

func (e *EditorError) Error() string {
	return fmt.Sprintf("editor refused %s: %s", e.FilePath, e.Message)
}

func (e *EditorError) Unwrap() error {
	return agentdoc.ErrIO
}

// EditorClient talks to an editor through a request file and a response file. Only one
// exchange is in flight at a time.
type EditorClient struct {
	requestPath  string
	responsePath string
	timeout      time.Duration
	pollInterval time.Duration

	mu sync.Mutex
}

// DefaultEditorTimeout bounds each exchange with the editor.
const DefaultEditorTimeout = 30 * time.Second

// NewEditorClient creates a client writing requests to requestPath and reading answers from
// responsePath.
func NewEditorClient(requestPath, responsePath string) *EditorClient {
	return &EditorClient{
		requestPath:  requestPath,
		responsePath: responsePath,
		timeout:      DefaultEditorTimeout,
		pollInterval: 100 * time.Millisecond,
	}
}

// EditorFromEnv creates a client when both environment variables are set.
func EditorFromEnv() (*EditorClient, bool) {
	req, resp := os.Getenv(EnvRequestFile), os.Getenv(EnvResponseFile)
	if req == "" || resp == "" {
		return nil, false
	}
	return NewEditorClient(req, resp), true
}

// WithTimeout bounds each exchange.
func (c *EditorClient) WithTimeout(timeout time.Duration) *EditorClient {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithPollInterval sets how often the response file is re-read when no file system event
// arrives.
func (c *EditorClient) WithPollInterval(interval time.Duration) *EditorClient {
	if interval > 0 {
		c.pollInterval = interval
	}
	return c
}

// RequestLock asks the editor to save and lock path and waits for FileLocked. It returns the
// request id to pass to Release.
func (c *EditorClient) RequestLock(ctx context.Context, path string) (string, error) {
	req := EditorMessage{State: RequestModification, FilePath: path, RequestID: uuid.NewString()}
	if err := c.exchange(ctx, req, FileLocked); err != nil {
		return "", err
	}
	return req.RequestID, nil
}

// Release tells the editor the modification of path is complete and waits for FileUnlocked.
func (c *EditorClient) Release(ctx context.Context, path string, requestID string) error {
	req := EditorMessage{State: ModificationComplete, FilePath: path, RequestID: requestID}
	return c.exchange(ctx, req, FileUnlocked)
}

func (c *EditorClient) exchange(ctx context.Context, req EditorMessage, want EditorState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Watch before writing the request so a fast answer is not missed. Polling covers file
	// systems without notifications.
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(c.responsePath)); err == nil {
			fsEvents, fsErrors = watcher.Events, watcher.Errors
		}
	}

	data, err := json.Marshal(req)
	if err != nil {
		return &IOError{Op: "encode editor request", Path: c.requestPath, Err: err}
	}
	if err := renameio.WriteFile(c.requestPath, data, 0o644); err != nil {
		return &IOError{Op: "write editor request", Path: c.requestPath, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if resp, ok := c.readResponse(req.RequestID); ok {
			switch resp.State {
			case want:
				return nil
			case StateError:
				return &EditorError{FilePath: req.FilePath, Message: resp.Message}
			}
		}
		select {
		case <-ctx.Done():
			return &IOError{
				Op:   "await editor " + string(want),
				Path: req.FilePath,
				Err:  context.Cause(ctx),
			}
		case <-ticker.C:
		case _, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
			}
		case _, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
			}
		}
	}
}

func (c *EditorClient) readResponse(requestID string) (EditorMessage, bool) {
	data, err := os.ReadFile(c.responsePath)
	if err != nil {
		return EditorMessage{}, false
	}
	var msg EditorMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RequestID != requestID {
		return EditorMessage{}, false
	}
	return msg, true
}
