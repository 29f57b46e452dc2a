package fileio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rickchristie/agentdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEditor answers every request it finds in the request file.
type fakeEditor struct {
	requestPath  string
	responsePath string
	refuse       bool

	mu   sync.Mutex
	seen []EditorMessage

	stop chan struct{}
	wg   sync.WaitGroup
}

func startFakeEditor(t *testing.T, refuse bool) *fakeEditor {
	dir := t.TempDir()
	e := &fakeEditor{
		requestPath:  filepath.Join(dir, "request.json"),
		responsePath: filepath.Join(dir, "response.json"),
		refuse:       refuse,
		stop:         make(chan struct{}),
	}
	e.wg.Add(1)
	go e.loop()
	t.Cleanup(func() {
		close(e.stop)
		e.wg.Wait()
	})
	return e
}

func (e *fakeEditor) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	var last string
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		}
		data, err := os.ReadFile(e.requestPath)
		if err != nil || string(data) == last {
			continue
		}
		last = string(data)

		var req EditorMessage
		if json.Unmarshal(data, &req) != nil {
			continue
		}
		e.mu.Lock()
		e.seen = append(e.seen, req)
		e.mu.Unlock()

		resp := EditorMessage{FilePath: req.FilePath, RequestID: req.RequestID}
		switch {
		case e.refuse:
			resp.State, resp.Message = StateError, "buffer has unsaved changes"
		case req.State == RequestModification:
			resp.State = FileLocked
		default:
			resp.State = FileUnlocked
		}
		out, _ := json.Marshal(resp)
		_ = os.WriteFile(e.responsePath, out, 0o644)
	}
}

func (e *fakeEditor) requests() []EditorMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EditorMessage(nil), e.seen...)
}

func TestEditorClient_Handshake(t *testing.T) {
	editor := startFakeEditor(t, false)
	client := NewEditorClient(editor.requestPath, editor.responsePath).
		WithTimeout(5 * time.Second).
		WithPollInterval(5 * time.Millisecond)
	a := NewAccessor(WithEditor(client))

	lock, err := a.Lock(context.Background(), "/project/a.md")
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	reqs := editor.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, RequestModification, reqs[0].State)
	assert.Equal(t, ModificationComplete, reqs[1].State)
	assert.Equal(t, "/project/a.md", reqs[1].FilePath)
	assert.Equal(t, reqs[0].RequestID, reqs[1].RequestID)
	assert.Len(t, reqs[0].RequestID, 36)
}

func TestEditorClient_Refused(t *testing.T) {
	editor := startFakeEditor(t, true)
	client := NewEditorClient(editor.requestPath, editor.responsePath).
		WithTimeout(5 * time.Second).
		WithPollInterval(5 * time.Millisecond)
	a := NewAccessor(WithEditor(client))

	_, err := a.Lock(context.Background(), "/project/a.md")
	var editorErr *EditorError
	require.ErrorAs(t, err, &editorErr)
	assert.Equal(t, "buffer has unsaved changes", editorErr.Message)
	assert.ErrorIs(t, err, agentdoc.ErrIO)

	// The refused lock must not stay held.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	slotTaken := make(chan struct{})
	go func() {
		defer close(slotTaken)
		select {
		case a.slot("/project/a.md") <- struct{}{}:
		case <-ctx.Done():
		}
	}()
	<-slotTaken
	assert.NoError(t, ctx.Err())
}

func TestEditorClient_Timeout(t *testing.T) {
	dir := t.TempDir()
	client := NewEditorClient(filepath.Join(dir, "req.json"), filepath.Join(dir, "resp.json")).
		WithTimeout(50 * time.Millisecond).
		WithPollInterval(10 * time.Millisecond)

	_, err := client.RequestLock(context.Background(), "/project/a.md")
	assert.ErrorIs(t, err, agentdoc.ErrIO)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEditorFromEnv(t *testing.T) {
	t.Setenv(EnvRequestFile, "")
	t.Setenv(EnvResponseFile, "")
	_, ok := EditorFromEnv()
	assert.False(t, ok)

	t.Setenv(EnvRequestFile, "/tmp/req.json")
	t.Setenv(EnvResponseFile, "/tmp/resp.json")
	client, ok := EditorFromEnv()
	require.True(t, ok)
	assert.Equal(t, "/tmp/resp.json", client.responsePath)
}
