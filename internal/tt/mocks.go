package tt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rickchristie/agentdoc/project"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// MockModel - implements agentdoc.Model
// -----------------------------------------------------------------------------

// MockModel answers calls from a queue of replies and errors. When the queue is empty it
// returns the fallback reply, or fails when no fallback is set.
type MockModel struct {
	mu       sync.Mutex
	replies  []string
	errors   []error
	fallback *string

	// Providers and Queries record every call in order.
	Providers []string
	Queries   []string
}

// NewMockModel creates a model with an empty queue.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// AddReply queues a reply.
func (m *MockModel) AddReply(reply string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply)
	m.errors = append(m.errors, nil)
	return m
}

// AddError queues an error.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, "")
	m.errors = append(m.errors, err)
	return m
}

// WithFallback sets the reply used once the queue is exhausted.
func (m *MockModel) WithFallback(reply string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &reply
	return m
}

// Call implements agentdoc.Model.
func (m *MockModel) Call(ctx context.Context, provider string, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Providers = append(m.Providers, provider)
	m.Queries = append(m.Queries, query)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.replies) == 0 {
		if m.fallback != nil {
			return *m.fallback, nil
		}
		return "", fmt.Errorf("mock model: no reply queued for call %d", len(m.Queries))
	}
	reply, err := m.replies[0], m.errors[0]
	m.replies, m.errors = m.replies[1:], m.errors[1:]
	return reply, err
}

// CallCount returns the number of calls made.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// -----------------------------------------------------------------------------
// Project - a temporary project tree
// -----------------------------------------------------------------------------

// Project is an initialized project in a temporary directory.
type Project struct {
	t        *testing.T
	Resolver *project.Resolver
}

// NewProject initializes a project and writes files, keyed by path relative to the root.
func NewProject(t *testing.T, files map[string]string) *Project {
	t.Helper()
	resolver, err := project.Init(t.TempDir())
	require.NoError(t, err)
	p := &Project{t: t, Resolver: resolver}
	for name, content := range files {
		p.Write(name, content)
	}
	return p
}

// Root returns the project root.
func (p *Project) Root() string {
	return p.Resolver.Root()
}

// Path returns the absolute path of name.
func (p *Project) Path(name string) string {
	return filepath.Join(p.Root(), filepath.FromSlash(name))
}

// Write writes content to name, creating directories.
func (p *Project) Write(name, content string) {
	p.t.Helper()
	path := p.Path(name)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
}

// Read returns the content of name.
func (p *Project) Read(name string) string {
	p.t.Helper()
	data, err := os.ReadFile(p.Path(name))
	require.NoError(p.t, err)
	return string(data)
}

// Exists reports whether name exists.
func (p *Project) Exists(name string) bool {
	_, err := os.Stat(p.Path(name))
	return err == nil
}
