package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rickchristie/agentdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndDiscover(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root)
	require.NoError(t, err)

	marker, err := os.ReadFile(filepath.Join(root, MarkerFile))
	require.NoError(t, err)
	assert.Empty(t, marker)
	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), "log/")
	assert.Contains(t, string(ignore), "metadata/")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	r, err := Discover(nested)
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(r.Root())
	assert.Equal(t, want, got)
}

func TestInit_KeepsExistingGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("bin/\n"), 0o644))

	_, err := Init(root)
	require.NoError(t, err)
	ignore, _ := os.ReadFile(filepath.Join(root, ".gitignore"))
	assert.Equal(t, "bin/\n", string(ignore))
}

func TestDiscover_NoMarker(t *testing.T) {
	_, err := Discover(t.TempDir())
	assert.ErrorIs(t, err, agentdoc.ErrPathResolution)
}

func TestResolver_ResolveContext(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	type input struct {
		name string
	}

	type expected struct {
		path string
		err  bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "adds extension",
			input:    input{name: "notes/intro"},
			expected: expected{path: filepath.Join(r.Root(), "notes", "intro.md")},
		},
		{
			name:     "keeps extension",
			input:    input{name: "data.txt"},
			expected: expected{path: filepath.Join(r.Root(), "data.txt")},
		},
		{
			name:     "absolute inside root",
			input:    input{name: filepath.Join(r.Root(), "a.md")},
			expected: expected{path: filepath.Join(r.Root(), "a.md")},
		},
		{
			name:     "escapes root",
			input:    input{name: "../outside"},
			expected: expected{err: true},
		},
		{
			name:     "empty",
			input:    input{name: "  "},
			expected: expected{err: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := r.ResolveContext(tt.input.name)
			if tt.expected.err {
				assert.ErrorIs(t, err, agentdoc.ErrPathResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.path, path)
		})
	}
}

func TestResolver_Metadata(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	id := "1b4e28ba-2fa1-4d2b-a3c2-6a1f9e3b5c70"
	path, err := r.ResolveState("answer", id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root(), "metadata", "answer", id, "state.json"), path)

	_, err = r.ResolveMetadata("answer", "../x")
	assert.ErrorIs(t, err, agentdoc.ErrPathResolution)

	_, err = r.FindMetadata(id)
	assert.ErrorIs(t, err, agentdoc.ErrPathResolution)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	command, err := r.FindMetadata(id)
	require.NoError(t, err)
	assert.Equal(t, "answer", command)
}

func TestResolver_Relative(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	rel, err := r.Relative(filepath.Join(r.Root(), "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md", rel)

	name, err := r.ContextName(filepath.Join(r.Root(), "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "notes/a", name)

	_, err = r.Relative(filepath.Dir(r.Root()))
	assert.Error(t, err)
}
