package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Version int    `json:"version"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
}

func (s *counterState) Init()                   { *s = counterState{Version: CurrentVersion, Status: StatusCreated} }
func (s *counterState) StatusIndicator() string { return s.Status }

var testID = uuid.MustParse("1b4e28ba-2fa1-4d2b-a3c2-6a1f9e3b5c70")

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	resolver, err := project.Init(t.TempDir())
	require.NoError(t, err)
	store := NewStore(resolver)
	path, err := store.Path("counter", testID)
	require.NoError(t, err)
	return store, path
}

func TestLoad_MissingFile(t *testing.T) {
	store, path := newTestStore(t)

	st, err := Load[counterState](store, "counter", testID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, st.StatusIndicator())
	assert.Equal(t, CurrentVersion, st.Version)
	assert.False(t, store.Exists("counter", testID))

	status, err := store.Status("counter", testID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, Save(store, "counter", testID, &counterState{Status: "counting", Count: 3}))
	assert.True(t, store.Exists("counter", testID))
	assert.Equal(t, filepath.Join(store.resolver.Root(), "metadata", "counter", testID.String(), "state.json"), path)

	st, err := Load[counterState](store, "counter", testID)
	require.NoError(t, err)
	assert.Equal(t, "counting", st.Status)
	assert.Equal(t, 3, st.Count)

	command, err := store.FindCommand(testID)
	require.NoError(t, err)
	assert.Equal(t, "counter", command)
}

func TestSave_PreservesUnknownFields(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"status":"created","count":1,"origin":{"by":"hand"},"version":7}`), 0o644))

	st, err := Load[counterState](store, "counter", testID)
	require.NoError(t, err)
	st.Count++
	st.Status = "counting"
	require.NoError(t, Save(store, "counter", testID, st))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, map[string]any{
		"status":  "counting",
		"count":   float64(2),
		"origin":  map[string]any{"by": "hand"},
		"version": float64(7),
	}, fields)
}

func TestStore_SetStatus(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, Save(store, "counter", testID, &counterState{Status: StatusCompleted, Count: 9}))

	require.NoError(t, store.SetStatus("counter", testID, StatusRepeat))

	st, err := Load[counterState](store, "counter", testID)
	require.NoError(t, err)
	assert.Equal(t, StatusRepeat, st.Status)
	assert.Equal(t, 9, st.Count)
}

func TestStore_Errors(t *testing.T) {
	type input struct {
		content string
		schema  *schema.Schema
	}

	type expected struct {
		loadErr error
		saveErr error
	}

	strict := schema.MustCompile(schema.Object(map[string]*schema.Property{
		"status": schema.String("").Enum(StatusCreated, "counting"),
	}, "status"))

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "corrupt json",
			input:    input{content: `{"status": `},
			expected: expected{loadErr: agentdoc.ErrState, saveErr: agentdoc.ErrState},
		},
		{
			name:     "wrong field type",
			input:    input{content: `{"status": "created", "count": "three"}`},
			expected: expected{loadErr: agentdoc.ErrState},
		},
		{
			name:     "schema violation on disk",
			input:    input{content: `{"status": "sleeping"}`, schema: strict},
			expected: expected{loadErr: agentdoc.ErrState, saveErr: agentdoc.ErrState},
		},
		{
			name:     "valid",
			input:    input{content: `{"status": "counting", "count": 2}`, schema: strict},
			expected: expected{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, path := newTestStore(t)
			if tt.input.schema != nil {
				store.WithSchema("counter", tt.input.schema)
			}
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(tt.input.content), 0o644))

			_, err := Load[counterState](store, "counter", testID)
			if tt.expected.loadErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected.loadErr)
				var stateErr *Error
				assert.ErrorAs(t, err, &stateErr)
			}

			err = Save(store, "counter", testID, &counterState{Status: "counting"})
			if tt.expected.saveErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected.saveErr)

			data, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, tt.input.content, string(data), "corrupt state must not be overwritten")
		})
	}
}

func TestSave_RejectsInvalidStatus(t *testing.T) {
	store, path := newTestStore(t)
	store.WithSchema("counter", schema.MustCompile(schema.Object(map[string]*schema.Property{
		"status": schema.String("").Enum(StatusCreated),
	}, "status")))

	err := Save(store, "counter", testID, &counterState{Status: "counting"})
	assert.ErrorIs(t, err, agentdoc.ErrState)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
