package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/fileio"
	"github.com/rickchristie/agentdoc/internal/tt"
	"github.com/rickchristie/agentdoc/policies"
	"github.com/rickchristie/agentdoc/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	id1 = uuid.MustParse("1b4e28ba-2fa1-4d2b-a3c2-6a1f9e3b5c70")
	id2 = uuid.MustParse("6f1c1d7e-8a2b-4c3d-9e4f-5a6b7c8d9e0f")
)

// sequence returns a generator handing out ids in order.
func sequence(ids ...uuid.UUID) func() uuid.UUID {
	var mu sync.Mutex
	next := 0
	return func() uuid.UUID {
		mu.Lock()
		defer mu.Unlock()
		id := ids[next]
		next++
		return id
	}
}

type fixture struct {
	project *tt.Project
	model   *tt.MockModel
	events  *tt.EventRecorder
	engine  *engine.Engine
}

func newFixture(t *testing.T, files map[string]string, opts ...engine.Option) *fixture {
	t.Helper()
	f := &fixture{
		project: tt.NewProject(t, files),
		model:   tt.NewMockModel(),
		events:  tt.NewEventRecorder(),
	}
	base := []engine.Option{
		engine.WithModel(f.model),
		engine.WithEvents(f.events),
		engine.WithStore(policies.NewStore(f.project.Resolver)),
		engine.WithIDGenerator(sequence(id1, id2)),
	}
	f.engine = engine.New(f.project.Resolver, policies.NewRegistry(), append(base, opts...)...)
	return f
}

func answerDoc(id uuid.UUID, status, inner string) string {
	return "Q?\n<!-- answer-" + id.String() + ":begin+" + status + "+ -->\n" + inner +
		"<!-- answer-" + id.String() + ":end+" + status + "+ -->\n"
}

func TestExecute_PureText(t *testing.T) {
	f := newFixture(t, map[string]string{"notes.md": "Hello\nWorld\n"})

	res, err := f.engine.Execute(context.Background(), "notes")
	require.NoError(t, err)

	assert.Equal(t, agentdoc.ModelContent{agentdoc.User("Hello\n"), agentdoc.User("World\n")}, res.Content)
	assert.Equal(t, "Hello\nWorld\n", f.project.Read("notes.md"))
	assert.Equal(t, int64(1), res.Stats.GetSteps())
	assert.Empty(t, f.engine.Accessor().ModifiedFiles())
}

func TestExecute_Include(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "A\n@include b\nC\n",
		"b.md": "B\n",
	})

	res, err := f.engine.Execute(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"A\n", "B\n", "C\n"}, tt.Texts(res.Content))
	assert.Equal(t, "A\n@include b\nC\n", f.project.Read("a.md"))
	assert.Equal(t, "B\n", f.project.Read("b.md"))
}

func TestExecute_AnswerLifecycle(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n"})
	f.model.AddReply("R.")
	ctx := context.Background()
	path := f.project.Path("q.md")

	c, ok := engine.NewCollector(true).Descent(path)
	require.True(t, ok)
	next, err := f.engine.Worker().ExecuteStep(ctx, c, path)
	require.NoError(t, err)
	assert.Nil(t, next, "a patched step asks for another one")
	assert.Equal(t, answerDoc(id1, "created", ""), f.project.Read("q.md"))

	res, err := f.engine.Execute(ctx, "q")
	require.NoError(t, err)

	assert.Equal(t, answerDoc(id1, "completed", "R.\n"), f.project.Read("q.md"))
	assert.Equal(t, agentdoc.ModelContent{
		agentdoc.User("Q?\n"),
		agentdoc.Agent("model", "R.\n"),
	}, res.Content)

	s, err := state.Load[policies.AnswerState](f.engine.Store(), directive.CommandAnswer, id1)
	require.NoError(t, err)
	assert.Equal(t, policies.AnswerCompleted, s.Status)
	assert.Equal(t, "R.", s.Reply)
	assert.Equal(t, agentdoc.ModelContent{agentdoc.User("Q?\n")}, s.Content)

	require.Equal(t, 1, f.model.CallCount())
	assert.Contains(t, f.model.Queries[0], "Q?")
	assert.Equal(t, []string{
		"answer:->created",
		"answer:created->processing",
		"answer:processing->injecting",
		"answer:injecting->completed",
	}, f.events.Transitions())
}

func TestExecute_RepeatResets(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n"})
	f.model.AddReply("R.").AddReply("R2.")
	ctx := context.Background()

	_, err := f.engine.Execute(ctx, "q")
	require.NoError(t, err)
	before := len(f.events.Transitions())

	f.project.Write("q.md", f.project.Read("q.md")+"@repeat "+id1.String()+"\n")
	res, err := f.engine.Execute(ctx, "q")
	require.NoError(t, err)

	repeatDoc := "<!-- repeat-" + id2.String() + ":begin+completed+ " + id1.String() + " -->\n" +
		"<!-- repeat-" + id2.String() + ":end+completed+ -->\n"
	assert.Equal(t, answerDoc(id1, "completed", "R2.\n")+repeatDoc, f.project.Read("q.md"))
	assert.Equal(t, []string{"Q?\n", "R2.\n"}, tt.Texts(res.Content))
	assert.Equal(t, []string{
		"repeat:->created",
		"answer:completed->repeat",
		"repeat:created->completed",
		"answer:repeat->created",
		"answer:created->processing",
		"answer:processing->injecting",
		"answer:injecting->completed",
	}, f.events.Transitions()[before:])
	assert.Equal(t, 2, f.model.CallCount())

	_, err = f.engine.Execute(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, 2, f.model.CallCount(), "a completed repeat does not fire again")
}

func TestExecute_IncludeCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "@include b",
		"b.md": "@include a",
	})

	res, err := f.engine.Execute(context.Background(), "a")
	require.NoError(t, err)

	assert.Empty(t, res.Content)
	assert.Equal(t, 1, tt.CountEventTypes(f.events.Events())["CycleSkippedEvent"])
	assert.Equal(t, "@include b", f.project.Read("a.md"))
}

func TestExecute_ParseError(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "@answer[unterminated"})
	ctx := context.Background()

	_, err := f.engine.Execute(ctx, "q")
	require.Error(t, err)

	assert.ErrorIs(t, err, agentdoc.ErrParse)
	assert.Equal(t, agentdoc.ExitParse, agentdoc.ExitCode(err))
	assert.True(t, strings.HasPrefix(agentdoc.Describe(err), "q.md:1:8: "), agentdoc.Describe(err))
	assert.Equal(t, "@answer[unterminated", f.project.Read("q.md"))

	hash, err := f.engine.Commit(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.Zero(t, tt.CountEventTypes(f.events.Events())["CommitEvent"])
	assert.Equal(t, 1, tt.CountEventTypes(f.events.Events())["ErrorEvent"])
}

func TestExecute_ModelFailureKeepsProcessing(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n"})
	f.model.AddError(errors.New("upstream unavailable")).AddReply("R.")
	ctx := context.Background()

	_, err := f.engine.Execute(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrModel)
	assert.Equal(t, agentdoc.ExitModel, agentdoc.ExitCode(err))
	assert.Equal(t, answerDoc(id1, "processing", ""), f.project.Read("q.md"))

	status, err := f.engine.Store().Status(directive.CommandAnswer, id1)
	require.NoError(t, err)
	assert.Equal(t, "processing", status)

	_, err = f.engine.Execute(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, answerDoc(id1, "completed", "R.\n"), f.project.Read("q.md"))
}

func TestExecute_HeadersFollowState(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": answerDoc(id1, "created", "R.\n")})
	require.NoError(t, state.Save(f.engine.Store(), directive.CommandAnswer, id1, &policies.AnswerState{
		Version: 1,
		Status:  policies.AnswerCompleted,
		Reply:   "R.",
	}))

	res, err := f.engine.Execute(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, answerDoc(id1, "completed", "R.\n"), f.project.Read("q.md"))
	assert.Equal(t, []string{"Q?\n", "R.\n"}, tt.Texts(res.Content))
	assert.Zero(t, f.model.CallCount())
}

func TestExecute_StaticCommandCannotOwnAnchors(t *testing.T) {
	doc := "<!-- include-" + id1.String() + ":begin+created+ b -->\n" +
		"<!-- include-" + id1.String() + ":end+created+ -->\n"
	f := newFixture(t, map[string]string{"a.md": doc, "b.md": "B\n"})

	_, err := f.engine.Execute(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrPolicyInvariant)
	assert.True(t, engine.IsDirectiveError(err))
	assert.Equal(t, doc, f.project.Read("a.md"))
}

func TestExecute_CorruptStateIsNotOverwritten(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": answerDoc(id1, "completed", "R.\n")})
	f.project.Write("metadata/answer/"+id1.String()+"/state.json", "{not json")

	_, err := f.engine.Execute(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrState)
	assert.Equal(t, agentdoc.ExitState, agentdoc.ExitCode(err))
	assert.Equal(t, "{not json", f.project.Read("metadata/answer/"+id1.String()+"/state.json"))
}

func TestExecute_Canceled(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Execute(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrCanceled)
	assert.Equal(t, "Q?\n@answer\n", f.project.Read("q.md"))
}

func TestExecute_StepLimit(t *testing.T) {
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n"},
		engine.WithLimits(tt.PrefixLimit(agentdoc.SCStepsFor, 2)))
	f.model.WithFallback("R.")

	res, err := f.engine.Execute(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentdoc.ErrLimitExceeded)
	assert.Equal(t, 1, tt.CountEventTypes(f.events.Events())["LimitExceededEvent"])
	assert.Equal(t, int64(3), res.Stats.GetSteps())
}

func TestCollect(t *testing.T) {
	f := newFixture(t, map[string]string{
		"q.md":     "Q?\n@answer\n",
		"done.md":  answerDoc(id1, "completed", "R.\n"),
		"outer.md": "@include done\n",
	})
	require.NoError(t, state.Save(f.engine.Store(), directive.CommandAnswer, id1, &policies.AnswerState{
		Version: 1,
		Status:  policies.AnswerCompleted,
	}))
	ctx := context.Background()

	res, err := f.engine.Collect(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q?\n"}, tt.Texts(res.Content))
	assert.Equal(t, "Q?\n@answer\n", f.project.Read("q.md"))
	assert.False(t, f.engine.Store().Exists(directive.CommandAnswer, id2))

	res, err = f.engine.Collect(ctx, "outer")
	require.NoError(t, err)
	assert.Equal(t, agentdoc.ModelContent{
		agentdoc.User("Q?\n"),
		agentdoc.Agent("model", "R.\n"),
	}, res.Content)
	assert.Empty(t, f.engine.Accessor().ModifiedFiles())
	assert.Zero(t, f.model.CallCount())
}

type recordingCommitter struct {
	paths   []string
	message string
}

func (c *recordingCommitter) Commit(_ context.Context, paths []string, message string) (string, error) {
	c.paths = paths
	c.message = message
	return "c0ffee", nil
}

func TestEngine_Commit(t *testing.T) {
	committer := &recordingCommitter{}
	f := newFixture(t, map[string]string{"q.md": "Q?\n@answer\n", "other.md": "x\n"},
		engine.WithAccessor(fileio.NewAccessor(fileio.WithCommitter(committer))))
	f.model.AddReply("R.")
	ctx := context.Background()

	_, err := f.engine.Execute(ctx, "q")
	require.NoError(t, err)
	_, err = f.engine.Execute(ctx, "other")
	require.NoError(t, err)

	hash, err := f.engine.Commit(ctx, "agentdoc: execute q")
	require.NoError(t, err)
	assert.Equal(t, "c0ffee", hash)
	assert.Equal(t, []string{f.project.Path("q.md")}, committer.paths)
	assert.True(t, strings.HasPrefix(committer.message, "agentdoc: execute q\n\n"))
	assert.Contains(t, committer.message, "q.md: @answer 1b4e28ba none -> created")
	assert.Contains(t, committer.message, "q.md: @answer 1b4e28ba injecting -> completed")
	assert.Equal(t, 1, tt.CountEventTypes(f.events.Events())["CommitEvent"])
	assert.Empty(t, f.engine.Accessor().ModifiedFiles())
}
