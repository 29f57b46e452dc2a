package events

import (
	"context"
	"testing"

	"github.com/rickchristie/agentdoc"
	"github.com/stretchr/testify/assert"
)

// -----------------------------------------------------------------------------
// Test Subscribers
// -----------------------------------------------------------------------------

type recordingSubscriber struct {
	received []string
}

func (s *recordingSubscriber) OnBeforeStep(_ context.Context, e *agentdoc.BeforeStepEvent) {
	s.received = append(s.received, "before-step")
}

func (s *recordingSubscriber) OnAfterStep(_ context.Context, e *agentdoc.AfterStepEvent) {
	s.received = append(s.received, "after-step")
}

func (s *recordingSubscriber) OnCycleSkipped(_ context.Context, e *agentdoc.CycleSkippedEvent) {
	s.received = append(s.received, "cycle")
}

func (s *recordingSubscriber) OnStateTransition(_ context.Context, e *agentdoc.StateTransitionEvent) {
	s.received = append(s.received, "transition:"+e.From+"->"+e.To)
}

func (s *recordingSubscriber) OnBeforeModelCall(_ context.Context, e *agentdoc.BeforeModelCallEvent) {
	s.received = append(s.received, "before-model")
}

func (s *recordingSubscriber) OnAfterModelCall(_ context.Context, e *agentdoc.AfterModelCallEvent) {
	s.received = append(s.received, "after-model")
}

func (s *recordingSubscriber) OnCommit(_ context.Context, e *agentdoc.CommitEvent) {
	s.received = append(s.received, "commit")
}

func (s *recordingSubscriber) OnLimitExceeded(_ context.Context, e *agentdoc.LimitExceededEvent) {
	s.received = append(s.received, "limit")
}

func (s *recordingSubscriber) OnError(_ context.Context, e *agentdoc.ErrorEvent) {
	s.received = append(s.received, "error")
}

type commitOnly struct {
	events []*agentdoc.CommitEvent
}

func (s *commitOnly) OnCommit(_ context.Context, e *agentdoc.CommitEvent) {
	s.events = append(s.events, e)
}

type unknownEvent struct{ agentdoc.ErrorEvent }

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestRegistry_Dispatch(t *testing.T) {
	all := &recordingSubscriber{}
	commits := &commitOnly{}
	registry := NewRegistry().Subscribe(all).Subscribe(commits).Subscribe(struct{}{})
	assert.Equal(t, 3, registry.Len())

	ctx := context.Background()
	commit := &agentdoc.CommitEvent{Title: "t", Hash: "abc"}
	for _, e := range []agentdoc.Event{
		&agentdoc.BeforeStepEvent{},
		&agentdoc.AfterStepEvent{},
		&agentdoc.CycleSkippedEvent{},
		&agentdoc.StateTransitionEvent{From: "created", To: "processing"},
		&agentdoc.BeforeModelCallEvent{},
		&agentdoc.AfterModelCallEvent{},
		commit,
		&agentdoc.LimitExceededEvent{},
		&agentdoc.ErrorEvent{},
		&unknownEvent{},
	} {
		registry.Dispatch(ctx, e)
	}

	assert.Equal(t, []string{
		"before-step", "after-step", "cycle", "transition:created->processing",
		"before-model", "after-model", "commit", "limit", "error",
	}, all.received)
	assert.Equal(t, []*agentdoc.CommitEvent{commit}, commits.events)
}

func TestRegistry_Clear(t *testing.T) {
	sub := &recordingSubscriber{}
	registry := NewRegistry().Subscribe(sub)
	registry.Clear()
	assert.Equal(t, 0, registry.Len())

	registry.Dispatch(context.Background(), &agentdoc.ErrorEvent{})
	assert.Empty(t, sub.received)
}

func TestRegistry_Nil(t *testing.T) {
	var registry *Registry
	assert.NotPanics(t, func() {
		registry.Dispatch(context.Background(), &agentdoc.ErrorEvent{})
	})
}
