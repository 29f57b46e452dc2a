package logging

import (
	"context"

	"github.com/rickchristie/agentdoc"
	"go.uber.org/zap"
)

// Subscriber logs engine events. Register it with events.Registry.
type Subscriber struct {
	logger *zap.Logger
}

// NewSubscriber creates a subscriber logging to logger.
func NewSubscriber(logger *zap.Logger) *Subscriber {
	return &Subscriber{logger: logger}
}

func (s *Subscriber) OnBeforeStep(_ context.Context, e *agentdoc.BeforeStepEvent) {
	s.logger.Debug("step started",
		zap.String("path", e.Path),
		zap.Int("step", e.Step),
		zap.Bool("execute", e.Execute),
	)
}

func (s *Subscriber) OnAfterStep(_ context.Context, e *agentdoc.AfterStepEvent) {
	fields := []zap.Field{
		zap.String("path", e.Path),
		zap.Int("step", e.Step),
		zap.Bool("execute", e.Execute),
		zap.Int("patches", e.Patches),
		zap.Duration("duration", e.Duration),
	}
	if e.Patches == 0 {
		s.logger.Debug("document converged", fields...)
		return
	}
	s.logger.Info("document patched", fields...)
	if ce := s.logger.Check(zap.DebugLevel, "document diff"); ce != nil {
		ce.Write(zap.String("path", e.Path), zap.String("diff", Diff(e.Path, e.Before, e.After)))
	}
}

func (s *Subscriber) OnCycleSkipped(_ context.Context, e *agentdoc.CycleSkippedEvent) {
	s.logger.Info("include cycle skipped",
		zap.String("path", e.Path),
		zap.Strings("stack", e.Stack),
	)
}

func (s *Subscriber) OnStateTransition(_ context.Context, e *agentdoc.StateTransitionEvent) {
	s.logger.Info("directive transition",
		zap.String("path", e.Path),
		zap.String("command", e.Command),
		zap.String("uuid", e.UUID),
		zap.String("from", e.From),
		zap.String("to", e.To),
	)
}

func (s *Subscriber) OnBeforeModelCall(_ context.Context, e *agentdoc.BeforeModelCallEvent) {
	s.logger.Debug("model call",
		zap.String("provider", e.Provider),
		zap.Int("query_bytes", len(e.Query)),
	)
}

func (s *Subscriber) OnAfterModelCall(_ context.Context, e *agentdoc.AfterModelCallEvent) {
	fields := []zap.Field{
		zap.String("provider", e.Provider),
		zap.Duration("duration", e.Duration),
		zap.Int("reply_bytes", len(e.Reply)),
	}
	if e.Error != nil {
		s.logger.Warn("model call failed", append(fields, zap.Error(e.Error))...)
		return
	}
	s.logger.Info("model call completed", fields...)
}

func (s *Subscriber) OnCommit(_ context.Context, e *agentdoc.CommitEvent) {
	fields := []zap.Field{
		zap.Strings("paths", e.Paths),
		zap.String("title", e.Title),
		zap.String("hash", e.Hash),
	}
	if e.Error != nil {
		s.logger.Error("commit failed", append(fields, zap.Error(e.Error))...)
		return
	}
	if e.Hash == "" {
		s.logger.Debug("nothing committed", fields...)
		return
	}
	s.logger.Info("committed", fields...)
}

func (s *Subscriber) OnLimitExceeded(_ context.Context, e *agentdoc.LimitExceededEvent) {
	s.logger.Warn("limit exceeded",
		zap.String("key", e.Key),
		zap.Float64("value", e.Value),
		zap.Float64("max", e.Limit.MaxValue),
	)
}

func (s *Subscriber) OnError(_ context.Context, e *agentdoc.ErrorEvent) {
	s.logger.Error("step failed",
		zap.String("path", e.Path),
		zap.String("summary", agentdoc.Describe(e.Err)),
		zap.Error(e.Err),
	)
}

var (
	_ agentdoc.BeforeStepSubscriber      = (*Subscriber)(nil)
	_ agentdoc.AfterStepSubscriber       = (*Subscriber)(nil)
	_ agentdoc.CycleSkippedSubscriber    = (*Subscriber)(nil)
	_ agentdoc.StateTransitionSubscriber = (*Subscriber)(nil)
	_ agentdoc.BeforeModelCallSubscriber = (*Subscriber)(nil)
	_ agentdoc.AfterModelCallSubscriber  = (*Subscriber)(nil)
	_ agentdoc.CommitSubscriber          = (*Subscriber)(nil)
	_ agentdoc.LimitExceededSubscriber   = (*Subscriber)(nil)
	_ agentdoc.ErrorSubscriber           = (*Subscriber)(nil)
)
