package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/directive"
	"github.com/rickchristie/agentdoc/fileio"
	"github.com/rickchristie/agentdoc/format"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/state"
)

// Engine executes and collects the documents of one project.
type Engine struct {
	worker *Worker
	limits []agentdoc.Limit
}

// Result is the outcome of Execute and Collect.
type Result struct {
	// Path is the absolute path of the document.
	Path      string
	Content   agentdoc.ModelContent
	Variables agentdoc.Variables
	Stats     *agentdoc.ExecutionStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the model answering @answer. Models that implement agentdoc.Flattener
// flatten their own queries.
func WithModel(model agentdoc.Model) Option {
	return func(e *Engine) {
		e.worker.model = model
		if f, ok := model.(agentdoc.Flattener); ok {
			e.worker.flattener = f
		}
	}
}

// WithFlattener overrides how model content is turned into a query.
func WithFlattener(f agentdoc.Flattener) Option {
	return func(e *Engine) { e.worker.flattener = f }
}

// WithAccessor sets the file accessor. The default accessor has no editor and no committer.
func WithAccessor(a *fileio.Accessor) Option {
	return func(e *Engine) { e.worker.accessor = a }
}

// WithStore sets the state store, for stores carrying schemas.
func WithStore(s *state.Store) Option {
	return func(e *Engine) { e.worker.store = s }
}

// WithEvents sets the publisher receiving engine events.
func WithEvents(p agentdoc.Publisher) Option {
	return func(e *Engine) { e.worker.publisher = p }
}

// WithLimits replaces the default limits.
func WithLimits(limits ...agentdoc.Limit) Option {
	return func(e *Engine) { e.limits = limits }
}

// WithTimeProvider sets the clock used by templates.
func WithTimeProvider(tp agentdoc.TimeProvider) Option {
	return func(e *Engine) { e.worker.time = tp }
}

// WithIDGenerator sets how uuids of new anchor pairs are generated.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(e *Engine) { e.worker.newID = gen }
}

// New creates an engine over the project of resolver, evaluating the commands of registry.
func New(resolver *project.Resolver, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		worker: &Worker{
			resolver:  resolver,
			accessor:  fileio.NewAccessor(),
			store:     state.NewStore(resolver),
			registry:  registry,
			parser:    directive.NewParser(registry.Commands()...),
			flattener: xmlFlattener{format.NewXML()},
			time:      agentdoc.NewDefaultTimeProvider(),
			newID:     uuid.New,
		},
		limits: agentdoc.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the context name to convergence.
func (e *Engine) Execute(ctx context.Context, name string) (*Result, error) {
	return e.run(ctx, name, true)
}

// Collect walks the context name without executing anything.
func (e *Engine) Collect(ctx context.Context, name string) (*Result, error) {
	return e.run(ctx, name, false)
}

func (e *Engine) run(ctx context.Context, name string, execute bool) (*Result, error) {
	r := newRun(e.limits)
	root := newCollector(r, execute, agentdoc.NewVariables(""))
	var c *Collector
	var err error
	if execute {
		c, err = e.worker.Execute(ctx, root, name)
	} else {
		c, err = e.worker.Collect(ctx, root, name)
	}
	if err != nil {
		return &Result{Stats: r.stats}, err
	}
	return &Result{Path: c.Path(), Content: c.Context, Variables: c.Variables, Stats: r.stats}, nil
}

// Commit records every file written since the last commit.
func (e *Engine) Commit(ctx context.Context, title string) (string, error) {
	a := e.worker.accessor
	paths := a.ModifiedFiles()
	message := fileio.CommitMessage(title, a.ModifiedFilesComments())
	hash, err := a.Commit(ctx, title)
	if len(paths) > 0 {
		e.worker.publish(ctx, &agentdoc.CommitEvent{
			Paths: paths, Title: title, Message: message, Hash: hash, Error: err,
		})
	}
	return hash, err
}

// Worker returns the worker of the engine.
func (e *Engine) Worker() *Worker {
	return e.worker
}

// Resolver returns the project resolver.
func (e *Engine) Resolver() *project.Resolver {
	return e.worker.resolver
}

// Accessor returns the file accessor.
func (e *Engine) Accessor() *fileio.Accessor {
	return e.worker.accessor
}

// Store returns the state store.
func (e *Engine) Store() *state.Store {
	return e.worker.store
}

// Parse parses text with the commands of the engine and pairs its anchors.
func (e *Engine) Parse(text string) (*directive.Document, *directive.AnchorIndex, error) {
	return e.worker.parse(text)
}

type xmlFlattener struct {
	format format.Format
}

func (f xmlFlattener) Flatten(_ string, content agentdoc.ModelContent) string {
	return f.format.Flatten(content)
}
