package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/logging"
	"github.com/rickchristie/agentdoc/policies"
	"github.com/rickchristie/agentdoc/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type executeOptions struct {
	parallel bool
	title    string
	noCommit bool
	diff     bool
}

func newExecuteCmd(a *app) *cobra.Command {
	var opts executeOptions
	cmd := &cobra.Command{
		Use:   "execute <context>...",
		Short: "Run contexts until every directive in them has converged",
		Long: `Runs each context until a pass over it changes nothing, then commits the
modified documents in one commit.

--parallel runs the contexts concurrently. Use it for contexts that do not include
one another.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.parallel, "parallel", "p", false, "execute the contexts concurrently")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "commit title")
	cmd.Flags().BoolVar(&opts.noCommit, "no-commit", false, "leave the modified documents uncommitted")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print a diff of every document write")
	return cmd
}

func (a *app) execute(cmd *cobra.Command, names []string, opts executeOptions) error {
	ctx := cmd.Context()
	var subscribers []any
	if opts.diff {
		subscribers = append(subscribers, &diffPrinter{w: cmd.OutOrStdout(), resolver: a.resolver})
	}
	e, err := a.newEngine(ctx, subscribers...)
	if err != nil {
		return err
	}

	runErr := a.runContexts(ctx, e, names, opts.parallel, cmd.OutOrStdout())
	if opts.noCommit {
		return runErr
	}
	title := opts.title
	if title == "" {
		title = "agentdoc: execute " + strings.Join(names, " ")
	}
	// Documents written before a failure are committed too.
	if err := a.commit(ctx, e, title); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// runContexts executes names one after the other, or all at once when parallel is set. It
// reports every converged context to out.
func (a *app) runContexts(ctx context.Context, e *engine.Engine, names []string, parallel bool, out io.Writer) error {
	var mu sync.Mutex
	runOne := func(ctx context.Context, name string) error {
		res, err := e.Execute(ctx, name)
		if err != nil {
			return err
		}
		a.logger.Info("context converged",
			zap.String("context", name),
			zap.Int64("steps", res.Stats.GetSteps()),
			zap.Int64("model_calls", res.Stats.GetModelCalls()),
		)
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s: converged after %d steps, %d model calls\n",
			name, res.Stats.GetSteps(), res.Stats.GetModelCalls())
		return nil
	}

	if !parallel {
		for _, name := range names {
			if err := runOne(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			return runOne(gctx, name)
		})
	}
	return g.Wait()
}

func (a *app) commit(ctx context.Context, e *engine.Engine, title string) error {
	hash, err := e.Commit(ctx, title)
	if err != nil {
		return err
	}
	if hash != "" {
		a.logger.Info("committed", zap.String("hash", hash), zap.String("title", title))
	}
	return nil
}

func newEatCmd(a *app) *cobra.Command {
	var noCommit bool
	cmd := &cobra.Command{
		Use:   "eat <context> <task-uuid>",
		Short: "Move the text written below a waiting task into it",
		Long: `Marks the waiting task as eating and executes the context. The text between
the task and the next directive, or the end of the document, moves inside the task.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("%w: invalid task uuid %q", agentdoc.ErrParse, args[1])
			}
			e, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			if err := policies.MarkEating(ctx, e, name, id); err != nil {
				return err
			}
			runErr := a.runContexts(ctx, e, []string{name}, false, cmd.OutOrStdout())
			if noCommit {
				return runErr
			}
			if err := a.commit(ctx, e, fmt.Sprintf("agentdoc: eat %s %s", name, id.String()[:8])); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "leave the modified document uncommitted")
	return cmd
}

// diffPrinter writes a unified diff of every patched document.
type diffPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	resolver *project.Resolver
}

func (p *diffPrinter) OnAfterStep(_ context.Context, e *agentdoc.AfterStepEvent) {
	if e.Patches == 0 {
		return
	}
	name, err := p.resolver.Relative(e.Path)
	if err != nil {
		name = e.Path
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, logging.Diff(name, e.Before, e.After))
}
