package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/config"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/events"
	"github.com/rickchristie/agentdoc/fileio"
	"github.com/rickchristie/agentdoc/logging"
	"github.com/rickchristie/agentdoc/models"
	"github.com/rickchristie/agentdoc/policies"
	"github.com/rickchristie/agentdoc/project"
	"github.com/rickchristie/agentdoc/vcs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// skipSetup marks commands that run without a project.
const skipSetup = "skip-setup"

// app is the state shared by the commands of one process.
type app struct {
	dir     string
	verbose bool

	resolver *project.Resolver
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error

	// model replaces the configured providers when set.
	model agentdoc.Model
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentdoc",
		Short: "Execute agentic Markdown documents",
		Long: `agentdoc walks Markdown documents and runs the directives written in them.

Directives start a line with @ (for example @include notes or @answer). Dynamic
directives are rewritten into anchor comments whose state lives under metadata/,
and every execution runs until no directive has anything left to do.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "directory inside the project")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newInitCmd(a),
		newExecuteCmd(a),
		newEatCmd(a),
		newCollectCmd(a),
		newReplCmd(a),
	)
	return root
}

// setup finds the project, loads its configuration and opens the log. It runs once per
// process.
func (a *app) setup(cmd *cobra.Command) error {
	if a.resolver != nil {
		return nil
	}
	resolver, err := project.Discover(a.dir)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromRoot(resolver.Root())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	var file string
	if cfg.Logging.File != "" {
		file = filepath.Join(resolver.Root(), cfg.Logging.File)
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		File:    file,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	a.resolver, a.cfg, a.logger, a.closeLog = resolver, cfg, logger, closeLog
	a.logger.Debug("project loaded",
		zap.String("root", resolver.Root()),
		zap.String("default_provider", cfg.DefaultProvider),
	)
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}

// newEngine builds an engine over the project with the configured providers, editor
// handshake and committer. subscribers receive engine events next to the log.
func (a *app) newEngine(ctx context.Context, subscribers ...any) (*engine.Engine, error) {
	model := a.model
	if model == nil {
		router, err := models.NewRouterFromConfig(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		model = router
	}

	var accessorOpts []fileio.Option
	if a.cfg.Editor.Enabled() {
		editor := fileio.NewEditorClient(a.cfg.Editor.RequestFile, a.cfg.Editor.ResponseFile).
			WithTimeout(a.cfg.GetEditorTimeout()).
			WithPollInterval(a.cfg.GetEditorPollInterval())
		accessorOpts = append(accessorOpts, fileio.WithEditor(editor))
	}
	if a.cfg.VCS.Enabled {
		committer := vcs.NewCommitter(a.resolver.Root()).
			WithAuthor(a.cfg.VCS.AuthorName, a.cfg.VCS.AuthorEmail)
		accessorOpts = append(accessorOpts, fileio.WithCommitter(committer))
	}

	publisher := events.NewRegistry().Subscribe(logging.NewSubscriber(a.logger))
	for _, s := range subscribers {
		publisher.Subscribe(s)
	}

	return engine.New(a.resolver, policies.NewRegistry(),
		engine.WithModel(model),
		engine.WithEvents(publisher),
		engine.WithAccessor(fileio.NewAccessor(accessorOpts...)),
		engine.WithStore(policies.NewStore(a.resolver)),
		engine.WithLimits(agentdoc.StepLimits(a.cfg.Engine.MaxSteps)...),
	), nil
}
