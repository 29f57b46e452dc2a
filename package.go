// Package agentdoc is an agentic build engine over Markdown documents.
//
// Documents contain directives. A tag is written by hand on its own line:
//
//	What changed in the last release?
//	@answer[provider=claude]
//
// Executing the document rewrites every tag into a pair of anchor comments owning a region
// of generated text. The anchors carry a UUID that keys the directive's persisted state and
// a visible status:
//
//	What changed in the last release?
//	<!-- answer-0b6e…:begin+completed+[provider=claude] -->
//	The release added ...
//	<!-- answer-0b6e…:end+completed+ -->
//
// Running the engine again is a no-op until a human edits the document, asks for a region to
// be regenerated with @repeat, or feeds more text to a waiting @task.
//
// # Packages
//
// The root package holds the types shared by every layer: [ModelContent] accumulated from a
// document, [Variables] threaded through execution, the [Model] contract, the engine events
// and the error taxonomy. The work is done by subpackages:
//
//   - source, jsonplus, directive: positions, typed values and the document parser
//   - project, fileio, vcs, state: paths under the project root, locked atomic writes, git
//     commits and per-directive state files
//   - engine, policies: the step loop and the built-in directives
//   - models, format: model providers and the rendering of content into a single query
//   - config, logging, events: ambient configuration, zap logging and event dispatch
//
// # Quick Start
//
//	resolver, _ := project.Discover(".")
//	cfg, _ := config.LoadFromRoot(resolver.Root())
//	router, _ := models.NewRouterFromConfig(ctx, cfg)
//	eng := engine.New(resolver, policies.NewRegistry(),
//	    engine.WithModel(router),
//	    engine.WithStore(policies.NewStore(resolver)),
//	)
//	res, err := eng.Execute(ctx, "notes")
//	if err != nil {
//	    os.Exit(agentdoc.ExitCode(err))
//	}
//	fmt.Print(format.NewXML().Flatten(res.Content))
//	_, _ = eng.Commit(ctx, "")
//
// # Errors
//
// Every error returned by the engine matches one of the sentinels ErrParse,
// ErrPathResolution, ErrIO, ErrState, ErrModel, ErrPolicyInvariant, ErrCanceled or
// ErrLimitExceeded. Use [ExitCode] to map an error to the process exit status and [Describe]
// for a single-line summary that includes the offending line:column.
package agentdoc
