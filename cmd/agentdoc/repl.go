package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/project"
	"github.com/spf13/cobra"
)

// lineReader is the part of readline the shell uses.
type lineReader interface {
	Readline() (string, error)
}

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell",
		Long: `Reads commands line by line. Each line is a command as given on the command
line, such as "execute notes" or "collect notes --json". "quit" leaves the shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logDir := filepath.Join(a.resolver.Root(), project.LogDir)
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return fmt.Errorf("%w: %w", agentdoc.ErrIO, err)
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "agentdoc> ",
				HistoryFile: filepath.Join(logDir, "repl_history"),
				AutoComplete: readline.NewPrefixCompleter(
					readline.PcItem("execute"),
					readline.PcItem("collect"),
					readline.PcItem("eat"),
					readline.PcItem("help"),
					readline.PcItem("quit"),
				),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()
			return a.repl(cmd.Context(), rl, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// repl runs every line of rl as a command until quit, end of input or cancellation. Failed
// commands are reported and the shell goes on.
func (a *app) repl(ctx context.Context, rl lineReader, stdout, stderr io.Writer) error {
	for {
		if ctx.Err() != nil {
			return agentdoc.Canceled(ctx)
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit":
			return nil
		case "repl", "init":
			fmt.Fprintf(stderr, "%s is not available in the shell\n", args[0])
			continue
		}

		cmd := newRootCmd(a)
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		if err := cmd.ExecuteContext(ctx); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", agentdoc.Describe(err))
		}
	}
}
