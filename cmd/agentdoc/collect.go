package main

import (
	"encoding/json"
	"fmt"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/format"
	"github.com/spf13/cobra"
)

// collectOutput is what collect --json prints.
type collectOutput struct {
	Context   string                `json:"context"`
	Content   agentdoc.ModelContent `json:"content"`
	Variables map[string]any        `json:"variables"`
}

func newCollectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "collect <context>",
		Short: "Print the content a context contributes, without executing it",
		Long: `Walks the context and everything it includes as it is on disk. Nothing is
written and no model is called; directives that have not finished contribute
nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine(cmd.Context())
			if err != nil {
				return err
			}
			res, err := e.Collect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				_, err := fmt.Fprint(out, format.NewXML().Flatten(res.Content))
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(collectOutput{
				Context:   args[0],
				Content:   res.Content,
				Variables: res.Variables.Map(),
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the content as JSON")
	return cmd
}
