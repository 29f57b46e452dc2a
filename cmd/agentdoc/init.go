package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rickchristie/agentdoc/config"
	"github.com/rickchristie/agentdoc/project"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Make a directory a project root",
		Long: `Writes the project marker, a .gitignore excluding logs and metadata, and a
default engine.yaml. Files that already exist are left alone.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.dir
			if len(args) == 1 {
				dir = args[0]
			}
			resolver, err := project.Init(dir)
			if err != nil {
				return err
			}

			path := filepath.Join(resolver.Root(), config.FileName)
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.DefaultConfig().Save(path); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized project in %s\n", resolver.Root())
			return nil
		},
	}
}
