package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExpandCommand() *cobra.Command {
	var cwd string

	cmd := &cobra.Command{
		Use:   "expand <file> [component]",
		Short: "Print the fully expanded static HTML of a component",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cwd)
			if err != nil {
				return err
			}

			name := "default"
			if len(args) == 2 {
				name = args[1]
			}

			mod, err := p.registry.Load(args[0])
			if err != nil {
				return err
			}
			html, err := p.linker.Expand(mod, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", ".", "Project directory")

	return cmd
}
