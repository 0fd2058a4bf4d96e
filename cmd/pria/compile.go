package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recera/pria/internal/cache"
	"github.com/recera/pria/pkg/compiler"
)

func newCompileCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a component file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			code, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			mod, err := cache.Compile(compiler.ModuleOptions{RewriteImport: rewriteImport})(file, code)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(mod)
			}
			printModule(out, mod)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the module as JSON")

	return cmd
}

func printModule(w io.Writer, mod *compiler.Module) {
	for _, name := range mod.Order {
		comp := mod.Components[name]
		exported := ""
		if comp.Exported {
			exported = " (exported)"
		}
		fmt.Fprintf(w, "── %s%s, %d effects\n", name, exported, comp.Effects)
		fmt.Fprintf(w, "%s\n", comp.HTML)
		for _, dep := range comp.Deps {
			fmt.Fprintf(w, "   depends on %s from %s\n", dep.Name, dep.FilePath)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "── script")
	fmt.Fprintln(w, mod.Script)
}
