package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/pria/pkg/debug"
)

var (
	version = "0.1.0-preview"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var debugLogging bool

	var rootCmd = &cobra.Command{
		Use:   "pria",
		Short: "Pria - a compiler for reactive JSX components",
		Long: `Pria compiles JSX components into static HTML templates plus binding
scripts that hydrate them with fine-grained reactive updates.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugLogging {
				debug.EnableLogging(os.Stderr)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newDevCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err, true))
		os.Exit(1)
	}
}
