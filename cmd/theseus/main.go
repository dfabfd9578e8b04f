// Package main provides the entry point for the theseus CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/theseus/cmd/theseus/commands"
	"github.com/Sumatoshi-tech/theseus/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "theseus",
		Short: "Theseus - code survival analysis over git history",
		Long: `Theseus attributes every live line of a repository to the commit that
introduced it and tracks how code written at different times survives.

Commands:
  analyze   Analyze a repository and export JSON time series
  plot      Render exported series as HTML charts`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "theseus %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
