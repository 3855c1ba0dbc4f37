package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time.
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fatesmith",
		Short: "Fatesmith procedural content generation engine",
		Long: `Fatesmith renders text from declarative collections of random tables,
templates and variables. Patterns embed directives in double braces:
dice rolls, math, weighted table lookups, captures and more.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rollCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
