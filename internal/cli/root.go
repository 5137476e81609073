package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/version"
)

var (
	plain bool
	quiet bool
)

var rootCmd = &cobra.Command{
	Use:     "flux",
	Short:   "Adaptive parallel-range network transport engine",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "bypass the progress TUI and color output, for scripting")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress progress output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func fail(err error) {
	if plain {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
	}
	os.Exit(1)
}
