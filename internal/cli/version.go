package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fluxion version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
