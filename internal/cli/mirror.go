package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/engine"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
)

var mirrorOutput string

var mirrorCmd = &cobra.Command{
	Use:   "mirror URL...",
	Short: "Fetch from the fastest of several mirror URLs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEngine(true, 0, "")
		if err != nil {
			fail(err)
		}

		var result model.FetchResult
		err = runWithProgress(func(sink engine.ProgressSink) error {
			var mirrorErr error
			result, mirrorErr = e.Mirror(cmd.Context(), args, mirrorOutput, sink)
			return mirrorErr
		})
		if err != nil {
			fail(err)
		}

		if !quiet {
			fmt.Println()
		}
		fmt.Printf("%s  %d bytes from %s  %s\n", result.OutputPath, result.BytesDownloaded, result.URL,
			bandwidth.FormatSpeed(result.SpeedBps))
	},
}

func init() {
	mirrorCmd.Flags().StringVarP(&mirrorOutput, "output", "o", "", "output file path")
	rootCmd.AddCommand(mirrorCmd)
}
