package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	benchNoVerify bool
	benchSamples  int
	benchFormat   string
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Measure link latency and throughput",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEngine(!benchNoVerify, 0, "")
		if err != nil {
			fail(err)
		}

		result, err := e.Bench(cmd.Context(), args[0], benchSamples)
		if err != nil {
			fail(err)
		}

		if benchFormat == "yaml" {
			printYAML(result)
			return
		}

		fmt.Printf("samples:     %d (failures: %d)\n", result.Samples, result.Failures)
		fmt.Printf("min/avg/max: %.1f / %.1f / %.1f ms\n", result.MinMs, result.AvgMs, result.MaxMs)
		fmt.Printf("p50/p95/p99: %.1f / %.1f / %.1f ms\n", result.P50Ms, result.P95Ms, result.P99Ms)
		fmt.Printf("jitter:      %.1f ms\n", result.JitterMs)
		fmt.Printf("stability:   %.2f\n", result.Stability)
		fmt.Printf("throughput:  %.2f Mbps\n", result.ThroughputMbps)
	},
}

func init() {
	benchCmd.Flags().BoolVar(&benchNoVerify, "no-verify", false, "disable TLS certificate verification")
	benchCmd.Flags().IntVarP(&benchSamples, "n", "n", 10, "number of probe samples")
	benchCmd.Flags().StringVar(&benchFormat, "format", "text", "output format: text|yaml")
	rootCmd.AddCommand(benchCmd)
}
