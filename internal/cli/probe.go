package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var probeNoVerify bool

var probeCmd = &cobra.Command{
	Use:   "probe URL",
	Short: "Inspect a resource without downloading it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := newEngine(!probeNoVerify, 0, "")
		if err != nil {
			fail(err)
		}

		result, err := e.Probe(cmd.Context(), args[0], nil)
		if err != nil {
			fail(err)
		}

		fmt.Printf("protocol:        %s\n", result.HTTPVersion)
		fmt.Printf("server:          %s\n", result.Server)
		fmt.Printf("content-type:    %s\n", result.ContentType)
		fmt.Printf("content-length:  %d\n", result.ContentLength)
		fmt.Printf("supports-range:  %v\n", result.SupportsRange)
		fmt.Printf("latency:         %.1f ms\n", result.LatencyMs)
		if result.TLSVersion != "" {
			fmt.Printf("tls:             %s (%s)\n", result.TLSVersion, result.Cipher)
			fmt.Printf("cert-issuer:     %s\n", result.CertIssuer)
			fmt.Printf("cert-expiry:     %s\n", result.CertExpiry.Format("2006-01-02"))
		}
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeNoVerify, "no-verify", false, "disable TLS certificate verification")
	rootCmd.AddCommand(probeCmd)
}
