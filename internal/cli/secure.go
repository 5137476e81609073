package cli

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/security"
)

var secureFormat string

var secureCmd = &cobra.Command{
	Use:   "secure URL",
	Short: "Inspect a host's TLS certificate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := url.Parse(args[0])
		if err != nil {
			fail(err)
		}

		cert, err := security.Inspect(cmd.Context(), parsed.Hostname(), parsed.Port(), true)
		if err != nil {
			fail(err)
		}

		if secureFormat == "yaml" {
			printYAML(cert)
			return
		}

		fmt.Printf("subject:      %s\n", cert.Subject)
		fmt.Printf("issuer:       %s\n", cert.Issuer)
		fmt.Printf("not-before:   %s\n", cert.NotBefore.Format(time.RFC3339))
		fmt.Printf("not-after:    %s\n", cert.NotAfter.Format(time.RFC3339))
		fmt.Printf("tls-version:  %s\n", cert.TLSVersion)
		fmt.Printf("cipher:       %s\n", cert.Cipher)
		fmt.Printf("fingerprint:  %s\n", cert.FingerprintSHA256)
		if security.ExpiringSoon(cert, time.Now()) {
			fmt.Printf("warning:      certificate expires within %d days\n", security.WarnDays)
		}
	},
}

func init() {
	secureCmd.Flags().StringVar(&secureFormat, "format", "text", "output format: text|yaml")
	rootCmd.AddCommand(secureCmd)
}
