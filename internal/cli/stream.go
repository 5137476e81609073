package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/stealth"
)

var (
	streamNoVerify       bool
	streamHeaders        []string
	streamCookies        []string
	streamBrowserProfile string
	streamReferer        string
)

var streamCmd = &cobra.Command{
	Use:   "stream URL",
	Short: "Stream a resource's body to stdout",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := model.DefaultFetchRequest(args[0])
		req.VerifyTLS = !streamNoVerify
		req.Referer = streamReferer
		req.BrowserProfile = streamBrowserProfile

		for _, h := range streamHeaders {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				fail(fmt.Errorf("malformed header %q, expected NAME:VALUE", h))
			}
			req.Headers = append(req.Headers, model.Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
		}
		for _, c := range streamCookies {
			name, value, ok := strings.Cut(c, "=")
			if !ok {
				fail(fmt.Errorf("malformed cookie %q, expected NAME=VALUE", c))
			}
			req.Cookies = append(req.Cookies, model.Header{Name: name, Value: value})
		}

		stealthCtx, err := stealth.BuildFromRequest(req)
		if err != nil {
			fail(err)
		}
		headers := stealthCtx.BuildHeaders()

		e, err := newEngine(req.VerifyTLS, req.Timeout, "")
		if err != nil {
			fail(err)
		}

		chunks, err := e.Stream(cmd.Context(), req.URL, headers)
		if err != nil {
			fail(err)
		}
		for chunk := range chunks {
			if chunk.Err != nil {
				fail(chunk.Err)
			}
			os.Stdout.Write(chunk.Data)
		}
	},
}

func init() {
	streamCmd.Flags().BoolVar(&streamNoVerify, "no-verify", false, "disable TLS certificate verification")
	streamCmd.Flags().StringArrayVarP(&streamHeaders, "header", "H", nil, "custom header NAME:VALUE")
	streamCmd.Flags().StringArrayVar(&streamCookies, "cookie", nil, "cookie NAME=VALUE")
	streamCmd.Flags().StringVar(&streamBrowserProfile, "browser-profile", "", "impersonate a browser fingerprint")
	streamCmd.Flags().StringVar(&streamReferer, "referer", "", "Referer header")
	rootCmd.AddCommand(streamCmd)
}
