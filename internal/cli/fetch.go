package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxion-dl/fluxion/internal/fluxion/bandwidth"
	"github.com/fluxion-dl/fluxion/internal/fluxion/config"
	"github.com/fluxion-dl/fluxion/internal/fluxion/engine"
	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/stealth"
)

var (
	fetchOutput          string
	fetchConnections     int
	fetchNoResume        bool
	fetchNoVerify        bool
	fetchTimeout         float64
	fetchProxy           string
	fetchSHA256          string
	fetchHeaders         []string
	fetchCookies         []string
	fetchCookieFile      string
	fetchBrowserCookies  string
	fetchBrowserProfile  string
	fetchReferer         string
	fetchMode            string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Download a resource with adaptive parallel ranges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req, err := buildFetchRequest(args[0])
		if err != nil {
			fail(err)
		}

		e, err := newEngineWithConnections(req.VerifyTLS, req.Timeout, req.Proxy, req.MaxConnections)
		if err != nil {
			fail(err)
		}

		var result model.FetchResult
		err = runWithProgress(func(sink engine.ProgressSink) error {
			var fetchErr error
			result, fetchErr = e.Fetch(cmd.Context(), req, sink)
			return fetchErr
		})
		if err != nil {
			fail(err)
		}

		if !quiet {
			fmt.Println()
		}
		fmt.Printf("%s  %d bytes  %s  sha256:%s\n", result.OutputPath, result.BytesDownloaded,
			bandwidth.FormatSpeed(result.SpeedBps), result.SHA256)
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output file path")
	fetchCmd.Flags().IntVarP(&fetchConnections, "connections", "c", 8, "max concurrent connections")
	fetchCmd.Flags().BoolVar(&fetchNoResume, "no-resume", false, "disable resume from partial output")
	fetchCmd.Flags().BoolVar(&fetchNoVerify, "no-verify", false, "disable TLS certificate verification")
	fetchCmd.Flags().Float64Var(&fetchTimeout, "timeout", 30, "request timeout in seconds")
	fetchCmd.Flags().StringVar(&fetchProxy, "proxy", "", "proxy URL")
	fetchCmd.Flags().StringVar(&fetchSHA256, "sha256", "", "expected SHA-256 digest")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaders, "header", "H", nil, "custom header NAME:VALUE")
	fetchCmd.Flags().StringArrayVar(&fetchCookies, "cookie", nil, "cookie NAME=VALUE")
	fetchCmd.Flags().StringVar(&fetchCookieFile, "cookie-file", "", "cookie file (Netscape or JSON)")
	fetchCmd.Flags().StringVar(&fetchBrowserCookies, "browser-cookies", "", "import cookies from a browser profile")
	fetchCmd.Flags().StringVar(&fetchBrowserProfile, "browser-profile", "", "impersonate a browser fingerprint")
	fetchCmd.Flags().StringVar(&fetchReferer, "referer", "", "Referer header")
	fetchCmd.Flags().StringVar(&fetchMode, "mode", "", "transfer mode: smart|parallel|single|stream|mirror")
	rootCmd.AddCommand(fetchCmd)
}

func buildFetchRequest(url string) (model.FetchRequest, error) {
	cfg, _ := config.Load()

	req := model.DefaultFetchRequest(url)
	req.OutputPath = fetchOutput
	req.MaxConnections = fetchConnections
	req.Resume = !fetchNoResume
	req.VerifyTLS = !fetchNoVerify
	req.Timeout = time.Duration(fetchTimeout * float64(time.Second))
	req.Proxy = config.ResolveProxy(fetchProxy, cfg.Proxy)
	req.ExpectedSHA256 = fetchSHA256
	req.Referer = fetchReferer
	req.RetryPreservesPartial = cfg.RetryPreservesPartial

	if fetchBrowserProfile != "" {
		req.BrowserProfile = fetchBrowserProfile
	} else {
		req.BrowserProfile = cfg.DefaultBrowserProfile
	}

	for _, h := range fetchHeaders {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return model.FetchRequest{}, fmt.Errorf("malformed header %q, expected NAME:VALUE", h)
		}
		req.Headers = append(req.Headers, model.Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}

	for _, c := range fetchCookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok {
			return model.FetchRequest{}, fmt.Errorf("malformed cookie %q, expected NAME=VALUE", c)
		}
		req.Cookies = append(req.Cookies, model.Header{Name: name, Value: value})
	}

	if fetchBrowserCookies != "" {
		return model.FetchRequest{}, fluxerr.Newf(fluxerr.Stealth, "--browser-cookies %q is not supported", fetchBrowserCookies).
			WithSuggestion("export cookies from the browser yourself and pass them with --cookie-file")
	}
	if fetchCookieFile != "" {
		jar, err := stealth.LoadFile(fetchCookieFile)
		if err != nil {
			return model.FetchRequest{}, err
		}
		for name, value := range jar.AsMap() {
			req.Cookies = append(req.Cookies, model.Header{Name: name, Value: value})
		}
	}

	if mode, ok := model.ParseFluxMode(fetchMode); ok {
		req.Mode = mode
	} else {
		return model.FetchRequest{}, fmt.Errorf("unknown --mode %q", fetchMode)
	}

	return req, nil
}

func printProgress(stats model.TransferStats) {
	if stats.BytesTotal > 0 {
		pct := float64(stats.BytesDone) / float64(stats.BytesTotal) * 100
		fmt.Printf("\r%s  %.1f%%  %s      ", stats.Phase, pct, bandwidth.FormatSpeed(stats.SpeedBps))
	} else {
		fmt.Printf("\r%s  %d bytes  %s      ", stats.Phase, stats.BytesDone, bandwidth.FormatSpeed(stats.SpeedBps))
	}
}
