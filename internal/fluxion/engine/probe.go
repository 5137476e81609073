package engine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fluxion-dl/fluxion/internal/fluxion/fluxerr"
	"github.com/fluxion-dl/fluxion/internal/fluxion/model"
	"github.com/fluxion-dl/fluxion/internal/fluxion/security"
	"github.com/fluxion-dl/fluxion/internal/fluxion/transport"
)

var transientProbeStatuses = map[int]bool{429: true, 500: true, 502: true, 503: true}
var headFallbackStatuses = map[int]bool{403: true, 405: true, 501: true}

// Probe issues a HEAD (falling back to a zero-length ranged GET on
// {403,405,501}) and populates a ProbeResult. The first attempt is tried
// over HTTP/3 when enabled, falling back to the HTTP/2 client on any QUIC
// dial failure; retries always use the HTTP/2 client.
func (e *Engine) Probe(ctx context.Context, rawURL string, headers map[string]string) (model.ProbeResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.ProbeResult{}, fluxerr.Newf(fluxerr.Protocol, "cannot parse URL %q", rawURL).WithCause(err)
	}

	var resp *http.Response
	var latency time.Duration
	method := http.MethodHead
	attemptHeaders := headers

	for attempt := 1; attempt <= 3; attempt++ {
		req, err := newRequest(ctx, method, rawURL, attemptHeaders)
		if err != nil {
			return model.ProbeResult{}, err
		}
		if method == http.MethodGet {
			req.Header.Set("Range", "bytes=0-0")
		}

		start := time.Now()
		if attempt == 1 {
			if h3resp, ok := e.clients.ProbeHTTP3(ctx, req); ok {
				resp, err = h3resp, nil
			} else {
				resp, err = e.clients.HTTP.Do(req)
			}
		} else {
			resp, err = e.clients.HTTP.Do(req)
		}
		latency = time.Since(start)
		if err != nil {
			decision := e.retry.ClassifyException(err, attempt)
			if !e.retry.ShouldRetry(decision, attempt) {
				return model.ProbeResult{}, fluxerr.New(fluxerr.Network, "probe request failed").WithCause(err)
			}
			time.Sleep(decision.Delay)
			continue
		}

		if headFallbackStatuses[resp.StatusCode] && method == http.MethodHead {
			drainAndClose(resp)
			method = http.MethodGet
			continue
		}

		if transientProbeStatuses[resp.StatusCode] {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			drainAndClose(resp)
			decision := e.retry.ClassifyStatus(resp.StatusCode, attempt)
			if !e.retry.ShouldRetry(decision, attempt) {
				return model.ProbeResult{}, fluxerr.Newf(fluxerr.Network, "probe failed with status %d", resp.StatusCode).WithStatus(resp.StatusCode)
			}
			delay := decision.Delay
			if retryAfter > 0 {
				delay = retryAfter
			}
			time.Sleep(delay)
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode != http.StatusPartialContent {
			drainAndClose(resp)
			return model.ProbeResult{}, fluxerr.Newf(fluxerr.Network, "probe failed with status %d", resp.StatusCode).WithStatus(resp.StatusCode)
		}

		break
	}
	if resp == nil {
		return model.ProbeResult{}, fluxerr.New(fluxerr.Network, "probe exhausted retries without a response")
	}
	defer drainAndClose(resp)

	result := model.ProbeResult{
		HTTPVersion:   resp.Proto,
		Server:        resp.Header.Get("Server"),
		ContentType:   resp.Header.Get("Content-Type"),
		LatencyMs:     float64(latency.Microseconds()) / 1000.0,
		ContentLength: -1,
		Headers:       flattenHeader(resp.Header),
	}

	if ar := resp.Header.Get("Accept-Ranges"); strings.EqualFold(ar, "bytes") {
		result.SupportsRange = true
	}

	if resp.StatusCode == http.StatusPartialContent {
		result.SupportsRange = true
		if total, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
			result.ContentLength = total
		}
	} else if resp.ContentLength >= 0 {
		result.ContentLength = resp.ContentLength
	}

	if cert, err := security.Inspect(ctx, parsed.Hostname(), parsed.Port(), true); err == nil {
		result.TLSVersion = cert.TLSVersion
		result.Cipher = cert.Cipher
		result.CertIssuer = cert.Issuer
		result.CertExpiry = cert.NotAfter
	}

	resolveCtx, cancel := context.WithTimeout(ctx, transport.DialTimeout)
	defer cancel()
	if ip, err := transport.Resolve(resolveCtx, parsed.Hostname()); err == nil {
		result.ResolvedIP = ip
	}

	return result, nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// parseContentRangeTotal parses "bytes 0-0/12345" -> 12345.
func parseContentRangeTotal(header string) (int64, bool) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 || idx == len(header)-1 {
		return 0, false
	}
	totalStr := header[idx+1:]
	if totalStr == "*" {
		return 0, false
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
