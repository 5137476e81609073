// Package transport builds the HTTP clients Fluxion's Engine issues
// requests through, including an HTTP/3 probe-only path.
//
// The standard client is explicitly configured for HTTP/2 via
// golang.org/x/net/http2.ConfigureTransport rather than left to the
// implicit ForceAttemptHTTP2 default. The HTTP/3 RoundTripper, built on
// github.com/quic-go/quic-go/http3, is used only to negotiate the initial
// probe round-trip when enable_http3 is set, falling back to the HTTP/2
// client on any QUIC dial error, since a full HTTP/3 download stack is out
// of scope.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

// Options configures the clients built by New.
type Options struct {
	VerifyTLS   bool
	Timeout     time.Duration
	Proxy       string
	EnableHTTP3 bool
	// MaxConnections bounds idle keep-alive connections per host; total
	// connections per host are allowed to run to twice that before New
	// callers start blocking on a free connection. 0 keeps the default.
	MaxConnections int
}

const defaultMaxConnections = 16

// ClientSet holds both the always-available HTTP/1.1+HTTP/2 client and,
// when enabled, an HTTP/3 client to attempt first during probing.
type ClientSet struct {
	HTTP  *http.Client
	HTTP3 *http.Client // nil unless Options.EnableHTTP3
}

// New builds a ClientSet per Options.
func New(opts Options) (*ClientSet, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: !opts.VerifyTLS}

	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = defaultMaxConnections
	}
	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		MaxIdleConnsPerHost: maxConns,
		MaxConnsPerHost:     maxConns * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.Proxy != "" {
		proxyURL, err := parseProxy(opts.Proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	set := &ClientSet{
		HTTP: &http.Client{Transport: transport, Timeout: timeout},
	}

	if opts.EnableHTTP3 {
		set.HTTP3 = &http.Client{
			Transport: &http3.Transport{TLSClientConfig: tlsConfig},
			Timeout:   timeout,
		}
	}

	return set, nil
}

func parseProxy(raw string) (*url.URL, error) {
	return url.Parse(raw)
}

// ProbeHTTP3 issues req over HTTP/3 if available, reporting whether the
// attempt itself succeeded at the transport level (a non-2xx/3xx response
// still counts as a successful negotiation). On any dial/handshake error
// it returns ok=false so the caller can fall back to set.HTTP.
func (c *ClientSet) ProbeHTTP3(ctx context.Context, req *http.Request) (resp *http.Response, ok bool) {
	if c.HTTP3 == nil {
		return nil, false
	}
	cloned := req.Clone(ctx)
	resp, err := c.HTTP3.Do(cloned)
	if err != nil {
		return nil, false
	}
	return resp, true
}

// DialTimeout is the connect-stage budget used by the probe's resolver
// check, kept short and independent of the request-scoped timeout.
const DialTimeout = 5 * time.Second

// Resolve performs the DNS lookup phase that precedes TCP connect, used
// by Engine.Probe to populate ProbeResult.ResolvedIP without paying for a
// full request.
func Resolve(ctx context.Context, host string) (string, error) {
	resolver := net.DefaultResolver
	ips, err := resolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", &net.DNSError{Err: "no addresses found", Name: host}
	}
	return ips[0], nil
}
