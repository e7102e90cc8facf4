// Package httpx provides HTTP client construction and retry helpers
// shared by the API client.
package httpx

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

const (
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 30 * time.Second
	expectContinueTimeout = 5 * time.Second
)

// NewClient creates an HTTP client tuned for the console's API traffic.
//
// Key features:
//   - Proxy support from the environment (HTTP_PROXY, HTTPS_PROXY, NO_PROXY)
//   - Connection pooling for concurrent listing/commit calls
//   - HTTP/2 with a runtime toggle (DISABLE_HTTP2 env var)
//   - No overall timeout; operations carry their own via context
func NewClient() (*http.Client, error) {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       32,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		ForceAttemptHTTP2:     true,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	// Runtime toggle for HTTP/2 (useful for debugging proxy issues).
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	}

	return &http.Client{
		Transport: tr,
		Timeout:   0,
	}, nil
}
